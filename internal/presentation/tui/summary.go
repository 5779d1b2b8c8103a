package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/foreman/pkg/domain"
	"github.com/muesli/termenv"
)

// MaxFactWidth truncates facts in summaries.
const MaxFactWidth = 200

var agentColors = map[domain.AgentName]string{
	domain.AgentSupervisor: "#a78bfa",
	domain.AgentResearch:   "#38bdf8",
	domain.AgentWriting:    "#34d399",
}

func rule() string { return strings.Repeat("=", 60) }

// WriteSummary prints the outcome of a run: task kind, iterations, facts and
// the final draft rendered through render.
func WriteSummary(w io.Writer, s *domain.State, render RenderFunc) {
	fmt.Fprintf(w, "\n%s\nWORKFLOW SUMMARY\n%s\n", rule(), rule())
	fmt.Fprintf(w, "\nRun:        %s\n", s.RunID)
	fmt.Fprintf(w, "Task Type:  %s\n", strings.ToUpper(string(s.TaskKind)))
	fmt.Fprintf(w, "Iterations: %d\n", s.StepCount)
	fmt.Fprintf(w, "Phase:      %s\n", s.Phase)

	if len(s.Facts) > 0 {
		fmt.Fprintf(w, "\nResearch Facts Gathered (%d):\n%s\n", len(s.Facts), strings.Repeat("-", 60))
		for i, f := range s.Facts {
			fmt.Fprintf(w, "  %d. %s\n", i+1, Truncate(f.Snippet, MaxFactWidth))
		}
	}

	if s.Failure != nil {
		fmt.Fprintf(w, "\nRun failed: %s\n", s.Failure.Error())
	}

	if s.Draft == "" {
		fmt.Fprintln(w, "\nNo output generated")
		return
	}

	fmt.Fprintf(w, "\n%s\nFINAL OUTPUT\n%s\n", rule(), rule())
	WriteDraft(w, s.Draft, render)
	fmt.Fprintln(w, rule())
}

// WriteDraft prints the draft, falling back to raw text when rendering fails.
func WriteDraft(w io.Writer, draft string, render RenderFunc) {
	if render == nil {
		render = PlainRenderer
	}
	out, err := render(draft)
	if err != nil {
		out = draft
	}
	fmt.Fprintf(w, "\n%s\n", strings.TrimRight(out, "\n"))
}

// Truncate shortens s to n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// StepPrinter returns an observer that prints each committed turn.
func StepPrinter(w io.Writer) func(ctx context.Context, prev, next *domain.State) {
	p := termenv.ColorProfile()
	return func(_ context.Context, _, next *domain.State) {
		t, ok := next.LastTurn()
		if !ok {
			return
		}
		name := termenv.String(fmt.Sprintf("%-10s", t.Agent)).Bold()
		if c, ok := agentColors[t.Agent]; ok {
			name = name.Foreground(p.Color(c))
		}
		marker := "•"
		if t.Outcome == domain.OutcomeFailed {
			marker = termenv.String("✗").Foreground(p.Color("#f87171")).String()
		}
		fmt.Fprintf(w, "%s [%d] %s %s\n", marker, next.StepCount, name, t.Summary)
	}
}
