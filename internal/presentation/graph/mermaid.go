package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/foreman/pkg/domain"
)

// Overlay contains dynamic run data to visualize on the graph.
type Overlay struct {
	Visited []string
	Current string
	// Failure marks the run as failed from the Current node.
	Failure *domain.Failure
}

// OverlayFromState derives the overlay of a run.
func OverlayFromState(s *domain.State) *Overlay {
	o := &Overlay{Failure: s.Failure}
	for _, a := range s.Visited() {
		o.Visited = append(o.Visited, string(a))
	}

	switch {
	case s.Phase == domain.PhaseDone:
		o.Visited = append(o.Visited, "done")
		o.Current = "done"
	case s.Failure != nil:
		if t, ok := s.LastTurn(); ok {
			o.Current = string(t.Agent)
		} else {
			o.Current = "start"
		}
	default:
		if a, ok := s.Phase.Agent(); ok {
			o.Current = string(a)
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the supervisor workflow.
// Shapes follow the node role:
// - start and done: circles
// - supervisor: decision diamond
// - research: subroutine, since it calls external search
// - writing: rectangle
// Overlay styles for visited, current and failed nodes are applied when o is not nil.
func GenerateMermaid(o *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("    start((\"start\"))\n")
	sb.WriteString("    supervisor{\"supervisor\"}\n")
	sb.WriteString("    research[[\"research\"]]\n")
	sb.WriteString("    writing[\"writing\"]\n")
	sb.WriteString("    done(((\"done\")))\n")

	sb.WriteString("    start --> supervisor\n")
	for _, r := range []domain.Route{domain.RouteResearch, domain.RouteWriting, domain.RouteDone} {
		fmt.Fprintf(&sb, "    supervisor -- \"%s\" --> %s\n", r, r)
	}
	sb.WriteString("    research --> supervisor\n")
	sb.WriteString("    writing --> supervisor\n")

	if o == nil {
		return sb.String()
	}

	if o.Failure != nil {
		from := o.Current
		if from == "" {
			from = "supervisor"
		}
		fmt.Fprintf(&sb, "    failed>\"failed: %s\"]\n", escape(string(o.Failure.Kind)))
		fmt.Fprintf(&sb, "    %s -. \"%s\" .-> failed\n", sanitizeID(from), escape(o.Failure.Detail))
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	// Black text keeps contrast on both light and dark themes.
	sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
	sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:3px,color:#000;\n")

	seen := map[string]bool{"start": true}
	sb.WriteString("    class start visited;\n")
	for _, id := range o.Visited {
		safe := sanitizeID(id)
		if safe == "" || seen[safe] {
			continue
		}
		seen[safe] = true
		fmt.Fprintf(&sb, "    class %s visited;\n", safe)
	}
	if o.Current != "" {
		fmt.Fprintf(&sb, "    class %s current;\n", sanitizeID(o.Current))
	}
	if o.Failure != nil {
		sb.WriteString("    class failed failed;\n")
	}
	return sb.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
