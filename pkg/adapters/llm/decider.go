package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/foreman/pkg/domain"
)

// ErrMalformedDecision is returned when the model output cannot be parsed.
var ErrMalformedDecision = errors.New("llm: malformed routing decision")

const deciderSystem = `You are a supervisor coordinating a team of specialized agents.
Your team consists of:
1. research: gathers information from web searches
2. writing: creates written content based on research or general knowledge

Analyze the user's query and the current workflow state to decide the next step.

Decision guidelines:
- If the query requires factual information or recent data, route to "research" first.
- If research has been completed (facts gathered), route to "writing".
- If the query is a simple creative or writing task that needs no research, route to "writing".
- If writing is complete, route to "done".

Answer with a single JSON object and nothing else:
{"task_kind": "research" | "writing", "next_agent": "research" | "writing" | "done", "reasoning": "<one sentence>"}`

const deciderPrompt = `Current state:
- Task kind so far: %s
- Research facts gathered: %s
- Number of facts: %d
- Draft written: %s

User query: %s

What should be the next agent to call?`

// Decider asks a model to classify the query and pick the next agent.
type Decider struct {
	completer   Completer
	temperature float32
}

// NewDecider creates a routing collaborator backed by c.
func NewDecider(c Completer) *Decider {
	return &Decider{completer: c, temperature: 0.1}
}

func (d *Decider) Decide(ctx context.Context, s *domain.State) (domain.Decision, error) {
	prompt := fmt.Sprintf(deciderPrompt,
		s.TaskKind, yesNo(len(s.Facts) > 0), len(s.Facts), yesNo(s.Draft != ""), s.Query)

	resp, err := d.completer.Complete(ctx, Request{
		System:      deciderSystem,
		Prompt:      prompt,
		Temperature: d.temperature,
		MaxTokens:   512,
	})
	if err != nil {
		return domain.Decision{}, err
	}
	return ParseDecision(resp.Text)
}

type rawDecision struct {
	TaskKind  string `json:"task_kind"`
	NextAgent string `json:"next_agent"`
	Reasoning string `json:"reasoning"`
}

// ParseDecision extracts a decision from model output. Code fences and prose
// around the JSON object are ignored. Unknown task kinds and routes are kept
// as-is so that routing validation can reject them.
func ParseDecision(text string) (domain.Decision, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return domain.Decision{}, fmt.Errorf("%w: no JSON object in %q", ErrMalformedDecision, truncate(text, 80))
	}

	var raw rawDecision
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return domain.Decision{}, fmt.Errorf("%w: %v", ErrMalformedDecision, err)
	}

	kind, err := domain.ParseTaskKind(raw.TaskKind)
	if err != nil {
		kind = domain.TaskKind(strings.ToLower(strings.TrimSpace(raw.TaskKind)))
	}
	return domain.Decision{
		TaskKind:  kind,
		NextAgent: domain.NormalizeRoute(raw.NextAgent),
		Reasoning: strings.TrimSpace(raw.Reasoning),
	}, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
