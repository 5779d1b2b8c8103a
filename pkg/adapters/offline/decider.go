package offline

import (
	"context"

	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/policy"
)

// Decider implements ports.Decider with the keyword classifier.
type Decider struct {
	fallback domain.TaskKind
}

// DeciderOption configures the Decider.
type DeciderOption func(*Decider)

// WithFallback sets the task kind used when the classifier finds no cue.
// Without it such queries stay unknown and the supervisor rejects them.
func WithFallback(kind domain.TaskKind) DeciderOption {
	return func(d *Decider) {
		d.fallback = kind
	}
}

// NewDecider creates a keyword based decider.
func NewDecider(opts ...DeciderOption) *Decider {
	d := &Decider{fallback: domain.TaskUnknown}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decide keeps an earlier classification and otherwise classifies the query.
// A query with no cue and no fallback yields an unknown decision without a
// route, which the supervisor rejects as a routing contract violation.
func (d *Decider) Decide(ctx context.Context, snapshot *domain.State) (domain.Decision, error) {
	kind := snapshot.TaskKind
	reason := "kept previous classification"
	if !kind.Known() {
		kind = policy.Classify(snapshot.Query)
		reason = "matched query keywords"
		if !kind.Known() {
			kind = d.fallback
			reason = "no keyword matched, using fallback"
		}
	}

	candidate := snapshot.Clone()
	candidate.TaskKind = kind
	route, err := policy.Next(candidate)
	if err != nil {
		return domain.Decision{TaskKind: kind, Reasoning: "no keyword matched"}, nil
	}
	return domain.Decision{TaskKind: kind, NextAgent: route, Reasoning: reason}, nil
}
