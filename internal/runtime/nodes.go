package runtime

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/policy"
)

// supervise classifies the query and picks the next agent.
// A finished draft ends the run without consulting the decider.
func (e *Engine) supervise(ctx context.Context, s *domain.State) (*domain.State, error) {
	if s.Draft != "" {
		s.NextAgent = domain.RouteDone
		s.Record(domain.AgentSupervisor, domain.OutcomeOK, "draft ready, finishing")
		e.emitRoute(ctx, s, "draft ready")
		return s, nil
	}

	decision, err := e.decider.Decide(ctx, s.Clone())
	if err != nil {
		s.Record(domain.AgentSupervisor, domain.OutcomeFailed, "decision failed: "+err.Error())
		kind := domain.FailureCollaborator
		if errors.Is(err, policy.ErrUnclassified) {
			kind = domain.FailureRoutingContract
		}
		return s, domain.NewFailure(kind, domain.AgentSupervisor, err, "decide")
	}

	if err := policy.Validate(s, decision); err != nil {
		s.Record(domain.AgentSupervisor, domain.OutcomeFailed, err.Error())
		return s, domain.NewFailure(domain.FailureRoutingContract, domain.AgentSupervisor, err,
			"rejected decision {task_kind: %q, next_agent: %q}", decision.TaskKind, decision.NextAgent)
	}

	s.TaskKind = decision.TaskKind
	s.NextAgent = decision.NextAgent
	summary := fmt.Sprintf("classified as %s, routing to %s", s.TaskKind, s.NextAgent)
	if decision.Reasoning != "" {
		summary += ": " + decision.Reasoning
	}
	s.Record(domain.AgentSupervisor, domain.OutcomeOK, summary)
	e.emitRoute(ctx, s, decision.Reasoning)
	return s, nil
}

func (e *Engine) emitRoute(ctx context.Context, s *domain.State, reasoning string) {
	if e.hooks.OnRoute == nil {
		return
	}
	e.hooks.OnRoute(ctx, &domain.RouteEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRoute, RunID: s.RunID},
		TaskKind:  s.TaskKind,
		Route:     s.NextAgent,
		Reasoning: reasoning,
	})
}

// research gathers facts for the query. Blank snippets are dropped.
func (e *Engine) research(ctx context.Context, s *domain.State) (*domain.State, error) {
	results, err := e.searcher.Search(ctx, s.Query)
	if err != nil {
		s.Record(domain.AgentResearch, domain.OutcomeFailed, "search failed: "+err.Error())
		return s, domain.NewFailure(domain.FailureCollaborator, domain.AgentResearch, err, "search")
	}

	added := 0
	for _, r := range results {
		snippet := strings.TrimSpace(r.Snippet)
		if snippet == "" {
			continue
		}
		s.Facts = append(s.Facts, domain.Fact{Source: strings.TrimSpace(r.Source), Snippet: snippet})
		added++
	}

	if added == 0 {
		s.Record(domain.AgentResearch, domain.OutcomeEmpty, "no results found")
		return s, nil
	}
	s.Record(domain.AgentResearch, domain.OutcomeOK, fmt.Sprintf("gathered %d facts", added))
	return s, nil
}

// write produces the draft. It runs at most once per run.
func (e *Engine) write(ctx context.Context, s *domain.State) (*domain.State, error) {
	if s.Draft != "" {
		s.Record(domain.AgentWriting, domain.OutcomeFailed, "draft already written")
		return s, domain.NewFailure(domain.FailureInvariant, domain.AgentWriting, nil, "draft already written")
	}

	text, err := e.generator.Generate(ctx, s.Query, slices.Clone(s.Facts))
	if err != nil {
		s.Record(domain.AgentWriting, domain.OutcomeFailed, "generation failed: "+err.Error())
		return s, domain.NewFailure(domain.FailureCollaborator, domain.AgentWriting, err, "generate")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		s.Record(domain.AgentWriting, domain.OutcomeEmpty, "generator returned no content")
		return s, domain.NewFailure(domain.FailureEmptySynthesis, domain.AgentWriting, nil, "generator returned no content")
	}

	s.Draft = text
	s.Record(domain.AgentWriting, domain.OutcomeOK,
		fmt.Sprintf("wrote %d characters from %d facts", len(text), len(s.Facts)))
	return s, nil
}
