package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/foreman/internal/presentation/graph"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid_Static(t *testing.T) {
	out := graph.GenerateMermaid(nil)

	for _, want := range []string{
		"graph TD",
		`start(("start"))`,
		`supervisor{"supervisor"}`,
		`research[["research"]]`,
		`supervisor -- "research" --> research`,
		`supervisor -- "done" --> done`,
		"writing --> supervisor",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "classDef")
}

func TestOverlayFromState(t *testing.T) {
	done := domain.NewState("r", "q")
	done.Record(domain.AgentSupervisor, domain.OutcomeOK, "")
	done.Record(domain.AgentWriting, domain.OutcomeOK, "")
	done.Record(domain.AgentSupervisor, domain.OutcomeOK, "")
	done.Phase = domain.PhaseDone

	running := domain.NewState("r", "q")
	running.Record(domain.AgentSupervisor, domain.OutcomeOK, "")
	running.Phase = domain.PhaseResearching

	failed := domain.NewState("r", "q")
	failed.Record(domain.AgentSupervisor, domain.OutcomeOK, "")
	failed.Record(domain.AgentResearch, domain.OutcomeFailed, "")
	failed.Phase = domain.PhaseFailed
	failed.Failure = &domain.Failure{Kind: domain.FailureCollaborator, Detail: `search "down"`}

	tests := []struct {
		name    string
		state   *domain.State
		current string
		visited []string
	}{
		{"done", done, "done", []string{"supervisor", "writing", "supervisor", "done"}},
		{"running", running, "research", []string{"supervisor"}},
		{"failed", failed, "research", []string{"supervisor", "research"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := graph.OverlayFromState(tt.state)
			assert.Equal(t, tt.current, o.Current)
			assert.Equal(t, tt.visited, o.Visited)
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	out := graph.GenerateMermaid(&graph.Overlay{
		Visited: []string{"supervisor", "research", "supervisor"},
		Current: "research",
		Failure: &domain.Failure{Kind: domain.FailureCollaborator, Detail: `search "down"`},
	})

	assert.Equal(t, 1, strings.Count(out, "class supervisor visited;"), "visited nodes are deduplicated")
	assert.Contains(t, out, "class research current;")
	assert.Contains(t, out, `failed>"failed: collaborator_failure"]`)
	assert.Contains(t, out, `research -. "search 'down'" .-> failed`)
	assert.Contains(t, out, "class failed failed;")
}
