package domain_test

import (
	"testing"

	"github.com/aretw0/foreman/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	s := domain.NewState("r", "q")
	assert.Equal(t, domain.TaskUnknown, s.TaskKind)
	assert.Equal(t, domain.PhaseStart, s.Phase)
	assert.Empty(t, s.Facts)
	assert.Empty(t, s.History)
	assert.Empty(t, s.Draft)
	assert.Zero(t, s.StepCount)
}

func TestState_CloneIsIndependent(t *testing.T) {
	s := domain.NewState("r", "q")
	s.Facts = append(s.Facts, domain.Fact{Source: "s1", Snippet: "x"})
	s.Record(domain.AgentSupervisor, domain.OutcomeOK, "routed")
	s.Failure = domain.NewFailure(domain.FailureCanceled, "", nil, "stop")

	c := s.Clone()
	c.Facts[0].Snippet = "mutated"
	c.Facts = append(c.Facts, domain.Fact{Source: "s2"})
	c.History[0].Summary = "mutated"
	c.Failure.Detail = "mutated"

	assert.Equal(t, "x", s.Facts[0].Snippet)
	assert.Len(t, s.Facts, 1)
	assert.Equal(t, "routed", s.History[0].Summary)
	assert.Equal(t, "stop", s.Failure.Detail)
}

func TestState_Visited(t *testing.T) {
	s := domain.NewState("r", "q")
	s.Record(domain.AgentSupervisor, domain.OutcomeOK, "")
	s.Record(domain.AgentWriting, domain.OutcomeOK, "")

	assert.Equal(t, []domain.AgentName{domain.AgentSupervisor, domain.AgentWriting}, s.Visited())
	last, ok := s.LastTurn()
	require.True(t, ok)
	assert.Equal(t, domain.AgentWriting, last.Agent)
}

func TestRoute(t *testing.T) {
	tests := []struct {
		raw   string
		want  domain.Route
		valid bool
	}{
		{"research", domain.RouteResearch, true},
		{" Writing ", domain.RouteWriting, true},
		{"done", domain.RouteDone, true},
		{"END", domain.RouteDone, true},
		{"supervisor", domain.Route("supervisor"), false},
		{"", domain.RouteNone, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r := domain.NormalizeRoute(tt.raw)
			assert.Equal(t, tt.want, r)
			assert.Equal(t, tt.valid, r.Valid())
		})
	}
}

func TestParseTaskKind(t *testing.T) {
	tests := []struct {
		raw     string
		want    domain.TaskKind
		wantErr bool
	}{
		{"research", domain.TaskResearch, false},
		{"combined", domain.TaskResearch, false},
		{"WRITING", domain.TaskWriting, false},
		{"", domain.TaskUnknown, false},
		{"poetry", domain.TaskUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := domain.ParseTaskKind(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
