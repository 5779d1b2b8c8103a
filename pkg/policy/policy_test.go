package policy_test

import (
	"testing"

	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func state(kind domain.TaskKind, facts int, draft string) *domain.State {
	s := domain.NewState("r", "q")
	s.TaskKind = kind
	for i := 0; i < facts; i++ {
		s.Facts = append(s.Facts, domain.Fact{Source: "s", Snippet: "x"})
	}
	s.Draft = draft
	return s
}

func TestNext(t *testing.T) {
	tests := []struct {
		name  string
		state *domain.State
		want  domain.Route
	}{
		{"research without facts", state(domain.TaskResearch, 0, ""), domain.RouteResearch},
		{"research with facts", state(domain.TaskResearch, 2, ""), domain.RouteWriting},
		{"pure writing skips research", state(domain.TaskWriting, 0, ""), domain.RouteWriting},
		{"draft finishes research task", state(domain.TaskResearch, 1, "answer"), domain.RouteDone},
		{"draft finishes writing task", state(domain.TaskWriting, 0, "poem"), domain.RouteDone},
		{"draft finishes even if unknown", state(domain.TaskUnknown, 0, "text"), domain.RouteDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := policy.Next(tt.state)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNext_Unclassified(t *testing.T) {
	_, err := policy.Next(state(domain.TaskUnknown, 0, ""))
	assert.ErrorIs(t, err, policy.ErrUnclassified)
}

func TestNext_IsPure(t *testing.T) {
	s := state(domain.TaskResearch, 0, "")
	before := s.Clone()
	for i := 0; i < 3; i++ {
		got, err := policy.Next(s)
		require.NoError(t, err)
		assert.Equal(t, domain.RouteResearch, got)
	}
	assert.Equal(t, before, s)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		state    *domain.State
		decision domain.Decision
		wantErr  bool
	}{
		{
			name:     "agrees with policy",
			state:    state(domain.TaskUnknown, 0, ""),
			decision: domain.Decision{TaskKind: domain.TaskResearch, NextAgent: domain.RouteResearch},
		},
		{
			name:     "writing task straight to writing",
			state:    state(domain.TaskUnknown, 0, ""),
			decision: domain.Decision{TaskKind: domain.TaskWriting, NextAgent: domain.RouteWriting},
		},
		{
			name:     "unknown classification",
			state:    state(domain.TaskUnknown, 0, ""),
			decision: domain.Decision{TaskKind: domain.TaskUnknown, NextAgent: domain.RouteWriting},
			wantErr:  true,
		},
		{
			name:     "unrecognized route",
			state:    state(domain.TaskUnknown, 0, ""),
			decision: domain.Decision{TaskKind: domain.TaskWriting, NextAgent: domain.Route("publish")},
			wantErr:  true,
		},
		{
			name:     "done without draft",
			state:    state(domain.TaskWriting, 0, ""),
			decision: domain.Decision{TaskKind: domain.TaskWriting, NextAgent: domain.RouteDone},
			wantErr:  true,
		},
		{
			name:     "writing before required research",
			state:    state(domain.TaskUnknown, 0, ""),
			decision: domain.Decision{TaskKind: domain.TaskResearch, NextAgent: domain.RouteWriting},
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Validate(tt.state, tt.decision)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrRoutingContract)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  domain.TaskKind
	}{
		{"What are the latest breakthroughs in fusion energy?", domain.TaskResearch},
		{"Research quantum error correction and write a report", domain.TaskResearch},
		{"Is Go garbage collected?", domain.TaskResearch},
		{"Write a haiku about autumn leaves", domain.TaskWriting},
		{"Compose a short thank-you letter to my team", domain.TaskWriting},
		{"hello", domain.TaskUnknown},
		{"   ", domain.TaskUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Classify(tt.query))
		})
	}
}
