package domain

import (
	"slices"
	"time"
)

// Fact is a single piece of evidence gathered by the research node.
type Fact struct {
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
}

// Outcome classifies how a turn ended.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeEmpty  Outcome = "empty"
	OutcomeFailed Outcome = "failed"
)

// Turn is the history record of one node execution.
type Turn struct {
	Agent   AgentName `json:"agent"`
	Summary string    `json:"summary"`
	Outcome Outcome   `json:"outcome"`
	At      time.Time `json:"at"`
}

// State is the record threaded through every turn of a run.
//
// Agents may only touch their own fields: the supervisor writes TaskKind and
// NextAgent, research appends to Facts and writing sets Draft once. Every node
// appends exactly one Turn. The engine owns the remaining bookkeeping fields.
type State struct {
	RunID     string    `json:"run_id"`
	Query     string    `json:"query"`
	TaskKind  TaskKind  `json:"task_kind"`
	Facts     []Fact    `json:"facts"`
	Draft     string    `json:"draft,omitempty"`
	NextAgent Route     `json:"next_agent,omitempty"`
	History   []Turn    `json:"history"`
	StepCount int       `json:"step_count"`
	Phase     Phase     `json:"phase"`
	Failure   *Failure  `json:"failure,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Envelope carries an opaque payload for persistence middleware.
	Envelope string `json:"envelope,omitempty"`
}

// NewState creates the initial state of a run.
func NewState(runID, query string) *State {
	now := time.Now().UTC()
	return &State{
		RunID:     runID,
		Query:     query,
		TaskKind:  TaskUnknown,
		Facts:     []Fact{},
		History:   []Turn{},
		Phase:     PhaseStart,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy that shares no memory with s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Facts = slices.Clone(s.Facts)
	if c.Facts == nil {
		c.Facts = []Fact{}
	}
	c.History = slices.Clone(s.History)
	if c.History == nil {
		c.History = []Turn{}
	}
	if s.Failure != nil {
		f := *s.Failure
		c.Failure = &f
	}
	return &c
}

// Done reports whether the run finished normally.
func (s *State) Done() bool {
	return s.Phase == PhaseDone
}

// Visited returns the agents in execution order.
func (s *State) Visited() []AgentName {
	out := make([]AgentName, 0, len(s.History))
	for _, t := range s.History {
		out = append(out, t.Agent)
	}
	return out
}

// LastTurn returns the most recent history entry, if any.
func (s *State) LastTurn() (Turn, bool) {
	if len(s.History) == 0 {
		return Turn{}, false
	}
	return s.History[len(s.History)-1], true
}

// Record appends a history entry for agent.
func (s *State) Record(agent AgentName, outcome Outcome, summary string) {
	s.History = append(s.History, Turn{
		Agent:   agent,
		Summary: summary,
		Outcome: outcome,
		At:      time.Now().UTC(),
	})
}
