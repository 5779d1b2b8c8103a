package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCollaborator marks a failure of an external collaborator (search, generate, decide).
	ErrCollaborator = errors.New("collaborator failure")
	// ErrRoutingContract marks a routing decision outside the permitted set or premature completion.
	ErrRoutingContract = errors.New("routing contract violation")
	// ErrProgressBound marks a run that hit the maximum number of steps.
	ErrProgressBound = errors.New("progress bound exceeded")
	// ErrEmptySynthesis marks a writing step that produced no content.
	ErrEmptySynthesis = errors.New("empty synthesis")
	// ErrInvariant marks a node that broke a state ownership rule.
	ErrInvariant = errors.New("state invariant violation")
	// ErrCanceled marks a run abandoned by its caller.
	ErrCanceled = errors.New("run canceled")
)

// ErrRunNotFound is returned when a run ID cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// ErrRunExists is returned when creating a run whose ID is already taken.
var ErrRunExists = errors.New("run already exists")

// ErrRunFinished is returned when resuming a run that already reached a terminal phase.
var ErrRunFinished = errors.New("run already finished")

// FailureKind tags the reason a run ended in the failed phase.
type FailureKind string

const (
	FailureCollaborator    FailureKind = "collaborator_failure"
	FailureRoutingContract FailureKind = "routing_contract_violation"
	FailureProgressBound   FailureKind = "progress_bound_exceeded"
	FailureEmptySynthesis  FailureKind = "empty_synthesis"
	FailureInvariant       FailureKind = "invariant_violation"
	FailureCanceled        FailureKind = "canceled"
)

var failureSentinels = map[FailureKind]error{
	FailureCollaborator:    ErrCollaborator,
	FailureRoutingContract: ErrRoutingContract,
	FailureProgressBound:   ErrProgressBound,
	FailureEmptySynthesis:  ErrEmptySynthesis,
	FailureInvariant:       ErrInvariant,
	FailureCanceled:        ErrCanceled,
}

// Failure is the terminal descriptor of a failed run.
type Failure struct {
	Kind   FailureKind `json:"kind"`
	Agent  AgentName   `json:"agent,omitempty"`
	Detail string      `json:"detail"`

	// Err is the underlying cause. It is not persisted.
	Err error `json:"-"`
}

// NewFailure builds a Failure for agent.
func NewFailure(kind FailureKind, agent AgentName, err error, format string, args ...any) *Failure {
	return &Failure{
		Kind:   kind,
		Agent:  agent,
		Detail: fmt.Sprintf(format, args...),
		Err:    err,
	}
}

func (f *Failure) Error() string {
	msg := string(f.Kind)
	if f.Agent != "" {
		msg += " in " + string(f.Agent)
	}
	if f.Detail != "" {
		msg += ": " + f.Detail
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is matches the sentinel error associated with the failure kind.
func (f *Failure) Is(target error) bool {
	sentinel, ok := failureSentinels[f.Kind]
	return ok && sentinel == target
}

// AsFailure extracts a *Failure from err, if present.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
