// Package policy holds the routing rules of the supervisor.
//
// Next is a pure function of the state: it never calls out, never mutates and
// always gives the same answer for the same input. Validate checks a proposed
// decision against those rules at the collaborator boundary.
package policy

import (
	"errors"
	"fmt"

	"github.com/aretw0/foreman/pkg/domain"
)

// ErrUnclassified is returned when the task kind is still unknown.
var ErrUnclassified = errors.New("task kind is unknown")

// Next returns the route the supervisor must take for s.
//
// A non-empty draft always finishes the run. A research task with no facts
// goes to research first. Everything else goes to writing.
func Next(s *domain.State) (domain.Route, error) {
	if s.Draft != "" {
		return domain.RouteDone, nil
	}
	switch s.TaskKind {
	case domain.TaskResearch:
		if len(s.Facts) == 0 {
			return domain.RouteResearch, nil
		}
		return domain.RouteWriting, nil
	case domain.TaskWriting:
		return domain.RouteWriting, nil
	}
	return domain.RouteNone, ErrUnclassified
}

// Validate checks a decision proposed for s.
// The returned error wraps domain.ErrRoutingContract.
func Validate(s *domain.State, d domain.Decision) error {
	if !d.TaskKind.Known() {
		return fmt.Errorf("%w: task kind %q is not a usable classification", domain.ErrRoutingContract, d.TaskKind)
	}
	if !d.NextAgent.Valid() {
		return fmt.Errorf("%w: unrecognized route %q", domain.ErrRoutingContract, d.NextAgent)
	}
	if d.NextAgent == domain.RouteDone && s.Draft == "" {
		return fmt.Errorf("%w: done requested before a draft exists", domain.ErrRoutingContract)
	}

	candidate := *s
	candidate.TaskKind = d.TaskKind
	want, err := Next(&candidate)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRoutingContract, err)
	}
	if want != d.NextAgent {
		return fmt.Errorf("%w: proposed %q but %s task with %d facts requires %q",
			domain.ErrRoutingContract, d.NextAgent, d.TaskKind, len(s.Facts), want)
	}
	return nil
}
