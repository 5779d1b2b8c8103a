package domain

import (
	"fmt"
	"strings"
)

// AgentName identifies one of the nodes of the workflow.
type AgentName string

const (
	AgentSupervisor AgentName = "supervisor"
	AgentResearch   AgentName = "research"
	AgentWriting    AgentName = "writing"
)

// Agents lists every node in dispatch order.
var Agents = []AgentName{AgentSupervisor, AgentResearch, AgentWriting}

// Route is the routing signal written by the supervisor.
type Route string

const (
	RouteNone     Route = ""
	RouteResearch Route = "research"
	RouteWriting  Route = "writing"
	RouteDone     Route = "done"
)

// Valid reports whether r is one of the enumerated routing values.
func (r Route) Valid() bool {
	switch r {
	case RouteResearch, RouteWriting, RouteDone:
		return true
	}
	return false
}

// Agent returns the node a route dispatches to. Done has no node.
func (r Route) Agent() (AgentName, bool) {
	switch r {
	case RouteResearch:
		return AgentResearch, true
	case RouteWriting:
		return AgentWriting, true
	}
	return "", false
}

// NormalizeRoute canonicalizes a raw routing token coming from a collaborator.
// It trims and lowercases the value and accepts "end" as an alias of done.
// The result is not validated; callers must check Valid.
func NormalizeRoute(raw string) Route {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "end" || v == "__end__" {
		return RouteDone
	}
	return Route(v)
}

// TaskKind is the supervisor's classification of the query.
type TaskKind string

const (
	TaskUnknown  TaskKind = "unknown"
	TaskResearch TaskKind = "research"
	TaskWriting  TaskKind = "writing"
)

// Known reports whether the kind is a usable classification.
func (k TaskKind) Known() bool {
	return k == TaskResearch || k == TaskWriting
}

// ParseTaskKind maps a classifier token to a TaskKind.
// "combined" means the query needs research before writing.
func ParseTaskKind(raw string) (TaskKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "research", "combined":
		return TaskResearch, nil
	case "writing":
		return TaskWriting, nil
	case "", "unknown":
		return TaskUnknown, nil
	}
	return TaskUnknown, fmt.Errorf("unrecognized task kind %q", raw)
}

// Phase is the position of a run in the engine state machine.
type Phase string

const (
	PhaseStart       Phase = "start"
	PhaseSupervising Phase = "supervising"
	PhaseResearching Phase = "researching"
	PhaseWriting     Phase = "writing"
	PhaseDone        Phase = "done"
	PhaseFailed      Phase = "failed"
)

// Terminal reports whether no further turns can run from this phase.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// Agent returns the node executed while the run is in this phase.
func (p Phase) Agent() (AgentName, bool) {
	switch p {
	case PhaseStart, PhaseSupervising:
		return AgentSupervisor, true
	case PhaseResearching:
		return AgentResearch, true
	case PhaseWriting:
		return AgentWriting, true
	}
	return "", false
}

// Decision is the output of the decision collaborator.
// NextAgent is kept raw so that unknown values reach boundary validation.
type Decision struct {
	TaskKind  TaskKind `json:"task_kind"`
	NextAgent Route    `json:"next_agent"`
	Reasoning string   `json:"reasoning,omitempty"`
}
