package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/foreman/internal/logging"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/ports"
)

// DefaultMaxSteps bounds a run when no limit is configured.
// The longest productive path (supervisor, research, supervisor, writing,
// supervisor) takes five steps.
const DefaultMaxSteps = 10

// NodeFunc executes one agent turn. It receives an exclusive copy of the state
// and must return it with exactly one history entry appended, even on error.
type NodeFunc func(ctx context.Context, s *domain.State) (*domain.State, error)

// StepObserver is notified after every committed turn.
type StepObserver func(ctx context.Context, prev, next *domain.State)

// CheckpointFunc persists the state after every turn.
type CheckpointFunc func(ctx context.Context, s *domain.State) error

// Engine is the supervisor loop. It is safe for concurrent use: every call to
// Execute works on its own copy of the state.
type Engine struct {
	searcher  ports.Searcher
	generator ports.Generator
	decider   ports.Decider

	nodes      map[domain.AgentName]NodeFunc
	maxSteps   int
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	checkpoint CheckpointFunc
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxSteps bounds the number of node executions of a run.
// Values below 1 keep the default.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithCheckpoint persists the state after every turn.
func WithCheckpoint(fn CheckpointFunc) EngineOption {
	return func(e *Engine) {
		e.checkpoint = fn
	}
}

// WithNode replaces the implementation of an agent.
func WithNode(agent domain.AgentName, fn NodeFunc) EngineOption {
	return func(e *Engine) {
		e.nodes[agent] = fn
	}
}

// NewEngine creates a new engine around its three collaborators.
func NewEngine(searcher ports.Searcher, generator ports.Generator, decider ports.Decider, opts ...EngineOption) *Engine {
	e := &Engine{
		searcher:  searcher,
		generator: generator,
		decider:   decider,
		maxSteps:  DefaultMaxSteps,
		logger:    logging.NewNop(),
	}
	e.nodes = map[domain.AgentName]NodeFunc{
		domain.AgentSupervisor: e.supervise,
		domain.AgentResearch:   e.research,
		domain.AgentWriting:    e.write,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxSteps returns the configured progress bound.
func (e *Engine) MaxSteps() int {
	return e.maxSteps
}

// Bounded returns a copy of the engine with a different progress bound.
// Values below 1 return the engine unchanged.
func (e *Engine) Bounded(n int) *Engine {
	if n < 1 || n == e.maxSteps {
		return e
	}
	c := *e
	c.maxSteps = n
	return &c
}

// Execute drives the state until it reaches a terminal phase and returns the
// final state. When the run fails, the returned error is the *domain.Failure
// recorded in the state.
//
// A state that was canceled earlier is resumed from the phase it stopped at.
func (e *Engine) Execute(ctx context.Context, s *domain.State, observe StepObserver) (*domain.State, error) {
	if s == nil {
		return nil, fmt.Errorf("execute: nil state")
	}
	if s.Phase.Terminal() {
		return s.Clone(), domain.ErrRunFinished
	}

	start := time.Now()
	state := s.Clone()
	logger := e.logger.With("run_id", state.RunID)

	if state.Failure != nil && state.Failure.Kind == domain.FailureCanceled {
		logger.Info("Resuming canceled run", "phase", state.Phase, "step", state.StepCount)
		state.Failure = nil
	}
	if state.Phase == domain.PhaseStart {
		state.Phase = domain.PhaseSupervising
	}

	for {
		if err := ctx.Err(); err != nil {
			f := domain.NewFailure(domain.FailureCanceled, "", err, "abandoned at step %d", state.StepCount)
			state.Failure = f
			return e.finish(ctx, logger, state, start)
		}

		agent, ok := state.Phase.Agent()
		if !ok {
			state.Failure = domain.NewFailure(domain.FailureInvariant, "", nil, "no node for phase %q", state.Phase)
			state.Phase = domain.PhaseFailed
			return e.finish(ctx, logger, state, start)
		}

		if state.StepCount >= e.maxSteps {
			state.Phase = domain.PhaseFailed
			state.Failure = domain.NewFailure(domain.FailureProgressBound, agent, nil,
				"no terminal route after %d steps", state.StepCount)
			return e.finish(ctx, logger, state, start)
		}

		prev := state
		next, err := e.step(ctx, logger, agent, prev)
		if err != nil {
			next.Phase = domain.PhaseFailed
			next.Failure = toFailure(agent, err)
			e.observe(ctx, observe, prev, next)
			return e.finish(ctx, logger, next, start)
		}

		if err := e.advance(agent, next); err != nil {
			next.Phase = domain.PhaseFailed
			next.Failure = toFailure(agent, err)
			e.observe(ctx, observe, prev, next)
			return e.finish(ctx, logger, next, start)
		}

		if e.checkpoint != nil {
			if err := e.checkpoint(context.WithoutCancel(ctx), next); err != nil {
				return next, fmt.Errorf("checkpoint after step %d: %w", next.StepCount, err)
			}
		}
		e.observe(ctx, observe, prev, next)

		state = next
		if state.Phase == domain.PhaseDone {
			return e.finish(ctx, logger, state, start)
		}
	}
}

// step runs one node and enforces the ownership rules on its result.
func (e *Engine) step(ctx context.Context, logger *slog.Logger, agent domain.AgentName, prev *domain.State) (*domain.State, error) {
	node, ok := e.nodes[agent]
	if !ok {
		next := prev.Clone()
		next.Record(agent, domain.OutcomeFailed, "no node registered")
		next.StepCount++
		return next, domain.NewFailure(domain.FailureInvariant, agent, nil, "no node registered")
	}

	stepNo := prev.StepCount + 1
	if e.hooks.OnNodeEnter != nil {
		e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeEnter, RunID: prev.RunID},
			Agent:     agent,
			Step:      stepNo,
		})
	}
	logger.Debug("Enter node", "agent", agent, "step", stepNo)

	began := time.Now()
	next, err := node(ctx, prev.Clone())
	if next == nil {
		if err == nil {
			err = domain.NewFailure(domain.FailureInvariant, agent, nil, "node returned no state")
		}
		next = prev.Clone()
		next.Record(agent, domain.OutcomeFailed, err.Error())
	}

	if verr := checkOwnership(agent, prev, next); verr != nil && err == nil {
		err = verr
	}
	next.StepCount = stepNo
	next.UpdatedAt = time.Now().UTC()

	if e.hooks.OnNodeLeave != nil {
		e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeLeave, RunID: prev.RunID},
			Agent:     agent,
			Step:      stepNo,
			Duration:  time.Since(began),
			Err:       err,
		})
	}
	if err != nil {
		logger.Debug("Node failed", "agent", agent, "step", stepNo, "err", err)
	} else {
		logger.Debug("Leave node", "agent", agent, "step", stepNo, "duration", time.Since(began))
	}
	return next, err
}

// advance moves the state machine after a successful turn.
func (e *Engine) advance(agent domain.AgentName, s *domain.State) error {
	if agent != domain.AgentSupervisor {
		s.Phase = domain.PhaseSupervising
		return nil
	}

	switch s.NextAgent {
	case domain.RouteResearch:
		s.Phase = domain.PhaseResearching
	case domain.RouteWriting:
		s.Phase = domain.PhaseWriting
	case domain.RouteDone:
		if s.Draft == "" {
			return domain.NewFailure(domain.FailureRoutingContract, agent, nil, "done requested before a draft exists")
		}
		s.Phase = domain.PhaseDone
	default:
		return domain.NewFailure(domain.FailureRoutingContract, agent, nil, "unrecognized route %q", s.NextAgent)
	}
	return nil
}

func (e *Engine) observe(ctx context.Context, observe StepObserver, prev, next *domain.State) {
	if observe != nil {
		observe(ctx, prev, next)
	}
}

// finish records the terminal state and emits the run end event.
func (e *Engine) finish(ctx context.Context, logger *slog.Logger, s *domain.State, start time.Time) (*domain.State, error) {
	s.UpdatedAt = time.Now().UTC()

	if s.Failure != nil && e.checkpoint != nil {
		if err := e.checkpoint(context.WithoutCancel(ctx), s); err != nil {
			logger.Warn("Failed to checkpoint failed run", "err", err)
		}
	}

	if e.hooks.OnRunEnd != nil {
		e.hooks.OnRunEnd(ctx, &domain.RunEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRunEnd, RunID: s.RunID},
			Phase:     s.Phase,
			Steps:     s.StepCount,
			Duration:  time.Since(start),
			Failure:   s.Failure,
		})
	}

	if s.Failure != nil {
		logger.Info("Run failed", "kind", s.Failure.Kind, "steps", s.StepCount, "err", s.Failure)
		return s, s.Failure
	}
	logger.Info("Run finished", "steps", s.StepCount, "task_kind", s.TaskKind, "facts", len(s.Facts))
	return s, nil
}

func toFailure(agent domain.AgentName, err error) *domain.Failure {
	if f, ok := domain.AsFailure(err); ok {
		if f.Agent == "" {
			f.Agent = agent
		}
		return f
	}
	return domain.NewFailure(domain.FailureCollaborator, agent, err, "unexpected error")
}
