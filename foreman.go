package foreman

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/foreman/internal/logging"
	"github.com/aretw0/foreman/internal/runtime"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/ports"
	"github.com/aretw0/foreman/pkg/session"
	"github.com/google/uuid"
)

var (
	// ErrEmptyQuery is returned when a run is started without a query.
	ErrEmptyQuery = errors.New("query must not be empty")
	// ErrNoStore is returned by persistence operations on an engine without a store.
	ErrNoStore = errors.New("no run store configured")
	// ErrRunExists is returned when a run ID is already taken.
	ErrRunExists = domain.ErrRunExists
)

// DefaultMaxSteps bounds a run when no limit is configured.
const DefaultMaxSteps = runtime.DefaultMaxSteps

// Engine is the high-level entry point of the library. It wraps the
// supervisor loop and, when a store is configured, checkpoints every turn.
type Engine struct {
	runtime  *runtime.Engine
	sessions *session.Manager
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	maxSteps int
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls merge.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithMaxSteps bounds the number of node executions per run.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// WithStore enables checkpointing and resumption on store.
func WithStore(store ports.RunStore) Option {
	return func(e *Engine) {
		if store != nil {
			e.sessions = session.NewManager(store)
		}
	}
}

// WithSessionManager uses an existing manager, typically one configured with
// a distributed locker.
func WithSessionManager(m *session.Manager) Option {
	return func(e *Engine) {
		e.sessions = m
	}
}

// New creates an engine around the three collaborators.
func New(searcher ports.Searcher, generator ports.Generator, decider ports.Decider, opts ...Option) (*Engine, error) {
	if searcher == nil || generator == nil || decider == nil {
		return nil, fmt.Errorf("searcher, generator and decider are required")
	}

	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithMaxSteps(eng.maxSteps),
	}
	if eng.sessions != nil {
		store := eng.sessions.Store()
		runtimeOpts = append(runtimeOpts, runtime.WithCheckpoint(func(ctx context.Context, s *domain.State) error {
			return store.Save(ctx, s.RunID, s)
		}))
	}

	eng.runtime = runtime.NewEngine(searcher, generator, decider, runtimeOpts...)
	return eng, nil
}

// MaxSteps returns the default progress bound of the engine.
func (e *Engine) MaxSteps() int {
	return e.runtime.MaxSteps()
}

// HasStore reports whether runs are persisted.
func (e *Engine) HasStore() bool {
	return e.sessions != nil
}

type runConfig struct {
	runID    string
	observe  runtime.StepObserver
	maxSteps int
}

// RunOption configures a single run.
type RunOption func(*runConfig)

// WithRunID sets the run ID instead of generating one.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithStepObserver is called after every committed turn with the state
// before and after it.
func WithStepObserver(fn func(ctx context.Context, prev, next *domain.State)) RunOption {
	return func(c *runConfig) {
		c.observe = fn
	}
}

// WithRunMaxSteps overrides the progress bound for one run.
func WithRunMaxSteps(n int) RunOption {
	return func(c *runConfig) {
		c.maxSteps = n
	}
}

func buildRunConfig(opts []RunOption) runConfig {
	var c runConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Run executes a query from start to a terminal phase.
//
// The returned state is always the last committed one. When the run fails, the
// error is the *domain.Failure recorded in the state, so errors.Is works with
// the domain sentinels.
func (e *Engine) Run(ctx context.Context, query string, opts ...RunOption) (*domain.State, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	cfg := buildRunConfig(opts)
	if cfg.runID == "" {
		cfg.runID = uuid.NewString()
	}
	state := domain.NewState(cfg.runID, query)
	rt := e.runtime.Bounded(cfg.maxSteps)

	if e.sessions == nil {
		return rt.Execute(ctx, state, cfg.observe)
	}

	var (
		final  *domain.State
		runErr error
	)
	err := e.sessions.Start(ctx, state, func(ctx context.Context) error {
		final, runErr = rt.Execute(ctx, state, cfg.observe)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return final, runErr
}

// Resume continues a persisted run from the phase it stopped at. Finished
// runs are returned unchanged together with domain.ErrRunFinished.
func (e *Engine) Resume(ctx context.Context, runID string, opts ...RunOption) (*domain.State, error) {
	if e.sessions == nil {
		return nil, ErrNoStore
	}
	cfg := buildRunConfig(opts)

	var (
		final  *domain.State
		runErr error
	)
	err := e.sessions.WithLock(ctx, runID, func(ctx context.Context) error {
		state, err := e.sessions.Store().Load(ctx, runID)
		if err != nil {
			return err
		}
		e.logger.Info("Resuming run", "run_id", runID, "phase", state.Phase, "step", state.StepCount)
		final, runErr = e.runtime.Bounded(cfg.maxSteps).Execute(ctx, state, cfg.observe)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return final, runErr
}

// Load returns a persisted run.
func (e *Engine) Load(ctx context.Context, runID string) (*domain.State, error) {
	if e.sessions == nil {
		return nil, ErrNoStore
	}
	return e.sessions.Load(ctx, runID)
}

// List returns the IDs of the persisted runs.
func (e *Engine) List(ctx context.Context) ([]string, error) {
	if e.sessions == nil {
		return nil, ErrNoStore
	}
	return e.sessions.List(ctx)
}

// Delete removes a persisted run.
func (e *Engine) Delete(ctx context.Context, runID string) error {
	if e.sessions == nil {
		return ErrNoStore
	}
	return e.sessions.Delete(ctx, runID)
}
