package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/foreman"
	"github.com/aretw0/foreman/internal/config"
	"github.com/aretw0/foreman/pkg/adapters/file"
	"github.com/aretw0/foreman/pkg/adapters/llm"
	"github.com/aretw0/foreman/pkg/adapters/memory"
	"github.com/aretw0/foreman/pkg/adapters/offline"
	"github.com/aretw0/foreman/pkg/adapters/redis"
	"github.com/aretw0/foreman/pkg/adapters/search"
	"github.com/aretw0/foreman/pkg/observability"
	"github.com/aretw0/foreman/pkg/persistence/middleware"
	"github.com/aretw0/foreman/pkg/ports"
	"github.com/aretw0/foreman/pkg/session"
)

// Stack is an engine together with the resources it owns.
type Stack struct {
	Engine  *foreman.Engine
	Metrics *observability.Metrics
	closers []func() error
}

// Close releases store connections.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// StackOptions tune NewStack.
type StackOptions struct {
	Debug   bool
	Metrics bool
}

// NewStack builds an engine with the collaborators, store and hooks selected by cfg.
func NewStack(cfg *config.Config, logger *slog.Logger, opts StackOptions) (*Stack, error) {
	searcher, generator, decider, err := newCollaborators(cfg, logger)
	if err != nil {
		return nil, err
	}

	stack := &Stack{}
	engineOpts := []foreman.Option{
		foreman.WithLogger(logger),
		foreman.WithMaxSteps(cfg.MaxSteps),
	}
	if opts.Debug {
		engineOpts = append(engineOpts, foreman.WithLifecycleHooks(createDebugHooks(logger)))
	}
	if opts.Metrics {
		m, err := observability.NewMetrics(nil)
		if err != nil {
			return nil, fmt.Errorf("error creating metrics: %w", err)
		}
		stack.Metrics = m
		engineOpts = append(engineOpts, foreman.WithLifecycleHooks(m.Hooks()))
	}

	sessions, err := stack.newSessionManager(cfg.Store, logger)
	if err != nil {
		_ = stack.Close()
		return nil, err
	}
	if sessions != nil {
		engineOpts = append(engineOpts, foreman.WithSessionManager(sessions))
	}

	eng, err := foreman.New(searcher, generator, decider, engineOpts...)
	if err != nil {
		_ = stack.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	stack.Engine = eng
	return stack, nil
}

func newCompleter(cfg config.LLMConfig) llm.Completer {
	var opts []llm.Option
	if cfg.Model != "" {
		opts = append(opts, llm.WithModel(cfg.Model))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.BaseURL))
	}
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return llm.NewAnthropic(cfg.APIKey, opts...)
	case config.ProviderOpenAI:
		return llm.NewOpenAI(cfg.APIKey, opts...)
	}
	return nil
}

func newCollaborators(cfg *config.Config, logger *slog.Logger) (ports.Searcher, ports.Generator, ports.Decider, error) {
	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		return nil, nil, nil, fmt.Errorf("missing credentials: %v (use --offline to run without them)", missing)
	}

	var searcher ports.Searcher
	switch cfg.Search.Provider {
	case config.ProviderTavily:
		t, err := search.NewTavily(cfg.Search.APIKey,
			search.WithBaseURL(cfg.Search.BaseURL),
			search.WithMaxResults(cfg.Search.MaxResults))
		if err != nil {
			return nil, nil, nil, err
		}
		searcher = t
	case config.ProviderSearxNG:
		s, err := search.NewSearxNG(cfg.Search.BaseURL, search.WithMaxResults(cfg.Search.MaxResults))
		if err != nil {
			return nil, nil, nil, err
		}
		searcher = s
	default:
		searcher = offline.NewSearcher(offline.WithMaxResults(cfg.Search.MaxResults))
	}

	completer := newCompleter(cfg.LLM)
	if completer == nil {
		return searcher, offline.NewGenerator(), offline.NewDecider(), nil
	}

	if cfg.LLM.ExtractFacts {
		searcher = llm.NewExtractingSearcher(searcher, completer, logger)
	}
	generator := llm.NewGenerator(completer)
	if cfg.LLM.Temperature > 0 {
		generator = generator.WithTemperature(cfg.LLM.Temperature)
	}
	return searcher, generator, llm.NewDecider(completer), nil
}

// newSessionManager opens the configured store and wraps it in the
// persistence middleware. A nil manager means runs are not persisted.
func (s *Stack) newSessionManager(cfg config.StoreConfig, logger *slog.Logger) (*session.Manager, error) {
	var (
		store      ports.RunStore
		sessionOpt = []session.Option{session.WithLogger(logger)}
	)
	switch cfg.Driver {
	case config.DriverNone:
		return nil, nil
	case config.DriverMemory:
		store = memory.NewStore()
	case config.DriverRedis:
		rs := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			redis.WithPrefix(cfg.Prefix), redis.WithTTL(cfg.TTL))
		s.closers = append(s.closers, rs.Close)
		store = rs

		sessionOpt = append(sessionOpt,
			session.WithLocker(redis.NewLocker(rs.Client(), "foreman:")),
			session.WithLockTTL(cfg.LockTTL))
	default:
		store = file.New(cfg.Path)
	}

	var mws []middleware.Middleware
	if cfg.Redact {
		mw, err := middleware.NewRedactMiddleware(middleware.DefaultRedactPatterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	key, err := cfg.Key()
	if err != nil {
		return nil, err
	}
	if key != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}

	return session.NewManager(middleware.Chain(store, mws...), sessionOpt...), nil
}
