// Package session wires config into a running taskflow engine: identity,
// remote backend, store, parser and scheduler. The CLI and the HTTP server
// both work through a Session.
package session

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/mrz1836/taskflow/internal/ai"
	"github.com/mrz1836/taskflow/internal/clock"
	"github.com/mrz1836/taskflow/internal/config"
	"github.com/mrz1836/taskflow/internal/contracts"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/logging"
	"github.com/mrz1836/taskflow/internal/metrics"
	"github.com/mrz1836/taskflow/internal/parser"
	"github.com/mrz1836/taskflow/internal/remote"
	"github.com/mrz1836/taskflow/internal/scheduler"
	"github.com/mrz1836/taskflow/internal/store"
	"github.com/mrz1836/taskflow/internal/view"
)

// Deps overrides the collaborators Open would otherwise build from config.
// The zero value builds everything from config.
type Deps struct {
	Logger zerolog.Logger
	Clock  clock.Clock

	// Identity defaults to the configured identity.user_id.
	Identity contracts.Identity

	// Remote replaces the configured backend. Session.Close closes it.
	Remote remote.Backend

	// Generator replaces the Gemini client. Set it to use a fake in tests.
	Generator contracts.TextGenerator

	// FailureHandler receives remote operations that exhausted their retries.
	FailureHandler store.FailureHandler

	// Getenv reads the parser API key. Defaults to os.Getenv.
	Getenv func(string) string
}

// Session is one user's running engine.
type Session struct {
	Config    *config.Config
	Store     *store.Store
	Parser    *parser.Parser
	Scheduler *scheduler.Scheduler

	// Registry holds the session's collectors for /metrics.
	Registry *prometheus.Registry

	clock     clock.Clock
	remote    remote.Backend
	logger    zerolog.Logger
	loadErr   error
	closeOnce sync.Once
	closeErr  error
}

// Open builds a session from cfg and loads the remote snapshot. A failed
// initial load is logged and kept in LoadErr; the session still opens with
// local defaults so the caller can work offline.
func Open(ctx context.Context, cfg *config.Config, deps Deps) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := logging.WithComponent(deps.Logger, logging.ComponentSession)
	clk := clock.Or(deps.Clock)

	identity := deps.Identity
	if identity == nil {
		identity = contracts.StaticIdentity(cfg.Identity.UserID)
	}
	userID, err := identity.CurrentUserID(ctx)
	if err != nil {
		return nil, tferrors.Wrap(err, "resolve identity")
	}

	backend := deps.Remote
	if backend == nil {
		backend, err = remote.New(ctx, cfg.Remote, deps.Logger)
		if err != nil {
			return nil, tferrors.Wrap(err, "open remote")
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	storeOpts := []store.Option{
		store.WithClock(clk),
		store.WithLogger(deps.Logger),
		store.WithMetrics(m),
		store.WithSyncConfig(cfg.Sync),
	}
	if deps.FailureHandler != nil {
		storeOpts = append(storeOpts, store.WithFailureHandler(deps.FailureHandler))
	}
	st, err := store.New(backend, userID, storeOpts...)
	if err != nil {
		if closeErr := backend.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("failed to close remote")
		}
		return nil, err
	}

	s := &Session{
		Config:   cfg,
		Store:    st,
		Registry: registry,
		clock:    clk,
		remote:   backend,
		logger:   logger.With().Str("user_id", userID).Logger(),
	}

	if err := st.LoadData(ctx); err != nil {
		s.loadErr = err
		s.logger.Warn().Err(err).Msg("initial load failed, continuing with local state")
	}

	s.Parser = parser.New(buildGenerator(cfg, deps, logger),
		parser.WithClock(clk),
		parser.WithLogger(deps.Logger),
		parser.WithMetrics(m),
	)

	s.Scheduler = scheduler.New(st,
		scheduler.WithInterval(cfg.Scheduler.Interval),
		scheduler.WithClock(clk),
		scheduler.WithLogger(deps.Logger),
		scheduler.WithMetrics(m),
	)
	if cfg.Scheduler.Enabled {
		s.Scheduler.Start(context.WithoutCancel(ctx))
	}

	s.logger.Debug().
		Str("backend", cfg.Remote.Backend).
		Bool("scheduler", cfg.Scheduler.Enabled).
		Msg("session opened")
	return s, nil
}

// buildGenerator returns the configured text generator, or nil when the
// parser should only use its heuristic.
func buildGenerator(cfg *config.Config, deps Deps, logger zerolog.Logger) contracts.TextGenerator {
	if deps.Generator != nil {
		return deps.Generator
	}
	if !cfg.Parser.Enabled {
		return nil
	}

	getenv := deps.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	client, err := ai.NewGeminiClient(&cfg.Parser, getenv(cfg.Parser.APIKeyEnvVar), ai.WithLogger(deps.Logger))
	if err != nil {
		logger.Info().Err(err).Msg("text generation disabled, parsing with heuristic only")
		return nil
	}
	return client
}

// LoadErr returns the error of the initial load, if any.
func (s *Session) LoadErr() error {
	return s.loadErr
}

// Clock returns the session clock.
func (s *Session) Clock() clock.Clock {
	return s.clock
}

// Today returns the current calendar date.
func (s *Session) Today() domain.Date {
	return domain.DateOf(s.clock.Now())
}

// Lists returns the lists of the active workspace, built-ins first.
func (s *Session) Lists() []domain.List {
	st := s.Store.State()
	return view.FilteredLists(st, st.ActiveWorkspaceID)
}

// ParseText turns free text into a draft placed against the active
// workspace's lists.
func (s *Session) ParseText(ctx context.Context, text string) domain.TaskDraft {
	return s.Parser.Parse(ctx, text, s.Lists())
}

// AddFromText parses text and creates the task in the active workspace.
func (s *Session) AddFromText(ctx context.Context, text string) (domain.Task, error) {
	return s.Store.AddTask(ctx, s.ParseText(ctx, text))
}

// Sync reloads from the remote and waits for queued writes.
func (s *Session) Sync(ctx context.Context) error {
	if err := s.Store.LoadData(ctx); err != nil {
		return err
	}
	return s.Store.Flush(ctx)
}

// Close stops the scheduler, waits up to sync.flush_timeout for pending
// remote writes, then closes the remote. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.Scheduler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), s.Config.Sync.FlushTimeout)
		defer cancel()

		var errs []error
		if pending := s.Store.PendingSyncs(); pending > 0 {
			s.logger.Debug().Int("pending", pending).Msg("flushing remote writes")
		}
		if err := s.Store.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		if err := s.remote.Close(); err != nil {
			errs = append(errs, tferrors.Wrap(err, "close remote"))
		}
		s.closeErr = errors.Join(errs...)
		s.logger.Debug().Err(s.closeErr).Msg("session closed")
	})
	return s.closeErr
}
