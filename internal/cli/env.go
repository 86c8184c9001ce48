package cli

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mrz1836/taskflow/internal/config"
	"github.com/mrz1836/taskflow/internal/ctxutil"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/session"
	"github.com/mrz1836/taskflow/internal/signal"
	"github.com/mrz1836/taskflow/internal/tui"
)

// Env carries what commands need besides their own flags.
// Tests replace its fields to run commands against in-memory collaborators.
type Env struct {
	Flags *GlobalFlags

	// LoadConfig loads the layered configuration with overrides applied.
	LoadConfig func(ctx context.Context, overrides *config.Config) (*config.Config, error)

	// Deps are handed to session.Open. Logger is filled in per command.
	Deps session.Deps

	// LogWriter, when set, receives every log line instead of stderr and
	// the log file.
	LogWriter io.Writer

	// WithSignals returns a context cancelled on SIGINT or SIGTERM.
	WithSignals func(ctx context.Context) (context.Context, func())
}

// NewEnv returns the production environment.
func NewEnv() *Env {
	return &Env{
		Flags:      &GlobalFlags{},
		LoadConfig: config.LoadWithOverrides,
		WithSignals: func(ctx context.Context) (context.Context, func()) {
			h := signal.NewHandler(ctx, signal.WithLogger(GetLogger()))
			return h.Context(), h.Stop
		},
	}
}

// initLogger builds the CLI logger. Log settings come from config; a config
// that fails to load falls back to defaults so the error can be reported by
// the command itself.
func (e *Env) initLogger(verbose, quiet bool) zerolog.Logger {
	if e.LogWriter != nil {
		return InitLoggerWithWriter(verbose, quiet, e.LogWriter)
	}
	logCfg := config.DefaultConfig().Log
	if cfg, err := e.LoadConfig(context.Background(), e.Flags.overrides()); err == nil {
		logCfg = cfg.Log
	}
	return InitLogger(verbose, quiet, logCfg)
}

// config loads configuration with the global flag overrides.
func (e *Env) config(ctx context.Context) (*config.Config, error) {
	cfg, err := e.LoadConfig(ctx, e.Flags.overrides())
	if err != nil {
		return nil, tferrors.Wrap(err, "failed to load configuration")
	}
	return cfg, nil
}

// sessionMode selects how openSession treats the scheduler.
type sessionMode int

const (
	// oneShot runs a single synchronous scan when the scheduler is enabled
	// and never starts the background loop.
	oneShot sessionMode = iota
	// longRunning starts the scheduler loop as configured.
	longRunning
)

// openSession loads config and opens a session for the current command.
func (e *Env) openSession(ctx context.Context, mode sessionMode) (*session.Session, error) {
	cfg, err := e.config(ctx)
	if err != nil {
		return nil, err
	}

	scan := cfg.Scheduler.Enabled
	if mode == oneShot {
		cfg.Scheduler.Enabled = false
	}

	deps := e.Deps
	deps.Logger = GetLogger()
	s, err := session.Open(ctx, cfg, deps)
	if err != nil {
		return nil, err
	}

	if e.Flags.Workspace != "" {
		if err := s.Store.SetActiveWorkspace(ctx, e.Flags.Workspace); err != nil {
			_ = s.Close()
			return nil, err
		}
	}

	if mode == oneShot && scan {
		promoted, err := s.Scheduler.Scan(ctx)
		if err != nil {
			deps.Logger.Warn().Err(err).Msg("scheduled task scan failed")
		}
		deps.Logger.Debug().Int("promoted", promoted).Msg("scheduled task scan")
	}
	return s, nil
}

// runFunc is the body of a command that works on a session.
type runFunc func(ctx context.Context, s *session.Session, out tui.Output) error

// withSession opens a one-shot session, runs fn and closes the session,
// waiting for queued remote writes. A failed close is reported only when
// fn succeeded.
func (e *Env) withSession(cmd *cobra.Command, fn runFunc) error {
	ctx := cmd.Context()
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	s, err := e.openSession(ctx, oneShot)
	if err != nil {
		return err
	}

	out := e.output(cmd)
	if loadErr := s.LoadErr(); loadErr != nil {
		out.Warning("working offline: " + loadErr.Error())
	}

	runErr := fn(ctx, s, out)
	closeErr := s.Close()
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return tferrors.Wrap(closeErr, "changes may not have reached the remote")
	}
	return nil
}

// output returns the formatter for the --output flag.
func (e *Env) output(cmd *cobra.Command) tui.Output {
	return tui.NewOutput(cmd.OutOrStdout(), e.Flags.Output)
}

// isJSON reports whether --output json is set.
func (e *Env) isJSON() bool {
	return e.Flags.Output == OutputJSON
}
