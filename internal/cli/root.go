// Package cli provides the command-line interface for taskflow.
package cli

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/tui"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	// Version is the semantic version (e.g., "1.0.0").
	Version string
	// Commit is the git commit hash.
	Commit string
	// Date is the build date.
	Date string
}

// globalLogger stores the initialized logger for use by subcommands.
// It is set during PersistentPreRunE and read through GetLogger.
var (
	globalLogger   zerolog.Logger //nolint:gochecknoglobals // CLI logger requires global access
	globalLoggerMu sync.RWMutex   //nolint:gochecknoglobals // Protects globalLogger
)

// GetLogger returns the initialized logger for use by subcommands.
//
// It MUST only be called after the root command's PersistentPreRunE has
// run; before that it returns a zero-value logger that discards output.
// It is safe for concurrent use.
func GetLogger() zerolog.Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

func setLogger(l zerolog.Logger) {
	globalLoggerMu.Lock()
	globalLogger = l
	globalLoggerMu.Unlock()
}

// newRootCmd creates the root command for the taskflow CLI.
func newRootCmd(env *Env, info BuildInfo) *cobra.Command {
	v := viper.New()
	flags := env.Flags

	cmd := &cobra.Command{
		Use:   "taskflow",
		Short: "Taskflow - tasks that sync and schedule themselves",
		Long: `Taskflow keeps your tasks in a local store that syncs to a remote backend
(file, redis, sql or memory) and promotes scheduled tasks when their start
date arrives.

Features:
  • Natural-language task entry with an AI parser and a local fallback
  • Optimistic local edits with background sync and retries
  • Board, list, timeline and summary views per workspace
  • An HTTP API with the same operations (taskflow serve)`,
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			applyBoundFlags(v, flags)

			if !IsValidOutputFormat(flags.Output) {
				return errors.NewExitCode2Error(fmt.Errorf("%w: %q must be one of %v",
					errors.ErrInvalidOutputFormat, flags.Output, ValidOutputFormats()))
			}

			setLogger(env.initLogger(flags.Verbose, flags.Quiet))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(cmd, flags)

	AddTaskCommands(cmd, env)
	AddViewCommands(cmd, env)
	AddWorkspaceCommand(cmd, env)
	AddSyncCommands(cmd, env)
	AddServeCommand(cmd, env)
	AddConfigCommand(cmd, env)

	return cmd
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command with the provided context and build info.
// Errors are printed to stderr with a suggested action when one is known.
func Execute(ctx context.Context, info BuildInfo) error {
	env := NewEnv()
	//nolint:contextcheck // Cobra command pattern uses cmd.Context() internally
	cmd := newRootCmd(env, info)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		tui.NewOutput(os.Stderr, env.Flags.Output).Error(err)
	}
	CloseLogFile()
	return err
}
