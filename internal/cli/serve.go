package cli

import (
	"github.com/spf13/cobra"

	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/server"
)

// AddServeCommand adds the serve command to the root command.
func AddServeCommand(root *cobra.Command, env *Env) {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the HTTP API until interrupted. The scheduler runs in the
background when scheduler.enabled is set, and queued remote writes are
flushed on shutdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := env.WithSignals(cmd.Context())
			defer stop()

			s, err := env.openSession(ctx, longRunning)
			if err != nil {
				return err
			}
			if loadErr := s.LoadErr(); loadErr != nil {
				logger := GetLogger()
				logger.Warn().Err(loadErr).Msg("initial load failed, serving local state")
			}

			cfg := s.Config.Server
			if addr != "" {
				cfg.Addr = addr
			}

			runErr := server.New(s, cfg, GetLogger()).Run(ctx)
			closeErr := s.Close()
			if runErr != nil {
				return tferrors.Wrap(runErr, "server failed")
			}
			if closeErr != nil {
				return tferrors.Wrap(closeErr, "changes may not have reached the remote")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	root.AddCommand(cmd)
}
