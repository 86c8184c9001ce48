package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/taskflow/internal/session"
	"github.com/mrz1836/taskflow/internal/tui"
)

// syncResult is the JSON form of the sync command.
type syncResult struct {
	Tasks      int `json:"tasks"`
	Lists      int `json:"lists"`
	Workspaces int `json:"workspaces"`
	Pending    int `json:"pending"`
}

// scanResult is the JSON form of the scan command.
type scanResult struct {
	Promoted int `json:"promoted"`
}

// AddSyncCommands adds sync and scan to the root command.
func AddSyncCommands(root *cobra.Command, env *Env) {
	root.AddCommand(newSyncCmd(env), newScanCmd(env))
}

func newSyncCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reload from the remote and push local changes",
		Long: `Reload the remote snapshot, merge it with local state by last-write-wins,
and wait for every queued remote write to finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.withSession(cmd, func(ctx context.Context, s *session.Session, out tui.Output) error {
				if err := s.Sync(ctx); err != nil {
					return err
				}
				st := s.Store.State()
				res := syncResult{
					Tasks:      len(st.Tasks),
					Lists:      len(st.Lists),
					Workspaces: len(st.Workspaces),
					Pending:    s.Store.PendingSyncs(),
				}
				if env.isJSON() {
					return out.JSON(res)
				}
				out.Success(fmt.Sprintf("Synced %d tasks in %d workspaces", res.Tasks, res.Workspaces))
				if res.Pending > 0 {
					out.Warning(fmt.Sprintf("%d changes still pending", res.Pending))
				}
				return nil
			})
		},
	}
}

func newScanCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Start tasks whose start date has arrived",
		Long: `Move every yet-to-start task whose start date is today or earlier to
in-progress. Other commands run this scan automatically when
scheduler.enabled is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.withSession(cmd, func(ctx context.Context, s *session.Session, out tui.Output) error {
				promoted, err := s.Scheduler.Scan(ctx)
				if err != nil {
					return err
				}
				if env.isJSON() {
					return out.JSON(scanResult{Promoted: promoted})
				}
				if promoted == 0 {
					out.Info("No tasks to start.")
					return nil
				}
				out.Success(fmt.Sprintf("Started %d tasks", promoted))
				return nil
			})
		},
	}
}
