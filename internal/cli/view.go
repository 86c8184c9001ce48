package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/session"
	"github.com/mrz1836/taskflow/internal/tui"
	"github.com/mrz1836/taskflow/internal/view"
)

// AddViewCommands adds the read-only views to the root command.
func AddViewCommands(root *cobra.Command, env *Env) {
	root.AddCommand(
		newListCmd(env),
		newBoardCmd(env),
		newSummaryCmd(env),
		newListsCmd(env),
	)
}

// listFlags select and order the tasks of the list command.
type listFlags struct {
	Search   string
	Status   string
	Priority string
	Assignee string
	All      bool
	Timeline bool
	On       string
	Recent   int
}

func newListCmd(env *Env) *cobra.Command {
	flags := &listFlags{}
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks of the active workspace",
		Long: `List tasks of the active workspace, or of every workspace with --all.

Examples:
  taskflow list --status in-progress
  taskflow list --search login --priority high
  taskflow list --timeline
  taskflow list --on 2026-03-14
  taskflow list --recent 5 --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := flags.filter()
			if err != nil {
				return err
			}
			var on *domain.Date
			if flags.On != "" {
				d, err := domain.ParseDate(flags.On)
				if err != nil {
					return err
				}
				on = &d
			}

			return env.withSession(cmd, func(_ context.Context, s *session.Session, out tui.Output) error {
				st := s.Store.State()
				ws := st.ActiveWorkspaceID
				if flags.All {
					ws = ""
				}

				tasks := filter.Apply(view.FilteredTasks(st, ws))
				if on != nil {
					tasks = view.OnDate(tasks, *on)
				}
				switch {
				case flags.Timeline:
					tasks = view.Timeline(tasks)
				case flags.Recent > 0:
					tasks = view.RecentlyUpdated(tasks, flags.Recent)
				}

				if env.isJSON() {
					return out.JSON(tasks)
				}
				if len(tasks) == 0 {
					out.Info("No tasks match.")
					return nil
				}
				out.Table(tui.TaskHeaders(), tui.TaskRows(tasks, s.Today(), s.Clock()))
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.Search, "search", "", "match title or description (case-insensitive)")
	f.StringVarP(&flags.Status, "status", "s", "", "only this status")
	f.StringVarP(&flags.Priority, "priority", "p", "", "only this priority")
	f.StringVar(&flags.Assignee, "assignee", "", "only this assignee")
	f.BoolVarP(&flags.All, "all", "a", false, "include every workspace")
	f.BoolVar(&flags.Timeline, "timeline", false, "order by due date, then start date, then creation")
	f.StringVar(&flags.On, "on", "", "only tasks due or starting on this date (YYYY-MM-DD)")
	f.IntVar(&flags.Recent, "recent", 0, "only the N most recently updated tasks")
	cmd.MarkFlagsMutuallyExclusive("timeline", "recent")
	return cmd
}

func (f *listFlags) filter() (view.Filter, error) {
	filter := view.Filter{Search: f.Search, Assignee: f.Assignee}
	if f.Status != "" {
		st, err := parseStatus(f.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = st
	}
	if f.Priority != "" {
		p, err := parsePriority(f.Priority)
		if err != nil {
			return filter, err
		}
		filter.Priority = p
	}
	return filter, nil
}

func newBoardCmd(env *Env) *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the active workspace as board columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.withSession(cmd, func(_ context.Context, s *session.Session, out tui.Output) error {
				st := s.Store.State()
				board := view.BoardFor(st, st.ActiveWorkspaceID)
				if env.isJSON() {
					return out.JSON(board)
				}

				if width <= 0 {
					width = tui.TerminalWidth()
				}
				if ws, ok := st.Workspace(st.ActiveWorkspaceID); ok {
					out.Info(ws.Name)
				}
				tui.NewBoardRenderer(width, s.Today()).Render(cmd.OutOrStdout(), board)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&width, "width", 0, "render width (default: terminal width)")
	return cmd
}

func newSummaryCmd(env *Env) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show task counts for the active workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.withSession(cmd, func(_ context.Context, s *session.Session, out tui.Output) error {
				st := s.Store.State()
				ws := st.ActiveWorkspaceID
				if all {
					ws = ""
				}
				summary := view.Summarize(view.FilteredTasks(st, ws), s.Today())
				if env.isJSON() {
					return out.JSON(summary)
				}
				for _, line := range tui.SummaryLines(summary) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include every workspace")
	return cmd
}

func newListsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Show and manage the board lists of the active workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.withSession(cmd, func(_ context.Context, s *session.Session, out tui.Output) error {
				lists := s.Lists()
				if env.isJSON() {
					return out.JSON(lists)
				}
				rows := make([][]string, 0, len(lists))
				for _, l := range lists {
					kind := "custom"
					if l.IsBuiltIn() {
						kind = "built-in"
					}
					rows = append(rows, []string{l.ID, l.Title, kind})
				}
				out.Table([]string{"ID", "TITLE", "KIND"}, rows)
				return nil
			})
		},
	}

	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a custom list in the active workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withSession(cmd, func(ctx context.Context, s *session.Session, out tui.Output) error {
				l, err := s.Store.AddList(ctx, args[0], "")
				if err != nil {
					return err
				}
				if env.isJSON() {
					return out.JSON(l)
				}
				out.Success(fmt.Sprintf("Created list %s: %s", l.ID, l.Title))
				return nil
			})
		},
	}

	rename := &cobra.Command{
		Use:   "rename <list-id> <title>",
		Short: "Rename a custom list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withSession(cmd, func(ctx context.Context, s *session.Session, out tui.Output) error {
				l, err := s.Store.RenameList(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if env.isJSON() {
					return out.JSON(l)
				}
				out.Success("Renamed " + l.ID)
				return nil
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <list-id>",
		Short: "Delete a custom list; its tasks show in their status column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withSession(cmd, func(ctx context.Context, s *session.Session, out tui.Output) error {
				if err := s.Store.DeleteList(ctx, args[0]); err != nil {
					return err
				}
				out.Success("Deleted list " + args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(add, rename, del)
	return cmd
}
