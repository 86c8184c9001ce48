package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/session"
	"github.com/mrz1836/taskflow/internal/tui"
)

// AddWorkspaceCommand adds the workspace command group to the root command.
func AddWorkspaceCommand(root *cobra.Command, env *Env) {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Manage workspaces",
		Long: `Manage workspaces. Every command works in one workspace, selected with
--workspace or TASKFLOW_WORKSPACE; the first workspace is used otherwise.`,
	}

	cmd.AddCommand(
		newWorkspaceListCmd(env),
		newWorkspaceAddCmd(env),
		newWorkspaceEditCmd(env),
		newWorkspaceDeleteCmd(env),
	)
	root.AddCommand(cmd)
}

func newWorkspaceListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List workspaces",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.withSession(cmd, func(_ context.Context, s *session.Session, out tui.Output) error {
				st := s.Store.State()
				if env.isJSON() {
					return out.JSON(st.Workspaces)
				}

				counts := make(map[string]int, len(st.Workspaces))
				for _, t := range st.Tasks {
					counts[t.WorkspaceID]++
				}
				rows := make([][]string, 0, len(st.Workspaces))
				for _, w := range st.Workspaces {
					active := ""
					if w.ID == st.ActiveWorkspaceID {
						active = "*"
					}
					rows = append(rows, []string{active, w.ID, w.Name, w.Color, fmt.Sprint(counts[w.ID])})
				}
				out.Table([]string{"", "ID", "NAME", "COLOR", "TASKS"}, rows)
				return nil
			})
		},
	}
}

func newWorkspaceAddCmd(env *Env) *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withSession(cmd, func(ctx context.Context, s *session.Session, out tui.Output) error {
				w, err := s.Store.AddWorkspace(ctx, args[0], color)
				if err != nil {
					return err
				}
				if env.isJSON() {
					return out.JSON(w)
				}
				out.Success(fmt.Sprintf("Created workspace %s: %s", w.ID, w.Name))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "workspace color (default: "+domain.DefaultWorkspaceColor+")")
	return cmd
}

func newWorkspaceEditCmd(env *Env) *cobra.Command {
	var name, color, icon string
	cmd := &cobra.Command{
		Use:     "edit <workspace-id>",
		Aliases: []string{"rename"},
		Short:   "Change the name, color or icon of a workspace",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.WorkspacePatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("color") {
				patch.Color = &color
			}
			if cmd.Flags().Changed("icon") {
				patch.Icon = &icon
			}
			if patch.Name == nil && patch.Color == nil && patch.Icon == nil {
				return tferrors.NewExitCode2Error(tferrors.Wrap(tferrors.ErrEmptyValue, "nothing to change; pass --name, --color or --icon"))
			}

			return env.withSession(cmd, func(ctx context.Context, s *session.Session, out tui.Output) error {
				w, err := s.Store.UpdateWorkspace(ctx, args[0], patch)
				if err != nil {
					return err
				}
				if env.isJSON() {
					return out.JSON(w)
				}
				out.Success("Updated workspace " + w.ID)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "new name")
	f.StringVar(&color, "color", "", "new color")
	f.StringVar(&icon, "icon", "", "new icon")
	return cmd
}

func newWorkspaceDeleteCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <workspace-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a workspace; its tasks and lists are kept",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withSession(cmd, func(ctx context.Context, s *session.Session, out tui.Output) error {
				if err := s.Store.DeleteWorkspace(ctx, args[0]); err != nil {
					return err
				}
				out.Success("Deleted workspace " + args[0])
				return nil
			})
		},
	}
}
