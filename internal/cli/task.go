package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/session"
	"github.com/mrz1836/taskflow/internal/tui"
)

// AddTaskCommands adds the task commands to the root command.
func AddTaskCommands(root *cobra.Command, env *Env) {
	root.AddCommand(
		newAddCmd(env),
		newParseCmd(env),
		newShowCmd(env),
		newEditCmd(env),
		newMoveCmd(env),
		newDeleteCmd(env),
		newCommentCmd(env),
		newSubtaskCmd(env),
	)
}

// draftFlags are the explicit fields add accepts on top of the parsed text.
type draftFlags struct {
	NoParse     bool
	Priority    string
	Status      string
	List        string
	Start       string
	Due         string
	Labels      []string
	Assignee    string
	Description string
}

func newAddCmd(env *Env) *cobra.Command {
	flags := &draftFlags{}
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Create a task from natural language",
		Long: `Create a task in the active workspace.

The text is parsed for a title, priority, dates and labels. With an AI key
configured the parser asks the model first and falls back to local rules.
Explicit flags always win over what the parser found.

Examples:
  taskflow add "Create a high priority bug fix for login issues"
  taskflow add "Write release notes due 2026-03-14" --label docs
  taskflow add --no-parse "Exactly this title" --priority low`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return env.withSession(cmd, func(ctx context.Context, s *session.Session, out tui.Output) error {
				return runAdd(ctx, env, s, out, text, flags)
			})
		},
	}

	f := cmd.Flags()
	f.BoolVar(&flags.NoParse, "no-parse", false, "use the text as the title without parsing")
	f.StringVarP(&flags.Priority, "priority", "p", "", "priority (low|medium|high|urgent)")
	f.StringVarP(&flags.Status, "status", "s", "", "status (yet-to-start|backlog|in-progress|review|done)")
	f.StringVarP(&flags.List, "list", "l", "", "list id (a status or a custom list)")
	f.StringVar(&flags.Start, "start", "", "start date (YYYY-MM-DD)")
	f.StringVar(&flags.Due, "due", "", "due date (YYYY-MM-DD)")
	f.StringSliceVar(&flags.Labels, "label", nil, "label (repeatable)")
	f.StringVar(&flags.Assignee, "assignee", "", "assignee name")
	f.StringVarP(&flags.Description, "description", "d", "", "description")
	return cmd
}

func runAdd(ctx context.Context, env *Env, s *session.Session, out tui.Output, text string, flags *draftFlags) error {
	var draft domain.TaskDraft
	if flags.NoParse {
		draft = domain.TaskDraft{Title: text}
	} else {
		draft = s.ParseText(ctx, text)
	}
	if err := flags.apply(&draft); err != nil {
		return err
	}

	task, err := s.Store.AddTask(ctx, draft)
	if err != nil {
		return err
	}

	if env.isJSON() {
		return out.JSON(task)
	}
	out.Success(fmt.Sprintf("Created %s: %s", task.ID, task.Title))
	out.Info(fmt.Sprintf("%s · %s", task.Status, task.Priority))
	return nil
}

// apply overlays the set flags on draft.
func (f *draftFlags) apply(draft *domain.TaskDraft) error {
	if f.Priority != "" {
		p, err := parsePriority(f.Priority)
		if err != nil {
			return err
		}
		draft.Priority = p
	}
	if f.Status != "" {
		st, err := parseStatus(f.Status)
		if err != nil {
			return err
		}
		draft.Status = st
		draft.ListID = ""
	}
	if f.List != "" {
		draft.ListID = f.List
	}
	if f.Start != "" {
		d, err := domain.ParseDate(f.Start)
		if err != nil {
			return err
		}
		draft.StartDate = &d
	}
	if f.Due != "" {
		d, err := domain.ParseDate(f.Due)
		if err != nil {
			return err
		}
		draft.DueDate = &d
	}
	if len(f.Labels) > 0 {
		draft.Labels = append(draft.Labels, f.Labels...)
	}
	if f.Assignee != "" {
		draft.Assignee = f.Assignee
	}
	if f.Description != "" {
		draft.Description = f.Description
	}
	return nil
}

func parsePriority(s string) (domain.Priority, error) {
	p := domain.Priority(strings.ToLower(strings.TrimSpace(s)))
	if !domain.IsValidPriority(p) {
		return "", tferrors.Wrapf(tferrors.ErrInvalidPriority, "%q", s)
	}
	return p, nil
}

func parseStatus(s string) (domain.Status, error) {
	st := domain.Status(strings.ToLower(strings.TrimSpace(s)))
	if !domain.IsValidStatus(st) {
		return "", tferrors.Wrapf(tferrors.ErrInvalidStatus, "%q", s)
	}
	return st, nil
}

func newParseCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text>",
		Short: "Show how text would be parsed, without creating a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return env.withSession(cmd, func(ctx context.Context, s *session.Session, out tui.Output) error {
				draft := s.ParseText(ctx, text)
				if env.isJSON() {
					return out.JSON(draft)
				}
				rows := [][]string{
					{"title", draft.Title},
					{"priority", string(draft.Priority)},
					{"status", string(draft.Status)},
					{"list", draft.ListID},
					{"labels", strings.Join(draft.Labels, ", ")},
				}
				if draft.StartDate != nil {
					rows = append(rows, []string{"start", draft.StartDate.String()})
				}
				if draft.DueDate != nil {
					rows = append(rows, []string{"due", draft.DueDate.String()})
				}
				if draft.Description != "" {
					rows = append(rows, []string{"description", draft.Description})
				}
				out.Table([]string{"FIELD", "VALUE"}, rows)
				return nil
			})
		},
	}
}

func newShowCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show every field of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withSession(cmd, func(_ context.Context, s *session.Session, out tui.Output) error {
				task, err := s.Store.Task(args[0])
				if err != nil {
					return err
				}
				if env.isJSON() {
					return out.JSON(task)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), tui.TaskDetail(task))
				return err
			})
		},
	}
}

// editFlags hold the fields edit can change. Only flags that were set on
// the command line become part of the patch.
type editFlags struct {
	Title       string
	Description string
	Priority    string
	Status      string
	Labels      []string
	Assignee    string
	Start       string
	Due         string
	ClearStart  bool
	ClearDue    bool
}

func newEditCmd(env *Env) *cobra.Command {
	flags := &editFlags{}
	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Change fields of a task",
		Long: `Change fields of a task. Only the flags you pass are changed.

Examples:
  taskflow edit t-123 --priority urgent --due 2026-03-20
  taskflow edit t-123 --clear-due
  taskflow edit t-123 --label bug --label auth`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := flags.patch(cmd)
			if err != nil {
				return err
			}
			if patch.IsEmpty() {
				return tferrors.NewExitCode2Error(tferrors.Wrap(tferrors.ErrEmptyValue, "nothing to change, pass at least one flag"))
			}
			return env.withSession(cmd, func(ctx context.Context, s *session.Session, out tui.Output) error {
				task, err := s.Store.UpdateTask(ctx, args[0], patch)
				if err != nil {
					return err
				}
				if env.isJSON() {
					return out.JSON(task)
				}
				out.Success("Updated " + task.ID)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.Title, "title", "", "new title")
	f.StringVarP(&flags.Description, "description", "d", "", "new description")
	f.StringVarP(&flags.Priority, "priority", "p", "", "priority (low|medium|high|urgent)")
	f.StringVarP(&flags.Status, "status", "s", "", "status")
	f.StringSliceVar(&flags.Labels, "label", nil, "replace labels (repeatable)")
	f.StringVar(&flags.Assignee, "assignee", "", "assignee name")
	f.StringVar(&flags.Start, "start", "", "start date (YYYY-MM-DD)")
	f.StringVar(&flags.Due, "due", "", "due date (YYYY-MM-DD)")
	f.BoolVar(&flags.ClearStart, "clear-start", false, "remove the start date")
	f.BoolVar(&flags.ClearDue, "clear-due", false, "remove the due date")
	return cmd
}

// patch builds a TaskPatch from the flags that were changed.
func (f *editFlags) patch(cmd *cobra.Command) (domain.TaskPatch, error) {
	var p domain.TaskPatch
	changed := cmd.Flags().Changed

	if changed("title") {
		p.Title = &f.Title
	}
	if changed("description") {
		p.Description = &f.Description
	}
	if changed("priority") {
		pr, err := parsePriority(f.Priority)
		if err != nil {
			return p, err
		}
		p.Priority = &pr
	}
	if changed("status") {
		st, err := parseStatus(f.Status)
		if err != nil {
			return p, err
		}
		p.Status = &st
	}
	if changed("label") {
		p.Labels = f.Labels
	}
	if changed("assignee") {
		p.Assignee = &f.Assignee
	}
	if changed("start") {
		d, err := domain.ParseDate(f.Start)
		if err != nil {
			return p, err
		}
		p.StartDate = &d
	}
	if changed("due") {
		d, err := domain.ParseDate(f.Due)
		if err != nil {
			return p, err
		}
		p.DueDate = &d
	}
	p.ClearStartDate = f.ClearStart
	p.ClearDueDate = f.ClearDue
	return p, nil
}

func newMoveCmd(env *Env) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "move <task-id> <list>",
		Short: "Move a task to a status column or a custom list",
		Long: `Move a task on the board. The target is a status (yet-to-start, backlog,
in-progress, review, done) or the id of a custom list. Moving into a custom
list keeps the task's status unless --status is given.

Examples:
  taskflow move t-123 in-progress
  taskflow move t-123 l-456 --status review`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var st domain.Status
			if status != "" {
				parsed, err := parseStatus(status)
				if err != nil {
					return err
				}
				st = parsed
			}
			return env.withSession(cmd, func(ctx context.Context, s *session.Session, out tui.Output) error {
				task, err := s.Store.MoveTask(ctx, args[0], st, args[1])
				if err != nil {
					return err
				}
				if env.isJSON() {
					return out.JSON(task)
				}
				where := string(task.Status)
				if task.ListID != "" {
					where = task.ListID + " (" + where + ")"
				}
				out.Success(fmt.Sprintf("Moved %s to %s", task.ID, where))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "status to set when moving into a custom list")
	return cmd
}

func newDeleteCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <task-id>...",
		Aliases: []string{"rm"},
		Short:   "Delete tasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withSession(cmd, func(ctx context.Context, s *session.Session, out tui.Output) error {
				for _, id := range args {
					if err := s.Store.DeleteTask(ctx, id); err != nil {
						return err
					}
					out.Success("Deleted " + id)
				}
				if env.isJSON() {
					return out.JSON(map[string][]string{"deleted": args})
				}
				return nil
			})
		},
	}
}

func newCommentCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <task-id> <text>",
		Short: "Add a comment to a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			return env.withSession(cmd, func(ctx context.Context, s *session.Session, out tui.Output) error {
				c, err := s.Store.AddComment(ctx, args[0], text, s.Store.UserID())
				if err != nil {
					return err
				}
				if env.isJSON() {
					return out.JSON(c)
				}
				out.Success("Commented on " + args[0])
				return nil
			})
		},
	}
}

func newSubtaskCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtask",
		Short: "Manage the checklist of a task",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <task-id> <text>",
		Short: "Append a checklist item",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			return env.withSession(cmd, func(ctx context.Context, s *session.Session, out tui.Output) error {
				st, err := s.Store.AddSubtask(ctx, args[0], text)
				if err != nil {
					return err
				}
				if env.isJSON() {
					return out.JSON(st)
				}
				out.Success(fmt.Sprintf("Added %s to %s", st.ID, args[0]))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <task-id> <subtask-id>",
		Short: "Check or uncheck a checklist item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withSession(cmd, func(ctx context.Context, s *session.Session, out tui.Output) error {
				task, err := s.Store.ToggleSubtask(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if env.isJSON() {
					return out.JSON(task)
				}
				out.Success("Toggled " + args[1])
				return nil
			})
		},
	})
	return cmd
}
