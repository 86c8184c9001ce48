package store

import (
	"context"
	"strings"

	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// AddTask creates a task from draft.
//
// An empty WorkspaceID means the active workspace. A custom ListID must name
// a list of that workspace. A built-in ListID is folded into Status. A draft with no status and a StartDate after today is
// created as yet-to-start.
func (s *Store) AddTask(ctx context.Context, draft domain.TaskDraft) (domain.Task, error) {
	if err := domain.Validate(draft); err != nil {
		return domain.Task{}, err
	}

	if err := s.begin(ctx); err != nil {
		return domain.Task{}, err
	}

	if draft.WorkspaceID == "" {
		draft.WorkspaceID = s.activeWorkspaceID
	}
	if s.workspaceIndex(draft.WorkspaceID) < 0 {
		s.mu.Unlock()
		return domain.Task{}, tferrors.Wrapf(tferrors.ErrWorkspaceNotFound, "id %q", draft.WorkspaceID)
	}

	switch {
	case draft.ListID == "":
	case domain.IsBuiltInListID(draft.ListID):
		draft.Status = domain.Status(draft.ListID)
		draft.ListID = ""
	case !s.hasListLocked(draft.ListID, draft.WorkspaceID):
		s.mu.Unlock()
		return domain.Task{}, tferrors.Wrapf(tferrors.ErrListNotFound, "id %q in workspace %q", draft.ListID, draft.WorkspaceID)
	}

	now := s.clock.Now()
	if draft.Status == "" && draft.StartDate != nil && draft.StartDate.After(domain.DateOf(now)) {
		draft.Status = domain.StatusYetToStart
	}

	task := domain.NewTask(draft, s.newID(), now)
	if err := domain.Validate(task); err != nil {
		s.mu.Unlock()
		return domain.Task{}, err
	}

	s.tasks = append(s.tasks, task)
	s.enqueueUpsertTaskLocked(task)
	s.mu.Unlock()

	s.logger.Debug().Str("task_id", task.ID).Str("status", string(task.Status)).Msg("task added")
	s.emit(Event{Kind: EventTaskAdded, ID: task.ID})
	return task.Clone(), nil
}

// UpdateTask applies patch to the task with id and stamps UpdatedAt.
// An empty patch returns the task unchanged. Moving a task to another
// workspace takes it out of its custom list.
func (s *Store) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	if err := domain.Validate(patch); err != nil {
		return domain.Task{}, err
	}
	if patch.IsEmpty() {
		if err := ctx.Err(); err != nil {
			return domain.Task{}, err
		}
		return s.Task(id)
	}

	return s.mutateTask(ctx, id, func(t *domain.Task) error {
		if patch.WorkspaceID != nil && s.workspaceIndex(*patch.WorkspaceID) < 0 {
			return tferrors.Wrapf(tferrors.ErrWorkspaceNotFound, "id %q", *patch.WorkspaceID)
		}
		patch.Apply(t)
		if patch.WorkspaceID != nil && t.InCustomList() && !s.hasListLocked(t.ListID, t.WorkspaceID) {
			t.ListID = ""
		}
		return nil
	})
}

// MoveTask places a task on the board.
//
// An empty or built-in listID puts the task in a status column: ListID is
// cleared and Status becomes the built-in list's status (or status, when
// listID is empty). A custom listID is recorded as is and Status is set to
// status, or kept when status is empty. It must belong to the task's
// workspace.
func (s *Store) MoveTask(ctx context.Context, id string, status domain.Status, listID string) (domain.Task, error) {
	listID = strings.TrimSpace(listID)
	if domain.IsBuiltInListID(listID) {
		status = domain.Status(listID)
		listID = ""
	}
	if listID == "" && !domain.IsValidStatus(status) {
		return domain.Task{}, tferrors.Wrapf(tferrors.ErrInvalidStatus, "%q", status)
	}
	if status != "" && !domain.IsValidStatus(status) {
		return domain.Task{}, tferrors.Wrapf(tferrors.ErrInvalidStatus, "%q", status)
	}

	return s.mutateTask(ctx, id, func(t *domain.Task) error {
		if listID != "" && !s.hasListLocked(listID, t.WorkspaceID) {
			return tferrors.Wrapf(tferrors.ErrListNotFound, "id %q in workspace %q", listID, t.WorkspaceID)
		}
		t.ListID = listID
		if status != "" {
			t.Status = status
		}
		return nil
	})
}

// DeleteTask removes the task with id and clears the selection if it was selected.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := s.begin(ctx); err != nil {
		return err
	}

	i := s.taskIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return tferrors.Wrapf(tferrors.ErrTaskNotFound, "id %q", id)
	}

	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	events := []Event{{Kind: EventTaskDeleted, ID: id}}
	if s.selectedTaskID == id {
		s.selectedTaskID = ""
		events = append(events, Event{Kind: EventSelection})
	}
	s.enqueueDeleteTaskLocked(id)
	s.mu.Unlock()

	s.logger.Debug().Str("task_id", id).Msg("task deleted")
	s.emit(events...)
	return nil
}

// AddComment appends a comment to a task. Comments are never edited.
func (s *Store) AddComment(ctx context.Context, taskID, text, author string) (domain.Comment, error) {
	c := domain.Comment{
		ID:        s.newID(),
		Text:      strings.TrimSpace(text),
		Author:    author,
		Timestamp: s.clock.Now(),
	}
	if err := domain.Validate(c); err != nil {
		return domain.Comment{}, err
	}

	_, err := s.mutateTask(ctx, taskID, func(t *domain.Task) error {
		domain.TaskPatch{Comments: []domain.Comment{c}}.Apply(t)
		return nil
	})
	if err != nil {
		return domain.Comment{}, err
	}
	return c, nil
}

// AddSubtask appends an open subtask to a task.
func (s *Store) AddSubtask(ctx context.Context, taskID, text string) (domain.Subtask, error) {
	st := domain.Subtask{ID: s.newID(), Text: strings.TrimSpace(text)}
	if err := domain.Validate(st); err != nil {
		return domain.Subtask{}, err
	}

	_, err := s.mutateTask(ctx, taskID, func(t *domain.Task) error {
		t.Subtasks = append(t.Subtasks, st)
		return nil
	})
	if err != nil {
		return domain.Subtask{}, err
	}
	return st, nil
}

// ToggleSubtask flips the completed flag of a subtask.
func (s *Store) ToggleSubtask(ctx context.Context, taskID, subtaskID string) (domain.Task, error) {
	return s.mutateTask(ctx, taskID, func(t *domain.Task) error {
		for i := range t.Subtasks {
			if t.Subtasks[i].ID == subtaskID {
				t.Subtasks[i].Completed = !t.Subtasks[i].Completed
				return nil
			}
		}
		return tferrors.Wrapf(tferrors.ErrSubtaskNotFound, "id %q", subtaskID)
	})
}

// SelectTask marks a task as selected. An empty id clears the selection.
func (s *Store) SelectTask(ctx context.Context, id string) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	if id != "" && s.taskIndex(id) < 0 {
		s.mu.Unlock()
		return tferrors.Wrapf(tferrors.ErrTaskNotFound, "id %q", id)
	}
	s.selectedTaskID = id
	s.mu.Unlock()

	s.emit(Event{Kind: EventSelection, ID: id})
	return nil
}

// mutateTask is the single update path for existing tasks. mutate works on
// a copy; the copy replaces the stored task only if mutate and validation
// both succeed.
func (s *Store) mutateTask(ctx context.Context, id string, mutate func(t *domain.Task) error) (domain.Task, error) {
	if err := s.begin(ctx); err != nil {
		return domain.Task{}, err
	}

	i := s.taskIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return domain.Task{}, tferrors.Wrapf(tferrors.ErrTaskNotFound, "id %q", id)
	}

	updated := s.tasks[i].Clone()
	if err := mutate(&updated); err != nil {
		s.mu.Unlock()
		return domain.Task{}, err
	}
	if err := domain.Validate(updated); err != nil {
		s.mu.Unlock()
		return domain.Task{}, err
	}

	updated.UpdatedAt = s.stamp(s.tasks[i].UpdatedAt)
	s.tasks[i] = updated
	s.enqueueUpsertTaskLocked(updated)
	s.mu.Unlock()

	s.emit(Event{Kind: EventTaskUpdated, ID: id})
	return updated.Clone(), nil
}
