package store

import (
	"context"
	"strings"

	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// AddWorkspace creates a workspace. An empty color means DefaultWorkspaceColor.
func (s *Store) AddWorkspace(ctx context.Context, name, color string) (domain.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Workspace{}, tferrors.Wrap(tferrors.ErrEmptyValue, "workspace name")
	}
	if color == "" {
		color = domain.DefaultWorkspaceColor
	}

	if err := s.begin(ctx); err != nil {
		return domain.Workspace{}, err
	}

	now := s.clock.Now()
	w := domain.Workspace{
		ID:        s.newID(),
		Name:      name,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.workspaces = append(s.workspaces, w)
	s.enqueueUpsertWorkspaceLocked(w)
	s.mu.Unlock()

	s.emit(Event{Kind: EventWorkspaceAdded, ID: w.ID})
	return w, nil
}

// UpdateWorkspace applies patch to a workspace.
func (s *Store) UpdateWorkspace(ctx context.Context, id string, patch domain.WorkspacePatch) (domain.Workspace, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return domain.Workspace{}, tferrors.Wrap(tferrors.ErrEmptyValue, "workspace name")
		}
		patch.Name = &name
	}

	if err := s.begin(ctx); err != nil {
		return domain.Workspace{}, err
	}

	i := s.workspaceIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return domain.Workspace{}, tferrors.Wrapf(tferrors.ErrWorkspaceNotFound, "id %q", id)
	}

	w := s.workspaces[i]
	patch.Apply(&w)
	w.UpdatedAt = s.stamp(w.UpdatedAt)
	s.workspaces[i] = w
	delete(s.provisional, id)
	s.enqueueUpsertWorkspaceLocked(w)
	s.mu.Unlock()

	s.emit(Event{Kind: EventWorkspaceUpdated, ID: id})
	return w, nil
}

// DeleteWorkspace removes a workspace. The last workspace cannot be deleted.
// If the active workspace is deleted, the first remaining one becomes active.
// Tasks and lists of the workspace are kept.
func (s *Store) DeleteWorkspace(ctx context.Context, id string) error {
	if err := s.begin(ctx); err != nil {
		return err
	}

	i := s.workspaceIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return tferrors.Wrapf(tferrors.ErrWorkspaceNotFound, "id %q", id)
	}
	if len(s.workspaces) <= 1 {
		s.mu.Unlock()
		return tferrors.Wrapf(tferrors.ErrLastWorkspace, "id %q", id)
	}

	s.workspaces = append(s.workspaces[:i], s.workspaces[i+1:]...)
	delete(s.provisional, id)
	events := []Event{{Kind: EventWorkspaceDeleted, ID: id}}
	if s.activeWorkspaceID == id {
		s.activeWorkspaceID = s.workspaces[0].ID
		events = append(events, Event{Kind: EventActiveWorkspace, ID: s.activeWorkspaceID})
	}
	s.enqueueDeleteWorkspaceLocked(id)
	s.mu.Unlock()

	s.emit(events...)
	return nil
}

// SetActiveWorkspace switches the active workspace.
func (s *Store) SetActiveWorkspace(ctx context.Context, id string) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	if s.workspaceIndex(id) < 0 {
		s.mu.Unlock()
		return tferrors.Wrapf(tferrors.ErrWorkspaceNotFound, "id %q", id)
	}
	s.activeWorkspaceID = id
	s.mu.Unlock()

	s.emit(Event{Kind: EventActiveWorkspace, ID: id})
	return nil
}
