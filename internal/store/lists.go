package store

import (
	"context"
	"strings"

	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// AddList creates a custom list in workspaceID, or in the active workspace
// when workspaceID is empty.
func (s *Store) AddList(ctx context.Context, title, workspaceID string) (domain.List, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.List{}, tferrors.Wrap(tferrors.ErrEmptyValue, "list title")
	}

	if err := s.begin(ctx); err != nil {
		return domain.List{}, err
	}

	if workspaceID == "" {
		workspaceID = s.activeWorkspaceID
	}
	if s.workspaceIndex(workspaceID) < 0 {
		s.mu.Unlock()
		return domain.List{}, tferrors.Wrapf(tferrors.ErrWorkspaceNotFound, "id %q", workspaceID)
	}

	now := s.clock.Now()
	l := domain.List{
		ID:          s.newID(),
		Title:       title,
		WorkspaceID: workspaceID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := domain.Validate(l); err != nil {
		s.mu.Unlock()
		return domain.List{}, err
	}

	s.lists = append(s.lists, l)
	s.enqueueUpsertListLocked(l)
	s.mu.Unlock()

	s.emit(Event{Kind: EventListAdded, ID: l.ID})
	return l, nil
}

// RenameList changes a custom list's title. Built-in lists are refused.
func (s *Store) RenameList(ctx context.Context, id, title string) (domain.List, error) {
	if domain.IsBuiltInListID(id) {
		return domain.List{}, tferrors.Wrapf(tferrors.ErrBuiltInList, "id %q", id)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.List{}, tferrors.Wrap(tferrors.ErrEmptyValue, "list title")
	}

	if err := s.begin(ctx); err != nil {
		return domain.List{}, err
	}

	i := s.listIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return domain.List{}, tferrors.Wrapf(tferrors.ErrListNotFound, "id %q", id)
	}

	l := s.lists[i]
	l.Title = title
	l.UpdatedAt = s.stamp(l.UpdatedAt)
	s.lists[i] = l
	s.enqueueUpsertListLocked(l)
	s.mu.Unlock()

	s.emit(Event{Kind: EventListUpdated, ID: id})
	return l, nil
}

// DeleteList removes a custom list. It does nothing for built-in ids.
// Tasks placed in the list keep their ListID and Status; the board shows
// them in their status column once the list is gone.
func (s *Store) DeleteList(ctx context.Context, id string) error {
	if domain.IsBuiltInListID(id) {
		return nil
	}

	if err := s.begin(ctx); err != nil {
		return err
	}

	i := s.listIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return tferrors.Wrapf(tferrors.ErrListNotFound, "id %q", id)
	}

	s.lists = append(s.lists[:i], s.lists[i+1:]...)
	s.enqueueDeleteListLocked(id)
	s.mu.Unlock()

	s.emit(Event{Kind: EventListDeleted, ID: id})
	return nil
}
