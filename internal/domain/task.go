// Package domain provides the entity model for taskflow: tasks, lists,
// workspaces and the draft records that flow between the parser and the store.
//
// This package follows strict import rules:
//   - CAN import: internal/errors, standard library, golang.org/x/text,
//     go-playground/validator
//   - MUST NOT import: any other internal packages
//
// JSON field names use camelCase to match the remote record shape.
package domain

import (
	"slices"
	"strings"
	"time"
)

// Task is a single unit of work on a board.
//
// Board placement is decided by ListID when it names a custom list and by
// Status otherwise. Status is always set.
//
// Example JSON representation:
//
//	{
//	    "id": "0b7e4a5e-5d7c-4f1e-9d55-2f6b8c1d0a11",
//	    "title": "Fix login redirect",
//	    "priority": "high",
//	    "status": "backlog",
//	    "labels": ["bug"],
//	    "dueDate": "2026-03-14",
//	    "workspaceId": "professional",
//	    "createdAt": "2026-03-01T09:00:00Z",
//	    "updatedAt": "2026-03-01T09:00:00Z"
//	}
type Task struct {
	// ID is assigned at creation and never changes.
	ID string `json:"id" yaml:"id" validate:"required"`

	Title       string   `json:"title" yaml:"title" validate:"notblank"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Priority    Priority `json:"priority" yaml:"priority" validate:"priority"`
	Status      Status   `json:"status" yaml:"status" validate:"status"`

	// Labels is a set; NormalizeLabels removes duplicates.
	Labels []string `json:"labels" yaml:"labels" validate:"dive,notblank"`

	// Assignee is a display name with no referential integrity.
	Assignee string `json:"assignee,omitempty" yaml:"assignee,omitempty"`

	// StartDate and DueDate are not ordered against each other.
	StartDate *Date `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	DueDate   *Date `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`

	// ListID names a custom list, or is empty for the status column.
	ListID string `json:"listId,omitempty" yaml:"listId,omitempty"`

	WorkspaceID string `json:"workspaceId" yaml:"workspaceId" validate:"required"`

	Subtasks    []Subtask `json:"subtasks" yaml:"subtasks" validate:"dive"`
	Comments    []Comment `json:"comments" yaml:"comments" validate:"dive"`
	Attachments []string  `json:"attachments" yaml:"attachments"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt" validate:"required"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt" validate:"required"`
}

// Subtask is a checklist item on a task.
type Subtask struct {
	ID        string `json:"id" yaml:"id" validate:"required"`
	Text      string `json:"text" yaml:"text" validate:"notblank"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// Comment is an append-only note on a task.
type Comment struct {
	ID        string    `json:"id" yaml:"id" validate:"required"`
	Text      string    `json:"text" yaml:"text" validate:"notblank"`
	Author    string    `json:"author" yaml:"author"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// TaskDraft is a task that has not been assigned an id or timestamps yet.
// It is the parser's output and the store's create input.
type TaskDraft struct {
	Title       string    `json:"title" validate:"notblank"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority" validate:"omitempty,priority"`
	Status      Status    `json:"status" validate:"omitempty,status"`
	Labels      []string  `json:"labels" validate:"dive,notblank"`
	Assignee    string    `json:"assignee,omitempty"`
	StartDate   *Date     `json:"startDate,omitempty"`
	DueDate     *Date     `json:"dueDate,omitempty"`
	ListID      string    `json:"listId"`
	WorkspaceID string    `json:"workspaceId,omitempty"`
	Subtasks    []Subtask `json:"subtasks" validate:"dive"`
	Comments    []Comment `json:"comments" validate:"dive"`
	Attachments []string  `json:"attachments"`
}

// NewTask builds a task from a validated draft. CreatedAt and UpdatedAt are
// both set to now. Empty priority defaults to medium and empty status to backlog.
func NewTask(draft TaskDraft, id string, now time.Time) Task {
	t := Task{
		ID:          id,
		Title:       strings.TrimSpace(draft.Title),
		Description: draft.Description,
		Priority:    draft.Priority,
		Status:      draft.Status,
		Labels:      NormalizeLabels(draft.Labels),
		Assignee:    draft.Assignee,
		StartDate:   cloneDate(draft.StartDate),
		DueDate:     cloneDate(draft.DueDate),
		ListID:      draft.ListID,
		WorkspaceID: draft.WorkspaceID,
		Subtasks:    cloneOrEmpty(draft.Subtasks),
		Comments:    cloneOrEmpty(draft.Comments),
		Attachments: cloneOrEmpty(draft.Attachments),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = StatusBacklog
	}
	return t
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	c := t
	c.Labels = slices.Clone(t.Labels)
	c.Subtasks = slices.Clone(t.Subtasks)
	c.Comments = slices.Clone(t.Comments)
	c.Attachments = slices.Clone(t.Attachments)
	c.StartDate = cloneDate(t.StartDate)
	c.DueDate = cloneDate(t.DueDate)
	return c
}

// InCustomList reports whether t is placed by a custom list rather than its status.
func (t Task) InCustomList() bool {
	return t.ListID != "" && !IsBuiltInListID(t.ListID)
}

// TaskPatch holds optional changes to a task. Nil fields are left unchanged.
// The Clear flags remove a date; they win over a set date in the same patch.
type TaskPatch struct {
	Title          *string   `json:"title,omitempty" validate:"omitempty,notblank"`
	Description    *string   `json:"description,omitempty"`
	Priority       *Priority `json:"priority,omitempty" validate:"omitempty,priority"`
	Status         *Status   `json:"status,omitempty" validate:"omitempty,status"`
	Labels         []string  `json:"labels,omitempty" validate:"omitempty,dive,notblank"`
	Assignee       *string   `json:"assignee,omitempty"`
	StartDate      *Date     `json:"startDate,omitempty"`
	DueDate        *Date     `json:"dueDate,omitempty"`
	ClearStartDate bool      `json:"clearStartDate,omitempty"`
	ClearDueDate   bool      `json:"clearDueDate,omitempty"`
	Subtasks       []Subtask `json:"subtasks,omitempty" validate:"omitempty,dive"`
	Attachments    []string  `json:"attachments,omitempty"`
	Comments       []Comment `json:"-"`
	WorkspaceID    *string   `json:"workspaceId,omitempty"`
}

// IsEmpty reports whether p changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.Status == nil &&
		p.Labels == nil && p.Assignee == nil && p.StartDate == nil && p.DueDate == nil &&
		!p.ClearStartDate && !p.ClearDueDate && p.Subtasks == nil && p.Attachments == nil &&
		p.Comments == nil && p.WorkspaceID == nil
}

// Apply copies the set fields of p onto t. It does not touch UpdatedAt.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Labels != nil {
		t.Labels = NormalizeLabels(p.Labels)
	}
	if p.Assignee != nil {
		t.Assignee = *p.Assignee
	}
	if p.StartDate != nil {
		t.StartDate = cloneDate(p.StartDate)
	}
	if p.DueDate != nil {
		t.DueDate = cloneDate(p.DueDate)
	}
	if p.ClearStartDate {
		t.StartDate = nil
	}
	if p.ClearDueDate {
		t.DueDate = nil
	}
	if p.Subtasks != nil {
		t.Subtasks = slices.Clone(p.Subtasks)
	}
	if p.Attachments != nil {
		t.Attachments = slices.Clone(p.Attachments)
	}
	if p.Comments != nil {
		t.Comments = append(t.Comments, p.Comments...)
	}
	if p.WorkspaceID != nil {
		t.WorkspaceID = *p.WorkspaceID
	}
}

// NormalizeLabels trims labels, drops empty ones and removes duplicates while
// keeping first-seen order. The result is never nil.
func NormalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

func cloneDate(d *Date) *Date {
	if d == nil || d.IsZero() {
		return nil
	}
	c := *d
	return &c
}

func cloneOrEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}
