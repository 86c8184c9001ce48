// Package view projects store state into what presentation code reads:
// per-workspace task and list slices, the board grouping and a few
// derived views (filtered, timeline, calendar day, dashboard summary).
//
// Every function is pure. Inputs are never modified and results never
// share memory with them.
package view

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/mrz1836/taskflow/internal/domain"
)

// FilteredTasks returns the tasks of workspaceID in state order, or all
// tasks when workspaceID is empty.
func FilteredTasks(st domain.State, workspaceID string) []domain.Task {
	out := make([]domain.Task, 0, len(st.Tasks))
	for _, t := range st.Tasks {
		if workspaceID != "" && t.WorkspaceID != workspaceID {
			continue
		}
		out = append(out, t.Clone())
	}
	return out
}

// FilteredLists returns the built-in lists stamped with workspaceID followed
// by the custom lists of that workspace. With an empty workspaceID every
// custom list is included.
func FilteredLists(st domain.State, workspaceID string) []domain.List {
	out := domain.BuiltInLists(workspaceID)
	for _, l := range st.Lists {
		if l.IsBuiltIn() {
			continue
		}
		if workspaceID != "" && l.WorkspaceID != workspaceID {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Column is one board bucket.
type Column struct {
	List  domain.List   `json:"list"`
	Tasks []domain.Task `json:"tasks"`
}

// Board is the column layout of one workspace.
type Board struct {
	WorkspaceID string   `json:"workspaceId"`
	Columns     []Column `json:"columns"`
}

// Column returns the bucket of listID.
func (b Board) Column(listID string) (Column, bool) {
	for _, c := range b.Columns {
		if c.List.ID == listID {
			return c, true
		}
	}
	return Column{}, false
}

// Locate returns the id of the column holding taskID.
func (b Board) Locate(taskID string) (string, bool) {
	for _, c := range b.Columns {
		for _, t := range c.Tasks {
			if t.ID == taskID {
				return c.List.ID, true
			}
		}
	}
	return "", false
}

// BoardFor groups the tasks of workspaceID into columns, one per list
// returned by FilteredLists. A task whose ListID names one of those custom
// lists goes to that column; every other task goes to its status column.
// Each task lands in exactly one column.
func BoardFor(st domain.State, workspaceID string) Board {
	lists := FilteredLists(st, workspaceID)
	board := Board{WorkspaceID: workspaceID, Columns: make([]Column, len(lists))}

	index := make(map[string]int, len(lists))
	for i, l := range lists {
		board.Columns[i] = Column{List: l, Tasks: []domain.Task{}}
		index[l.ID] = i
	}

	for _, t := range FilteredTasks(st, workspaceID) {
		key := string(t.Status)
		if t.InCustomList() {
			if _, ok := index[t.ListID]; ok {
				key = t.ListID
			}
		}
		if i, ok := index[key]; ok {
			board.Columns[i].Tasks = append(board.Columns[i].Tasks, t)
		}
	}
	return board
}

// Filter narrows a task slice. Empty fields match everything.
type Filter struct {
	// Search is matched case-insensitively against title and description.
	Search   string
	Status   domain.Status
	Priority domain.Priority
	Assignee string
}

// Match reports whether t satisfies every set criterion.
func (f Filter) Match(t domain.Task) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Assignee != "" && t.Assignee != f.Assignee {
		return false
	}
	return true
}

// Apply returns copies of the tasks that match f, in input order.
func (f Filter) Apply(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Timeline sorts tasks by due date, falling back to start date and then to
// creation time. Ties keep input order.
func Timeline(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	slices.SortStableFunc(out, func(a, b domain.Task) int {
		return timelineKey(a).Compare(timelineKey(b))
	})
	return out
}

func timelineKey(t domain.Task) time.Time {
	switch {
	case t.DueDate != nil:
		return t.DueDate.Time(time.UTC)
	case t.StartDate != nil:
		return t.StartDate.Time(time.UTC)
	default:
		return t.CreatedAt.UTC()
	}
}

// OnDate returns the tasks due or starting on d.
func OnDate(tasks []domain.Task, d domain.Date) []domain.Task {
	out := make([]domain.Task, 0)
	for _, t := range tasks {
		due := t.DueDate != nil && *t.DueDate == d
		start := t.StartDate != nil && *t.StartDate == d
		if due || start {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Summary holds dashboard counts.
type Summary struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	Overdue    int `json:"overdue"`

	// CompletionRate is the rounded percentage of done tasks.
	CompletionRate int `json:"completionRate"`

	SubtasksTotal     int `json:"subtasksTotal"`
	SubtasksCompleted int `json:"subtasksCompleted"`

	ByStatus   map[domain.Status]int   `json:"byStatus"`
	ByPriority map[domain.Priority]int `json:"byPriority"`
}

// Summarize counts tasks for the dashboard. A task is overdue when its due
// date is before today and it is not done.
func Summarize(tasks []domain.Task, today domain.Date) Summary {
	s := Summary{
		Total:      len(tasks),
		ByStatus:   make(map[domain.Status]int),
		ByPriority: make(map[domain.Priority]int),
	}
	for _, status := range domain.AllStatuses() {
		s.ByStatus[status] = 0
	}
	for _, p := range domain.AllPriorities() {
		s.ByPriority[p] = 0
	}

	for _, t := range tasks {
		s.ByStatus[t.Status]++
		s.ByPriority[t.Priority]++
		switch t.Status {
		case domain.StatusDone:
			s.Completed++
		case domain.StatusInProgress:
			s.InProgress++
		default:
		}
		if t.DueDate != nil && t.DueDate.Before(today) && t.Status != domain.StatusDone {
			s.Overdue++
		}
		for _, st := range t.Subtasks {
			s.SubtasksTotal++
			if st.Completed {
				s.SubtasksCompleted++
			}
		}
	}

	if s.Total > 0 {
		s.CompletionRate = (s.Completed*100 + s.Total/2) / s.Total
	}
	return s
}

// RecentlyUpdated returns up to n tasks, most recently updated first.
func RecentlyUpdated(tasks []domain.Task, n int) []domain.Task {
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	slices.SortStableFunc(out, func(a, b domain.Task) int {
		return cmp.Compare(b.UpdatedAt.UnixNano(), a.UpdatedAt.UnixNano())
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
