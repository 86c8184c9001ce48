package domain

// Priority is the urgency of a task.
type Priority string

// Priority values.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Status is the lifecycle column of a task. The set is ordered for display
// only; no transition out of StatusDone happens automatically.
type Status string

// Status values, in board order.
const (
	StatusYetToStart Status = "yet-to-start"
	StatusBacklog    Status = "backlog"
	StatusInProgress Status = "in-progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// AllPriorities returns every priority from lowest to highest.
func AllPriorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

// AllStatuses returns every status in board order.
func AllStatuses() []Status {
	return []Status{StatusYetToStart, StatusBacklog, StatusInProgress, StatusReview, StatusDone}
}

// IsValidPriority reports whether p is one of the four known priorities.
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// IsValidStatus reports whether s is one of the five known statuses.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusYetToStart, StatusBacklog, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

// String returns the priority value.
func (p Priority) String() string { return string(p) }

// String returns the status value.
func (s Status) String() string { return string(s) }
