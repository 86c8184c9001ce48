package store

// EventKind names a change to store state.
type EventKind string

// Event kinds.
const (
	EventTaskAdded        EventKind = "task_added"
	EventTaskUpdated      EventKind = "task_updated"
	EventTaskDeleted      EventKind = "task_deleted"
	EventListAdded        EventKind = "list_added"
	EventListUpdated      EventKind = "list_updated"
	EventListDeleted      EventKind = "list_deleted"
	EventWorkspaceAdded   EventKind = "workspace_added"
	EventWorkspaceUpdated EventKind = "workspace_updated"
	EventWorkspaceDeleted EventKind = "workspace_deleted"
	EventActiveWorkspace  EventKind = "active_workspace"
	EventSelection        EventKind = "selection"
	EventReconciled       EventKind = "reconciled"
)

// Event is delivered to subscribers after a change has been applied.
// ID is the affected entity, or empty for EventReconciled.
type Event struct {
	Kind EventKind
	ID   string
}

// Listener receives store events. It is called outside the store lock,
// so it may read from or mutate the store.
type Listener func(Event)
