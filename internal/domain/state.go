package domain

// State is a read-only copy of everything the store holds for one session.
// Lists holds custom lists only; built-in lists are synthesized on read.
type State struct {
	Tasks             []Task      `json:"tasks"`
	Lists             []List      `json:"lists"`
	Workspaces        []Workspace `json:"workspaces"`
	ActiveWorkspaceID string      `json:"activeWorkspaceId"`
	SelectedTaskID    string      `json:"selectedTaskId,omitempty"`
}

// Task returns the task with id, if present.
func (s *State) Task(id string) (Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// List returns the custom list with id, if present.
func (s *State) List(id string) (List, bool) {
	for _, l := range s.Lists {
		if l.ID == id {
			return l, true
		}
	}
	return List{}, false
}

// Workspace returns the workspace with id, if present.
func (s *State) Workspace(id string) (Workspace, bool) {
	for _, w := range s.Workspaces {
		if w.ID == id {
			return w, true
		}
	}
	return Workspace{}, false
}
