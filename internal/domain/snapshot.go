package domain

// Snapshot is the full set of records for one user, as read from a remote or
// copied out of the store.
type Snapshot struct {
	Tasks      []Task      `json:"tasks" yaml:"tasks"`
	Lists      []List      `json:"lists" yaml:"lists"`
	Workspaces []Workspace `json:"workspaces" yaml:"workspaces"`
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := &Snapshot{
		Tasks:      make([]Task, len(s.Tasks)),
		Lists:      append([]List(nil), s.Lists...),
		Workspaces: append([]Workspace(nil), s.Workspaces...),
	}
	for i, t := range s.Tasks {
		c.Tasks[i] = t.Clone()
	}
	return c
}
