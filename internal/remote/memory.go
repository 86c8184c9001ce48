package remote

import (
	"context"
	"sync"

	"github.com/mrz1836/taskflow/internal/domain"
)

// Memory keeps records in process memory.
type Memory struct {
	mu    sync.RWMutex
	users map[string]*records
}

// records is the per-user record set shared by Memory and File.
type records struct {
	Tasks      map[string]domain.Task      `yaml:"tasks"`
	Lists      map[string]domain.List      `yaml:"lists"`
	Workspaces map[string]domain.Workspace `yaml:"workspaces"`
}

func newRecords() *records {
	return &records{
		Tasks:      make(map[string]domain.Task),
		Lists:      make(map[string]domain.List),
		Workspaces: make(map[string]domain.Workspace),
	}
}

func (r *records) snapshot() *domain.Snapshot {
	snap := emptySnapshot()
	if r == nil {
		return snap
	}
	for _, t := range r.Tasks {
		snap.Tasks = append(snap.Tasks, t.Clone())
	}
	for _, l := range r.Lists {
		snap.Lists = append(snap.Lists, l)
	}
	for _, w := range r.Workspaces {
		snap.Workspaces = append(snap.Workspaces, w)
	}
	sortSnapshot(snap)
	return snap
}

// NewMemory returns an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{users: make(map[string]*records)}
}

// user returns the records of userID, creating them. The write lock must be held.
func (m *Memory) user(userID string) *records {
	r, ok := m.users[userID]
	if !ok {
		r = newRecords()
		m.users[userID] = r
	}
	return r
}

func (m *Memory) write(ctx context.Context, userID string, fn func(r *records)) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.user(userID))
	return nil
}

// Fetch implements contracts.Remote.
func (m *Memory) Fetch(ctx context.Context, userID string) (*domain.Snapshot, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[userID].snapshot(), nil
}

// UpsertTask implements contracts.Remote.
func (m *Memory) UpsertTask(ctx context.Context, userID string, task domain.Task) error {
	return m.write(ctx, userID, func(r *records) { r.Tasks[task.ID] = task.Clone() })
}

// DeleteTask implements contracts.Remote.
func (m *Memory) DeleteTask(ctx context.Context, userID, taskID string) error {
	return m.write(ctx, userID, func(r *records) { delete(r.Tasks, taskID) })
}

// UpsertList implements contracts.Remote.
func (m *Memory) UpsertList(ctx context.Context, userID string, list domain.List) error {
	return m.write(ctx, userID, func(r *records) { r.Lists[list.ID] = list })
}

// DeleteList implements contracts.Remote.
func (m *Memory) DeleteList(ctx context.Context, userID, listID string) error {
	return m.write(ctx, userID, func(r *records) { delete(r.Lists, listID) })
}

// UpsertWorkspace implements contracts.Remote.
func (m *Memory) UpsertWorkspace(ctx context.Context, userID string, ws domain.Workspace) error {
	return m.write(ctx, userID, func(r *records) { r.Workspaces[ws.ID] = ws })
}

// DeleteWorkspace implements contracts.Remote.
func (m *Memory) DeleteWorkspace(ctx context.Context, userID, workspaceID string) error {
	return m.write(ctx, userID, func(r *records) { delete(r.Workspaces, workspaceID) })
}

// Close implements io.Closer.
func (m *Memory) Close() error { return nil }
