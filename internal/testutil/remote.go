package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/mrz1836/taskflow/internal/domain"
)

// Remote operation names recorded by FakeRemote.
const (
	OpFetch           = "fetch"
	OpUpsertTask      = "upsert_task"
	OpDeleteTask      = "delete_task"
	OpUpsertList      = "upsert_list"
	OpDeleteList      = "delete_list"
	OpUpsertWorkspace = "upsert_workspace"
	OpDeleteWorkspace = "delete_workspace"
)

// Call is one recorded FakeRemote invocation.
type Call struct {
	Op     string
	UserID string
	ID     string
}

// FakeRemote is an in-memory contracts.Remote that records calls and can be
// told to fail or to block. The user id is recorded but not used for scoping.
type FakeRemote struct {
	mu         sync.Mutex
	tasks      map[string]domain.Task
	lists      map[string]domain.List
	workspaces map[string]domain.Workspace
	calls      []Call
	failures   map[string][]error
	gate       chan struct{}
}

// NewFakeRemote returns an empty FakeRemote.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		tasks:      make(map[string]domain.Task),
		lists:      make(map[string]domain.List),
		workspaces: make(map[string]domain.Workspace),
		failures:   make(map[string][]error),
	}
}

// Seed replaces the stored records with those in snap.
func (r *FakeRemote) Seed(snap domain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = make(map[string]domain.Task)
	r.lists = make(map[string]domain.List)
	r.workspaces = make(map[string]domain.Workspace)
	for _, t := range snap.Tasks {
		r.tasks[t.ID] = t.Clone()
	}
	for _, l := range snap.Lists {
		r.lists[l.ID] = l
	}
	for _, w := range snap.Workspaces {
		r.workspaces[w.ID] = w
	}
}

// FailNext queues errs to be returned by the next calls of op, in order.
func (r *FakeRemote) FailNext(op string, errs ...error) {
	r.mu.Lock()
	r.failures[op] = append(r.failures[op], errs...)
	r.mu.Unlock()
}

// Block makes every write wait until Release is called.
func (r *FakeRemote) Block() {
	r.mu.Lock()
	r.gate = make(chan struct{})
	r.mu.Unlock()
}

// Release unblocks writes held by Block.
func (r *FakeRemote) Release() {
	r.mu.Lock()
	if r.gate != nil {
		close(r.gate)
		r.gate = nil
	}
	r.mu.Unlock()
}

// Calls returns a copy of every recorded call.
func (r *FakeRemote) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsFor returns the recorded calls of op.
func (r *FakeRemote) CallsFor(op string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Task returns the stored copy of a task.
func (r *FakeRemote) Task(id string) (domain.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	return t.Clone(), ok
}

// HasList reports whether a list is stored.
func (r *FakeRemote) HasList(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.lists[id]
	return ok
}

// Fetch returns every stored record sorted by id.
func (r *FakeRemote) Fetch(ctx context.Context, userID string) (*domain.Snapshot, error) {
	if err := r.enter(ctx, OpFetch, userID, "", false); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := &domain.Snapshot{}
	for _, t := range r.tasks {
		snap.Tasks = append(snap.Tasks, t.Clone())
	}
	for _, l := range r.lists {
		snap.Lists = append(snap.Lists, l)
	}
	for _, w := range r.workspaces {
		snap.Workspaces = append(snap.Workspaces, w)
	}
	sort.Slice(snap.Tasks, func(i, j int) bool { return snap.Tasks[i].ID < snap.Tasks[j].ID })
	sort.Slice(snap.Lists, func(i, j int) bool { return snap.Lists[i].ID < snap.Lists[j].ID })
	sort.Slice(snap.Workspaces, func(i, j int) bool { return snap.Workspaces[i].ID < snap.Workspaces[j].ID })
	return snap, nil
}

// UpsertTask stores task.
func (r *FakeRemote) UpsertTask(ctx context.Context, userID string, task domain.Task) error {
	if err := r.enter(ctx, OpUpsertTask, userID, task.ID, true); err != nil {
		return err
	}
	r.mu.Lock()
	r.tasks[task.ID] = task.Clone()
	r.mu.Unlock()
	return nil
}

// DeleteTask removes a task.
func (r *FakeRemote) DeleteTask(ctx context.Context, userID, taskID string) error {
	if err := r.enter(ctx, OpDeleteTask, userID, taskID, true); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.tasks, taskID)
	r.mu.Unlock()
	return nil
}

// UpsertList stores list.
func (r *FakeRemote) UpsertList(ctx context.Context, userID string, list domain.List) error {
	if err := r.enter(ctx, OpUpsertList, userID, list.ID, true); err != nil {
		return err
	}
	r.mu.Lock()
	r.lists[list.ID] = list
	r.mu.Unlock()
	return nil
}

// DeleteList removes a list.
func (r *FakeRemote) DeleteList(ctx context.Context, userID, listID string) error {
	if err := r.enter(ctx, OpDeleteList, userID, listID, true); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.lists, listID)
	r.mu.Unlock()
	return nil
}

// UpsertWorkspace stores ws.
func (r *FakeRemote) UpsertWorkspace(ctx context.Context, userID string, ws domain.Workspace) error {
	if err := r.enter(ctx, OpUpsertWorkspace, userID, ws.ID, true); err != nil {
		return err
	}
	r.mu.Lock()
	r.workspaces[ws.ID] = ws
	r.mu.Unlock()
	return nil
}

// DeleteWorkspace removes a workspace.
func (r *FakeRemote) DeleteWorkspace(ctx context.Context, userID, workspaceID string) error {
	if err := r.enter(ctx, OpDeleteWorkspace, userID, workspaceID, true); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.workspaces, workspaceID)
	r.mu.Unlock()
	return nil
}

// enter records the call, waits on the gate for writes and pops a queued failure.
func (r *FakeRemote) enter(ctx context.Context, op, userID, id string, write bool) error {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Op: op, UserID: userID, ID: id})
	gate := r.gate
	r.mu.Unlock()

	if write && gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if queued := r.failures[op]; len(queued) > 0 {
		r.failures[op] = queued[1:]
		return queued[0]
	}
	return nil
}
