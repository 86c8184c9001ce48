// Package store owns the in-memory task, list and workspace state of a
// session and keeps it in step with a remote.
//
// Every mutation runs in two phases. The change is validated and applied to
// local state under the store mutex, and the call returns. The matching
// remote operation is then queued on a per-entity lane and dispatched in the
// background with retries. A remote failure never rolls back local state; it
// is passed to the FailureHandler and the next LoadData retries it.
//
// LoadData merges a remote snapshot with Merge (last writer wins per id).
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/taskflow/internal/clock"
	"github.com/mrz1836/taskflow/internal/config"
	"github.com/mrz1836/taskflow/internal/contracts"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/logging"
	"github.com/mrz1836/taskflow/internal/retry"
)

// IDGenerator returns a new unique entity id.
type IDGenerator func() string

// Entity key prefixes for sync lanes and tombstones.
const (
	keyTask      = "task:"
	keyList      = "list:"
	keyWorkspace = "workspace:"
)

// Store is the single owner of session state. It is safe for concurrent use.
type Store struct {
	remote  contracts.Remote
	userID  string
	clock   clock.Clock
	newID   IDGenerator
	logger  zerolog.Logger
	metrics Metrics
	handler FailureHandler
	syncCfg config.SyncConfig
	queue   *syncQueue

	mu                sync.Mutex
	tasks             []domain.Task
	lists             []domain.List
	workspaces        []domain.Workspace
	activeWorkspaceID string
	selectedTaskID    string

	// provisional holds default workspaces that have not been seen remotely
	// or edited locally. LoadData either seeds them or drops them.
	provisional map[string]struct{}

	// tombstones are entity keys deleted locally. See tombstone.
	tombstones map[string]tombstone

	// fetchSeq numbers LoadData fetches in the order they start.
	fetchSeq uint64

	listeners      map[int]Listener
	nextListenerID int
	closed         bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to stamp CreatedAt and UpdatedAt.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = clock.Or(c) }
}

// WithLogger sets the store's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Store) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithFailureHandler replaces the default logging failure handler.
func WithFailureHandler(h FailureHandler) Option {
	return func(s *Store) { s.handler = h }
}

// WithIDGenerator replaces the UUIDv4 id generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithSyncConfig sets the retry policy and per-call timeout of remote dispatch.
func WithSyncConfig(cfg config.SyncConfig) Option {
	return func(s *Store) { s.syncCfg = cfg }
}

// New creates a store for userID backed by remote. The store starts with
// the default workspaces, the first of them active, and no tasks.
func New(remote contracts.Remote, userID string, opts ...Option) (*Store, error) {
	if remote == nil {
		return nil, tferrors.Wrap(tferrors.ErrInvalidArgument, "remote is required")
	}
	if userID == "" {
		return nil, tferrors.ErrIdentityMissing
	}

	s := &Store{
		remote:      remote,
		userID:      userID,
		clock:       clock.RealClock{},
		newID:       uuid.NewString,
		logger:      zerolog.Nop(),
		metrics:     NoopMetrics{},
		syncCfg:     config.DefaultConfig().Sync,
		provisional: make(map[string]struct{}),
		tombstones:  make(map[string]tombstone),
		listeners:   make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}

	storeLogger := logging.WithComponent(s.logger, logging.ComponentStore)
	syncLogger := logging.WithComponent(s.logger, logging.ComponentSync)
	s.logger = storeLogger
	if s.handler == nil {
		s.handler = LogFailureHandler{Logger: syncLogger}
	}

	s.queue = newSyncQueue(s.retryPolicy(), s.syncCfg.DispatchTimeout, s.handler, s.metrics, syncLogger)

	now := s.clock.Now()
	s.workspaces = domain.DefaultWorkspaces(now)
	for _, w := range s.workspaces {
		s.provisional[w.ID] = struct{}{}
	}
	s.activeWorkspaceID = s.workspaces[0].ID
	s.tasks = []domain.Task{}
	s.lists = []domain.List{}

	return s, nil
}

func (s *Store) retryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:    s.syncCfg.MaxAttempts,
		InitialBackoff: s.syncCfg.InitialBackoff,
		MaxBackoff:     s.syncCfg.MaxBackoff,
	}
}

// UserID returns the user the store is scoped to.
func (s *Store) UserID() string {
	return s.userID
}

// State returns a deep copy of the current state.
func (s *Store) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := domain.State{
		Tasks:             make([]domain.Task, len(s.tasks)),
		Lists:             append([]domain.List{}, s.lists...),
		Workspaces:        append([]domain.Workspace{}, s.workspaces...),
		ActiveWorkspaceID: s.activeWorkspaceID,
		SelectedTaskID:    s.selectedTaskID,
	}
	for i, t := range s.tasks {
		st.Tasks[i] = t.Clone()
	}
	return st
}

// Snapshot returns a deep copy of the stored entities.
func (s *Store) Snapshot() *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() *domain.Snapshot {
	snap := &domain.Snapshot{
		Tasks:      s.tasks,
		Lists:      s.lists,
		Workspaces: s.workspaces,
	}
	return snap.Clone()
}

// Task returns a copy of the task with id.
func (s *Store) Task(id string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return domain.Task{}, tferrors.Wrapf(tferrors.ErrTaskNotFound, "%q", id)
	}
	return s.tasks[i].Clone(), nil
}

// PendingSyncs returns the number of entities with remote operations queued or running.
func (s *Store) PendingSyncs() int {
	return s.queue.size()
}

// Subscribe registers fn for every change. The returned function removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextListenerID
	s.nextListenerID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Flush waits for every queued remote operation to finish, or for ctx.
func (s *Store) Flush(ctx context.Context) error {
	return s.queue.flush(ctx)
}

// Close refuses further mutations and waits for queued remote operations.
// If ctx ends first, in-flight retries are cancelled and handed to the
// FailureHandler. Close is safe to call more than once.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.queue.close()
	if err := s.queue.flush(ctx); err != nil {
		s.queue.abort()
		return tferrors.Wrap(err, "flush remote sync queue")
	}
	s.queue.abort()
	return nil
}

// begin checks ctx and the closed flag and acquires the store lock.
// On success the caller must unlock.
func (s *Store) begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return tferrors.ErrStoreClosed
	}
	return nil
}

// emit delivers events to a snapshot of the listeners. It must be called
// without holding the lock.
func (s *Store) emit(events ...Event) {
	if len(events) == 0 {
		return
	}

	s.mu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextListenerID; id++ {
		if fn, ok := s.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	s.mu.Unlock()

	for _, ev := range events {
		for _, fn := range listeners {
			fn(ev)
		}
	}
}

// stamp returns the next UpdatedAt after prev. The clock value is used when
// it has moved past prev; otherwise prev plus one nanosecond.
func (s *Store) stamp(prev time.Time) time.Time {
	now := s.clock.Now()
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Nanosecond)
}

// enqueueLocked queues a remote operation. The store lock must be held so
// that lane order matches apply order.
func (s *Store) enqueueLocked(name, key string, run func(ctx context.Context) error, done func(error)) {
	if err := s.queue.enqueue(syncOp{name: name, key: key, run: run, done: done}); err != nil {
		s.logger.Warn().Err(err).Str("op", name).Str("key", key).Msg("remote sync not queued")
	}
}

func (s *Store) enqueueUpsertTaskLocked(t domain.Task) {
	t = t.Clone()
	s.enqueueLocked(OpUpsertTask, keyTask+t.ID, func(ctx context.Context) error {
		return s.remote.UpsertTask(ctx, s.userID, t)
	}, nil)
}

func (s *Store) enqueueUpsertListLocked(l domain.List) {
	s.enqueueLocked(OpUpsertList, keyList+l.ID, func(ctx context.Context) error {
		return s.remote.UpsertList(ctx, s.userID, l)
	}, nil)
}

func (s *Store) enqueueUpsertWorkspaceLocked(w domain.Workspace) {
	s.enqueueLocked(OpUpsertWorkspace, keyWorkspace+w.ID, func(ctx context.Context) error {
		return s.remote.UpsertWorkspace(ctx, s.userID, w)
	}, nil)
}

// tombstone marks a locally deleted entity. While the remote delete is
// pending, settled is false. Once it succeeds, after holds the last fetch
// sequence started by then: a snapshot from that fetch or an earlier one may
// still contain the entity, so the tombstone stays until a later fetch has
// been merged.
type tombstone struct {
	settled bool
	after   uint64
}

// enqueueDeleteLocked records a tombstone for key and queues the remote
// delete. LoadData retires the tombstone once a fetch started after the
// delete succeeded has been merged.
func (s *Store) enqueueDeleteLocked(name, key string, run func(ctx context.Context) error) {
	s.tombstones[key] = tombstone{}
	s.enqueueLocked(name, key, run, func(err error) {
		if err != nil {
			return
		}
		s.mu.Lock()
		if tb, ok := s.tombstones[key]; ok && !tb.settled {
			s.tombstones[key] = tombstone{settled: true, after: s.fetchSeq}
		}
		s.mu.Unlock()
	})
}

// retireTombstonesLocked drops settled tombstones older than fetch seq.
func (s *Store) retireTombstonesLocked(seq uint64) {
	for key, tb := range s.tombstones {
		if tb.settled && seq > tb.after {
			delete(s.tombstones, key)
		}
	}
}

func (s *Store) enqueueDeleteTaskLocked(id string) {
	s.enqueueDeleteLocked(OpDeleteTask, keyTask+id, func(ctx context.Context) error {
		return s.remote.DeleteTask(ctx, s.userID, id)
	})
}

func (s *Store) enqueueDeleteListLocked(id string) {
	s.enqueueDeleteLocked(OpDeleteList, keyList+id, func(ctx context.Context) error {
		return s.remote.DeleteList(ctx, s.userID, id)
	})
}

func (s *Store) enqueueDeleteWorkspaceLocked(id string) {
	s.enqueueDeleteLocked(OpDeleteWorkspace, keyWorkspace+id, func(ctx context.Context) error {
		return s.remote.DeleteWorkspace(ctx, s.userID, id)
	})
}

func (s *Store) taskIndex(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) listIndex(id string) int {
	for i := range s.lists {
		if s.lists[i].ID == id {
			return i
		}
	}
	return -1
}

// hasListLocked reports whether id names a custom list of workspaceID.
func (s *Store) hasListLocked(id, workspaceID string) bool {
	i := s.listIndex(id)
	return i >= 0 && s.lists[i].WorkspaceID == workspaceID
}

func (s *Store) workspaceIndex(id string) int {
	for i := range s.workspaces {
		if s.workspaces[i].ID == id {
			return i
		}
	}
	return -1
}
