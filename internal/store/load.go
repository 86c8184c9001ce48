package store

import (
	"context"
	"time"

	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/retry"
)

// LoadData fetches the remote snapshot and reconciles it into local state.
//
// After Merge, locally deleted entities are dropped again. A delete that has
// not reached the remote, or that a newer snapshot contradicts, is queued
// once more if no operation for it is in flight. Each fetch is numbered
// before it starts, so a snapshot taken before a delete completed cannot
// bring the entity back.
// Local entities that are newer than the remote copy, or missing from it,
// are queued for upsert. Remote records that fail validation are skipped.
//
// Default workspaces that were never edited are seeded to the remote when it
// has no workspaces, and dropped in favor of the remote's set otherwise.
//
// LoadData is safe to call repeatedly; a second call with the same remote
// data leaves state unchanged.
func (s *Store) LoadData(ctx context.Context) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	s.fetchSeq++
	seq := s.fetchSeq
	s.mu.Unlock()

	var remote *domain.Snapshot
	err := retry.Do(ctx, s.logger, s.retryPolicy(), func(ctx context.Context) error {
		snap, err := s.remote.Fetch(ctx, s.userID)
		if err != nil {
			return err
		}
		remote = snap
		return nil
	})
	if err != nil {
		s.metrics.Reconciled(resultError)
		return tferrors.Wrap(err, "fetch remote snapshot")
	}

	remote = s.sanitize(remote)

	if err := s.begin(ctx); err != nil {
		return err
	}

	merged := Merge(s.snapshotLocked(), remote)
	merged.Tasks = dropTombstoned(merged.Tasks, s.tombstones, keyTask, func(t domain.Task) string { return t.ID })
	merged.Lists = dropTombstoned(merged.Lists, s.tombstones, keyList, func(l domain.List) string { return l.ID })
	merged.Workspaces = dropTombstoned(merged.Workspaces, s.tombstones, keyWorkspace, func(w domain.Workspace) string { return w.ID })
	merged.Workspaces = s.settleProvisionalLocked(merged.Workspaces, remote.Workspaces)

	s.tasks = merged.Tasks
	s.lists = merged.Lists
	s.workspaces = merged.Workspaces
	if s.workspaceIndex(s.activeWorkspaceID) < 0 && len(s.workspaces) > 0 {
		s.activeWorkspaceID = s.workspaces[0].ID
	}
	if s.selectedTaskID != "" && s.taskIndex(s.selectedTaskID) < 0 {
		s.selectedTaskID = ""
	}

	redispatched := s.redispatchDeletesLocked(remote, seq)
	s.retireTombstonesLocked(seq)
	pushed := s.pushNewerLocked(remote)
	tasks, lists := len(s.tasks), len(s.lists)
	s.mu.Unlock()

	s.metrics.Reconciled(resultOK)
	s.logger.Info().
		Int("tasks", tasks).
		Int("lists", lists).
		Int("deletes_requeued", redispatched).
		Int("upserts_queued", pushed).
		Msg("reconciled with remote")
	s.emit(Event{Kind: EventReconciled})
	return nil
}

// sanitize drops remote records that fail validation and built-in lists,
// which are never stored.
func (s *Store) sanitize(snap *domain.Snapshot) *domain.Snapshot {
	out := &domain.Snapshot{}
	if snap == nil {
		return out
	}

	for _, t := range snap.Tasks {
		if err := domain.Validate(t); err != nil {
			s.logger.Warn().Err(err).Str("task_id", t.ID).Msg("skipping invalid remote task")
			continue
		}
		out.Tasks = append(out.Tasks, t.Clone())
	}
	for _, l := range snap.Lists {
		if l.IsBuiltIn() {
			continue
		}
		if err := domain.Validate(l); err != nil {
			s.logger.Warn().Err(err).Str("list_id", l.ID).Msg("skipping invalid remote list")
			continue
		}
		out.Lists = append(out.Lists, l)
	}
	for _, w := range snap.Workspaces {
		if err := domain.Validate(w); err != nil {
			s.logger.Warn().Err(err).Str("workspace_id", w.ID).Msg("skipping invalid remote workspace")
			continue
		}
		out.Workspaces = append(out.Workspaces, w)
	}
	return out
}

// settleProvisionalLocked resolves default workspaces that have never been
// persisted. It is called once per LoadData and clears the provisional set.
func (s *Store) settleProvisionalLocked(merged, remote []domain.Workspace) []domain.Workspace {
	if len(s.provisional) == 0 {
		return merged
	}
	defer clear(s.provisional)

	if len(remote) == 0 {
		for _, w := range merged {
			if _, ok := s.provisional[w.ID]; ok {
				s.enqueueUpsertWorkspaceLocked(w)
			}
		}
		return merged
	}

	inRemote := make(map[string]struct{}, len(remote))
	for _, w := range remote {
		inRemote[w.ID] = struct{}{}
	}
	out := merged[:0]
	for _, w := range merged {
		_, prov := s.provisional[w.ID]
		_, remoteHas := inRemote[w.ID]
		if prov && !remoteHas {
			continue
		}
		out = append(out, w)
	}
	return out
}

// redispatchDeletesLocked queues the delete again for tombstoned entities
// the remote still returns. A settled delete is only requeued when the
// snapshot was fetched after it completed.
func (s *Store) redispatchDeletesLocked(remote *domain.Snapshot, seq uint64) int {
	n := 0
	requeue := func(key string, enqueue func()) {
		tb, dead := s.tombstones[key]
		if !dead || s.queue.pending(key) || (tb.settled && seq <= tb.after) {
			return
		}
		enqueue()
		n++
	}

	for _, t := range remote.Tasks {
		id := t.ID
		requeue(keyTask+id, func() { s.enqueueDeleteTaskLocked(id) })
	}
	for _, l := range remote.Lists {
		id := l.ID
		requeue(keyList+id, func() { s.enqueueDeleteListLocked(id) })
	}
	for _, w := range remote.Workspaces {
		id := w.ID
		requeue(keyWorkspace+id, func() { s.enqueueDeleteWorkspaceLocked(id) })
	}
	return n
}

// pushNewerLocked queues upserts for local entities the remote lacks or
// holds an older copy of, unless an operation for them is already queued.
func (s *Store) pushNewerLocked(remote *domain.Snapshot) int {
	n := 0

	remoteTasks := indexUpdatedAt(remote.Tasks, taskKey)
	for _, t := range s.tasks {
		if needsPush(remoteTasks, t.ID, t.UpdatedAt) && !s.queue.pending(keyTask+t.ID) {
			s.enqueueUpsertTaskLocked(t)
			n++
		}
	}

	remoteLists := indexUpdatedAt(remote.Lists, listKey)
	for _, l := range s.lists {
		if needsPush(remoteLists, l.ID, l.UpdatedAt) && !s.queue.pending(keyList+l.ID) {
			s.enqueueUpsertListLocked(l)
			n++
		}
	}

	remoteWorkspaces := indexUpdatedAt(remote.Workspaces, workspaceKey)
	for _, w := range s.workspaces {
		if needsPush(remoteWorkspaces, w.ID, w.UpdatedAt) && !s.queue.pending(keyWorkspace+w.ID) {
			s.enqueueUpsertWorkspaceLocked(w)
			n++
		}
	}

	return n
}

func dropTombstoned[T any](items []T, tombstones map[string]tombstone, prefix string, id func(T) string) []T {
	if len(tombstones) == 0 {
		return items
	}
	out := items[:0]
	for _, it := range items {
		if _, dead := tombstones[prefix+id(it)]; dead {
			continue
		}
		out = append(out, it)
	}
	return out
}

func indexUpdatedAt[T any](items []T, key stamped[T]) map[string]time.Time {
	m := make(map[string]time.Time, len(items))
	for _, it := range items {
		id, at := key(it)
		m[id] = at
	}
	return m
}

func needsPush(remote map[string]time.Time, id string, localAt time.Time) bool {
	at, ok := remote[id]
	return !ok || localAt.After(at)
}
