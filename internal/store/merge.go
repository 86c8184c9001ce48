package store

import (
	"time"

	"github.com/mrz1836/taskflow/internal/domain"
)

// Merge reconciles a local snapshot with a remote one, entity by entity.
//
// For an id present on both sides the copy with the later UpdatedAt wins;
// on a tie the local copy is kept. Ids present on one side only are kept.
// Local order is preserved and remote-only entities follow in remote order,
// so merging the same remote twice gives the same result as merging it once.
//
// Neither argument is modified. A nil snapshot is treated as empty.
func Merge(local, remote *domain.Snapshot) *domain.Snapshot {
	if local == nil {
		local = &domain.Snapshot{}
	}
	if remote == nil {
		remote = &domain.Snapshot{}
	}

	return &domain.Snapshot{
		Tasks:      mergeByID(local.Tasks, remote.Tasks, taskKey, domain.Task.Clone),
		Lists:      mergeByID(local.Lists, remote.Lists, listKey, identity[domain.List]),
		Workspaces: mergeByID(local.Workspaces, remote.Workspaces, workspaceKey, identity[domain.Workspace]),
	}
}

// stamped extracts the id and last-write time of an entity.
type stamped[T any] func(T) (id string, updatedAt time.Time)

func taskKey(t domain.Task) (string, time.Time)           { return t.ID, t.UpdatedAt }
func listKey(l domain.List) (string, time.Time)           { return l.ID, l.UpdatedAt }
func workspaceKey(w domain.Workspace) (string, time.Time) { return w.ID, w.UpdatedAt }

func identity[T any](v T) T { return v }

func mergeByID[T any](local, remote []T, key stamped[T], clone func(T) T) []T {
	remoteByID := make(map[string]T, len(remote))
	for _, r := range remote {
		id, at := key(r)
		if prev, ok := remoteByID[id]; ok {
			if _, prevAt := key(prev); !at.After(prevAt) {
				continue
			}
		}
		remoteByID[id] = r
	}

	out := make([]T, 0, len(local)+len(remote))
	seen := make(map[string]struct{}, len(local)+len(remote))

	for _, l := range local {
		id, localAt := key(l)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		winner := l
		if r, ok := remoteByID[id]; ok {
			if _, remoteAt := key(r); remoteAt.After(localAt) {
				winner = r
			}
		}
		out = append(out, clone(winner))
	}

	for _, r := range remote {
		id, _ := key(r)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, clone(remoteByID[id]))
	}

	return out
}
