// Package remote implements the persistence collaborator behind the store.
//
// Four backends are available, selected by config.RemoteConfig.Backend:
//
//   - memory: process-local maps, for tests and throwaway sessions
//   - redis: one JSON value per record plus a per-user id set
//   - sql: one row per record in sqlite3 or postgres via sqlx
//   - file: a YAML snapshot on disk, guarded by a lock file
//
// Every backend scopes records by user id and returns snapshots sorted by id.
package remote

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/taskflow/internal/config"
	"github.com/mrz1836/taskflow/internal/contracts"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/logging"
)

// Backend is a Remote that holds resources until closed.
type Backend interface {
	contracts.Remote
	io.Closer
}

// New opens the backend named by cfg.Backend.
func New(ctx context.Context, cfg config.RemoteConfig, logger zerolog.Logger) (Backend, error) {
	logger = logging.WithComponent(logger, logging.ComponentRemote).With().Str("backend", cfg.Backend).Logger()

	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendRedis:
		return NewRedis(ctx, cfg.Redis, logger)
	case config.BackendSQL:
		return NewSQL(ctx, cfg.SQL, logger)
	case config.BackendFile:
		path, err := config.ResolveFilePath(&cfg.File)
		if err != nil {
			return nil, err
		}
		return NewFile(path, logger), nil
	default:
		return nil, tferrors.Wrapf(tferrors.ErrUnknownBackend, "%q", cfg.Backend)
	}
}

// sortSnapshot orders every slice of snap by id.
func sortSnapshot(snap *domain.Snapshot) {
	slices.SortFunc(snap.Tasks, func(a, b domain.Task) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(snap.Lists, func(a, b domain.List) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(snap.Workspaces, func(a, b domain.Workspace) int { return strings.Compare(a.ID, b.ID) })
}

// emptySnapshot returns a snapshot with non-nil empty slices.
func emptySnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Tasks:      []domain.Task{},
		Lists:      []domain.List{},
		Workspaces: []domain.Workspace{},
	}
}

// requireUser rejects calls without a user id.
func requireUser(userID string) error {
	if userID == "" {
		return tferrors.ErrIdentityMissing
	}
	return nil
}
