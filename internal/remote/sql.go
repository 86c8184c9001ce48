package remote

import (
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/taskflow/internal/config"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

//go:embed schema.sql
var schema string

const driverSQLite = "sqlite3"

// tables maps record kinds to their table. Table names never come from input.
//
//nolint:gochecknoglobals // fixed lookup table
var tables = map[string]string{
	kindTask:      "tasks",
	kindList:      "lists",
	kindWorkspace: "workspaces",
}

// SQL stores one JSON row per record in sqlite3 or postgres.
type SQL struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

// sqlRow is the projection read back by Fetch.
type sqlRow struct {
	ID   string `db:"id"`
	Data string `db:"data"`
}

// NewSQL opens cfg.DSN with cfg.Driver, checks the connection and creates
// the tables when missing.
func NewSQL(ctx context.Context, cfg config.SQLConfig, logger zerolog.Logger) (*SQL, error) {
	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, tferrors.Wrapf(err, "open %s database", cfg.Driver)
	}

	// every sqlite :memory: connection is its own database
	if cfg.Driver == driverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, tferrors.Wrapf(tferrors.ErrRemoteUnavailable, "%s: %v", cfg.Driver, err)
	}

	s := &SQL{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug().Str("driver", cfg.Driver).Msg("connected to database")
	return s, nil
}

// migrate executes the embedded schema one statement at a time.
func (s *SQL) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return tferrors.Wrap(err, "apply schema")
		}
	}
	return nil
}

// Fetch implements contracts.Remote.
func (s *SQL) Fetch(ctx context.Context, userID string) (*domain.Snapshot, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	snap := emptySnapshot()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks, err := fetchSQLKind[domain.Task](gctx, s, userID, kindTask)
		snap.Tasks = tasks
		return err
	})
	g.Go(func() error {
		lists, err := fetchSQLKind[domain.List](gctx, s, userID, kindList)
		snap.Lists = lists
		return err
	})
	g.Go(func() error {
		workspaces, err := fetchSQLKind[domain.Workspace](gctx, s, userID, kindWorkspace)
		snap.Workspaces = workspaces
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortSnapshot(snap)
	return snap, nil
}

// fetchSQLKind loads every row of one kind. Undecodable rows are skipped.
func fetchSQLKind[T any](ctx context.Context, s *SQL, userID, kind string) ([]T, error) {
	query := s.db.Rebind("SELECT id, data FROM " + tables[kind] + " WHERE user_id = ? ORDER BY id") //nolint:gosec // table name is a constant

	var rows []sqlRow
	if err := s.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, tferrors.Wrapf(err, "select %s rows", kind)
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var rec T
		if err := json.Unmarshal([]byte(row.Data), &rec); err != nil {
			s.logger.Warn().Err(err).Str("kind", kind).Str("id", row.ID).Msg("skipping undecodable row")
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *SQL) upsert(ctx context.Context, userID, kind, id string, updatedAt time.Time, rec any) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return tferrors.Wrapf(err, "encode %s", kind)
	}

	query := s.db.Rebind("INSERT INTO " + tables[kind] + " (user_id, id, data, updated_at) VALUES (?, ?, ?, ?) " + //nolint:gosec // table name is a constant
		"ON CONFLICT (user_id, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at")
	if _, err := s.db.ExecContext(ctx, query, userID, id, string(data), updatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return tferrors.Wrapf(err, "upsert %s %s", kind, id)
	}
	return nil
}

func (s *SQL) remove(ctx context.Context, userID, kind, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	query := s.db.Rebind("DELETE FROM " + tables[kind] + " WHERE user_id = ? AND id = ?") //nolint:gosec // table name is a constant
	if _, err := s.db.ExecContext(ctx, query, userID, id); err != nil {
		return tferrors.Wrapf(err, "delete %s %s", kind, id)
	}
	return nil
}

// UpsertTask implements contracts.Remote.
func (s *SQL) UpsertTask(ctx context.Context, userID string, task domain.Task) error {
	return s.upsert(ctx, userID, kindTask, task.ID, task.UpdatedAt, task)
}

// DeleteTask implements contracts.Remote.
func (s *SQL) DeleteTask(ctx context.Context, userID, taskID string) error {
	return s.remove(ctx, userID, kindTask, taskID)
}

// UpsertList implements contracts.Remote.
func (s *SQL) UpsertList(ctx context.Context, userID string, list domain.List) error {
	return s.upsert(ctx, userID, kindList, list.ID, list.UpdatedAt, list)
}

// DeleteList implements contracts.Remote.
func (s *SQL) DeleteList(ctx context.Context, userID, listID string) error {
	return s.remove(ctx, userID, kindList, listID)
}

// UpsertWorkspace implements contracts.Remote.
func (s *SQL) UpsertWorkspace(ctx context.Context, userID string, ws domain.Workspace) error {
	return s.upsert(ctx, userID, kindWorkspace, ws.ID, ws.UpdatedAt, ws)
}

// DeleteWorkspace implements contracts.Remote.
func (s *SQL) DeleteWorkspace(ctx context.Context, userID, workspaceID string) error {
	return s.remove(ctx, userID, kindWorkspace, workspaceID)
}

// Close closes the database pool.
func (s *SQL) Close() error {
	return s.db.Close()
}
