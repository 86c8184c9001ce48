package remote

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/taskflow/internal/config"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// Record kinds, used in redis keys and sql table names.
const (
	kindTask      = "task"
	kindList      = "list"
	kindWorkspace = "workspace"
)

// Redis stores each record as a JSON string under
// "<prefix>user:<uid>:<kind>:<id>" and indexes ids in the set
// "<prefix>user:<uid>:<kind>s".
type Redis struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewRedis connects to cfg.Addr and verifies the connection with PING.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, tferrors.Wrapf(tferrors.ErrRemoteUnavailable, "redis %s: %v", cfg.Addr, err)
	}

	logger.Debug().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("connected to redis")
	return NewRedisFromClient(client, cfg.Prefix, logger), nil
}

// NewRedisFromClient wraps an existing client. The backend owns the client
// and closes it in Close.
func NewRedisFromClient(client *redis.Client, prefix string, logger zerolog.Logger) *Redis {
	return &Redis{client: client, prefix: prefix, logger: logger}
}

func (r *Redis) indexKey(userID, kind string) string {
	return r.prefix + "user:" + userID + ":" + kind + "s"
}

func (r *Redis) recordKey(userID, kind, id string) string {
	return r.prefix + "user:" + userID + ":" + kind + ":" + id
}

// Fetch implements contracts.Remote.
func (r *Redis) Fetch(ctx context.Context, userID string) (*domain.Snapshot, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	snap := emptySnapshot()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks, err := fetchRedisKind[domain.Task](gctx, r, userID, kindTask)
		snap.Tasks = tasks
		return err
	})
	g.Go(func() error {
		lists, err := fetchRedisKind[domain.List](gctx, r, userID, kindList)
		snap.Lists = lists
		return err
	})
	g.Go(func() error {
		workspaces, err := fetchRedisKind[domain.Workspace](gctx, r, userID, kindWorkspace)
		snap.Workspaces = workspaces
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortSnapshot(snap)
	return snap, nil
}

// fetchRedisKind loads every record of one kind. Dangling index entries and
// undecodable values are skipped.
func fetchRedisKind[T any](ctx context.Context, r *Redis, userID, kind string) ([]T, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey(userID, kind)).Result()
	if err != nil {
		return nil, tferrors.Wrapf(err, "list %s ids", kind)
	}

	out := make([]T, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.recordKey(userID, kind, id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, tferrors.Wrapf(err, "load %s records", kind)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			r.logger.Warn().Str("kind", kind).Str("id", ids[i]).Msg("index entry without record")
			continue
		}
		var rec T
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			r.logger.Warn().Err(err).Str("kind", kind).Str("id", ids[i]).Msg("skipping undecodable record")
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Redis) upsert(ctx context.Context, userID, kind, id string, rec any) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return tferrors.Wrapf(err, "encode %s", kind)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.recordKey(userID, kind, id), data, 0)
		pipe.SAdd(ctx, r.indexKey(userID, kind), id)
		return nil
	})
	if err != nil {
		return tferrors.Wrapf(err, "upsert %s %s", kind, id)
	}
	return nil
}

func (r *Redis) remove(ctx context.Context, userID, kind, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.recordKey(userID, kind, id))
		pipe.SRem(ctx, r.indexKey(userID, kind), id)
		return nil
	})
	if err != nil {
		return tferrors.Wrapf(err, "delete %s %s", kind, id)
	}
	return nil
}

// UpsertTask implements contracts.Remote.
func (r *Redis) UpsertTask(ctx context.Context, userID string, task domain.Task) error {
	return r.upsert(ctx, userID, kindTask, task.ID, task)
}

// DeleteTask implements contracts.Remote.
func (r *Redis) DeleteTask(ctx context.Context, userID, taskID string) error {
	return r.remove(ctx, userID, kindTask, taskID)
}

// UpsertList implements contracts.Remote.
func (r *Redis) UpsertList(ctx context.Context, userID string, list domain.List) error {
	return r.upsert(ctx, userID, kindList, list.ID, list)
}

// DeleteList implements contracts.Remote.
func (r *Redis) DeleteList(ctx context.Context, userID, listID string) error {
	return r.remove(ctx, userID, kindList, listID)
}

// UpsertWorkspace implements contracts.Remote.
func (r *Redis) UpsertWorkspace(ctx context.Context, userID string, ws domain.Workspace) error {
	return r.upsert(ctx, userID, kindWorkspace, ws.ID, ws)
}

// DeleteWorkspace implements contracts.Remote.
func (r *Redis) DeleteWorkspace(ctx context.Context, userID, workspaceID string) error {
	return r.remove(ctx, userID, kindWorkspace, workspaceID)
}

// Close closes the redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}
