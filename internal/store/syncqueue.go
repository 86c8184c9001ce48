package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/retry"
)

// Remote operation names used in logs, metrics and Failure.
const (
	OpUpsertTask      = "upsert_task"
	OpDeleteTask      = "delete_task"
	OpUpsertList      = "upsert_list"
	OpDeleteList      = "delete_list"
	OpUpsertWorkspace = "upsert_workspace"
	OpDeleteWorkspace = "delete_workspace"
)

// Dispatch results used as the metrics result label.
const (
	resultOK    = "ok"
	resultError = "error"
)

// Failure describes a remote operation that was given up on.
// Local state already reflects the change and is not rolled back.
type Failure struct {
	Op  string
	Key string
	Err error
}

// FailureHandler receives remote operations that failed after all retries.
type FailureHandler interface {
	HandleSyncFailure(ctx context.Context, f Failure)
}

// FailureHandlerFunc adapts a function to FailureHandler.
type FailureHandlerFunc func(ctx context.Context, f Failure)

// HandleSyncFailure calls fn.
func (fn FailureHandlerFunc) HandleSyncFailure(ctx context.Context, f Failure) {
	fn(ctx, f)
}

// LogFailureHandler logs failures at error level.
type LogFailureHandler struct {
	Logger zerolog.Logger
}

// HandleSyncFailure implements FailureHandler.
func (h LogFailureHandler) HandleSyncFailure(_ context.Context, f Failure) {
	h.Logger.Error().
		Err(f.Err).
		Str("op", f.Op).
		Str("key", f.Key).
		Msg("remote sync failed, local state kept")
}

// syncOp is one queued remote call.
type syncOp struct {
	name string
	key  string
	run  func(ctx context.Context) error
	done func(err error)
}

// lane holds the pending operations of one entity key.
type lane struct {
	ops []syncOp
}

// syncQueue dispatches remote operations with one worker goroutine per
// entity key. Operations on the same key run in enqueue order; different
// keys run concurrently.
type syncQueue struct {
	policy  retry.Policy
	timeout time.Duration
	handler FailureHandler
	metrics Metrics
	logger  zerolog.Logger

	// ctx outlives individual callers; it is cancelled only by abort.
	ctx    context.Context //nolint:containedctx // worker lifetime context
	cancel context.CancelFunc

	mu       sync.Mutex
	lanes    map[string]*lane
	inflight int
	idle     chan struct{} // closed while inflight is zero
	closed   bool
}

func newSyncQueue(policy retry.Policy, timeout time.Duration, handler FailureHandler, metrics Metrics, logger zerolog.Logger) *syncQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &syncQueue{
		policy:  policy,
		timeout: timeout,
		handler: handler,
		metrics: metrics,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		lanes:   make(map[string]*lane),
		idle:    closedChan(),
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// enqueue appends op to its key's lane, starting a worker if the lane was idle.
// It returns ErrStoreClosed after close.
func (q *syncQueue) enqueue(op syncOp) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return tferrors.ErrStoreClosed
	}

	if q.inflight == 0 {
		q.idle = make(chan struct{})
	}
	q.inflight++
	q.metrics.PendingChanged(1)

	if l, busy := q.lanes[op.key]; busy {
		l.ops = append(l.ops, op)
		return nil
	}

	l := &lane{ops: []syncOp{op}}
	q.lanes[op.key] = l
	go q.work(op.key, l)
	return nil
}

// pending reports whether any operation for key is queued or running.
func (q *syncQueue) pending(key string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.lanes[key]
	return ok
}

// size returns the number of keys with queued or running operations.
func (q *syncQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lanes)
}

func (q *syncQueue) work(key string, l *lane) {
	for {
		q.mu.Lock()
		if len(l.ops) == 0 {
			delete(q.lanes, key)
			q.mu.Unlock()
			return
		}
		op := l.ops[0]
		l.ops = l.ops[1:]
		q.mu.Unlock()

		q.dispatch(op)
	}
}

func (q *syncQueue) dispatch(op syncOp) {
	defer q.finish()

	logger := q.logger.With().Str("op", op.name).Str("key", op.key).Logger()

	err := q.runSafely(logger, op)
	if err == nil {
		q.metrics.Dispatched(op.name, resultOK)
		logger.Debug().Msg("remote sync complete")
	} else {
		q.metrics.Dispatched(op.name, resultError)
		q.metrics.SyncFailed(op.name)
		q.handler.HandleSyncFailure(q.ctx, Failure{Op: op.name, Key: op.key, Err: err})
	}

	if op.done != nil {
		op.done(err)
	}
}

func (q *syncQueue) finish() {
	q.metrics.PendingChanged(-1)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.inflight--
	if q.inflight == 0 {
		close(q.idle)
	}
}

// runSafely runs op under the retry policy and converts a panic in the
// remote into an error so one bad call cannot stop the lane.
func (q *syncQueue) runSafely(logger zerolog.Logger, op syncOp) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = tferrors.Wrapf(tferrors.ErrRemoteUnavailable, "panic in %s: %v", op.name, r)
		}
	}()

	return retry.Do(q.ctx, logger, q.policy, func(ctx context.Context) error {
		if q.timeout <= 0 {
			return op.run(ctx)
		}

		callCtx, cancel := context.WithTimeout(ctx, q.timeout)
		defer cancel()

		err := op.run(callCtx)
		if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			// A single slow call is transient; only the queue's own context is final.
			return tferrors.Wrapf(tferrors.ErrRemoteUnavailable, "%s timed out after %s", op.name, q.timeout)
		}
		return err
	})
}

// flush waits until every enqueued operation has finished or ctx is done.
func (q *syncQueue) flush(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops accepting operations. Queued operations keep running.
func (q *syncQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// abort cancels in-flight retries. Remaining operations fail fast and are
// reported to the failure handler.
func (q *syncQueue) abort() {
	q.close()
	q.cancel()
}
