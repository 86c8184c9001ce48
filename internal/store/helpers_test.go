package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mrz1836/taskflow/internal/config"
	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/testutil"
)

//nolint:gochecknoglobals // Fixed test time
var testStart = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

const testUser = "user-1"

func fastSync() config.SyncConfig {
	return config.SyncConfig{
		DispatchTimeout: time.Second,
		MaxAttempts:     3,
		InitialBackoff:  time.Millisecond,
		MaxBackoff:      2 * time.Millisecond,
		FlushTimeout:    5 * time.Second,
	}
}

func sequentialIDs() IDGenerator {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("id-%d", n.Add(1))
	}
}

// recordingHandler collects sync failures.
type recordingHandler struct {
	mu       sync.Mutex
	failures []Failure
}

func (h *recordingHandler) HandleSyncFailure(_ context.Context, f Failure) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures = append(h.failures, f)
}

func (h *recordingHandler) all() []Failure {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Failure(nil), h.failures...)
}

type testEnv struct {
	store   *Store
	remote  *testutil.FakeRemote
	clock   *testutil.Clock
	handler *recordingHandler
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	env := &testEnv{
		remote:  testutil.NewFakeRemote(),
		clock:   testutil.NewClock(testStart),
		handler: &recordingHandler{},
	}

	base := []Option{
		WithClock(env.clock),
		WithIDGenerator(sequentialIDs()),
		WithSyncConfig(fastSync()),
		WithFailureHandler(env.handler),
	}
	s, err := New(env.remote, testUser, append(base, opts...)...)
	require.NoError(t, err)
	env.store = s

	t.Cleanup(func() {
		env.remote.Release()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Close(ctx)
	})
	return env
}

func (e *testEnv) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.store.Flush(ctx))
}

func (e *testEnv) addTask(t *testing.T, title string) domain.Task {
	t.Helper()
	task, err := e.store.AddTask(context.Background(), domain.TaskDraft{Title: title})
	require.NoError(t, err)
	return task
}

func countTasks(st domain.State, id string) int {
	n := 0
	for _, t := range st.Tasks {
		if t.ID == id {
			n++
		}
	}
	return n
}
