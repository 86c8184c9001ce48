package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mrz1836/taskflow/internal/config"
	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/remote"
	"github.com/mrz1836/taskflow/internal/session"
	"github.com/mrz1836/taskflow/internal/testutil"
)

//nolint:gochecknoglobals // Fixed test time
var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

const testUser = "cli-user"

// harness runs commands against one shared in-memory remote, so state
// written by one invocation is visible to the next.
type harness struct {
	t       *testing.T
	env     *Env
	backend *remote.Memory
	clock   *testutil.Clock
	logs    *bytes.Buffer
	cfg     *config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Remote.Backend = config.BackendMemory
	cfg.Identity.UserID = testUser
	cfg.Scheduler.Enabled = false
	cfg.Parser.Enabled = false
	cfg.Sync.InitialBackoff = time.Millisecond
	cfg.Sync.MaxBackoff = 2 * time.Millisecond
	cfg.Sync.FlushTimeout = 5 * time.Second
	cfg.Log.FileEnabled = false

	h := &harness{
		t:       t,
		backend: remote.NewMemory(),
		clock:   testutil.NewClock(testNow),
		logs:    &bytes.Buffer{},
		cfg:     cfg,
	}
	h.env = &Env{
		Flags: &GlobalFlags{},
		LoadConfig: func(_ context.Context, overrides *config.Config) (*config.Config, error) {
			c := *h.cfg
			if overrides != nil && overrides.Remote.Backend != "" {
				c.Remote.Backend = overrides.Remote.Backend
			}
			if overrides != nil && overrides.Identity.UserID != "" {
				c.Identity.UserID = overrides.Identity.UserID
			}
			return &c, nil
		},
		Deps: session.Deps{
			Clock:  h.clock,
			Remote: h.backend,
			Getenv: func(string) string { return "" },
		},
		LogWriter: h.logs,
		WithSignals: func(ctx context.Context) (context.Context, func()) {
			return context.WithCancel(ctx)
		},
	}
	return h
}

// run executes one command line and returns what it wrote to stdout.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()

	cmd := newRootCmd(h.env, BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-03-01"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// mustRun is run that fails the test on error.
func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "taskflow %v\n%s", args, out)
	return out
}

// runJSON runs a command with --output json and decodes its output into v.
func (h *harness) runJSON(v any, args ...string) {
	h.t.Helper()
	out := h.mustRun(append([]string{"--output", "json"}, args...)...)
	require.NoError(h.t, json.Unmarshal([]byte(out), v), out)
}

// addTask creates a task without parsing and returns it.
func (h *harness) addTask(title string, flags ...string) domain.Task {
	h.t.Helper()
	var task domain.Task
	h.runJSON(&task, append([]string{"add", "--no-parse", title}, flags...)...)
	return task
}

// remoteTask reads a task straight from the remote.
func (h *harness) remoteTask(id string) (domain.Task, bool) {
	h.t.Helper()
	snap, err := h.backend.Fetch(context.Background(), testUser)
	require.NoError(h.t, err)
	for _, t := range snap.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}
