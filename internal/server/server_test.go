package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/taskflow/internal/config"
	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/session"
	"github.com/mrz1836/taskflow/internal/testutil"
	"github.com/mrz1836/taskflow/internal/view"
)

//nolint:gochecknoglobals // Fixed test time
var testNow = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Addr:              "127.0.0.1:0",
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		MetricsEnabled:    true,
		ShutdownTimeout:   5 * time.Second,
	}
}

func newTestServer(t *testing.T, cfg config.ServerConfig) (*Server, *session.Session) {
	t.Helper()

	appCfg := config.DefaultConfig()
	appCfg.Remote.Backend = config.BackendMemory
	appCfg.Identity.UserID = "user-1"
	appCfg.Scheduler.Enabled = false
	appCfg.Parser.Enabled = false

	sess, err := session.Open(context.Background(), appCfg, session.Deps{Clock: testutil.NewClock(testNow)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	return New(sess, cfg, zerolog.Nop()), sess
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createTask(t *testing.T, h http.Handler, draft domain.TaskDraft) domain.Task {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/tasks", draft)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[domain.Task](t, rec)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, testServerConfig())

	rec := do(t, srv.Handler(), http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])
}

func TestTasksAPI(t *testing.T) {
	t.Parallel()

	t.Run("create and list", func(t *testing.T) {
		t.Parallel()
		srv, sess := newTestServer(t, testServerConfig())
		h := srv.Handler()

		task := createTask(t, h, domain.TaskDraft{Title: "Write report", Priority: domain.PriorityHigh})
		createTask(t, h, domain.TaskDraft{Title: "Buy milk"})
		assert.Equal(t, sess.Store.State().ActiveWorkspaceID, task.WorkspaceID)

		rec := do(t, h, http.MethodGet, "/api/tasks", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]domain.Task](t, rec), 2)

		rec = do(t, h, http.MethodGet, "/api/tasks?search=REPORT&priority=high", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[[]domain.Task](t, rec)
		require.Len(t, got, 1)
		assert.Equal(t, task.ID, got[0].ID)
	})

	t.Run("invalid filter", func(t *testing.T) {
		t.Parallel()
		srv, _ := newTestServer(t, testServerConfig())

		rec := do(t, srv.Handler(), http.MethodGet, "/api/tasks?status=someday", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown workspace", func(t *testing.T) {
		t.Parallel()
		srv, _ := newTestServer(t, testServerConfig())

		rec := do(t, srv.Handler(), http.MethodGet, "/api/tasks?workspace=nope", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("all workspaces", func(t *testing.T) {
		t.Parallel()
		srv, _ := newTestServer(t, testServerConfig())
		h := srv.Handler()

		createTask(t, h, domain.TaskDraft{Title: "work", WorkspaceID: domain.WorkspaceProfessional})
		createTask(t, h, domain.TaskDraft{Title: "home", WorkspaceID: domain.WorkspacePersonal})

		rec := do(t, h, http.MethodGet, "/api/tasks?workspace=all", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]domain.Task](t, rec), 2)
	})

	t.Run("create rejects blank title", func(t *testing.T) {
		t.Parallel()
		srv, _ := newTestServer(t, testServerConfig())

		rec := do(t, srv.Handler(), http.MethodPost, "/api/tasks", domain.TaskDraft{Title: "  "})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode[errorResponse](t, rec)
		assert.Equal(t, http.StatusBadRequest, body.Code)
		assert.NotEmpty(t, body.Error)
		assert.NotEmpty(t, body.RequestID)
	})

	t.Run("update", func(t *testing.T) {
		t.Parallel()
		srv, _ := newTestServer(t, testServerConfig())
		h := srv.Handler()
		task := createTask(t, h, domain.TaskDraft{Title: "draft"})

		rec := do(t, h, http.MethodPatch, "/api/tasks/"+task.ID, map[string]any{"title": "final", "dueDate": "2026-03-09"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decode[domain.Task](t, rec)
		assert.Equal(t, "final", got.Title)
		require.NotNil(t, got.DueDate)
		assert.Equal(t, "2026-03-09", got.DueDate.String())

		rec = do(t, h, http.MethodPatch, "/api/tasks/missing", map[string]any{"title": "x"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("move", func(t *testing.T) {
		t.Parallel()
		srv, _ := newTestServer(t, testServerConfig())
		h := srv.Handler()
		task := createTask(t, h, domain.TaskDraft{Title: "ship"})

		rec := do(t, h, http.MethodPost, "/api/tasks/"+task.ID+"/move", moveRequest{ListID: "review"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, domain.StatusReview, decode[domain.Task](t, rec).Status)

		rec = do(t, h, http.MethodPost, "/api/tasks/"+task.ID+"/move", moveRequest{Status: "someday"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(t, h, http.MethodPost, "/api/tasks/"+task.ID+"/move", moveRequest{ListID: "L-missing"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		srv, _ := newTestServer(t, testServerConfig())
		h := srv.Handler()
		task := createTask(t, h, domain.TaskDraft{Title: "temp"})

		rec := do(t, h, http.MethodDelete, "/api/tasks/"+task.ID, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, h, http.MethodDelete, "/api/tasks/"+task.ID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListsAPI(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, testServerConfig())
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/api/lists", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.List](t, rec), len(domain.AllStatuses()))

	rec = do(t, h, http.MethodPost, "/api/lists", listRequest{Title: "Sprint 12"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	list := decode[domain.List](t, rec)

	rec = do(t, h, http.MethodPost, "/api/lists", listRequest{Title: " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, "/api/lists/"+list.ID, renameRequest{Title: "Sprint 13"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sprint 13", decode[domain.List](t, rec).Title)

	rec = do(t, h, http.MethodPatch, "/api/lists/backlog", renameRequest{Title: "Later"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.NotEmpty(t, decode[errorResponse](t, rec).Action)

	rec = do(t, h, http.MethodDelete, "/api/lists/"+list.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/lists", nil)
	assert.Len(t, decode[[]domain.List](t, rec), len(domain.AllStatuses()))
}

func TestWorkspacesBoardSummary(t *testing.T) {
	t.Parallel()
	srv, sess := newTestServer(t, testServerConfig())
	h := srv.Handler()

	due := domain.NewDate(2026, time.February, 20)
	createTask(t, h, domain.TaskDraft{Title: "late", DueDate: &due})
	createTask(t, h, domain.TaskDraft{Title: "done", Status: domain.StatusDone})

	rec := do(t, h, http.MethodGet, "/api/workspaces", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ws := decode[workspacesResponse](t, rec)
	assert.Len(t, ws.Workspaces, 2)
	assert.Equal(t, sess.Store.State().ActiveWorkspaceID, ws.ActiveWorkspaceID)

	rec = do(t, h, http.MethodGet, "/api/board", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[view.Board](t, rec)
	backlog, ok := board.Column(string(domain.StatusBacklog))
	require.True(t, ok)
	assert.Len(t, backlog.Tasks, 1)
	done, ok := board.Column(string(domain.StatusDone))
	require.True(t, ok)
	assert.Len(t, done.Tasks, 1)

	rec = do(t, h, http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decode[view.Summary](t, rec)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 1, sum.Completed)
	assert.Equal(t, 1, sum.Overdue)
}

func TestParseAPI(t *testing.T) {
	t.Parallel()

	t.Run("draft only", func(t *testing.T) {
		t.Parallel()
		srv, sess := newTestServer(t, testServerConfig())

		rec := do(t, srv.Handler(), http.MethodPost, "/api/parse", parseRequest{Text: "Create a high priority bug fix for login issues"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[parseResponse](t, rec)
		assert.Equal(t, domain.PriorityHigh, resp.Draft.Priority)
		assert.Nil(t, resp.Task)
		assert.Empty(t, sess.Store.State().Tasks)
	})

	t.Run("create", func(t *testing.T) {
		t.Parallel()
		srv, sess := newTestServer(t, testServerConfig())

		rec := do(t, srv.Handler(), http.MethodPost, "/api/parse", parseRequest{Text: "urgent: call the vendor", Create: true})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		resp := decode[parseResponse](t, rec)
		require.NotNil(t, resp.Task)
		assert.Len(t, sess.Store.State().Tasks, 1)
	})

	t.Run("blank text", func(t *testing.T) {
		t.Parallel()
		srv, _ := newTestServer(t, testServerConfig())

		rec := do(t, srv.Handler(), http.MethodPost, "/api/parse", parseRequest{Text: ""})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rate limited per client", func(t *testing.T) {
		t.Parallel()
		cfg := testServerConfig()
		cfg.RateLimitRequests = 2
		srv, _ := newTestServer(t, cfg)
		h := srv.Handler()

		for range 2 {
			rec := do(t, h, http.MethodPost, "/api/parse", parseRequest{Text: "walk the dog"})
			require.Equal(t, http.StatusOK, rec.Code)
		}
		rec := do(t, h, http.MethodPost, "/api/parse", parseRequest{Text: "walk the dog"})
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)

		rec = do(t, h, http.MethodGet, "/api/tasks", nil)
		assert.Equal(t, http.StatusOK, rec.Code, "other routes are not limited")
	})
}

func TestSyncAPI(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, testServerConfig())
	h := srv.Handler()
	createTask(t, h, domain.TaskDraft{Title: "synced"})

	rec := do(t, h, http.MethodPost, "/api/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[syncResponse](t, rec)
	assert.Equal(t, 1, resp.Tasks)
	assert.Equal(t, 0, resp.Pending)
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	t.Run("enabled", func(t *testing.T) {
		t.Parallel()
		srv, _ := newTestServer(t, testServerConfig())
		h := srv.Handler()
		createTask(t, h, domain.TaskDraft{Title: "counted"})

		rec := do(t, h, http.MethodGet, "/metrics", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "taskflow_http_requests_total")
		assert.Contains(t, body, "taskflow_scheduler_scans_total")
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		cfg := testServerConfig()
		cfg.MetricsEnabled = false
		srv, _ := newTestServer(t, cfg)

		rec := do(t, srv.Handler(), http.MethodGet, "/metrics", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRun(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, testServerConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://"+srv.Addr()+"/healthz", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
