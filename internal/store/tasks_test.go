package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires remote", func(t *testing.T) {
		t.Parallel()
		_, err := New(nil, testUser)
		require.ErrorIs(t, err, tferrors.ErrInvalidArgument)
	})

	t.Run("requires user", func(t *testing.T) {
		t.Parallel()
		_, err := New(testutil.NewFakeRemote(), "")
		require.ErrorIs(t, err, tferrors.ErrIdentityMissing)
	})

	t.Run("starts with default workspaces", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		st := env.store.State()
		require.Len(t, st.Workspaces, 2)
		assert.Equal(t, domain.WorkspaceProfessional, st.ActiveWorkspaceID)
		assert.Empty(t, st.Tasks)
		assert.Empty(t, st.Lists)
		assert.Equal(t, testUser, env.store.UserID())
	})
}

func TestAddTask(t *testing.T) {
	t.Parallel()

	t.Run("applies locally and syncs", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		task := env.addTask(t, "Write report")

		st := env.store.State()
		assert.Equal(t, 1, countTasks(st, task.ID))
		assert.Equal(t, testStart, task.CreatedAt)
		assert.Equal(t, task.CreatedAt, task.UpdatedAt)
		assert.Equal(t, domain.StatusBacklog, task.Status)
		assert.Equal(t, domain.PriorityMedium, task.Priority)
		assert.Equal(t, domain.WorkspaceProfessional, task.WorkspaceID)

		env.flush(t)
		stored, ok := env.remote.Task(task.ID)
		require.True(t, ok)
		assert.Equal(t, "Write report", stored.Title)
		assert.Empty(t, env.handler.all())
	})

	t.Run("invalid draft changes nothing", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		_, err := env.store.AddTask(context.Background(), domain.TaskDraft{Title: "   "})
		require.ErrorIs(t, err, tferrors.ErrEmptyValue)

		_, err = env.store.AddTask(context.Background(), domain.TaskDraft{Title: "x", Priority: "critical"})
		require.ErrorIs(t, err, tferrors.ErrInvalidPriority)

		env.flush(t)
		assert.Empty(t, env.store.State().Tasks)
		assert.Empty(t, env.remote.Calls())
	})

	t.Run("unknown workspace", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		_, err := env.store.AddTask(context.Background(), domain.TaskDraft{Title: "x", WorkspaceID: "nope"})
		require.ErrorIs(t, err, tferrors.ErrWorkspaceNotFound)
	})

	t.Run("unknown custom list", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		_, err := env.store.AddTask(context.Background(), domain.TaskDraft{Title: "x", ListID: "L404"})
		require.ErrorIs(t, err, tferrors.ErrListNotFound)
	})

	t.Run("custom list of another workspace", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		list, err := env.store.AddList(context.Background(), "Groceries", domain.WorkspacePersonal)
		require.NoError(t, err)

		_, err = env.store.AddTask(context.Background(), domain.TaskDraft{Title: "x", ListID: list.ID})
		require.ErrorIs(t, err, tferrors.ErrListNotFound)
		assert.Empty(t, env.store.State().Tasks)

		task, err := env.store.AddTask(context.Background(), domain.TaskDraft{
			Title: "milk", ListID: list.ID, WorkspaceID: domain.WorkspacePersonal,
		})
		require.NoError(t, err)
		assert.Equal(t, list.ID, task.ListID)
	})

	t.Run("built-in list id becomes status", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		task, err := env.store.AddTask(context.Background(), domain.TaskDraft{Title: "x", ListID: "review"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusReview, task.Status)
		assert.Empty(t, task.ListID)
	})

	t.Run("future start date is yet to start", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		tomorrow := domain.DateOf(testStart).AddDays(1)
		task, err := env.store.AddTask(context.Background(), domain.TaskDraft{Title: "x", StartDate: &tomorrow})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusYetToStart, task.Status)

		today := domain.DateOf(testStart)
		task, err = env.store.AddTask(context.Background(), domain.TaskDraft{Title: "y", StartDate: &today})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusBacklog, task.Status)
	})

	t.Run("explicit workspace", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		task, err := env.store.AddTask(context.Background(), domain.TaskDraft{Title: "x", WorkspaceID: domain.WorkspacePersonal})
		require.NoError(t, err)
		assert.Equal(t, domain.WorkspacePersonal, task.WorkspaceID)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := env.store.AddTask(ctx, domain.TaskDraft{Title: "x"})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestAddTask_Concurrent(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	const n = 50
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.store.AddTask(context.Background(), domain.TaskDraft{Title: "parallel"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	env.flush(t)

	st := env.store.State()
	require.Len(t, st.Tasks, n)
	seen := map[string]struct{}{}
	for _, task := range st.Tasks {
		seen[task.ID] = struct{}{}
	}
	assert.Len(t, seen, n)
	assert.Len(t, env.remote.CallsFor(testutil.OpUpsertTask), n)
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()

	t.Run("applies patch and stamps", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		task := env.addTask(t, "Draft")

		env.clock.Advance(time.Minute)
		updated, err := env.store.UpdateTask(context.Background(), task.ID, domain.TaskPatch{
			Title:    ptr("Final"),
			Priority: ptr(domain.PriorityHigh),
			Labels:   []string{"docs", "docs", " "},
		})
		require.NoError(t, err)
		assert.Equal(t, "Final", updated.Title)
		assert.Equal(t, domain.PriorityHigh, updated.Priority)
		assert.Equal(t, []string{"docs"}, updated.Labels)
		assert.Equal(t, testStart.Add(time.Minute), updated.UpdatedAt)
		assert.Equal(t, testStart, updated.CreatedAt)
	})

	t.Run("updated at strictly increases on a frozen clock", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		task := env.addTask(t, "x")

		first, err := env.store.UpdateTask(context.Background(), task.ID, domain.TaskPatch{Title: ptr("a")})
		require.NoError(t, err)
		second, err := env.store.UpdateTask(context.Background(), task.ID, domain.TaskPatch{Title: ptr("b")})
		require.NoError(t, err)

		assert.True(t, first.UpdatedAt.After(task.UpdatedAt))
		assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
		assert.Equal(t, time.Nanosecond, second.UpdatedAt.Sub(first.UpdatedAt))
	})

	t.Run("empty patch returns task unchanged", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		task := env.addTask(t, "x")
		env.flush(t)

		got, err := env.store.UpdateTask(context.Background(), task.ID, domain.TaskPatch{})
		require.NoError(t, err)
		assert.Equal(t, task.UpdatedAt, got.UpdatedAt)
		env.flush(t)
		assert.Len(t, env.remote.CallsFor(testutil.OpUpsertTask), 1)
	})

	t.Run("invalid patch changes nothing", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		task := env.addTask(t, "x")

		_, err := env.store.UpdateTask(context.Background(), task.ID, domain.TaskPatch{Status: ptr(domain.Status("archived"))})
		require.ErrorIs(t, err, tferrors.ErrInvalidStatus)

		got, err := env.store.Task(task.ID)
		require.NoError(t, err)
		assert.Equal(t, task, got)
	})

	t.Run("unknown task", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		_, err := env.store.UpdateTask(context.Background(), "missing", domain.TaskPatch{Title: ptr("x")})
		require.ErrorIs(t, err, tferrors.ErrTaskNotFound)
	})

	t.Run("unknown workspace", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		task := env.addTask(t, "x")

		_, err := env.store.UpdateTask(context.Background(), task.ID, domain.TaskPatch{WorkspaceID: ptr("nope")})
		require.ErrorIs(t, err, tferrors.ErrWorkspaceNotFound)
	})

	t.Run("clear dates", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		due := domain.MustParseDate("2026-03-10")
		task, err := env.store.AddTask(context.Background(), domain.TaskDraft{Title: "x", DueDate: &due})
		require.NoError(t, err)

		updated, err := env.store.UpdateTask(context.Background(), task.ID, domain.TaskPatch{ClearDueDate: true})
		require.NoError(t, err)
		assert.Nil(t, updated.DueDate)
	})
}

func TestUpdateTask_LastLocalWriteReachesRemote(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.remote.Block()
	task := env.addTask(t, "x")
	_, err := env.store.UpdateTask(context.Background(), task.ID, domain.TaskPatch{Title: ptr("first")})
	require.NoError(t, err)
	_, err = env.store.UpdateTask(context.Background(), task.ID, domain.TaskPatch{Title: ptr("second")})
	require.NoError(t, err)

	got, err := env.store.Task(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Title)
	assert.Equal(t, 1, env.store.PendingSyncs())

	env.remote.Release()
	env.flush(t)

	stored, ok := env.remote.Task(task.ID)
	require.True(t, ok)
	assert.Equal(t, "second", stored.Title)
	assert.Equal(t, 0, env.store.PendingSyncs())
}

func TestRemoteFailureKeepsLocalState(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.remote.FailNext(testutil.OpUpsertTask, testutil.ErrMockNetwork, testutil.ErrMockNetwork, testutil.ErrMockNetwork)
	task := env.addTask(t, "offline")
	env.flush(t)

	assert.Equal(t, 1, countTasks(env.store.State(), task.ID))
	_, ok := env.remote.Task(task.ID)
	assert.False(t, ok)

	failures := env.handler.all()
	require.Len(t, failures, 1)
	assert.Equal(t, OpUpsertTask, failures[0].Op)
	assert.Equal(t, "task:"+task.ID, failures[0].Key)
	require.ErrorIs(t, failures[0].Err, testutil.ErrMockNetwork)
	assert.Len(t, env.remote.CallsFor(testutil.OpUpsertTask), 3)
}

func TestMoveTask(t *testing.T) {
	t.Parallel()

	t.Run("into custom list keeps status", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		list, err := env.store.AddList(context.Background(), "Groceries", "")
		require.NoError(t, err)
		task := env.addTask(t, "Milk")

		moved, err := env.store.MoveTask(context.Background(), task.ID, "", list.ID)
		require.NoError(t, err)
		assert.Equal(t, list.ID, moved.ListID)
		assert.Equal(t, domain.StatusBacklog, moved.Status)
		assert.True(t, moved.InCustomList())
	})

	t.Run("into custom list with status", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		list, err := env.store.AddList(context.Background(), "Sprint", "")
		require.NoError(t, err)
		task := env.addTask(t, "x")

		moved, err := env.store.MoveTask(context.Background(), task.ID, domain.StatusInProgress, list.ID)
		require.NoError(t, err)
		assert.Equal(t, list.ID, moved.ListID)
		assert.Equal(t, domain.StatusInProgress, moved.Status)
	})

	t.Run("built-in list id clears custom list", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		list, err := env.store.AddList(context.Background(), "Sprint", "")
		require.NoError(t, err)
		task := env.addTask(t, "x")
		_, err = env.store.MoveTask(context.Background(), task.ID, "", list.ID)
		require.NoError(t, err)

		moved, err := env.store.MoveTask(context.Background(), task.ID, domain.StatusBacklog, "done")
		require.NoError(t, err)
		assert.Empty(t, moved.ListID)
		assert.Equal(t, domain.StatusDone, moved.Status)
	})

	t.Run("status only", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		task := env.addTask(t, "x")

		moved, err := env.store.MoveTask(context.Background(), task.ID, domain.StatusReview, "")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusReview, moved.Status)
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		task := env.addTask(t, "x")

		_, err := env.store.MoveTask(context.Background(), task.ID, "", "")
		require.ErrorIs(t, err, tferrors.ErrInvalidStatus)

		_, err = env.store.MoveTask(context.Background(), task.ID, "later", "")
		require.ErrorIs(t, err, tferrors.ErrInvalidStatus)

		_, err = env.store.MoveTask(context.Background(), task.ID, "", "L404")
		require.ErrorIs(t, err, tferrors.ErrListNotFound)

		_, err = env.store.MoveTask(context.Background(), "missing", domain.StatusDone, "")
		require.ErrorIs(t, err, tferrors.ErrTaskNotFound)
	})

	t.Run("custom list of another workspace", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		task := env.addTask(t, "x")
		list, err := env.store.AddList(context.Background(), "Groceries", domain.WorkspacePersonal)
		require.NoError(t, err)

		_, err = env.store.MoveTask(context.Background(), task.ID, "", list.ID)
		require.ErrorIs(t, err, tferrors.ErrListNotFound)

		got, err := env.store.Task(task.ID)
		require.NoError(t, err)
		assert.Empty(t, got.ListID)
		assert.Equal(t, task.UpdatedAt, got.UpdatedAt, "rejected move changes nothing")
	})

	t.Run("changing workspace leaves the custom list", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		task := env.addTask(t, "x")
		list, err := env.store.AddList(context.Background(), "Sprint", "")
		require.NoError(t, err)
		_, err = env.store.MoveTask(context.Background(), task.ID, domain.StatusReview, list.ID)
		require.NoError(t, err)

		ws := domain.WorkspacePersonal
		moved, err := env.store.UpdateTask(context.Background(), task.ID, domain.TaskPatch{WorkspaceID: &ws})
		require.NoError(t, err)
		assert.Empty(t, moved.ListID)
		assert.Equal(t, domain.StatusReview, moved.Status)
	})
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	t.Run("removes and syncs", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		task := env.addTask(t, "x")
		env.flush(t)

		require.NoError(t, env.store.DeleteTask(context.Background(), task.ID))
		assert.Equal(t, 0, countTasks(env.store.State(), task.ID))

		env.flush(t)
		_, ok := env.remote.Task(task.ID)
		assert.False(t, ok)
	})

	t.Run("clears selection", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		task := env.addTask(t, "x")
		require.NoError(t, env.store.SelectTask(context.Background(), task.ID))
		assert.Equal(t, task.ID, env.store.State().SelectedTaskID)

		require.NoError(t, env.store.DeleteTask(context.Background(), task.ID))
		assert.Empty(t, env.store.State().SelectedTaskID)
	})

	t.Run("keeps other selection", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		keep := env.addTask(t, "keep")
		drop := env.addTask(t, "drop")
		require.NoError(t, env.store.SelectTask(context.Background(), keep.ID))

		require.NoError(t, env.store.DeleteTask(context.Background(), drop.ID))
		assert.Equal(t, keep.ID, env.store.State().SelectedTaskID)
	})

	t.Run("unknown task", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		require.ErrorIs(t, env.store.DeleteTask(context.Background(), "missing"), tferrors.ErrTaskNotFound)
	})
}

func TestSelectTask(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	task := env.addTask(t, "x")

	require.ErrorIs(t, env.store.SelectTask(context.Background(), "missing"), tferrors.ErrTaskNotFound)
	require.NoError(t, env.store.SelectTask(context.Background(), task.ID))
	require.NoError(t, env.store.SelectTask(context.Background(), ""))
	assert.Empty(t, env.store.State().SelectedTaskID)
}

func TestCommentsAndSubtasks(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	task := env.addTask(t, "x")

	c, err := env.store.AddComment(context.Background(), task.ID, "  looks good ", "ana")
	require.NoError(t, err)
	assert.Equal(t, "looks good", c.Text)
	assert.Equal(t, testStart, c.Timestamp)

	_, err = env.store.AddComment(context.Background(), task.ID, " ", "ana")
	require.ErrorIs(t, err, tferrors.ErrEmptyValue)

	st, err := env.store.AddSubtask(context.Background(), task.ID, "step one")
	require.NoError(t, err)
	assert.False(t, st.Completed)

	toggled, err := env.store.ToggleSubtask(context.Background(), task.ID, st.ID)
	require.NoError(t, err)
	require.Len(t, toggled.Subtasks, 1)
	assert.True(t, toggled.Subtasks[0].Completed)
	require.Len(t, toggled.Comments, 1)

	_, err = env.store.ToggleSubtask(context.Background(), task.ID, "missing")
	require.ErrorIs(t, err, tferrors.ErrSubtaskNotFound)

	_, err = env.store.AddSubtask(context.Background(), "missing", "x")
	require.ErrorIs(t, err, tferrors.ErrTaskNotFound)
}

func TestStateIsACopy(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	task, err := env.store.AddTask(context.Background(), domain.TaskDraft{Title: "x", Labels: []string{"a"}})
	require.NoError(t, err)

	st := env.store.State()
	st.Tasks[0].Labels[0] = "mutated"
	st.Tasks[0].Title = "mutated"

	got, err := env.store.Task(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Title)
	assert.Equal(t, []string{"a"}, got.Labels)
}

func TestSubscribe(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	var mu sync.Mutex
	var events []Event
	var seenTasks []int
	unsubscribe := env.store.Subscribe(func(ev Event) {
		// Reading state from a listener must not deadlock.
		n := len(env.store.State().Tasks)
		mu.Lock()
		events = append(events, ev)
		seenTasks = append(seenTasks, n)
		mu.Unlock()
	})

	task := env.addTask(t, "x")
	_, err := env.store.UpdateTask(context.Background(), task.ID, domain.TaskPatch{Title: ptr("y")})
	require.NoError(t, err)

	unsubscribe()
	unsubscribe()
	require.NoError(t, env.store.DeleteTask(context.Background(), task.ID))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Event{
		{Kind: EventTaskAdded, ID: task.ID},
		{Kind: EventTaskUpdated, ID: task.ID},
	}, events)
	assert.Equal(t, []int{1, 1}, seenTasks)
}

func TestClose(t *testing.T) {
	t.Parallel()

	t.Run("rejects mutations", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		task := env.addTask(t, "x")

		require.NoError(t, env.store.Close(context.Background()))
		require.NoError(t, env.store.Close(context.Background()))

		_, err := env.store.AddTask(context.Background(), domain.TaskDraft{Title: "y"})
		require.ErrorIs(t, err, tferrors.ErrStoreClosed)
		_, err = env.store.UpdateTask(context.Background(), task.ID, domain.TaskPatch{Title: ptr("z")})
		require.ErrorIs(t, err, tferrors.ErrStoreClosed)
		require.ErrorIs(t, env.store.DeleteTask(context.Background(), task.ID), tferrors.ErrStoreClosed)

		_, ok := env.remote.Task(task.ID)
		assert.True(t, ok, "queued upsert is flushed before close returns")
	})

	t.Run("times out on a stuck remote", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, WithSyncConfig(fastSync()))
		env.remote.Block()
		env.addTask(t, "x")

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := env.store.Close(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
