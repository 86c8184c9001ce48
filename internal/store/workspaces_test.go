package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

func TestAddWorkspace(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w, err := env.store.AddWorkspace(context.Background(), "Side project", "")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultWorkspaceColor, w.Color)
	assert.Equal(t, "Side project", w.Name)

	w, err = env.store.AddWorkspace(context.Background(), "School", "orange")
	require.NoError(t, err)
	assert.Equal(t, "orange", w.Color)

	_, err = env.store.AddWorkspace(context.Background(), "  ", "red")
	require.ErrorIs(t, err, tferrors.ErrEmptyValue)

	assert.Len(t, env.store.State().Workspaces, 4)
}

func TestUpdateWorkspace(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w, err := env.store.UpdateWorkspace(context.Background(), domain.WorkspacePersonal, domain.WorkspacePatch{
		Name:  ptr("Home"),
		Color: ptr("teal"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Home", w.Name)
	assert.Equal(t, "teal", w.Color)
	assert.True(t, w.UpdatedAt.After(testStart))

	_, err = env.store.UpdateWorkspace(context.Background(), domain.WorkspacePersonal, domain.WorkspacePatch{Name: ptr(" ")})
	require.ErrorIs(t, err, tferrors.ErrEmptyValue)

	_, err = env.store.UpdateWorkspace(context.Background(), "missing", domain.WorkspacePatch{Name: ptr("x")})
	require.ErrorIs(t, err, tferrors.ErrWorkspaceNotFound)
}

func TestDeleteWorkspace(t *testing.T) {
	t.Parallel()

	t.Run("active falls back to first remaining", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		var events []Event
		env.store.Subscribe(func(ev Event) { events = append(events, ev) })

		require.NoError(t, env.store.DeleteWorkspace(context.Background(), domain.WorkspaceProfessional))

		st := env.store.State()
		require.Len(t, st.Workspaces, 1)
		assert.Equal(t, domain.WorkspacePersonal, st.ActiveWorkspaceID)
		assert.Equal(t, []Event{
			{Kind: EventWorkspaceDeleted, ID: domain.WorkspaceProfessional},
			{Kind: EventActiveWorkspace, ID: domain.WorkspacePersonal},
		}, events)
	})

	t.Run("refuses the last workspace", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		require.NoError(t, env.store.DeleteWorkspace(context.Background(), domain.WorkspacePersonal))
		err := env.store.DeleteWorkspace(context.Background(), domain.WorkspaceProfessional)
		require.ErrorIs(t, err, tferrors.ErrLastWorkspace)
		assert.Len(t, env.store.State().Workspaces, 1)
	})

	t.Run("keeps tasks of the workspace", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		task, err := env.store.AddTask(context.Background(), domain.TaskDraft{Title: "x", WorkspaceID: domain.WorkspacePersonal})
		require.NoError(t, err)

		require.NoError(t, env.store.DeleteWorkspace(context.Background(), domain.WorkspacePersonal))
		assert.Equal(t, 1, countTasks(env.store.State(), task.ID))
	})

	t.Run("unknown workspace", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		require.ErrorIs(t, env.store.DeleteWorkspace(context.Background(), "missing"), tferrors.ErrWorkspaceNotFound)
	})
}

func TestSetActiveWorkspace(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	require.NoError(t, env.store.SetActiveWorkspace(context.Background(), domain.WorkspacePersonal))
	assert.Equal(t, domain.WorkspacePersonal, env.store.State().ActiveWorkspaceID)

	task := env.addTask(t, "x")
	assert.Equal(t, domain.WorkspacePersonal, task.WorkspaceID)

	require.ErrorIs(t, env.store.SetActiveWorkspace(context.Background(), "missing"), tferrors.ErrWorkspaceNotFound)
}
