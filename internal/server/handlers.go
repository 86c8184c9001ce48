package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/view"
)

type moveRequest struct {
	Status domain.Status `json:"status" validate:"omitempty,status"`
	ListID string        `json:"listId"`
}

type listRequest struct {
	Title       string `json:"title" validate:"notblank"`
	WorkspaceID string `json:"workspaceId"`
}

type renameRequest struct {
	Title string `json:"title" validate:"notblank"`
}

type parseRequest struct {
	Text   string `json:"text" validate:"notblank"`
	Create bool   `json:"create"`
}

type parseResponse struct {
	Draft domain.TaskDraft `json:"draft"`
	Task  *domain.Task     `json:"task,omitempty"`
}

type workspacesResponse struct {
	Workspaces        []domain.Workspace `json:"workspaces"`
	ActiveWorkspaceID string             `json:"activeWorkspaceId"`
}

type syncResponse struct {
	Tasks   int `json:"tasks"`
	Pending int `json:"pending"`
}

// bindBody decodes the JSON body into v and validates it.
func bindBody(c echo.Context, v any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
		return err
	}
	return c.Validate(v)
}

// workspaceParam returns ?workspace=, defaulting to the active workspace.
// "all" selects every workspace.
func (s *Server) workspaceParam(c echo.Context, st domain.State) (string, error) {
	ws := c.QueryParam("workspace")
	switch ws {
	case "":
		return st.ActiveWorkspaceID, nil
	case "all":
		return "", nil
	}
	if _, ok := st.Workspace(ws); !ok {
		return "", tferrors.Wrapf(tferrors.ErrWorkspaceNotFound, "%q", ws)
	}
	return ws, nil
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"pending": s.session.Store.PendingSyncs(),
	})
}

func (s *Server) listTasks(c echo.Context) error {
	st := s.session.Store.State()
	ws, err := s.workspaceParam(c, st)
	if err != nil {
		return err
	}

	filter := view.Filter{
		Search:   c.QueryParam("search"),
		Status:   domain.Status(c.QueryParam("status")),
		Priority: domain.Priority(c.QueryParam("priority")),
		Assignee: c.QueryParam("assignee"),
	}
	if filter.Status != "" && !domain.IsValidStatus(filter.Status) {
		return tferrors.Wrapf(tferrors.ErrInvalidStatus, "%q", filter.Status)
	}
	if filter.Priority != "" && !domain.IsValidPriority(filter.Priority) {
		return tferrors.Wrapf(tferrors.ErrInvalidPriority, "%q", filter.Priority)
	}

	return c.JSON(http.StatusOK, filter.Apply(view.FilteredTasks(st, ws)))
}

func (s *Server) createTask(c echo.Context) error {
	var draft domain.TaskDraft
	if err := (&echo.DefaultBinder{}).BindBody(c, &draft); err != nil {
		return err
	}
	task, err := s.session.Store.AddTask(c.Request().Context(), draft)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

func (s *Server) updateTask(c echo.Context) error {
	var patch domain.TaskPatch
	if err := (&echo.DefaultBinder{}).BindBody(c, &patch); err != nil {
		return err
	}
	task, err := s.session.Store.UpdateTask(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) deleteTask(c echo.Context) error {
	if err := s.session.Store.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) moveTask(c echo.Context) error {
	var req moveRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	task, err := s.session.Store.MoveTask(c.Request().Context(), c.Param("id"), req.Status, req.ListID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) listLists(c echo.Context) error {
	st := s.session.Store.State()
	ws, err := s.workspaceParam(c, st)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view.FilteredLists(st, ws))
}

func (s *Server) createList(c echo.Context) error {
	var req listRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	list, err := s.session.Store.AddList(c.Request().Context(), req.Title, req.WorkspaceID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, list)
}

func (s *Server) renameList(c echo.Context) error {
	var req renameRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	list, err := s.session.Store.RenameList(c.Request().Context(), c.Param("id"), req.Title)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) deleteList(c echo.Context) error {
	if err := s.session.Store.DeleteList(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listWorkspaces(c echo.Context) error {
	st := s.session.Store.State()
	return c.JSON(http.StatusOK, workspacesResponse{
		Workspaces:        st.Workspaces,
		ActiveWorkspaceID: st.ActiveWorkspaceID,
	})
}

func (s *Server) board(c echo.Context) error {
	st := s.session.Store.State()
	ws, err := s.workspaceParam(c, st)
	if err != nil {
		return err
	}
	if ws == "" {
		ws = st.ActiveWorkspaceID
	}
	return c.JSON(http.StatusOK, view.BoardFor(st, ws))
}

func (s *Server) summary(c echo.Context) error {
	st := s.session.Store.State()
	ws, err := s.workspaceParam(c, st)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view.Summarize(view.FilteredTasks(st, ws), s.session.Today()))
}

func (s *Server) parse(c echo.Context) error {
	var req parseRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	resp := parseResponse{Draft: s.session.ParseText(ctx, req.Text)}
	if !req.Create {
		return c.JSON(http.StatusOK, resp)
	}

	task, err := s.session.Store.AddTask(ctx, resp.Draft)
	if err != nil {
		return err
	}
	resp.Task = &task
	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) sync(c echo.Context) error {
	if err := s.session.Sync(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, syncResponse{
		Tasks:   len(s.session.Store.State().Tasks),
		Pending: s.session.Store.PendingSyncs(),
	})
}
