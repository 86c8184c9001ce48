package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error     string `json:"error"`
	Action    string `json:"action,omitempty"`
	Code      int    `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

// statusEntry maps a sentinel to an HTTP status. Checked in order with errors.Is.
type statusEntry struct {
	err    error
	status int
}

//nolint:gochecknoglobals // Pre-built mapping
var statusEntries = []statusEntry{
	{tferrors.ErrTaskNotFound, http.StatusNotFound},
	{tferrors.ErrListNotFound, http.StatusNotFound},
	{tferrors.ErrWorkspaceNotFound, http.StatusNotFound},
	{tferrors.ErrSubtaskNotFound, http.StatusNotFound},
	{tferrors.ErrEmptyValue, http.StatusBadRequest},
	{tferrors.ErrInvalidArgument, http.StatusBadRequest},
	{tferrors.ErrInvalidPriority, http.StatusBadRequest},
	{tferrors.ErrInvalidStatus, http.StatusBadRequest},
	{tferrors.ErrInvalidDate, http.StatusBadRequest},
	{tferrors.ErrValueOutOfRange, http.StatusBadRequest},
	{tferrors.ErrBuiltInList, http.StatusConflict},
	{tferrors.ErrLastWorkspace, http.StatusConflict},
	{tferrors.ErrRateLimited, http.StatusTooManyRequests},
	{tferrors.ErrRemoteUnavailable, http.StatusBadGateway},
	{tferrors.ErrRemoteCorrupted, http.StatusBadGateway},
	{tferrors.ErrStoreClosed, http.StatusServiceUnavailable},
}

// statusFor returns the HTTP status and client message for err.
func statusFor(err error) (int, string, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg, ""
		}
		return he.Code, http.StatusText(he.Code), ""
	}

	for _, entry := range statusEntries {
		if errors.Is(err, entry.err) {
			msg, action := tferrors.Actionable(err)
			if entry.status == http.StatusBadRequest {
				msg = err.Error()
			}
			return entry.status, msg, action
		}
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), ""
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, msg, action := statusFor(err)
	event := s.logger.Debug()
	if code >= http.StatusInternalServerError {
		event = s.logger.Error()
	}
	event.Err(err).
		Str("method", c.Request().Method).
		Str("uri", c.Request().RequestURI).
		Int("status", code).
		Msg("request failed")

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, errorResponse{
		Error:     msg,
		Action:    action,
		Code:      code,
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	})
}
