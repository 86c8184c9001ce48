package errors

import "errors"

// ErrorInfo is the text shown to a user for an error.
type ErrorInfo struct {
	Message string
	// Action suggests a next step. It may be empty.
	Action string
}

type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries is checked in order with errors.Is, so a wrapped
// sentinel finds its entry.
//
//nolint:gochecknoglobals // Static table
var errorInfoEntries = []errorEntry{
	{
		err: ErrTaskNotFound,
		info: ErrorInfo{
			Message: "Task not found.",
			Action:  "Run 'taskflow list' to see task ids in the active workspace.",
		},
	},
	{
		err: ErrListNotFound,
		info: ErrorInfo{
			Message: "List not found.",
			Action:  "Run 'taskflow board' to see the lists of the active workspace.",
		},
	},
	{
		err: ErrWorkspaceNotFound,
		info: ErrorInfo{
			Message: "Workspace not found.",
			Action:  "Check the --workspace flag or run 'taskflow list --all'.",
		},
	},
	{
		err: ErrBuiltInList,
		info: ErrorInfo{
			Message: "Built-in lists cannot be renamed or deleted.",
			Action:  "Create a custom list instead.",
		},
	},
	{
		err: ErrLastWorkspace,
		info: ErrorInfo{
			Message: "At least one workspace must remain.",
			Action:  "Create another workspace before deleting this one.",
		},
	},
	{
		err: ErrInvalidStatus,
		info: ErrorInfo{
			Message: "Unknown task status.",
			Action:  "Use one of: yet-to-start, backlog, in-progress, review, done.",
		},
	},
	{
		err: ErrInvalidPriority,
		info: ErrorInfo{
			Message: "Unknown task priority.",
			Action:  "Use one of: low, medium, high, urgent.",
		},
	},
	{
		err: ErrInvalidDate,
		info: ErrorInfo{
			Message: "Dates must be written as YYYY-MM-DD.",
		},
	},
	{
		err: ErrRemoteUnavailable,
		info: ErrorInfo{
			Message: "Could not reach the remote store. Local changes are kept.",
			Action:  "Check remote.* settings and run 'taskflow sync' later.",
		},
	},
	{
		err: ErrUnknownBackend,
		info: ErrorInfo{
			Message: "Unsupported remote backend.",
			Action:  "Set remote.backend to one of: memory, redis, sql, file.",
		},
	},
	{
		err: ErrIdentityMissing,
		info: ErrorInfo{
			Message: "No user id configured.",
			Action:  "Set identity.user_id or TASKFLOW_IDENTITY_USER_ID.",
		},
	},
	{
		err: ErrEmptyValue,
		info: ErrorInfo{
			Message: "A required value is missing.",
		},
	},
}

// Info returns the user-facing text for err. Errors without an entry use
// their own message.
func Info(err error) ErrorInfo {
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}
	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns the user-facing message for err, or "" for nil.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return Info(err).Message
}

// Actionable returns the user-facing message for err and a suggested action.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := Info(err)
	return info.Message, info.Action
}
