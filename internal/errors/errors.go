// Package errors provides centralized error handling for taskflow.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
var (
	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrInvalidArgument indicates that an invalid argument was provided.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrValueOutOfRange indicates that a value is outside the allowed range.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrInvalidPriority indicates a priority outside low/medium/high/urgent.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrInvalidStatus indicates a status outside the five known columns.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrInvalidDate indicates a calendar date that could not be parsed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrTaskNotFound indicates that a specific task was not found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrListNotFound indicates that a custom list was not found.
	ErrListNotFound = errors.New("list not found")

	// ErrWorkspaceNotFound indicates the requested workspace does not exist.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrSubtaskNotFound indicates the requested subtask does not exist on the task.
	ErrSubtaskNotFound = errors.New("subtask not found")

	// ErrBuiltInList indicates an attempt to rename or delete a built-in list.
	ErrBuiltInList = errors.New("built-in list cannot be modified")

	// ErrLastWorkspace indicates an attempt to delete the only remaining workspace.
	ErrLastWorkspace = errors.New("cannot delete the last workspace")

	// ErrStoreClosed indicates a mutation was attempted after the store was closed.
	ErrStoreClosed = errors.New("store is closed")

	// ErrRemoteUnavailable indicates the remote persistence backend could not be reached.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// ErrRemoteCorrupted indicates the remote returned a record that failed validation.
	ErrRemoteCorrupted = errors.New("remote record corrupted")

	// ErrLockTimeout indicates the data file lock could not be acquired in time.
	ErrLockTimeout = errors.New("timeout acquiring file lock")

	// ErrUnknownBackend indicates an unsupported remote backend name in config.
	ErrUnknownBackend = errors.New("unknown remote backend")

	// ErrIdentityMissing indicates no current user id could be resolved.
	ErrIdentityMissing = errors.New("current user id is not set")

	// ErrGeneratorUnavailable indicates no text generator is configured.
	ErrGeneratorUnavailable = errors.New("text generator unavailable")

	// ErrAIEmptyResponse indicates that the AI returned an empty response.
	ErrAIEmptyResponse = errors.New("AI returned empty response")

	// ErrAIInvalidFormat indicates that the AI response was not in the expected format.
	ErrAIInvalidFormat = errors.New("AI response not in expected format")

	// ErrAIRequestFailed indicates a non-success HTTP status from the AI endpoint.
	ErrAIRequestFailed = errors.New("AI request failed")

	// ErrRateLimited indicates the caller exceeded the configured request rate.
	ErrRateLimited = errors.New("rate limited")

	// ErrMaxRetriesExceeded indicates the maximum retry attempts have been reached.
	ErrMaxRetriesExceeded = errors.New("maximum retry attempts exceeded")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalid indicates a configuration value outside its allowed range or set.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrConfigNotFound indicates that the configuration file was not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidDuration indicates that a duration format is invalid.
	ErrInvalidDuration = errors.New("invalid duration format")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
// The CLI uses it for user input problems (bad status, unknown list).
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}

// IsValidation reports whether err is one of the synchronous input-validation
// failures that are rejected before any state mutation.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrEmptyValue, ErrInvalidArgument, ErrValueOutOfRange, ErrInvalidPriority,
		ErrInvalidStatus, ErrInvalidDate, ErrBuiltInList, ErrLastWorkspace,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err signals a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrListNotFound) ||
		errors.Is(err, ErrWorkspaceNotFound) ||
		errors.Is(err, ErrSubtaskNotFound)
}
