// Package contracts defines the interfaces taskflow uses for its external
// collaborators. They live here to avoid circular imports between the store,
// the parser and their concrete implementations.
//
// Import rules:
//   - CAN import: internal/domain, internal/errors, standard library
//   - MUST NOT import: any other internal packages
package contracts

import (
	"context"

	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// Remote is the persistence collaborator. Every call is scoped to one user id.
// Implementations may fail, time out, or return data older than the caller's.
// Implemented by the backends in internal/remote.
type Remote interface {
	// Fetch returns every task, custom list and workspace stored for userID.
	Fetch(ctx context.Context, userID string) (*domain.Snapshot, error)

	UpsertTask(ctx context.Context, userID string, task domain.Task) error
	DeleteTask(ctx context.Context, userID, taskID string) error

	UpsertList(ctx context.Context, userID string, list domain.List) error
	DeleteList(ctx context.Context, userID, listID string) error

	UpsertWorkspace(ctx context.Context, userID string, ws domain.Workspace) error
	DeleteWorkspace(ctx context.Context, userID, workspaceID string) error
}

// TextGenerator is the remote text-generation collaborator used by the
// natural-language parser. Implemented by ai.GeminiClient.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Identity supplies the opaque id of the current user.
type Identity interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// StaticIdentity is an Identity that always returns the same user id.
type StaticIdentity string

// CurrentUserID returns the static id, or ErrIdentityMissing when it is empty.
func (s StaticIdentity) CurrentUserID(context.Context) (string, error) {
	if s == "" {
		return "", tferrors.ErrIdentityMissing
	}
	return string(s), nil
}
