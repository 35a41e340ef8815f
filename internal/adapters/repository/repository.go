// Package repository defines the persistence collaborator contract and its
// implementations.
//
// The annotation store treats this as a remote boundary: every call is
// asynchronous from the UI's point of view and can fail with a transport
// error distinguishable from a validation error. Implementations here are
// an embedded SQLite database (production) and an in-memory map (tests).
package repository

import (
	"context"

	"github.com/frameproof/frameproof/internal/domain/model"
)

// Persister provides CRUD access to persisted review state keyed by clip
// and thread ids.
type Persister interface {
	// LoadThreads returns every current-round thread for a clip.
	LoadThreads(ctx context.Context, clipID string) ([]model.Thread, error)

	// InsertThread persists a new thread with its shapes and first comment
	// atomically.
	InsertThread(ctx context.Context, thread model.Thread) error

	// InsertComment appends a comment to an existing thread.
	// Returns ErrNotFound for an unknown thread.
	InsertComment(ctx context.Context, threadID string, comment model.Comment) error

	// UpdateThreadState sets the open/resolved state of a thread.
	UpdateThreadState(ctx context.Context, threadID string, state model.ThreadState) error

	// UpdateThreadShapes replaces the shape set of a thread.
	UpdateThreadShapes(ctx context.Context, threadID string, shapes []model.Shape) error

	// UpdateAssetStatus sets the review verdict on a clip.
	UpdateAssetStatus(ctx context.Context, clipID string, status model.AssetStatus) error

	// ShareToken returns the share token for a clip, or ErrNotFound when
	// none was generated yet.
	ShareToken(ctx context.Context, clipID string) (string, error)

	// SaveShareToken records a newly generated share token for a clip.
	SaveShareToken(ctx context.Context, clipID, token string) error

	// CurrentRound returns the clip's feedback round counter (1 for a clip
	// never advanced).
	CurrentRound(ctx context.Context, clipID string) (int, error)

	// CloseRound freezes a finished round into immutable history and bumps
	// the clip's round counter to next.
	CloseRound(ctx context.Context, clipID string, record model.RoundRecord, next int) error

	// RoundHistory returns all closed rounds for a clip, oldest first.
	RoundHistory(ctx context.Context, clipID string) ([]model.RoundRecord, error)
}
