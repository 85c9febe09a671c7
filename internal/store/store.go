// Package store provides the exercise persistence interface and its SQLite
// implementation.
package store

import (
	"context"
	"errors"

	"valuecards/internal/model"
)

// ErrSlugTaken is returned by Finalize when the chosen share slug collides
// with an existing session. Callers regenerate and retry.
var ErrSlugTaken = errors.New("share slug already taken")

// Store defines persistence for sessions, selections and the values catalog.
type Store interface {
	// InitSession creates a session together with one unsorted selection
	// per default catalog entry, in a single transaction.
	InitSession(ctx context.Context) (*model.Session, []model.Selection, error)

	// Session fetches a session by ID.
	Session(ctx context.Context, id string) (*model.Session, error)

	// SessionBySlug fetches a finalized session by its share slug.
	SessionBySlug(ctx context.Context, slug string) (*model.Session, error)

	// Selections lists a session's selections with catalog definitions
	// joined in.
	Selections(ctx context.Context, sessionID string) ([]model.Selection, error)

	// Selection fetches a single selection with its catalog definition.
	Selection(ctx context.Context, id string) (*model.Selection, error)

	// UpdatePriority moves a selection to a new priority tier. When
	// clearCore is set the core flag is dropped in the same write.
	UpdatePriority(ctx context.Context, id string, p model.Priority, clearCore bool) error

	// UpdateCore sets the core flag. A nil override leaves the stored
	// description override untouched; a pointer to "" clears it.
	UpdateCore(ctx context.Context, id string, isCore bool, override *string) error

	// InsertCustom adds a user-authored selection at high priority.
	InsertCustom(ctx context.Context, sessionID, label string, description *string) (*model.Selection, error)

	// Finalize assigns the share slug, completion time and optional
	// name/email. Returns ErrSlugTaken on a slug collision.
	Finalize(ctx context.Context, id, slug string, name, email *string) (*model.Session, error)

	// SaveReflections stores the reflection responses of a finalized
	// session, keyed by prompt ID.
	SaveReflections(ctx context.Context, slug string, responses map[string]string) error

	// Catalog lists the master values, optionally only the default deck.
	Catalog(ctx context.Context, defaultsOnly bool) ([]model.ValueDefinition, error)

	// Close closes the store.
	Close() error
}
