package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/natours-api/internal/query"
)

// Repository is the persistence contract shared by every entity. The
// generic resource handlers depend only on this interface.
//
// Scope predicates restrict which documents a call may see; a document that
// exists but falls outside the scope is reported as not found.
type Repository[T any] interface {
	// Find executes a composed query. Filter values arriving as raw strings
	// are coerced to the field types; a value that does not parse yields a
	// *query.CastError.
	Find(ctx context.Context, q query.Query) ([]*T, error)

	// FindByID returns the document with the given id.
	// Returns an error wrapping ErrNotFound if it does not exist.
	FindByID(ctx context.Context, id uuid.UUID, scope ...query.Predicate) (*T, error)

	// Insert stores a new document.
	// Returns an error wrapping ErrDuplicate on a uniqueness violation.
	Insert(ctx context.Context, doc *T) error

	// Replace overwrites the stored document with the same id.
	// Returns an error wrapping ErrNotFound if it does not exist.
	Replace(ctx context.Context, doc *T) error

	// Delete removes the document with the given id.
	// Returns an error wrapping ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID, scope ...query.Predicate) error
}
