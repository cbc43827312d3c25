package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested document does not exist or is
	// outside the read scope.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write would violate a uniqueness rule.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when the store itself rejects a document,
	// for example a review referencing a tour that does not exist.
	ErrInvalidEntity = errors.New("invalid entity")

	// Entity-specific "not found" errors

	// ErrTourNotFound indicates that the requested tour does not exist.
	ErrTourNotFound = fmt.Errorf("%w: tour", ErrNotFound)

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrReviewNotFound indicates that the requested review does not exist.
	ErrReviewNotFound = fmt.Errorf("%w: review", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrTourNameExists indicates that a tour with the given name already exists.
	ErrTourNameExists = fmt.Errorf("%w: name", ErrDuplicate)

	// ErrEmailExists indicates that a user with the given email already exists.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)

	// ErrReviewExists indicates that the user already reviewed the tour.
	ErrReviewExists = fmt.Errorf("%w: tour, user", ErrDuplicate)
)

// DuplicateField returns the field named by an entity-specific duplicate
// error, or "" when err carries no field.
func DuplicateField(err error) string {
	switch {
	case errors.Is(err, ErrTourNameExists):
		return "name"
	case errors.Is(err, ErrEmailExists):
		return "email"
	case errors.Is(err, ErrReviewExists):
		return "tour, user"
	}
	return ""
}

// StoreError is a store failure with operation context.
type StoreError struct {
	Entity    string // The entity type (e.g., "tour", "user")
	Operation string // The operation that failed (e.g., "find", "replace")
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Entity, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(entity, operation string, err error) *StoreError {
	return &StoreError{Entity: entity, Operation: operation, Err: err}
}
