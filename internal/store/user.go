package store

import (
	"context"
	"time"

	"github.com/phrazzld/natours-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	Repository[domain.User]

	// FindByEmail retrieves an active user by email address, compared
	// case-insensitively.
	// Returns ErrUserNotFound if no active user has that email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindByResetToken retrieves the active user holding the given reset token
	// digest, provided it has not expired at now.
	// Returns ErrUserNotFound otherwise.
	FindByResetToken(ctx context.Context, digest string, now time.Time) (*domain.User, error)
}
