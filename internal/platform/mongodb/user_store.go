package mongodb

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
)

// UserStore implements store.UserStore on the "users" collection.
type UserStore struct {
	collection[domain.User, *domain.User]
}

var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates a UserStore.
func NewUserStore(db *mongo.Database, l *slog.Logger) *UserStore {
	return &UserStore{newCollection[domain.User, *domain.User](
		db, "users", "user", domain.UserSchema, store.ErrUserNotFound, store.ErrEmailExists, l,
	)}
}

// FindByEmail implements store.UserStore.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.FindOne(ctx, append(domain.ActiveUsers(), query.Eq("email", domain.NormalizeEmail(email)))...)
}

// FindByResetToken implements store.UserStore.
func (s *UserStore) FindByResetToken(ctx context.Context, digest string, now time.Time) (*domain.User, error) {
	return s.FindOne(ctx, append(domain.ActiveUsers(),
		query.Eq("passwordResetToken", digest),
		query.Predicate{Field: "passwordResetExpires", Op: query.OpGt, Value: now.UTC()},
	)...)
}
