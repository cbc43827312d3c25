package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
)

var userColumns = columns{
	col(domain.UserSchema, "id", "id"),
	col(domain.UserSchema, "name", "name"),
	col(domain.UserSchema, "email", "email"),
	col(domain.UserSchema, "photo", "photo"),
	col(domain.UserSchema, "role", "role"),
	{field: "password", name: "password", kind: query.String},
	col(domain.UserSchema, "passwordChangedAt", "password_changed_at"),
	col(domain.UserSchema, "passwordResetToken", "password_reset_token"),
	col(domain.UserSchema, "passwordResetExpires", "password_reset_expires"),
	col(domain.UserSchema, "active", "active"),
	col(domain.UserSchema, "createdAt", "created_at"),
	col(domain.UserSchema, "__v", "version"),
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}

func userValues(u *domain.User) ([]any, error) {
	token := sql.NullString{String: u.PasswordResetToken, Valid: u.PasswordResetToken != ""}
	return []any{
		u.ID, u.Name, u.Email, u.Photo, string(u.Role), u.PasswordHash,
		nullTime(u.PasswordChangedAt), token, nullTime(u.PasswordResetExpires),
		u.Active, u.CreatedAt, u.Version,
	}, nil
}

func scanUser(s scanner) (*domain.User, error) {
	var (
		u                domain.User
		role             string
		changed, expires sql.NullTime
		token            sql.NullString
	)
	err := s.Scan(
		&u.ID, &u.Name, &u.Email, &u.Photo, &role, &u.PasswordHash,
		&changed, &token, &expires, &u.Active, &u.CreatedAt, &u.Version,
	)
	if err != nil {
		return nil, err
	}

	u.Role = domain.Role(role)
	u.PasswordChangedAt = timePtr(changed)
	u.PasswordResetToken = token.String
	u.PasswordResetExpires = timePtr(expires)
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// UserStore implements store.UserStore on the users table.
type UserStore struct {
	table[domain.User, *domain.User]
}

var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates a UserStore. db may be a connection or a transaction.
func NewUserStore(db store.DBTX, l *slog.Logger) *UserStore {
	return &UserStore{newTable[domain.User, *domain.User](db, mapping[domain.User]{
		table:     "users",
		entity:    "user",
		columns:   userColumns,
		values:    userValues,
		scan:      scanUser,
		notFound:  store.ErrUserNotFound,
		duplicate: store.ErrEmailExists,
	}, l)}
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
