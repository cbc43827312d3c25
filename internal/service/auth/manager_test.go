package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/mocks"
	"github.com/phrazzld/natours-api/internal/service/auth"
	"github.com/phrazzld/natours-api/internal/store"
)

type fixture struct {
	manager *auth.Manager
	users   *mocks.UserStore
	tokens  *mocks.MockJWTService
	hasher  *mocks.PlainHasher
	mailer  *mocks.MockMailer
	now     time.Time
	// issuedAt is reported by the token service for every validated token.
	issuedAt time.Time
}

func newFixture(t *testing.T, allowRole bool) *fixture {
	t.Helper()

	f := &fixture{
		users:  mocks.NewUserStore(),
		hasher: &mocks.PlainHasher{},
		mailer: &mocks.MockMailer{},
		now:    time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	f.issuedAt = f.now
	f.tokens = &mocks.MockJWTService{
		GenerateTokenFn: func(_ context.Context, id uuid.UUID) (string, error) {
			return "token-" + id.String(), nil
		},
		ValidateTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
			id, err := uuid.Parse(strings.TrimPrefix(token, "token-"))
			if err != nil {
				return nil, auth.ErrInvalidToken
			}
			return &auth.Claims{UserID: id, IssuedAt: f.issuedAt}, nil
		},
	}

	m, err := auth.NewManager(auth.Deps{
		Users:              f.users,
		Tokens:             f.tokens,
		Hasher:             f.hasher,
		Verifier:           f.hasher,
		Mailer:             f.mailer,
		ResetTokenLifetime: 10 * time.Minute,
		AllowSignupRole:    allowRole,
		Clock:              func() time.Time { return f.now },
	})
	require.NoError(t, err)
	f.manager = m
	return f
}

// seedUser stores an active user whose password is "pass1234".
func (f *fixture) seedUser(email string) *domain.User {
	u := &domain.User{Name: "Jonas Schmedtmann", Email: email, PasswordHash: mocks.PlainHash("pass1234")}
	u.Init(uuid.New(), f.now.Add(-24*time.Hour))
	f.users.Seed(u)
	return u
}

func newPassword(pw string) domain.PasswordInput {
	return domain.PasswordInput{Password: pw, PasswordConfirm: pw}
}

func TestNewManagerRequiresDeps(t *testing.T) {
	t.Parallel()

	_, err := auth.NewManager(auth.Deps{})
	assert.Error(t, err)

	_, err = auth.NewManager(auth.Deps{
		Users:    mocks.NewUserStore(),
		Tokens:   &mocks.MockJWTService{},
		Hasher:   &mocks.PlainHasher{},
		Verifier: &mocks.PlainHasher{},
		Mailer:   &mocks.MockMailer{},
	})
	assert.Error(t, err, "reset token lifetime is required")
}

func TestSignup(t *testing.T) {
	t.Parallel()

	t.Run("creates user and issues token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)

		u, token, err := f.manager.Signup(context.Background(), auth.SignupInput{
			Name:            "  Leo Gillespie ",
			Email:           "Leo@Example.com",
			Password:        "pass1234",
			PasswordConfirm: "pass1234",
			Role:            domain.RoleAdmin,
		})

		require.NoError(t, err)
		assert.Equal(t, "token-"+u.ID.String(), token)
		assert.Equal(t, "Leo Gillespie", u.Name)
		assert.Equal(t, "leo@example.com", u.Email)
		assert.Equal(t, domain.RoleUser, u.Role, "role is ignored unless allowed")
		assert.True(t, u.Active)
		assert.Nil(t, u.PasswordChangedAt)

		stored := f.users.Get(u.ID)
		require.NotNil(t, stored)
		assert.Equal(t, mocks.PlainHash("pass1234"), stored.PasswordHash)
	})

	t.Run("accepts role when allowed", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, true)

		u, _, err := f.manager.Signup(context.Background(), auth.SignupInput{
			Name: "Lourdes Browning", Email: "lourdes@example.com",
			Password: "pass1234", PasswordConfirm: "pass1234", Role: domain.RoleGuide,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.RoleGuide, u.Role)
	})

	t.Run("reports every invalid field", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)

		_, _, err := f.manager.Signup(context.Background(), auth.SignupInput{
			Name: "Al", Email: "not-an-email", Password: "pass1234", PasswordConfirm: "pass4321",
		})

		require.Error(t, err)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		assert.Contains(t, err.Error(), "A name must have at least 3 characters")
		assert.Contains(t, err.Error(), "Please provide a valid email")
		assert.Contains(t, err.Error(), "Passwords are not the same!")
		assert.Zero(t, f.users.Len())
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		f.seedUser("taken@example.com")

		_, _, err := f.manager.Signup(context.Background(), auth.SignupInput{
			Name: "Someone Else", Email: "TAKEN@example.com", Password: "pass1234", PasswordConfirm: "pass1234",
		})

		assert.ErrorIs(t, err, store.ErrEmailExists)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	u := f.seedUser("user@example.com")
	inactive := f.seedUser("gone@example.com")
	inactive.Active = false
	f.users.Seed(inactive)

	t.Run("succeeds with correct credentials", func(t *testing.T) {
		got, token, err := f.manager.Login(context.Background(), "USER@example.com", "pass1234")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "token-"+u.ID.String(), token)
	})

	t.Run("requires both fields", func(t *testing.T) {
		_, _, err := f.manager.Login(context.Background(), "user@example.com", "")
		assert.ErrorIs(t, err, auth.ErrMissingCredentials)
		_, _, err = f.manager.Login(context.Background(), "", "pass1234")
		assert.ErrorIs(t, err, auth.ErrMissingCredentials)
	})

	t.Run("unknown email and wrong password fail identically", func(t *testing.T) {
		_, _, unknown := f.manager.Login(context.Background(), "nobody@example.com", "pass1234")
		_, _, wrong := f.manager.Login(context.Background(), "user@example.com", "wrong-password")
		_, _, deactivated := f.manager.Login(context.Background(), "gone@example.com", "pass1234")

		assert.ErrorIs(t, unknown, auth.ErrIncorrectLogin)
		assert.Equal(t, unknown, wrong)
		assert.Equal(t, unknown, deactivated)
	})
}

func TestForgotAndResetPassword(t *testing.T) {
	t.Parallel()

	resetURL := func(token string) string { return "http://localhost/api/v1/users/resetPassword/" + token }

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)

		_, err := f.manager.ForgotPassword(context.Background(), "nobody@example.com", resetURL)
		assert.ErrorIs(t, err, auth.ErrNoUserWithEmail)
		assert.Empty(t, f.mailer.Sent())
	})

	t.Run("reset token works once", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		u := f.seedUser("user@example.com")

		raw, err := f.manager.ForgotPassword(context.Background(), "user@example.com", resetURL)
		require.NoError(t, err)

		stored := f.users.Get(u.ID)
		assert.Equal(t, auth.HashResetToken(raw), stored.PasswordResetToken, "only the digest is stored")
		require.NotNil(t, stored.PasswordResetExpires)
		assert.Equal(t, f.now.Add(10*time.Minute), *stored.PasswordResetExpires)

		sent := f.mailer.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "user@example.com", sent[0].To)
		assert.Equal(t, "Your password reset token (valid for 10 min)", sent[0].Subject)
		assert.Contains(t, sent[0].Text, resetURL(raw))

		f.now = f.now.Add(5 * time.Minute)
		got, token, err := f.manager.ResetPassword(context.Background(), raw, newPassword("newpass123"))
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.NotEmpty(t, token)

		stored = f.users.Get(u.ID)
		assert.Equal(t, mocks.PlainHash("newpass123"), stored.PasswordHash)
		assert.Empty(t, stored.PasswordResetToken)
		assert.Nil(t, stored.PasswordResetExpires)
		require.NotNil(t, stored.PasswordChangedAt)
		assert.Equal(t, f.now, *stored.PasswordChangedAt)

		_, _, err = f.manager.ResetPassword(context.Background(), raw, newPassword("another123"))
		assert.ErrorIs(t, err, auth.ErrResetTokenInvalid)
	})

	t.Run("expired reset token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		f.seedUser("user@example.com")

		raw, err := f.manager.ForgotPassword(context.Background(), "user@example.com", resetURL)
		require.NoError(t, err)

		f.now = f.now.Add(11 * time.Minute)
		_, _, err = f.manager.ResetPassword(context.Background(), raw, newPassword("newpass123"))
		assert.ErrorIs(t, err, auth.ErrResetTokenInvalid)
	})

	t.Run("mismatched confirmation keeps the token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		u := f.seedUser("user@example.com")

		raw, err := f.manager.ForgotPassword(context.Background(), "user@example.com", resetURL)
		require.NoError(t, err)

		_, _, err = f.manager.ResetPassword(context.Background(), raw,
			domain.PasswordInput{Password: "newpass123", PasswordConfirm: "newpass124"})
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		assert.NotEmpty(t, f.users.Get(u.ID).PasswordResetToken)
	})

	t.Run("mail failure clears the token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		u := f.seedUser("user@example.com")
		f.mailer.Err = errors.New("connection refused")

		_, err := f.manager.ForgotPassword(context.Background(), "user@example.com", resetURL)

		require.Error(t, err)
		assert.Equal(t, domain.KindInternal, domain.KindOf(err))
		var de *domain.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "There was an error sending the email. Try again later!", de.Message)

		stored := f.users.Get(u.ID)
		assert.Empty(t, stored.PasswordResetToken)
		assert.Nil(t, stored.PasswordResetExpires)
	})
}

func TestUpdatePassword(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	u := f.seedUser("user@example.com")

	_, _, err := f.manager.UpdatePassword(context.Background(), u.ID, "wrong-password", newPassword("newpass123"))
	assert.ErrorIs(t, err, auth.ErrWrongPassword)

	_, _, err = f.manager.UpdatePassword(context.Background(), uuid.New(), "pass1234", newPassword("newpass123"))
	assert.ErrorIs(t, err, auth.ErrUserGone)

	_, token, err := f.manager.UpdatePassword(context.Background(), u.ID, "pass1234", newPassword("newpass123"))
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, _, err = f.manager.Login(context.Background(), "user@example.com", "pass1234")
	assert.ErrorIs(t, err, auth.ErrIncorrectLogin)
	_, _, err = f.manager.Login(context.Background(), "user@example.com", "newpass123")
	assert.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	t.Run("resolves the token holder", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		u := f.seedUser("user@example.com")

		got, err := f.manager.Authenticate(context.Background(), "token-"+u.ID.String())
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)

		_, err := f.manager.Authenticate(context.Background(), "")
		assert.ErrorIs(t, err, auth.ErrNotLoggedIn)
	})

	t.Run("invalid token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)

		_, err := f.manager.Authenticate(context.Background(), "garbage")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("deleted or deactivated user", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		u := f.seedUser("user@example.com")
		u.Active = false
		f.users.Seed(u)

		_, err := f.manager.Authenticate(context.Background(), "token-"+u.ID.String())
		assert.ErrorIs(t, err, auth.ErrUserGone)

		_, err = f.manager.Authenticate(context.Background(), "token-"+uuid.NewString())
		assert.ErrorIs(t, err, auth.ErrUserGone)
	})

	t.Run("token issued before a password change is rejected", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		u := f.seedUser("user@example.com")
		f.issuedAt = f.now

		f.now = f.now.Add(time.Hour)
		_, _, err := f.manager.UpdatePassword(context.Background(), u.ID, "pass1234", newPassword("newpass123"))
		require.NoError(t, err)

		_, err = f.manager.Authenticate(context.Background(), "token-"+u.ID.String())
		assert.ErrorIs(t, err, auth.ErrPasswordChanged)

		f.issuedAt = f.now
		_, err = f.manager.Authenticate(context.Background(), "token-"+u.ID.String())
		assert.NoError(t, err, "a token issued right after the change is accepted")
	})

	t.Run("token issued moments before a password change is rejected", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		u := f.seedUser("user@example.com")
		f.issuedAt = f.now

		f.now = f.now.Add(1500 * time.Millisecond)
		_, _, err := f.manager.UpdatePassword(context.Background(), u.ID, "pass1234", newPassword("newpass123"))
		require.NoError(t, err)

		_, err = f.manager.Authenticate(context.Background(), "token-"+u.ID.String())
		assert.ErrorIs(t, err, auth.ErrPasswordChanged)
	})
}

func TestCreateUserHonorsRole(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	u, err := f.manager.CreateUser(context.Background(), auth.SignupInput{
		Name: "Miyah Myles", Email: "miyah@example.com",
		Password: "pass1234", PasswordConfirm: "pass1234", Role: domain.RoleLeadGuide,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleLeadGuide, u.Role)
	assert.NotNil(t, f.users.Get(u.ID))
}
