package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/platform/mail"
	"github.com/phrazzld/natours-api/internal/store"
)

// Deps are the collaborators of a Manager.
type Deps struct {
	Users    store.UserStore
	Tokens   JWTService
	Hasher   PasswordHasher
	Verifier PasswordVerifier
	Mailer   mail.Sender

	// ResetTokenLifetime is how long a password reset token stays valid.
	ResetTokenLifetime time.Duration

	// AllowSignupRole accepts a role from the signup payload. Only enabled
	// outside production.
	AllowSignupRole bool

	// Clock defaults to time.Now.
	Clock  func() time.Time
	Logger *slog.Logger
}

// Manager implements the credential flows: signup, login, password reset,
// password change and token authentication.
type Manager struct {
	users     store.UserStore
	tokens    JWTService
	hasher    PasswordHasher
	verifier  PasswordVerifier
	mailer    mail.Sender
	resetTTL  time.Duration
	allowRole bool
	now       func() time.Time
	logger    *slog.Logger
}

// NewManager creates a Manager.
func NewManager(d Deps) (*Manager, error) {
	switch {
	case d.Users == nil:
		return nil, fmt.Errorf("user store cannot be nil")
	case d.Tokens == nil:
		return nil, fmt.Errorf("jwt service cannot be nil")
	case d.Hasher == nil || d.Verifier == nil:
		return nil, fmt.Errorf("password hasher and verifier cannot be nil")
	case d.Mailer == nil:
		return nil, fmt.Errorf("mail sender cannot be nil")
	case d.ResetTokenLifetime <= 0:
		return nil, fmt.Errorf("reset token lifetime must be positive")
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	return &Manager{
		users:     d.Users,
		tokens:    d.Tokens,
		hasher:    d.Hasher,
		verifier:  d.Verifier,
		mailer:    d.Mailer,
		resetTTL:  d.ResetTokenLifetime,
		allowRole: d.AllowSignupRole,
		now:       d.Clock,
		logger:    d.Logger.With(slog.String("component", "auth_manager")),
	}, nil
}

func (m *Manager) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, m.logger)
}

// SignupInput is the payload of a signup request.
type SignupInput struct {
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Photo           string      `json:"photo"`
	Password        string      `json:"password"`
	PasswordConfirm string      `json:"passwordConfirm"`
	Role            domain.Role `json:"role"`
}

// Signup creates a user and returns it with a fresh token.
func (m *Manager) Signup(ctx context.Context, in SignupInput) (*domain.User, string, error) {
	u, err := m.create(ctx, in, m.allowRole)
	if err != nil {
		return nil, "", err
	}
	m.log(ctx).Info("user signed up", slog.String("user_id", u.ID.String()), slog.String("role", string(u.Role)))
	return m.issue(ctx, u)
}

// CreateUser creates a user on behalf of an administrator. The role in the
// payload is always honored and no token is issued.
func (m *Manager) CreateUser(ctx context.Context, in SignupInput) (*domain.User, error) {
	u, err := m.create(ctx, in, true)
	if err != nil {
		return nil, err
	}
	m.log(ctx).Info("user created", slog.String("user_id", u.ID.String()), slog.String("role", string(u.Role)))
	return u, nil
}

func (m *Manager) create(ctx context.Context, in SignupInput, allowRole bool) (*domain.User, error) {
	now := m.now()

	u := &domain.User{Name: in.Name, Email: in.Email, Photo: in.Photo}
	if allowRole {
		u.Role = in.Role
	}
	u.Init(uuid.New(), now)
	u.BeforeSave(now)

	pw := domain.PasswordInput{Password: in.Password, PasswordConfirm: in.PasswordConfirm}
	if err := domain.JoinValidation(u.Validate(), pw.Validate()); err != nil {
		return nil, err
	}

	hash, err := m.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u.SetPassword(hash, now)

	if err := m.users.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks credentials and returns the user with a fresh token. An
// unknown email and a wrong password fail identically.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	if email == "" || password == "" {
		return nil, "", ErrMissingCredentials
	}

	u, err := m.users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", ErrIncorrectLogin
	}
	if err != nil {
		return nil, "", err
	}

	if err := m.verifier.Compare(u.PasswordHash, password); err != nil {
		m.log(ctx).Debug("login failed: password mismatch", slog.String("user_id", u.ID.String()))
		return nil, "", ErrIncorrectLogin
	}

	return m.issue(ctx, u)
}

// ForgotPassword stores a reset token for the user with email and mails the
// link built by resetURL. It returns the raw token.
func (m *Manager) ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) (string, error) {
	u, err := m.users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNoUserWithEmail
	}
	if err != nil {
		return "", err
	}

	raw, digest, err := NewResetToken()
	if err != nil {
		return "", err
	}
	u.SetPasswordReset(digest, m.now().Add(m.resetTTL))
	if err := m.users.Replace(ctx, u); err != nil {
		return "", err
	}

	link := resetURL(raw)
	msg := mail.Message{
		To:     u.Email,
		ToName: u.Name,
		Subject: fmt.Sprintf("Your password reset token (valid for %d min)",
			int(m.resetTTL.Minutes())),
		Text: fmt.Sprintf("Forgot your password? Submit a PATCH request with your new password and "+
			"passwordConfirm to: %s\nIf you didn't forget your password, please ignore this email!", link),
	}

	if err := m.mailer.Send(ctx, msg); err != nil {
		m.log(ctx).Error("failed to send password reset email",
			slog.String("user_id", u.ID.String()),
			slog.String("error", err.Error()))

		u.ClearPasswordReset()
		if rerr := m.users.Replace(ctx, u); rerr != nil {
			m.log(ctx).Error("failed to clear password reset token",
				slog.String("user_id", u.ID.String()),
				slog.String("error", rerr.Error()))
		}
		return "", domain.WrapError(ErrEmailNotSent.Kind, ErrEmailNotSent.Message, err)
	}

	m.log(ctx).Info("password reset token sent", slog.String("user_id", u.ID.String()))
	return raw, nil
}

// ResetPassword sets a new password for the holder of an unexpired reset
// token and returns the user with a fresh token. The reset token is
// consumed.
func (m *Manager) ResetPassword(ctx context.Context, raw string, in domain.PasswordInput) (*domain.User, string, error) {
	now := m.now()

	u, err := m.users.FindByResetToken(ctx, HashResetToken(raw), now)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", ErrResetTokenInvalid
	}
	if err != nil {
		return nil, "", err
	}

	if err := m.changePassword(ctx, u, in, now); err != nil {
		return nil, "", err
	}
	m.log(ctx).Info("password reset", slog.String("user_id", u.ID.String()))

	return m.issue(ctx, u)
}

// UpdatePassword changes the password of the user with id after checking
// the current one, and returns the user with a fresh token.
func (m *Manager) UpdatePassword(
	ctx context.Context,
	id uuid.UUID,
	current string,
	in domain.PasswordInput,
) (*domain.User, string, error) {
	u, err := m.users.FindByID(ctx, id, domain.ActiveUsers()...)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", ErrUserGone
	}
	if err != nil {
		return nil, "", err
	}

	if err := m.verifier.Compare(u.PasswordHash, current); err != nil {
		return nil, "", ErrWrongPassword
	}
	if err := m.changePassword(ctx, u, in, m.now()); err != nil {
		return nil, "", err
	}
	m.log(ctx).Info("password updated", slog.String("user_id", u.ID.String()))

	return m.issue(ctx, u)
}

// Authenticate resolves a token to the active user it was issued for. A
// token issued before the user's last password change is rejected.
func (m *Manager) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrNotLoggedIn
	}

	claims, err := m.tokens.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	u, err := m.users.FindByID(ctx, claims.UserID, domain.ActiveUsers()...)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserGone
	}
	if err != nil {
		return nil, err
	}

	if u.ChangedPasswordAfter(claims.IssuedAt) {
		return nil, ErrPasswordChanged
	}
	return u, nil
}

func (m *Manager) changePassword(ctx context.Context, u *domain.User, in domain.PasswordInput, now time.Time) error {
	if err := in.Validate(); err != nil {
		return err
	}
	hash, err := m.hasher.Hash(in.Password)
	if err != nil {
		return err
	}

	u.SetPassword(hash, now)
	u.BeforeSave(now)
	if err := u.Validate(); err != nil {
		return err
	}
	return m.users.Replace(ctx, u)
}

func (m *Manager) issue(ctx context.Context, u *domain.User) (*domain.User, string, error) {
	token, err := m.tokens.GenerateToken(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}
