package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/service/auth"
)

// Token cookie settings.
const (
	TokenCookie          = "jwt"
	LoggedOutCookieValue = "loggedout"
)

// ResetTokenParam is the path parameter carrying a raw password reset token.
const ResetTokenParam = "token"

// CredentialManager is the part of auth.Manager the handlers use.
type CredentialManager interface {
	Signup(ctx context.Context, in auth.SignupInput) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) (string, error)
	ResetPassword(ctx context.Context, raw string, in domain.PasswordInput) (*domain.User, string, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, current string, in domain.PasswordInput) (*domain.User, string, error)
}

// AuthHandler handles the authentication endpoints.
type AuthHandler struct {
	manager        CredentialManager
	validator      *validator.Validate
	cookieLifetime time.Duration
	production     bool
	errs           ErrorRenderer
	now            func() time.Time
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	manager CredentialManager,
	cookieLifetime time.Duration,
	errs ErrorRenderer,
) *AuthHandler {
	return &AuthHandler{
		manager:        manager,
		validator:      validator.New(),
		cookieLifetime: cookieLifetime,
		production:     errs.Production,
		errs:           errs,
		now:            time.Now,
	}
}

// Signup handles POST /users/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupInput
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.errs.Render(w, r, err)
		return
	}

	user, token, err := h.manager.Signup(r.Context(), req)
	if err != nil {
		h.errs.Render(w, r, withDuplicateValue(err, req))
		return
	}
	h.sendToken(w, r, http.StatusCreated, user, token)
}

// Login handles POST /users/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.errs.Render(w, r, err)
		return
	}

	user, token, err := h.manager.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errs.Render(w, r, err)
		return
	}
	h.sendToken(w, r, http.StatusOK, user, token)
}

// Logout handles GET /users/logout by overwriting the token cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    LoggedOutCookieValue,
		Path:     "/",
		Expires:  h.now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
	})
	shared.RespondWithJSON(w, r, http.StatusOK, shared.Envelope{Status: shared.StatusSuccess})
}

// ForgotPassword handles POST /users/forgotPassword.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.errs.Render(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.errs.Render(w, r, domain.NewValidationError("Please provide a valid email"))
		return
	}

	token, err := h.manager.ForgotPassword(r.Context(), req.Email, func(token string) string {
		return fmt.Sprintf("%s://%s/api/v1/users/resetPassword/%s", scheme(r), r.Host, token)
	})
	if err != nil {
		h.errs.Render(w, r, err)
		return
	}

	resp := ForgotPasswordResponse{Status: shared.StatusSuccess, Message: "Token sent to email!"}
	if !h.production {
		resp.Token = token
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// ResetPassword handles POST and PATCH /users/resetPassword/{token}.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.PasswordInput
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.errs.Render(w, r, err)
		return
	}

	user, token, err := h.manager.ResetPassword(r.Context(), chi.URLParam(r, ResetTokenParam), req)
	if err != nil {
		h.errs.Render(w, r, err)
		return
	}
	h.sendToken(w, r, http.StatusOK, user, token)
}

// UpdateMyPassword handles PATCH /users/updateMyPassword.
func (h *AuthHandler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	current := shared.GetUser(r.Context())
	if current == nil {
		h.errs.Render(w, r, auth.ErrNotLoggedIn)
		return
	}

	var req UpdatePasswordRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.errs.Render(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.errs.Render(w, r, domain.NewValidationError("Please provide your current password"))
		return
	}

	user, token, err := h.manager.UpdatePassword(r.Context(), current.ID, req.Password, req.NewPasswordInput())
	if err != nil {
		h.errs.Render(w, r, err)
		return
	}
	h.sendToken(w, r, http.StatusOK, user, token)
}

// sendToken sets the token cookie and writes {status, token, data: {user}}.
func (h *AuthHandler) sendToken(w http.ResponseWriter, r *http.Request, status int, user *domain.User, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  h.now().Add(h.cookieLifetime),
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
	})
	shared.RespondWithJSON(w, r, status, shared.Envelope{
		Status: shared.StatusSuccess,
		Token:  token,
		Data:   map[string]any{"user": user},
	})
}

func scheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
