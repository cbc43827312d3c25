package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/natours-api/internal/api"
	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/service/auth"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// AuthMiddleware gates routes on a valid token and on the caller's role.
type AuthMiddleware struct {
	auth Authenticator
	errs api.ErrorRenderer
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(a Authenticator, errs api.ErrorRenderer) *AuthMiddleware {
	return &AuthMiddleware{auth: a, errs: errs}
}

// Protect authenticates the request and attaches the user to its context.
// The token is read from the Authorization header, falling back to the
// token cookie.
func (m *AuthMiddleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			m.errs.Render(w, r, auth.ErrNotLoggedIn)
			return
		}

		u, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			m.errs.Render(w, r, err)
			return
		}

		ctx := shared.SetUser(r.Context(), u)
		log := logger.FromContextOrDefault(ctx, nil).With(slog.String("user_id", u.ID.String()))
		ctx = logger.WithLogger(ctx, log)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RestrictTo allows only users holding one of roles. It must run after
// Protect.
func (m *AuthMiddleware) RestrictTo(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := domain.Authorize(shared.GetUser(r.Context()), roles...); err != nil {
				m.errs.Render(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenFromRequest extracts the bearer token, or "" when there is none.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(api.TokenCookie); err == nil && c.Value != api.LoggedOutCookieValue {
		return c.Value
	}
	return ""
}
