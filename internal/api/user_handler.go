package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/service/auth"
	"github.com/phrazzld/natours-api/internal/store"
)

// ErrPasswordNotAllowed rejects password changes outside the dedicated route.
var ErrPasswordNotAllowed = domain.NewError(domain.KindBadRequest,
	"This route shouldn't allow password updates - use /updateMyPassword instead.")

// UserCreator creates users on behalf of an administrator.
type UserCreator interface {
	CreateUser(ctx context.Context, in auth.SignupInput) (*domain.User, error)
}

// UserHandler serves users: the admin resource plus the self service routes.
type UserHandler struct {
	*Resource[domain.User, *domain.User]
	users   store.UserStore
	creator UserCreator
	errs    ErrorRenderer
	logger  *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users store.UserStore, creator UserCreator, errs ErrorRenderer, l *slog.Logger) *UserHandler {
	if l == nil {
		l = slog.Default()
	}
	return &UserHandler{
		Resource: NewResource[domain.User, *domain.User](ResourceConfig[domain.User]{
			Name:          "user",
			Repo:          users,
			Scope:         domain.ActiveUsers,
			PrivateFields: domain.UserPrivateFields,
			Errors:        errs,
			Logger:        l,
		}),
		users:   users,
		creator: creator,
		errs:    errs,
		logger:  l.With(slog.String("component", "user_handler")),
	}
}

// Create handles POST /users. Users are created with a password, so this
// goes through the credential manager instead of the generic pipeline.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupInput
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.errs.Render(w, r, err)
		return
	}

	u, err := h.creator.CreateUser(r.Context(), req)
	if err != nil {
		h.errs.Render(w, r, withDuplicateValue(err, req))
		return
	}
	shared.RespondDocument(w, r, http.StatusCreated, u)
}

// GetMe handles GET /users/me.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	u, ok := h.current(w, r)
	if !ok {
		return
	}
	h.GetByID(w, r, u.ID.String())
}

// UpdateMe handles PATCH /users/updateMe. Only name and email may change.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	current, ok := h.current(w, r)
	if !ok {
		return
	}

	body, err := shared.DecodeMap(r)
	if err != nil {
		h.errs.Render(w, r, err)
		return
	}
	if _, ok := body["password"]; ok {
		h.errs.Render(w, r, ErrPasswordNotAllowed)
		return
	}
	if _, ok := body["passwordConfirm"]; ok {
		h.errs.Render(w, r, ErrPasswordNotAllowed)
		return
	}

	u, err := h.users.FindByID(r.Context(), current.ID, domain.ActiveUsers()...)
	if err != nil {
		h.errs.Render(w, r, err)
		return
	}
	if name, ok := body["name"].(string); ok {
		u.Name = name
	}
	if email, ok := body["email"].(string); ok {
		u.Email = email
	}

	u.BeforeSave(time.Now())
	if err := u.Validate(); err != nil {
		h.errs.Render(w, r, err)
		return
	}
	if err := h.users.Replace(r.Context(), u); err != nil {
		h.errs.Render(w, r, withDuplicateValue(err, u))
		return
	}

	shared.RespondData(w, r, http.StatusOK, map[string]any{"user": u})
}

// DeleteMe handles DELETE /users/deleteMe. The account is deactivated, not
// removed.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	current, ok := h.current(w, r)
	if !ok {
		return
	}

	u, err := h.users.FindByID(r.Context(), current.ID, domain.ActiveUsers()...)
	if err != nil {
		h.errs.Render(w, r, err)
		return
	}
	u.Active = false
	if err := h.users.Replace(r.Context(), u); err != nil {
		h.errs.Render(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("user deactivated",
		slog.String("user_id", u.ID.String()))
	shared.RespondNoContent(w)
}

func (h *UserHandler) current(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	u := shared.GetUser(r.Context())
	if u == nil {
		h.errs.Render(w, r, auth.ErrNotLoggedIn)
		return nil, false
	}
	return u, true
}
