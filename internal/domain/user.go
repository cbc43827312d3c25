package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/natours-api/internal/query"
)

// MinPasswordLength is the shortest plaintext password accepted.
const MinPasswordLength = 8

// User is an account holder. Credential fields are never serialized.
type User struct {
	ID                   uuid.UUID  `json:"id"                          bson:"_id"`
	Name                 string     `json:"name"                        bson:"name"                           validate:"required,min=3,max=50"`
	Email                string     `json:"email"                       bson:"email"                          validate:"required,email"`
	Photo                string     `json:"photo,omitempty"             bson:"photo,omitempty"`
	Role                 Role       `json:"role"                        bson:"role"                           validate:"required,oneof=user guide lead-guide admin"`
	PasswordHash         string     `json:"-"                           bson:"password"`
	PasswordChangedAt    *time.Time `json:"passwordChangedAt,omitempty" bson:"passwordChangedAt,omitempty"`
	PasswordResetToken   string     `json:"-"                           bson:"passwordResetToken,omitempty"`
	PasswordResetExpires *time.Time `json:"-"                           bson:"passwordResetExpires,omitempty"`
	Active               bool       `json:"-"                           bson:"active"`
	CreatedAt            time.Time  `json:"createdAt"                   bson:"createdAt"`
	Version              int        `json:"__v"                         bson:"__v"`
}

// UserSchema lists the fields clients may filter and sort users by.
var UserSchema = query.Schema{
	"id":                   query.ID,
	"name":                 query.String,
	"email":                query.String,
	"photo":                query.String,
	"role":                 query.String,
	"active":               query.Bool,
	"passwordChangedAt":    query.Time,
	"passwordResetToken":   query.String,
	"passwordResetExpires": query.Time,
	"createdAt":            query.Time,
	"__v":                  query.Int,
}

// UserPrivateFields may not appear in client supplied filters or sorts.
var UserPrivateFields = []string{"password", "passwordResetToken", "passwordResetExpires", "active"}

var userMessages = messages{
	"name.required":  "Please tell us your name!",
	"name.min":       "A name must have at least 3 characters",
	"name.max":       "A name must have at most 50 characters",
	"email.required": "Please provide your email",
	"email.email":    "Please provide a valid email",
	"role.oneof":     "Role is either: user, guide, lead-guide, admin",
}

// ActiveUsers is the read scope applied to every default user query.
func ActiveUsers() []query.Predicate {
	return []query.Predicate{query.Ne("active", false)}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Key returns the user id.
func (u *User) Key() uuid.UUID { return u.ID }

// Meta returns the insert-time fields of the user.
func (u *User) Meta() Meta {
	return Meta{ID: u.ID, CreatedAt: u.CreatedAt, Version: u.Version}
}

// SetMeta restores the insert-time fields.
func (u *User) SetMeta(m Meta) {
	u.ID, u.CreatedAt, u.Version = m.ID, m.CreatedAt, m.Version
}

// Init prepares a new user for insertion.
func (u *User) Init(id uuid.UUID, now time.Time) {
	u.ID = id
	u.CreatedAt = now.UTC()
	u.Active = true
	u.Version = 0
	if u.Role == "" {
		u.Role = RoleUser
	}
}

// BeforeSave normalizes the name and email.
func (u *User) BeforeSave(time.Time) {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = NormalizeEmail(u.Email)
}

// Validate checks the user against its field rules.
func (u *User) Validate() error {
	return validateStruct(u, userMessages)
}

// SetPassword stores a new password hash. Changing the password of an
// existing user records when it happened and invalidates any reset token.
func (u *User) SetPassword(hash string, now time.Time) {
	if u.PasswordHash != "" {
		changed := now.UTC()
		u.PasswordChangedAt = &changed
	}
	u.PasswordHash = hash
	u.ClearPasswordReset()
}

// ChangedPasswordAfter reports whether the password changed after issuedAt.
// Token issue times are whole seconds, so a token issued within the second
// of the change is still accepted.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > issuedAt.Unix()
}

// SetPasswordReset records the digest of a reset token and its expiry.
func (u *User) SetPasswordReset(digest string, expires time.Time) {
	expires = expires.UTC()
	u.PasswordResetToken = digest
	u.PasswordResetExpires = &expires
}

// ClearPasswordReset removes any pending reset token.
func (u *User) ClearPasswordReset() {
	u.PasswordResetToken = ""
	u.PasswordResetExpires = nil
}

// PasswordInput carries a new plaintext password and its confirmation.
type PasswordInput struct {
	Password        string `json:"password"        validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

var passwordMessages = messages{
	"password.required":        "Please provide a password",
	"password.min":             "A password must have at least 8 characters",
	"password.max":             "A password must have at most 72 characters",
	"passwordConfirm.required": "Please confirm your password",
	"passwordConfirm.eqfield":  "Passwords are not the same!",
}

// Validate checks length and confirmation.
func (p PasswordInput) Validate() error {
	return validateStruct(p, passwordMessages)
}
