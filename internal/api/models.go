package api

import "github.com/phrazzld/natours-api/internal/domain"

// Request and response bodies that do not map onto an entity.

// LoginRequest defines the payload for the login endpoint. Missing fields
// are reported by the credential manager.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest defines the payload for the forgot password endpoint.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// UpdatePasswordRequest defines the payload for changing one's own password.
type UpdatePasswordRequest struct {
	// Password is the current password.
	Password        string `json:"password"        validate:"required"`
	NewPassword     string `json:"newPassword"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// NewPasswordInput returns the new password and its confirmation.
func (r UpdatePasswordRequest) NewPasswordInput() domain.PasswordInput {
	return domain.PasswordInput{Password: r.NewPassword, PasswordConfirm: r.PasswordConfirm}
}

// ForgotPasswordResponse acknowledges a reset email. Token is only sent
// outside production.
type ForgotPasswordResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}
