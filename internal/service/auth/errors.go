package auth

import (
	"errors"

	"github.com/phrazzld/natours-api/internal/domain"
)

// Token errors. The HTTP layer maps these to 401 responses.
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("authentication token is invalid")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (iat or nbf in the future)
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")
)

// Credential errors returned by Manager. Their messages are shown to clients.
var (
	ErrMissingCredentials = domain.NewError(domain.KindBadRequest, "Please provide email and password!")
	ErrIncorrectLogin     = domain.NewError(domain.KindUnauthorized, "Incorrect email or password")
	ErrNotLoggedIn        = domain.NewError(domain.KindUnauthorized, "You are not logged in! Please log in to get access.")
	ErrUserGone           = domain.NewError(domain.KindUnauthorized, "The user belonging to this token does no longer exist.")
	ErrPasswordChanged    = domain.NewError(domain.KindUnauthorized, "User recently changed password! Please log in again.")
	ErrNoUserWithEmail    = domain.NewError(domain.KindNotFound, "There is no user with email address.")
	ErrResetTokenInvalid  = domain.NewError(domain.KindBadRequest, "Token is invalid or expired")
	ErrWrongPassword      = domain.NewError(domain.KindBadRequest, "Password is not correct!")
	ErrEmailNotSent       = domain.NewError(domain.KindInternal, "There was an error sending the email. Try again later!")
)
