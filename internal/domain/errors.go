package domain

import (
	"errors"
	"strings"
)

// Kind classifies an Error for the transport layer.
type Kind string

// Error kinds. The HTTP layer maps each kind to one status code.
const (
	KindValidation   Kind = "validation"
	KindBadRequest   Kind = "bad_request"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

// ErrValidation is wrapped by every validation Error so callers can test for
// it with errors.Is.
var ErrValidation = errors.New("validation failed")

// Error is the structured failure value shared by services and handlers.
// Message is safe to show to clients; Err carries the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err != ErrValidation {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError returns an Error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError returns an Error of the given kind carrying cause.
func WrapError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// NewValidationError aggregates field messages into one validation Error.
func NewValidationError(details ...string) *Error {
	msg := "Invalid input data."
	if len(details) > 0 {
		msg += " " + strings.Join(details, ". ")
	}
	return &Error{Kind: KindValidation, Message: msg, Details: details, Err: ErrValidation}
}

// KindOf returns the kind of the first Error in err's chain, or "" if there
// is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// JoinValidation combines validation errors into one carrying every detail.
// The first error that is not a validation error is returned unchanged.
func JoinValidation(errs ...error) error {
	var details []string
	for _, err := range errs {
		if err == nil {
			continue
		}
		var e *Error
		if !errors.As(err, &e) || e.Kind != KindValidation {
			return err
		}
		details = append(details, e.Details...)
	}
	if len(details) == 0 {
		return nil
	}
	return NewValidationError(details...)
}
