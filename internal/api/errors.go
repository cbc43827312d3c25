package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/redact"
	"github.com/phrazzld/natours-api/internal/service/auth"
	"github.com/phrazzld/natours-api/internal/store"
)

// Client facing messages for errors that carry none of their own.
const (
	msgNotFound      = "No document found with that ID"
	msgInvalidToken  = "This token is invalid, please login again!"
	msgExpiredToken  = "This token is expired, please login again!"
	msgInvalidEntity = "Invalid input data. A referenced document does not exist"
	msgUnexpected    = "Something went very wrong!"
)

// APIError is the HTTP view of an error.
type APIError struct {
	Kind    domain.Kind
	Status  int
	Message string
	Details []string
	// Operational errors are expected failures whose message is safe to show
	// in production. Anything else is a bug.
	Operational bool
	Err         error
}

// DuplicateError carries the offending value of a uniqueness violation.
type DuplicateError struct {
	Value string
	Err   error
}

func (e *DuplicateError) Error() string { return e.Err.Error() }

// Unwrap returns the store error.
func (e *DuplicateError) Unwrap() error { return e.Err }

// withDuplicateValue annotates a uniqueness violation with the value of the
// conflicting field read from doc. Other errors pass through.
func withDuplicateValue(err error, doc any) error {
	if !errors.Is(err, store.ErrDuplicate) {
		return err
	}
	field := store.DuplicateField(err)
	if field == "" {
		return err
	}

	raw, merr := json.Marshal(doc)
	if merr != nil {
		return err
	}
	var m map[string]any
	if json.Unmarshal(raw, &m) != nil {
		return err
	}

	var values []string
	for _, f := range strings.Split(field, ", ") {
		switch v := m[f].(type) {
		case nil:
		case string:
			values = append(values, strconv.Quote(v))
		default:
			values = append(values, fmt.Sprint(v))
		}
	}
	if len(values) == 0 {
		return err
	}
	return &DuplicateError{Value: strings.Join(values, ", "), Err: err}
}

var kindStatus = map[domain.Kind]int{
	domain.KindValidation:   http.StatusBadRequest,
	domain.KindBadRequest:   http.StatusBadRequest,
	domain.KindUnauthorized: http.StatusUnauthorized,
	domain.KindForbidden:    http.StatusForbidden,
	domain.KindNotFound:     http.StatusNotFound,
	domain.KindConflict:     http.StatusConflict,
	domain.KindInternal:     http.StatusInternalServerError,
}

// Translate maps an error to its HTTP representation. It is the only place
// that knows how store, auth and query errors look to a client.
func Translate(err error) *APIError {
	var (
		derr *domain.Error
		cast *query.CastError
		dup  *DuplicateError
	)

	switch {
	case err == nil:
		return &APIError{Kind: domain.KindInternal, Status: http.StatusInternalServerError, Message: msgUnexpected}

	case errors.As(err, &derr):
		status, ok := kindStatus[derr.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		return &APIError{
			Kind:        derr.Kind,
			Status:      status,
			Message:     derr.Message,
			Details:     derr.Details,
			Operational: true,
			Err:         err,
		}

	case errors.As(err, &cast):
		return &APIError{
			Kind:        domain.KindBadRequest,
			Status:      http.StatusBadRequest,
			Message:     cast.Error(),
			Operational: true,
			Err:         err,
		}

	case errors.As(err, &dup):
		return &APIError{
			Kind:        domain.KindBadRequest,
			Status:      http.StatusBadRequest,
			Message:     fmt.Sprintf("Duplicate field value: %s. Please use another value!", dup.Value),
			Operational: true,
			Err:         err,
		}

	case errors.Is(err, store.ErrDuplicate):
		msg := "Duplicate field value. Please use another value!"
		if field := store.DuplicateField(err); field != "" {
			msg = fmt.Sprintf("Duplicate %s. Please use another value!", field)
		}
		return &APIError{Kind: domain.KindBadRequest, Status: http.StatusBadRequest, Message: msg, Operational: true, Err: err}

	case errors.Is(err, store.ErrNotFound):
		return &APIError{Kind: domain.KindNotFound, Status: http.StatusNotFound, Message: msgNotFound, Operational: true, Err: err}

	case errors.Is(err, store.ErrInvalidEntity):
		return &APIError{Kind: domain.KindBadRequest, Status: http.StatusBadRequest, Message: msgInvalidEntity, Operational: true, Err: err}

	case errors.Is(err, auth.ErrExpiredToken):
		return &APIError{Kind: domain.KindUnauthorized, Status: http.StatusUnauthorized, Message: msgExpiredToken, Operational: true, Err: err}

	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
		return &APIError{Kind: domain.KindUnauthorized, Status: http.StatusUnauthorized, Message: msgInvalidToken, Operational: true, Err: err}
	}

	return &APIError{
		Kind:    domain.KindInternal,
		Status:  http.StatusInternalServerError,
		Message: msgUnexpected,
		Err:     err,
	}
}

// ErrorRenderer writes translated errors. In production only operational
// messages reach the client; in development the response also carries the
// error detail and the stack of the cause.
type ErrorRenderer struct {
	Production bool
}

// Render translates err and writes the error envelope.
func (er ErrorRenderer) Render(w http.ResponseWriter, r *http.Request, err error) {
	RenderError(w, r, err, er.Production)
}

// RenderError translates err and writes the error envelope.
func RenderError(w http.ResponseWriter, r *http.Request, err error, production bool) {
	apiErr := Translate(err)
	log := logger.FromContextOrDefault(r.Context(), nil)

	attrs := []slog.Attr{
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", apiErr.Status),
		slog.String("kind", string(apiErr.Kind)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}
	level := slog.LevelDebug
	switch {
	case !apiErr.Operational || apiErr.Status >= http.StatusInternalServerError:
		level = slog.LevelError
	case apiErr.Status == http.StatusTooManyRequests:
		level = slog.LevelWarn
	}
	log.LogAttrs(r.Context(), level, "API error response", attrs...)

	resp := shared.ErrorResponse{
		Status:  shared.StatusFor(apiErr.Status),
		Message: apiErr.Message,
		TraceID: shared.GetTraceID(r.Context()),
	}
	if !production {
		if !apiErr.Operational && err != nil {
			resp.Message = err.Error()
		}
		resp.Error = &shared.ErrorDetail{
			Kind:    string(apiErr.Kind),
			Status:  apiErr.Status,
			Details: apiErr.Details,
		}
		if err != nil {
			resp.Error.Cause = err.Error()
		}
		resp.Stack = stackOf(err)
	}

	shared.RespondWithJSON(w, r, apiErr.Status, resp)
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// stackOf returns the deepest stack recorded in err's chain, if any.
func stackOf(err error) string {
	var st stackTracer
	stack := ""
	for err != nil {
		if s, ok := err.(stackTracer); ok {
			st = s
		}
		err = errors.Unwrap(err)
	}
	if st != nil {
		stack = strings.TrimSpace(fmt.Sprintf("%+v", st.StackTrace()))
	}
	return stack
}
