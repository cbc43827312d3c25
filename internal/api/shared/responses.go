package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/phrazzld/natours-api/internal/platform/logger"
)

// Response statuses of the JSON envelope.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Envelope is the body of every successful response.
type Envelope struct {
	Status  string `json:"status"`
	Results *int   `json:"results,omitempty"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is the body of every failed response. Error and Stack are
// only filled in development.
type ErrorResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Error   *ErrorDetail `json:"error,omitempty"`
	Stack   string       `json:"stack,omitempty"`
	TraceID string       `json:"trace_id,omitempty"`
}

// ErrorDetail describes a failure for developers.
type ErrorDetail struct {
	Kind    string   `json:"kind"`
	Status  int      `json:"statusCode"`
	Details []string `json:"details,omitempty"`
	Cause   string   `json:"cause,omitempty"`
}

// StatusFor returns the envelope status for an HTTP error status.
func StatusFor(code int) string {
	if code >= http.StatusInternalServerError {
		return StatusError
	}
	return StatusFail
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContextOrDefault(r.Context(), nil).Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

// RespondData writes {status: "success", data}.
func RespondData(w http.ResponseWriter, r *http.Request, status int, data any) {
	RespondWithJSON(w, r, status, Envelope{Status: StatusSuccess, Data: data})
}

// RespondDocument writes {status: "success", data: {data: doc}}.
func RespondDocument(w http.ResponseWriter, r *http.Request, status int, doc any) {
	RespondData(w, r, status, map[string]any{"data": doc})
}

// RespondList writes {status: "success", results, data: {data: docs}}.
func RespondList[T any](w http.ResponseWriter, r *http.Request, docs []T) {
	n := len(docs)
	RespondWithJSON(w, r, http.StatusOK, Envelope{
		Status:  StatusSuccess,
		Results: &n,
		Data:    map[string]any{"data": docs},
	})
}

// RespondNoContent writes an empty 204 response.
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// RespondWithError writes a minimal error envelope.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	traceID := GetTraceID(r.Context())

	logger.FromContextOrDefault(r.Context(), nil).Debug("sending error response",
		slog.Int("status_code", status),
		slog.String("message", message),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method))

	RespondWithJSON(w, r, status, ErrorResponse{
		Status:  StatusFor(status),
		Message: message,
		TraceID: traceID,
	})
}
