package api

import (
	"net/http"

	"github.com/roach88/chartquery/internal/engine"
)

// Client-facing messages for the auxiliary endpoints.
const (
	msgInvalidJSON     = "Invalid JSON body"
	msgMissingText     = "Missing 'text' field"
	msgMissingMessage  = "Missing 'message' field"
	msgChatUnavailable = "Chat assistant is not configured"
)

// httpStatusFromQueryError maps the engine taxonomy onto status codes.
func httpStatusFromQueryError(err error) int {
	switch {
	case engine.IsValidationError(err):
		return http.StatusBadRequest
	case engine.IsExecutionError(err):
		return http.StatusInternalServerError
	default:
		// outside the taxonomy; still a server fault
		return http.StatusInternalServerError
	}
}

// writeText writes a plain-text body with the given status.
func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
