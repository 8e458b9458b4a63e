package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/simaogato/portfolio-metrics/internal/domain"
	"github.com/simaogato/portfolio-metrics/internal/logger"
)

// statusFor converts domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMissingPrice),
		errors.Is(err, domain.ErrMissingPriorHolding),
		errors.Is(err, domain.ErrNegativeResult):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// sendError writes err as a JSON error body. Internal errors are logged and masked;
// the request id in the body ties the masked reply to the log line.
func sendError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("Request failed", "path", r.URL.Path, "error", err)
		message = "internal error"
	}
	sendJSONError(w, r, message, code)
}

func sendJSONError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	logger.FromContext(r.Context()).Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	body := map[string]string{"error": message}
	if id := requestIDFromContext(r.Context()); id != "" {
		body["requestID"] = id
	}
	sendJSON(w, statusCode, body)
}

func sendJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
