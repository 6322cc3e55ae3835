// Package handlers provides JSON response and request helpers shared by
// HTTP handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// ErrorResponse is the JSON body written for failed requests.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// RespondJSON writes v as JSON with the given status code.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// RespondError writes err as a JSON error body. Server errors are logged
// at error level and their message replaced with the status text; client
// errors are logged at debug level.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
		msg = http.StatusText(status)
	} else {
		logger.Debug("request rejected", "status", status, "error", err)
	}

	RespondJSON(w, status, ErrorResponse{Error: msg, Status: status})
}

// ErrInvalidBody wraps request body decode failures.
var ErrInvalidBody = errors.New("invalid request body")

// DecodeJSON decodes the request body into T, rejecting unknown fields
// and trailing content.
func DecodeJSON[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return v, fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidBody, maxErr.Limit)
		}
		return v, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if dec.More() {
		return v, fmt.Errorf("%w: unexpected trailing content", ErrInvalidBody)
	}
	return v, nil
}
