package account

import (
	"errors"
	"net/http"
)

var (
	// ErrAccessDenied is returned for any missing or cross-account access.
	ErrAccessDenied = errors.New("access denied")
	// ErrNotFound indicates the account does not exist.
	ErrNotFound = errors.New("account not found")
)

// MapHTTPStatus maps account errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
