package contenttypes

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/pkg/handlers"
)

var (
	ErrNotFound      = errors.New("content configuration not found")
	ErrInvalidConfig = errors.New("invalid content configuration")
)

// MapHTTPStatus maps content configuration errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, account.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, handlers.ErrInvalidBody):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
