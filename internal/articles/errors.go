package articles

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/pkg/handlers"
)

var (
	ErrNotFound          = errors.New("generated article not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidSource     = errors.New("exactly one of based_on_article_id or based_on_evergreen_id is required")
)

// MapHTTPStatus maps generated article errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, account.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidSource), errors.Is(err, handlers.ErrInvalidBody):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
