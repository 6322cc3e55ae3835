package prompts

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/variables"
	"github.com/JaimeStill/scribe/pkg/handlers"
)

// Domain errors for template operations.
var (
	ErrNotFound            = errors.New("template not found")
	ErrVersionNotFound     = errors.New("template version not found")
	ErrConflictingCategory = errors.New("an active template already exists for this category")
	ErrInvalidTemplate     = variables.ErrInvalidTemplate
)

// MapHTTPStatus maps template domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, account.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrVersionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflictingCategory):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTemplate), errors.Is(err, handlers.ErrInvalidBody):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
