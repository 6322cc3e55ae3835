package storage

import (
	"errors"
	"fmt"
	"net/http"
)

// Errors shared by every backend. Key-related failures arrive wrapped in a
// *KeyError naming the key.
var (
	ErrNotFound       = errors.New("blob not found")
	ErrEmptyKey       = errors.New("storage key must not be empty")
	ErrInvalidKey     = errors.New(`storage key contains a ".." segment`)
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// KeyError attaches the key an operation was given to its failure.
type KeyError struct {
	Key string
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s: %q", e.Err, e.Key)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

func notFound(key string) error {
	return &KeyError{Key: key, Err: ErrNotFound}
}

// MapHTTPStatus maps storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
