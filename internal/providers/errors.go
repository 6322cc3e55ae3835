package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	ErrorNetwork        ErrorKind = "network"
	ErrorQuota          ErrorKind = "quota"
	ErrorSafety         ErrorKind = "safety"
	ErrorTimeout        ErrorKind = "timeout"
	ErrorInvalidRequest ErrorKind = "invalid_request"
	ErrorUnknown        ErrorKind = "unknown"
)

var (
	// ErrNoProvider is returned when no adapter serves a kind or model hint.
	ErrNoProvider = errors.New("no provider for request")
	// ErrEmptyResponse is returned when a provider returns no usable output.
	ErrEmptyResponse = errors.New("provider returned empty response")
)

// ProviderError is returned for every failed remote call.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	Retryable  bool
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s error (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// AsProviderError returns err as a *ProviderError when it is one.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// FromStatus builds a ProviderError from an HTTP status code.
func FromStatus(provider string, status int, err error) *ProviderError {
	pe := &ProviderError{Provider: provider, StatusCode: status, Err: err}
	switch {
	case status == http.StatusTooManyRequests:
		pe.Kind, pe.Retryable = ErrorQuota, true
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		pe.Kind, pe.Retryable = ErrorTimeout, true
	case status >= 500:
		pe.Kind, pe.Retryable = ErrorNetwork, true
	case status >= 400:
		pe.Kind = ErrorInvalidRequest
	default:
		pe.Kind = ErrorUnknown
	}
	return pe
}

// Classify wraps a transport-level error. Existing ProviderErrors pass through.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsProviderError(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Provider: provider, Kind: ErrorTimeout, Retryable: true, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &ProviderError{Provider: provider, Kind: ErrorNetwork, Retryable: true, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		kind := ErrorNetwork
		if netErr.Timeout() {
			kind = ErrorTimeout
		}
		return &ProviderError{Provider: provider, Kind: kind, Retryable: true, Err: err}
	}
	return &ProviderError{Provider: provider, Kind: ErrorUnknown, Err: err}
}

// SafetyBlocked builds the error returned when a provider refuses content.
func SafetyBlocked(provider, reason string) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Kind:     ErrorSafety,
		Err:      fmt.Errorf("blocked: %s", reason),
	}
}
