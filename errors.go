package keywordsai

import (
	"errors"
	"fmt"
)

// ErrDisabled is returned by management calls on a client that was built
// without an API key. Telemetry calls never return it; they no-op instead.
var ErrDisabled = errors.New("keywordsai: no API key configured")

// APIError is an error response from the Keywords AI API with the HTTP
// status code and the server's error message.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("keywordsai: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// IsRetryable returns true if the error is an APIError in the retryable
// range (HTTP 5xx). Statuses in [300, 500) are terminal: retrying cannot
// change the outcome.
func IsRetryable(err error) bool {
	var e *APIError
	if errors.As(err, &e) {
		return e.StatusCode >= 500
	}
	return false
}

// IsRateLimited returns true if the error is a 429 (Too Many Requests).
func IsRateLimited(err error) bool {
	var e *APIError
	if errors.As(err, &e) {
		return e.StatusCode == 429
	}
	return false
}

// IsUnauthorized returns true if the error is a 401.
func IsUnauthorized(err error) bool {
	var e *APIError
	if errors.As(err, &e) {
		return e.StatusCode == 401
	}
	return false
}

// IsNotFound returns true if the error is a 404.
func IsNotFound(err error) bool {
	var e *APIError
	if errors.As(err, &e) {
		return e.StatusCode == 404
	}
	return false
}
