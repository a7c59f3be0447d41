package perception

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when a backend answers 200 with a body
// that does not have the expected JSON shape.
var ErrMalformedResponse = errors.New("perception: malformed response")

// APIError is a non-200 answer from a recognition backend.
type APIError struct {
	// Endpoint is the URL that was called.
	Endpoint string

	StatusCode int

	// Body is the response body, truncated for logging.
	Body string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("perception: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// IsNotFound returns true if the resource was not found (HTTP 404).
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRetryable reports whether a later attempt could succeed. Nothing in this
// package retries; callers decide.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 429 || e.IsServerError()
}

const maxErrorBody = 256

func newAPIError(endpoint string, status int, body []byte) *APIError {
	s := string(body)
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return &APIError{Endpoint: endpoint, StatusCode: status, Body: s}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
