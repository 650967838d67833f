package graph

import (
	"errors"
	"fmt"
)

// APIError is returned when Graph answers with a status other than the one
// the operation expects.
type APIError struct {
	// Op is the operation that failed (e.g., "send_mail", "move_message")
	Op string

	// StatusCode is the HTTP status returned by Graph
	StatusCode int

	// Body is the raw response body, usually a JSON error object
	Body string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("graph %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// IsAPIError reports whether err wraps an *APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
