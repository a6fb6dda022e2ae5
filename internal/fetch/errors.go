package fetch

import (
	"errors"
	"fmt"
)

// ErrUnexpectedStatus is returned by Response.Err when the server answered
// with a non-success status code.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// StatusError describes a non-success response.
type StatusError struct {
	URL        string
	StatusCode int
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned %d", ErrUnexpectedStatus, e.URL, e.StatusCode)
}

// Unwrap allows errors.Is(err, ErrUnexpectedStatus).
func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}
