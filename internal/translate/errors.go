package translate

import (
	"errors"
	"fmt"
)

// ErrTranslateFailed is wrapped by every error a Translator returns.
var ErrTranslateFailed = errors.New("translation failed")

// ErrEmptyTranslation is returned when the service answered without text.
var ErrEmptyTranslation = errors.New("empty translation")

// Error describes a failed call to a translation service.
type Error struct {
	// Service names the translator, e.g. "google-web".
	Service string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements error.
func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: %s: HTTP %d: %v", ErrTranslateFailed, e.Service, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s: HTTP %d", ErrTranslateFailed, e.Service, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", ErrTranslateFailed, e.Service, e.Err)
	default:
		return fmt.Sprintf("%s: %s", ErrTranslateFailed, e.Service)
	}
}

// Unwrap allows errors.Is against ErrTranslateFailed and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTranslateFailed}
	}
	return []error{ErrTranslateFailed, e.Err}
}
