package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() for programmatic handling while still printing a readable message.
var (
	// ErrInvalidBaseURL is returned when the base URL is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http or https URL")

	// ErrEmptySection is returned when no site section is configured.
	ErrEmptySection = errors.New("invalid section: must not be empty")

	// ErrInvalidLanguage is returned when a language is not a valid BCP 47 tag.
	ErrInvalidLanguage = errors.New("invalid language: must be a BCP 47 tag such as en or zh-TW")

	// ErrSameLanguage is returned when the source and target languages share
	// an output directory, which would make the two trees overwrite each other.
	ErrSameLanguage = errors.New("invalid languages: source and target must differ")

	// ErrEmptyOutDir is returned when no output directory is configured.
	ErrEmptyOutDir = errors.New("invalid output directory: must not be empty")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidChunkSize is returned when the translation chunk size is not positive.
	ErrInvalidChunkSize = errors.New("invalid chunk size: must be positive")

	// ErrInvalidAttempts is returned when the translation attempt count is below one.
	ErrInvalidAttempts = errors.New("invalid translate attempts: must be at least 1")

	// ErrInvalidBackoff is returned when the retry backoff is negative.
	// Use 0 to retry immediately.
	ErrInvalidBackoff = errors.New("invalid retry backoff: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
