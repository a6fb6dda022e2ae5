package pipeline

import "errors"

// ErrWriteDocument is returned when a markdown file cannot be written.
var ErrWriteDocument = errors.New("failed to write document")
