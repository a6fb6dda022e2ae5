package database

import "errors"

var (
	// ErrDatabaseNotFound is returned when opening a missing database
	// without CreateIfNotExists.
	ErrDatabaseNotFound = errors.New("database not found")

	// ErrRunNotFound is returned when no run has the requested ID.
	ErrRunNotFound = errors.New("run not found")
)
