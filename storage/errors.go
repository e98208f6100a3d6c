package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when no document is stored under an IRI.
	ErrNotFound = errors.New("document not found")
)
