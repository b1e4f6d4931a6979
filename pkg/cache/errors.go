package cache

import "errors"

// Sentinel errors for store operations.
var (
	// ErrClosed is returned by operations on a store that has been closed.
	ErrClosed = errors.New("cache: store closed")

	// ErrUnknownBackend is returned when a backend name is not recognized.
	ErrUnknownBackend = errors.New("cache: unknown backend")
)
