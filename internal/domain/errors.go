package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrNotInitialized indicates the durable cache was used before its
	// initialization completed. Callers must Init first; this is never
	// retried silently.
	ErrNotInitialized = errors.New("cache not initialized")

	// ErrServiceClosed indicates checkout was attempted while the service is
	// marked closed in settings.
	ErrServiceClosed = errors.New("service closed")
)
