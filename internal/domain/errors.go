package domain

import "errors"

var (
	// ErrMissingToken is returned when the Authorization header is absent or malformed
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidToken is returned when a token fails signature or claim validation
	ErrInvalidToken = errors.New("invalid token")

	// ErrKeyResolution is returned when a signing key cannot be fetched or found
	ErrKeyResolution = errors.New("key resolution failed")

	// ErrNotAuthenticated is returned when no identity is attached to the request
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInsufficientRole is returned when the identity lacks every required role
	ErrInsufficientRole = errors.New("insufficient role")

	// ErrImageNotFound is returned when an image does not exist
	ErrImageNotFound = errors.New("image not found")

	// ErrDatabaseQuery is returned when a database query fails
	ErrDatabaseQuery = errors.New("database query failed")
)
