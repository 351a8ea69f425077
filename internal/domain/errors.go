package domain

import "errors"

var (
	// ErrValidation marks caller input that breaks a domain rule
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized marks a caller lacking the right to perform the operation
	ErrUnauthorized = errors.New("not authorized")
	// ErrNotFound marks a missing entity
	ErrNotFound = errors.New("not found")
	// ErrDataAccess marks a backing-store failure or timeout; the cause stays wrapped
	ErrDataAccess = errors.New("data access failed")
)
