package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist, or
	// when a guarded update matched no row in the expected state.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a write violates a uniqueness rule, such
	// as a second active ticket for the same plate.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a write fails a schema check.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
