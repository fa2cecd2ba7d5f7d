package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned for other constraint failures.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrAlreadyDecided is returned when a decision write targets a request
	// that is no longer pending.
	ErrAlreadyDecided = errors.New("persistence: request already decided")
	// ErrUnavailable is returned when the store cannot be reached.
	ErrUnavailable = errors.New("persistence: store unavailable")
)
