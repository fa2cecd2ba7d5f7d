package arbitration

import "errors"

var (
	// ErrNotFound is returned when the referenced request does not exist.
	ErrNotFound = errors.New("arbitration: request not found")
	// ErrAlreadyDecided is returned when a second decision would be written
	// onto an already decided request.
	ErrAlreadyDecided = errors.New("arbitration: request already decided")
	// ErrAlreadyWithdrawn is returned when a withdrawn request is withdrawn
	// again.
	ErrAlreadyWithdrawn = errors.New("arbitration: request already withdrawn")
	// ErrScheduleUnavailable signals that a conflict source could not be
	// queried. It is never conflated with "no conflict".
	ErrScheduleUnavailable = errors.New("arbitration: schedule store unavailable")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyDecided):
		return "already_decided"
	case errors.Is(err, ErrAlreadyWithdrawn):
		return "already_withdrawn"
	case errors.Is(err, ErrScheduleUnavailable):
		return "schedule_unavailable"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
