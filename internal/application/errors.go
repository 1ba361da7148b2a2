package application

import "errors"

var (
	// ErrDuplicateActiveTicket is returned when an entry is attempted for a
	// plate that already has an open ticket.
	ErrDuplicateActiveTicket = errors.New("application: plate already has an active ticket")
	// ErrTicketNotFound is returned when an exit or cancellation targets an
	// id with no matching open ticket.
	ErrTicketNotFound = errors.New("application: ticket not found")
	// ErrTicketAlreadyCompleted is returned when an exit is requested for a
	// ticket that already reached the completed state. The previously stored
	// ticket accompanies the error so callers can reprint the receipt.
	ErrTicketAlreadyCompleted = errors.New("application: ticket already completed")
	// ErrNotFound is returned when a requested catalog or report resource
	// does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a create collides with an existing
	// record.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrBuiltinVehicleType is returned when a caller tries to delete one of
	// the fixed vehicle categories.
	ErrBuiltinVehicleType = errors.New("application: builtin vehicle type cannot be deleted")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
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
