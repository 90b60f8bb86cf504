package booking

import (
	"errors"
	"fmt"

	bookingRepo "cargo/database/repository/booking"
	vehicleRepo "cargo/database/repository/vehicle"
)

// Sentinel errors surfaced to the HTTP boundary.
var (
	// ErrVehicleUnavailable: the vehicle is disabled or an active booking
	// overlaps the requested interval.
	ErrVehicleUnavailable = bookingRepo.ErrVehicleUnavailable
	// ErrBookingNotFound mirrors the repository sentinel.
	ErrBookingNotFound = bookingRepo.ErrBookingNotFound
	// ErrVehicleNotFound mirrors the fleet repository sentinel.
	ErrVehicleNotFound = vehicleRepo.ErrVehicleNotFound
	// ErrInvalidTransition: the requested status change is not in the
	// lifecycle transition table.
	ErrInvalidTransition = errors.New("illegal booking status transition")
	// ErrPolicyViolation: the transition is legal but the cancellation
	// policy forbids it now.
	ErrPolicyViolation = errors.New("cancellation window has passed")
)

// ValidationError reports a bad input shape or range. It is returned to the
// caller and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
