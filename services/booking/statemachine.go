package booking

import (
	"time"

	"cargo/models"
)

// transitions is the booking lifecycle table. Rejection is handled
// separately: staff may reject from any non-terminal state.
var transitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPending:   {models.BookingConfirmed, models.BookingCancelled},
	models.BookingConfirmed: {models.BookingOngoing, models.BookingCancelled},
	models.BookingOngoing:   {models.BookingCompleted},
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to models.BookingStatus) bool {
	if to == models.BookingRejected {
		return !from.IsTerminal()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanCancel applies the cancellation policy: the booking must not be in a
// terminal state and the rental start must still be at least window away.
// The two failure modes are distinct so callers can report them separately.
func CanCancel(b *models.Booking, now time.Time, window time.Duration) error {
	if b.Status.IsTerminal() {
		return ErrInvalidTransition
	}
	if b.StartDate.Sub(now) < window {
		return ErrPolicyViolation
	}
	return nil
}
