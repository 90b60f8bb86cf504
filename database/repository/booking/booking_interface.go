package bookingRepo

import (
	"context"
	"errors"
	"time"

	"cargo/models"
)

// ErrVehicleUnavailable is returned when the atomic reserve/reschedule path
// finds an overlapping active booking at write time.
var ErrVehicleUnavailable = errors.New("vehicle is not available for the selected dates")

// ErrBookingNotFound is returned when a booking lookup matches nothing.
var ErrBookingNotFound = errors.New("booking not found")

// ErrStatusConflict is returned when a conditional status update matched no
// document because the booking was no longer in the expected status.
var ErrStatusConflict = errors.New("booking status changed concurrently")

// Filter narrows booking listings.
type Filter struct {
	Status    models.BookingStatus
	VehicleID string
	FromDate  time.Time
	ToDate    time.Time
	Page      int64
	Limit     int64
}

// Repository is the storage contract for bookings. Reserve and Reschedule
// must evaluate the overlap predicate and apply the write as a single
// atomically-visible unit: a concurrent overlapping attempt on the same
// vehicle fails with ErrVehicleUnavailable, never silently succeeds.
type Repository interface {
	Reserve(ctx context.Context, booking *models.Booking) error
	Reschedule(ctx context.Context, bookingID string, start, end time.Time, totalAmount int64) (*models.Booking, error)
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, f Filter) ([]models.Booking, error)
	ListByUser(ctx context.Context, userID string, status models.BookingStatus, page, limit int64) ([]models.Booking, error)

	// UpdateStatus transitions the booking only if its current status is one
	// of from; otherwise it fails with ErrStatusConflict.
	UpdateStatus(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus, reason string) (*models.Booking, error)

	// CountOverlapping is the advisory (non-atomic) availability read.
	CountOverlapping(ctx context.Context, vehicleID string, start, end time.Time, excludeBookingID string) (int64, error)
}
