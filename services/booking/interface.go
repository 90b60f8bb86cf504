package booking

import (
	"context"
	"time"

	bookingRepo "cargo/database/repository/booking"
	vehicleRepo "cargo/database/repository/vehicle"
	"cargo/models"
	"cargo/services/notification"
)

// CreateBookingRequest carries the validated boundary input for a new
// reservation. Start/End are UTC midnights; the interval is half-open.
type CreateBookingRequest struct {
	VehicleID      string
	UserID         string
	Start          time.Time
	End            time.Time
	PickupLocation string
	ReturnLocation string
	WithDriver     bool
	Notes          string
}

// ReservationService composes availability, the booking state machine and
// the reservation storage into the create/update/cancel use cases.
type ReservationService interface {
	Create(ctx context.Context, req CreateBookingRequest) (*models.Booking, error)
	Reschedule(ctx context.Context, bookingID string, start, end time.Time) (*models.Booking, error)
	Cancel(ctx context.Context, bookingID, reason string) (*models.Booking, error)
	UpdateStatus(ctx context.Context, bookingID string, to models.BookingStatus) (*models.Booking, error)
	GetByID(ctx context.Context, bookingID string) (*models.Booking, error)
	List(ctx context.Context, f bookingRepo.Filter) ([]models.Booking, error)
	ListForUser(ctx context.Context, userID string, status models.BookingStatus, page, limit int64) ([]models.Booking, error)

	// CheckAvailability is advisory only: the answer can be stale by the
	// time a reservation is attempted. The binding check happens inside
	// Create/Reschedule.
	CheckAvailability(ctx context.Context, vehicleID string, start, end time.Time) (bool, error)
}

// Rules are the configured booking business rules.
type Rules struct {
	MinRentalDays      int
	MaxRentalDays      int
	AdvanceBookingDays int
	CancellationWindow time.Duration
}

// DefaultReservationService implements ReservationService.
type DefaultReservationService struct {
	Repo     bookingRepo.Repository
	Vehicles vehicleRepo.Repository
	Notifier notification.Service
	Rules    Rules

	// Now is overridable for policy-boundary tests; nil means time.Now.
	Now func() time.Time
}

func (svc *DefaultReservationService) clock() time.Time {
	if svc.Now != nil {
		return svc.Now()
	}
	return time.Now()
}
