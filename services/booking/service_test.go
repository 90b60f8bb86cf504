package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	bookingRepo "cargo/database/repository/booking"
	vehicleRepo "cargo/database/repository/vehicle"
	"cargo/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memBookingRepo is an in-memory Repository whose Reserve/Reschedule apply
// the overlap check and the write under one lock, mirroring the atomicity
// contract of the Mongo implementation.
type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[string]*models.Booking)}
}

func (r *memBookingRepo) overlaps(vehicleID string, start, end time.Time, excludeID string) bool {
	for _, b := range r.bookings {
		if b.VehicleID != vehicleID || b.ID == excludeID || !b.Status.IsActive() {
			continue
		}
		if start.Before(b.EndDate) && b.StartDate.Before(end) {
			return true
		}
	}
	return false
}

func (r *memBookingRepo) Reserve(ctx context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.overlaps(booking.VehicleID, booking.StartDate, booking.EndDate, "") {
		return bookingRepo.ErrVehicleUnavailable
	}
	clone := *booking
	r.bookings[booking.ID] = &clone
	return nil
}

func (r *memBookingRepo) Reschedule(ctx context.Context, bookingID string, start, end time.Time, totalAmount int64) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	if b.Status != models.BookingPending && b.Status != models.BookingConfirmed {
		return nil, bookingRepo.ErrStatusConflict
	}
	if r.overlaps(b.VehicleID, start, end, bookingID) {
		return nil, bookingRepo.ErrVehicleUnavailable
	}
	b.StartDate, b.EndDate, b.TotalAmount = start, end, totalAmount
	clone := *b
	return &clone, nil
}

func (r *memBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *memBookingRepo) List(ctx context.Context, f bookingRepo.Filter) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.VehicleID != "" && b.VehicleID != f.VehicleID {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (r *memBookingRepo) ListByUser(ctx context.Context, userID string, status models.BookingStatus, page, limit int64) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.UserID != userID {
			continue
		}
		if status != "" && b.Status != status {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (r *memBookingRepo) UpdateStatus(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus, reason string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	matched := false
	for _, f := range from {
		if b.Status == f {
			matched = true
			break
		}
	}
	if !matched {
		return nil, bookingRepo.ErrStatusConflict
	}
	b.Status = to
	if to == models.BookingCancelled {
		b.CancellationReason = reason
	}
	clone := *b
	return &clone, nil
}

func (r *memBookingRepo) CountOverlapping(ctx context.Context, vehicleID string, start, end time.Time, excludeBookingID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.bookings {
		if b.VehicleID != vehicleID || b.ID == excludeBookingID || !b.Status.IsActive() {
			continue
		}
		if start.Before(b.EndDate) && b.StartDate.Before(end) {
			n++
		}
	}
	return n, nil
}

// staleReadRepo serves GetByID from a snapshot taken before a lifecycle
// transition landed, so the service's status gate sees an outdated booking
// while the write path sees the stored one.
type staleReadRepo struct {
	*memBookingRepo
	staleStatus models.BookingStatus
}

func (r *staleReadRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	b, err := r.memBookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Status = r.staleStatus
	return b, nil
}

// memVehicleRepo serves a fixed fleet.
type memVehicleRepo struct {
	vehicles map[string]*models.Vehicle
}

func (r *memVehicleRepo) GetByID(ctx context.Context, id string) (*models.Vehicle, error) {
	v, ok := r.vehicles[id]
	if !ok {
		return nil, vehicleRepo.ErrVehicleNotFound
	}
	clone := *v
	return &clone, nil
}

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2026, 6, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(repo *memBookingRepo) *DefaultReservationService {
	return &DefaultReservationService{
		Repo: repo,
		Vehicles: &memVehicleRepo{vehicles: map[string]*models.Vehicle{
			"veh-1": {ID: "veh-1", Status: models.VehicleActive, DailyRate: 250000},
			"veh-2": {ID: "veh-2", Status: models.VehicleMaintenance, DailyRate: 250000},
		}},
		Rules: Rules{
			MinRentalDays:      1,
			MaxRentalDays:      30,
			AdvanceBookingDays: 90,
			CancellationWindow: 24 * time.Hour,
		},
		Now: func() time.Time { return testNow },
	}
}

func TestCreateBooking(t *testing.T) {
	svc := newTestService(newMemBookingRepo())
	ctx := context.Background()

	booking, err := svc.Create(ctx, CreateBookingRequest{
		VehicleID:      "veh-1",
		UserID:         "user-1",
		Start:          day(10),
		End:            day(13),
		PickupLocation: "Cebu City",
		ReturnLocation: "Cebu City",
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, models.BookingUnpaid, booking.PaymentStatus)
	assert.Equal(t, int64(3*250000), booking.TotalAmount)
	assert.Regexp(t, `^BK-[0-9A-F]{6}-\d{6}$`, booking.BookingNumber)
}

func TestCreateBookingValidation(t *testing.T) {
	svc := newTestService(newMemBookingRepo())
	ctx := context.Background()

	base := CreateBookingRequest{
		VehicleID:      "veh-1",
		UserID:         "user-1",
		PickupLocation: "Cebu City",
		ReturnLocation: "Cebu City",
	}

	cases := []struct {
		name       string
		start, end time.Time
	}{
		{"StartEqualsEnd", day(10), day(10)},
		{"EndBeforeStart", day(12), day(10)},
		{"StartInPast", day(1).AddDate(0, 0, -2), day(3)},
		{"TooLong", day(1), day(1).AddDate(0, 0, 31)},
		{"BeyondAdvanceHorizon", day(1).AddDate(0, 0, 91), day(1).AddDate(0, 0, 93)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			req.Start, req.End = tc.start, tc.end
			_, err := svc.Create(ctx, req)
			assert.True(t, IsValidation(err), "expected validation error, got %v", err)
		})
	}

	t.Run("DisabledVehicle", func(t *testing.T) {
		req := base
		req.VehicleID = "veh-2"
		req.Start, req.End = day(10), day(12)
		_, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, ErrVehicleUnavailable)
	})

	t.Run("UnknownVehicle", func(t *testing.T) {
		req := base
		req.VehicleID = "veh-404"
		req.Start, req.End = day(10), day(12)
		_, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, ErrVehicleNotFound)
	})
}

// TestConcurrentReservation races many identical requests at one vehicle:
// exactly one may win.
func TestConcurrentReservation(t *testing.T) {
	svc := newTestService(newMemBookingRepo())
	ctx := context.Background()

	const attempts = 16
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, CreateBookingRequest{
				VehicleID:      "veh-1",
				UserID:         "user-1",
				Start:          day(10),
				End:            day(14),
				PickupLocation: "Cebu City",
				ReturnLocation: "Cebu City",
			})
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, ErrVehicleUnavailable):
			conflicts++
		}
	}
	assert.Equal(t, 1, wins, "exactly one reservation may win")
	assert.Equal(t, attempts-1, conflicts)
}

// TestHalfOpenInterval: the end date is exclusive, so a rental ending on a
// date and another starting on that same date do not collide.
func TestHalfOpenInterval(t *testing.T) {
	svc := newTestService(newMemBookingRepo())
	ctx := context.Background()

	base := CreateBookingRequest{
		VehicleID:      "veh-1",
		UserID:         "user-1",
		PickupLocation: "Cebu City",
		ReturnLocation: "Cebu City",
	}

	first := base
	first.Start, first.End = day(1), day(5)
	_, err := svc.Create(ctx, first)
	require.NoError(t, err)

	t.Run("BackToBackAllowed", func(t *testing.T) {
		second := base
		second.Start, second.End = day(5), day(7)
		_, err := svc.Create(ctx, second)
		assert.NoError(t, err)
	})

	t.Run("StraddlingConflicts", func(t *testing.T) {
		third := base
		third.Start, third.End = day(4), day(6)
		_, err := svc.Create(ctx, third)
		assert.ErrorIs(t, err, ErrVehicleUnavailable)
	})
}

// TestCancelledBookingFreesVehicle: cancelled bookings no longer block the
// interval.
func TestCancelledBookingFreesVehicle(t *testing.T) {
	repo := newMemBookingRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	req := CreateBookingRequest{
		VehicleID:      "veh-1",
		UserID:         "user-1",
		Start:          day(10),
		End:            day(12),
		PickupLocation: "Cebu City",
		ReturnLocation: "Cebu City",
	}
	booking, err := svc.Create(ctx, req)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, booking.ID, "change of plans")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
	assert.Equal(t, "change of plans", cancelled.CancellationReason)

	_, err = svc.Create(ctx, req)
	assert.NoError(t, err, "cancelled booking must not block the interval")
}

func TestCancelWindow(t *testing.T) {
	repo := newMemBookingRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	booking, err := svc.Create(ctx, CreateBookingRequest{
		VehicleID:      "veh-1",
		UserID:         "user-1",
		Start:          day(2),
		End:            day(4),
		PickupLocation: "Cebu City",
		ReturnLocation: "Cebu City",
	})
	require.NoError(t, err)

	// day(2) midnight minus the 24h window is day(1) midnight; testNow is
	// day(1) noon, already inside.
	_, err = svc.Cancel(ctx, booking.ID, "")
	assert.ErrorIs(t, err, ErrPolicyViolation)

	// One second before the window opens the cancellation still passes.
	svc.Now = func() time.Time { return day(1).Add(-time.Second) }
	cancelled, err := svc.Cancel(ctx, booking.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Cancelled by user", cancelled.CancellationReason)
}

func TestReschedule(t *testing.T) {
	repo := newMemBookingRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	base := CreateBookingRequest{
		VehicleID:      "veh-1",
		UserID:         "user-1",
		PickupLocation: "Cebu City",
		ReturnLocation: "Cebu City",
	}
	first := base
	first.Start, first.End = day(10), day(12)
	booking, err := svc.Create(ctx, first)
	require.NoError(t, err)

	second := base
	second.Start, second.End = day(20), day(22)
	other, err := svc.Create(ctx, second)
	require.NoError(t, err)

	t.Run("MoveAndReprice", func(t *testing.T) {
		moved, err := svc.Reschedule(ctx, booking.ID, day(14), day(17))
		require.NoError(t, err)
		assert.Equal(t, int64(3*250000), moved.TotalAmount)
	})

	t.Run("OwnIntervalDoesNotConflict", func(t *testing.T) {
		_, err := svc.Reschedule(ctx, booking.ID, day(15), day(17))
		assert.NoError(t, err)
	})

	t.Run("ConflictWithOtherBooking", func(t *testing.T) {
		_, err := svc.Reschedule(ctx, booking.ID, day(21), day(23))
		assert.ErrorIs(t, err, ErrVehicleUnavailable)
	})

	t.Run("TerminalBookingRejected", func(t *testing.T) {
		_, err := svc.Cancel(ctx, other.ID, "")
		require.NoError(t, err)
		_, err = svc.Reschedule(ctx, other.ID, day(25), day(27))
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("PickupBetweenCheckAndWrite", func(t *testing.T) {
		// The stored booking goes ongoing after the status gate read it as
		// confirmed; the write-side re-check must still reject the move.
		repo.mu.Lock()
		repo.bookings[booking.ID].Status = models.BookingOngoing
		repo.mu.Unlock()

		svc.Repo = &staleReadRepo{memBookingRepo: repo, staleStatus: models.BookingConfirmed}
		defer func() { svc.Repo = repo }()

		_, err := svc.Reschedule(ctx, booking.ID, day(14), day(16))
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestUpdateStatus(t *testing.T) {
	repo := newMemBookingRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	booking, err := svc.Create(ctx, CreateBookingRequest{
		VehicleID:      "veh-1",
		UserID:         "user-1",
		Start:          day(10),
		End:            day(12),
		PickupLocation: "Cebu City",
		ReturnLocation: "Cebu City",
	})
	require.NoError(t, err)

	t.Run("DirectCancelRejected", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, booking.ID, models.BookingCancelled)
		assert.True(t, IsValidation(err))
	})

	t.Run("SkippingStatesRejected", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, booking.ID, models.BookingCompleted)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("FullLifecycle", func(t *testing.T) {
		for _, next := range []models.BookingStatus{models.BookingConfirmed, models.BookingOngoing, models.BookingCompleted} {
			updated, err := svc.UpdateStatus(ctx, booking.ID, next)
			require.NoError(t, err)
			assert.Equal(t, next, updated.Status)
		}
		_, err := svc.UpdateStatus(ctx, booking.ID, models.BookingRejected)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestCheckAvailability(t *testing.T) {
	repo := newMemBookingRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateBookingRequest{
		VehicleID:      "veh-1",
		UserID:         "user-1",
		Start:          day(10),
		End:            day(12),
		PickupLocation: "Cebu City",
		ReturnLocation: "Cebu City",
	})
	require.NoError(t, err)

	free, err := svc.CheckAvailability(ctx, "veh-1", day(11), day(13))
	require.NoError(t, err)
	assert.False(t, free)

	free, err = svc.CheckAvailability(ctx, "veh-1", day(12), day(14))
	require.NoError(t, err)
	assert.True(t, free)

	free, err = svc.CheckAvailability(ctx, "veh-2", day(10), day(12))
	require.NoError(t, err)
	assert.False(t, free, "vehicle in maintenance is never available")
}
