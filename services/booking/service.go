package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	bookingRepo "cargo/database/repository/booking"
	"cargo/models"
	"cargo/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Create validates the requested interval, prices the rental and reserves
// the vehicle. The overlap check and the insert are atomic in the
// repository, so a losing concurrent request gets ErrVehicleUnavailable.
func (svc *DefaultReservationService) Create(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	logger := utils.GetLogger()

	if err := svc.validateInterval(req.Start, req.End); err != nil {
		return nil, err
	}

	vehicle, err := svc.Vehicles.GetByID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if !vehicle.Bookable() {
		return nil, ErrVehicleUnavailable
	}

	days := int64(req.End.Sub(req.Start).Hours() / 24)
	now := svc.clock().UTC()
	booking := &models.Booking{
		ID:             uuid.New().String(),
		BookingNumber:  newBookingNumber(now),
		VehicleID:      req.VehicleID,
		UserID:         req.UserID,
		StartDate:      req.Start,
		EndDate:        req.End,
		PickupLocation: req.PickupLocation,
		ReturnLocation: req.ReturnLocation,
		WithDriver:     req.WithDriver,
		Notes:          req.Notes,
		Status:         models.BookingPending,
		PaymentStatus:  models.BookingUnpaid,
		TotalAmount:    days * vehicle.DailyRate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := svc.Repo.Reserve(ctx, booking); err != nil {
		return nil, err
	}

	logger.Info("booking reserved",
		zap.String("bookingNumber", booking.BookingNumber),
		zap.String("vehicleID", booking.VehicleID),
		zap.Time("start", booking.StartDate),
		zap.Time("end", booking.EndDate))
	return booking, nil
}

// Reschedule moves a booking to a new interval, re-pricing it and
// re-checking availability atomically (the booking's own interval is
// excluded from the overlap check).
func (svc *DefaultReservationService) Reschedule(ctx context.Context, bookingID string, start, end time.Time) (*models.Booking, error) {
	if err := svc.validateInterval(start, end); err != nil {
		return nil, err
	}

	current, err := svc.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if current.Status != models.BookingPending && current.Status != models.BookingConfirmed {
		return nil, ErrInvalidTransition
	}

	vehicle, err := svc.Vehicles.GetByID(ctx, current.VehicleID)
	if err != nil {
		return nil, err
	}
	days := int64(end.Sub(start).Hours() / 24)

	updated, err := svc.Repo.Reschedule(ctx, bookingID, start, end, days*vehicle.DailyRate)
	if err != nil {
		if err == bookingRepo.ErrStatusConflict {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	return updated, nil
}

// Cancel applies the cancellation policy and transitions the booking to
// cancelled. Bookings are never deleted.
func (svc *DefaultReservationService) Cancel(ctx context.Context, bookingID, reason string) (*models.Booking, error) {
	current, err := svc.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := CanCancel(current, svc.clock(), svc.Rules.CancellationWindow); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "Cancelled by user"
	}

	cancelled, err := svc.Repo.UpdateStatus(ctx, bookingID,
		[]models.BookingStatus{models.BookingPending, models.BookingConfirmed, models.BookingOngoing},
		models.BookingCancelled, reason)
	if err != nil {
		if err == bookingRepo.ErrStatusConflict {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	if svc.Notifier != nil {
		if err := svc.Notifier.BookingCancelled(ctx, cancelled); err != nil {
			utils.GetLogger().Warn("cancellation notification failed", zap.Error(err))
		}
	}
	return cancelled, nil
}

// UpdateStatus applies a staff-driven lifecycle transition (confirm, start
// of rental, return processed, rejection). Cancellation goes through Cancel
// so the policy check cannot be bypassed.
func (svc *DefaultReservationService) UpdateStatus(ctx context.Context, bookingID string, to models.BookingStatus) (*models.Booking, error) {
	if to == models.BookingCancelled || to == models.BookingPending {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("status %q cannot be set directly", to)}
	}

	current, err := svc.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, to) {
		return nil, ErrInvalidTransition
	}

	updated, err := svc.Repo.UpdateStatus(ctx, bookingID,
		[]models.BookingStatus{current.Status}, to, "")
	if err != nil {
		if err == bookingRepo.ErrStatusConflict {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	return updated, nil
}

// GetByID retrieves a single booking.
func (svc *DefaultReservationService) GetByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	return svc.Repo.GetByID(ctx, bookingID)
}

// List retrieves bookings for staff views.
func (svc *DefaultReservationService) List(ctx context.Context, f bookingRepo.Filter) ([]models.Booking, error) {
	return svc.Repo.List(ctx, f)
}

// ListForUser retrieves the caller's own bookings.
func (svc *DefaultReservationService) ListForUser(ctx context.Context, userID string, status models.BookingStatus, page, limit int64) ([]models.Booking, error) {
	return svc.Repo.ListByUser(ctx, userID, status, page, limit)
}

// CheckAvailability answers the advisory availability question.
func (svc *DefaultReservationService) CheckAvailability(ctx context.Context, vehicleID string, start, end time.Time) (bool, error) {
	if !start.Before(end) {
		return false, &ValidationError{Field: "dates", Message: "start date must be before end date"}
	}
	vehicle, err := svc.Vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return false, err
	}
	if !vehicle.Bookable() {
		return false, nil
	}
	count, err := svc.Repo.CountOverlapping(ctx, vehicleID, start, end, "")
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (svc *DefaultReservationService) validateInterval(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return &ValidationError{Field: "dates", Message: "start and end dates are required"}
	}
	if !start.Before(end) {
		return &ValidationError{Field: "dates", Message: "start date must be before end date"}
	}

	days := int(end.Sub(start).Hours() / 24)
	if days < svc.Rules.MinRentalDays {
		return &ValidationError{Field: "dates", Message: fmt.Sprintf("rental must be at least %d day(s)", svc.Rules.MinRentalDays)}
	}
	if days > svc.Rules.MaxRentalDays {
		return &ValidationError{Field: "dates", Message: fmt.Sprintf("rental cannot exceed %d days", svc.Rules.MaxRentalDays)}
	}

	now := svc.clock().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if start.Before(today) {
		return &ValidationError{Field: "start_date", Message: "start date cannot be in the past"}
	}
	horizon := today.AddDate(0, 0, svc.Rules.AdvanceBookingDays)
	if start.After(horizon) {
		return &ValidationError{Field: "start_date", Message: fmt.Sprintf("bookings can be made at most %d days ahead", svc.Rules.AdvanceBookingDays)}
	}
	return nil
}

// newBookingNumber produces a human-readable booking number like
// BK-3FA29C-250614.
func newBookingNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("BK-%s-%s", suffix, now.Format("060102"))
}
