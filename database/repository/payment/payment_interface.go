package paymentRepo

import (
	"context"
	"errors"
	"time"

	"cargo/models"
)

// ErrPaymentNotFound is returned when a payment lookup matches nothing.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrDuplicateReference is returned when a payment insert violates the
// unique transaction_reference index.
var ErrDuplicateReference = errors.New("transaction reference already exists")

// ErrActiveAttemptExists is returned when a payment insert violates the
// partial unique index that allows at most one pending-or-completed payment
// per booking. It is the storage-level backstop for concurrent attempts that
// both passed the duplicate scan.
var ErrActiveAttemptExists = errors.New("booking already has an active payment")

// ErrAlreadyApplied is returned by the Mark* transitions when the payment is
// already in the requested state. Callers treat it as an idempotent no-op.
var ErrAlreadyApplied = errors.New("payment already in requested state")

// ErrStateConflict is returned when a transition is requested from a status
// that does not permit it (e.g. refunding a failed payment).
var ErrStateConflict = errors.New("payment status does not permit transition")

// Filter narrows payment listings.
type Filter struct {
	Status    models.PaymentStatus
	BookingID string
	FromDate  time.Time
	ToDate    time.Time
	Page      int64
	Limit     int64
}

// Repository is the storage contract for payments. The Mark* transitions are
// conditional on the payment's current status, so concurrent or redelivered
// webhook applications for the same transaction reference are race-free:
// the second application observes ErrAlreadyApplied instead of re-running
// side effects. MarkCompleted and MarkRefunded also apply the paired booking
// update in the same transaction, so payment and booking state move together.
type Repository interface {
	// Create inserts the payment. The unique indexes reject a reused
	// transaction reference (ErrDuplicateReference) and a second
	// pending-or-completed payment for the same booking
	// (ErrActiveAttemptExists).
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByReference(ctx context.Context, reference string) (*models.Payment, error)
	ListByBooking(ctx context.Context, bookingID string) ([]models.Payment, error)
	List(ctx context.Context, f Filter) ([]models.Payment, error)

	// MarkCompleted: pending -> completed, and the booking becomes
	// confirmed/paid in the same transaction. A non-empty cardLastFour is
	// persisted with the transition.
	MarkCompleted(ctx context.Context, id, cardLastFour string) (*models.Payment, error)
	// MarkFailed: pending -> failed. The booking is left untouched.
	MarkFailed(ctx context.Context, id string, reason string) (*models.Payment, error)
	// MarkRefunded: completed -> refunded, and the booking's payment_status
	// reverts to unpaid in the same transaction.
	MarkRefunded(ctx context.Context, id string, amount int64, reason string) (*models.Payment, error)
}
