package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "cargo/database/repository/booking"
	paymentRepo "cargo/database/repository/payment"
	"cargo/models"
	"cargo/services/notification"
	"cargo/services/tasks"
	"cargo/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreatePaymentRequest carries the boundary input for a new payment attempt.
// Amount is the base amount in minor units; fees and tax are added on top.
type CreatePaymentRequest struct {
	BookingID string
	Amount    int64
	Method    string
}

// Ledger records payment attempts and drives them through their lifecycle.
type Ledger interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*models.Payment, error)
	// Capture sends a pending payment to the gateway and applies the
	// definitive outcome. An unknown outcome leaves it pending.
	Capture(ctx context.Context, paymentID string) (*models.Payment, error)
	// PayBooking creates and captures a payment for the booking's full
	// rental amount in one call.
	PayBooking(ctx context.Context, bookingID, method string) (*models.Payment, error)
	Refund(ctx context.Context, paymentID string, amount int64, reason string) (*models.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	List(ctx context.Context, f paymentRepo.Filter) ([]models.Payment, error)
	BookingPayments(ctx context.Context, bookingID string) ([]models.Payment, error)
}

// Settings are the configured payment business rules.
type Settings struct {
	Currency          string
	FeeRateBps        int64
	TaxRateBps        int64
	Methods           []string
	PendingCheckDelay time.Duration
}

// DefaultLedger implements Ledger on the payment repository and gateway.
type DefaultLedger struct {
	Payments paymentRepo.Repository
	Bookings bookingRepo.Repository
	Gateway  PaymentGateway
	Notifier notification.Service
	Tasks    tasks.Scheduler
	Settings Settings

	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

func (l *DefaultLedger) clock() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// CreatePayment records a pending payment attempt against a booking. A
// booking can accumulate failed attempts, but at most one pending attempt
// at a time and at most one completed payment ever. The scan below is a
// fast path for friendly errors; the storage-level unique constraint is
// what decides when two attempts race past it together.
func (l *DefaultLedger) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*models.Payment, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !l.methodAllowed(req.Method) {
		return nil, ErrUnsupportedMethod
	}

	booking, err := l.Bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.PaymentStatus == models.BookingPaid {
		return nil, ErrBookingAlreadyPaid
	}

	attempts, err := l.Payments.ListByBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	for _, a := range attempts {
		switch a.Status {
		case models.PaymentCompleted:
			return nil, ErrBookingAlreadyPaid
		case models.PaymentPending:
			return nil, ErrPaymentAttemptPending
		}
	}

	quote := PriceCharge(req.Amount, l.Settings.FeeRateBps, l.Settings.TaxRateBps)
	now := l.clock().UTC()
	payment := &models.Payment{
		ID:                   uuid.New().String(),
		PaymentNumber:        newPaymentNumber(now),
		BookingID:            booking.ID,
		Amount:               quote.Amount,
		ProcessingFee:        quote.ProcessingFee,
		TaxAmount:            quote.TaxAmount,
		TotalAmount:          quote.Total,
		Currency:             l.Settings.Currency,
		Method:               req.Method,
		Status:               models.PaymentPending,
		TransactionReference: newTransactionReference(now),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := l.Payments.Create(ctx, payment); err != nil {
		if errors.Is(err, paymentRepo.ErrActiveAttemptExists) {
			// Lost the insert race to a concurrent attempt.
			return nil, l.classifyActiveAttempt(ctx, req.BookingID)
		}
		return nil, err
	}

	utils.GetLogger().Info("payment attempt recorded",
		zap.String("paymentNumber", payment.PaymentNumber),
		zap.String("bookingID", payment.BookingID),
		zap.Int64("totalAmount", payment.TotalAmount))
	return payment, nil
}

// Capture charges the gateway and settles the payment. Only a definitive
// provider decline marks the payment failed; a timeout or an asynchronous
// wallet flow leaves it pending and schedules a later check, so the
// webhook (or the sweep) can finish the job.
func (l *DefaultLedger) Capture(ctx context.Context, paymentID string) (*models.Payment, error) {
	logger := utils.GetLogger()

	payment, err := l.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentPending {
		return nil, ErrPaymentNotPending
	}

	receipt, chargeErr := l.Gateway.Charge(ctx, ChargeRequest{
		Amount:      payment.TotalAmount,
		Currency:    payment.Currency,
		Method:      payment.Method,
		Reference:   payment.TransactionReference,
		Description: fmt.Sprintf("Vehicle rental payment %s", payment.PaymentNumber),
	})

	switch {
	case chargeErr == nil:
		return l.settleCompleted(ctx, payment, receipt)

	case errors.Is(chargeErr, ErrGatewayPending),
		errors.Is(chargeErr, context.DeadlineExceeded),
		errors.Is(chargeErr, context.Canceled):
		logger.Warn("gateway outcome unknown, leaving payment pending",
			zap.String("reference", payment.TransactionReference))
		if l.Tasks != nil {
			if err := l.Tasks.SchedulePaymentCheck(ctx, payment.ID, l.Settings.PendingCheckDelay); err != nil {
				logger.Error("failed to schedule pending payment check", zap.Error(err))
			}
		}
		return payment, nil

	default:
		var gwErr *GatewayError
		if errors.As(chargeErr, &gwErr) && gwErr.Declined {
			failed, err := l.Payments.MarkFailed(ctx, payment.ID, gwErr.Message)
			if errors.Is(err, paymentRepo.ErrAlreadyApplied) {
				failed, err = l.Payments.GetByID(ctx, payment.ID)
			}
			if err != nil {
				return nil, err
			}
			logger.Info("payment declined by gateway",
				zap.String("paymentNumber", payment.PaymentNumber),
				zap.String("code", gwErr.Code))
			return failed, chargeErr
		}
		return nil, chargeErr
	}
}

// PayBooking settles a booking's full rental amount in one step.
func (l *DefaultLedger) PayBooking(ctx context.Context, bookingID, method string) (*models.Payment, error) {
	booking, err := l.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	payment, err := l.CreatePayment(ctx, CreatePaymentRequest{
		BookingID: bookingID,
		Amount:    booking.TotalAmount,
		Method:    method,
	})
	if err != nil {
		return nil, err
	}
	return l.Capture(ctx, payment.ID)
}

// Refund reverses a completed payment, once, for at most the captured
// amount. The booking's payment status reverts in the same transaction.
func (l *DefaultLedger) Refund(ctx context.Context, paymentID string, amount int64, reason string) (*models.Payment, error) {
	payment, err := l.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentCompleted {
		return nil, ErrRefundNotAllowed
	}
	if amount <= 0 || amount > payment.TotalAmount {
		return nil, ErrInvalidAmount
	}
	if reason == "" {
		reason = "Refunded by staff"
	}

	refunded, err := l.Payments.MarkRefunded(ctx, paymentID, amount, reason)
	if err != nil {
		if errors.Is(err, paymentRepo.ErrAlreadyApplied) || errors.Is(err, paymentRepo.ErrStateConflict) {
			return nil, ErrRefundNotAllowed
		}
		return nil, err
	}

	utils.GetLogger().Info("payment refunded",
		zap.String("paymentNumber", refunded.PaymentNumber),
		zap.Int64("refundAmount", amount))
	return refunded, nil
}

// GetPayment retrieves a single payment.
func (l *DefaultLedger) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	return l.Payments.GetByID(ctx, paymentID)
}

// List retrieves payments for staff views.
func (l *DefaultLedger) List(ctx context.Context, f paymentRepo.Filter) ([]models.Payment, error) {
	return l.Payments.List(ctx, f)
}

// BookingPayments retrieves every attempt recorded against a booking.
func (l *DefaultLedger) BookingPayments(ctx context.Context, bookingID string) ([]models.Payment, error) {
	return l.Payments.ListByBooking(ctx, bookingID)
}

// settleCompleted applies a successful charge: payment completed, booking
// confirmed/paid (one transaction), then best-effort notifications and
// pickup reminders.
func (l *DefaultLedger) settleCompleted(ctx context.Context, payment *models.Payment, receipt *GatewayReceipt) (*models.Payment, error) {
	logger := utils.GetLogger()

	var lastFour string
	if receipt != nil {
		lastFour = receipt.CardLastFour
	}
	completed, err := l.Payments.MarkCompleted(ctx, payment.ID, lastFour)
	if err != nil {
		if errors.Is(err, paymentRepo.ErrAlreadyApplied) {
			// The webhook got there first. Nothing left to do.
			return l.Payments.GetByID(ctx, payment.ID)
		}
		return nil, err
	}

	logger.Info("payment captured",
		zap.String("paymentNumber", completed.PaymentNumber),
		zap.String("reference", completed.TransactionReference))

	booking, err := l.Bookings.GetByID(ctx, completed.BookingID)
	if err != nil {
		logger.Warn("captured payment but booking lookup failed", zap.Error(err))
		return completed, nil
	}
	if l.Notifier != nil {
		if err := l.Notifier.PaymentReceived(ctx, completed); err != nil {
			logger.Warn("payment notification failed", zap.Error(err))
		}
		if err := l.Notifier.BookingConfirmed(ctx, booking); err != nil {
			logger.Warn("confirmation notification failed", zap.Error(err))
		}
	}
	if l.Tasks != nil {
		if err := l.Tasks.ScheduleReminders(ctx, booking); err != nil {
			logger.Warn("failed to schedule pickup reminders", zap.Error(err))
		}
	}
	return completed, nil
}

// classifyActiveAttempt turns a storage-level active-payment rejection into
// the same error the pre-insert scan would have produced.
func (l *DefaultLedger) classifyActiveAttempt(ctx context.Context, bookingID string) error {
	attempts, err := l.Payments.ListByBooking(ctx, bookingID)
	if err != nil {
		return ErrPaymentAttemptPending
	}
	for _, a := range attempts {
		if a.Status == models.PaymentCompleted {
			return ErrBookingAlreadyPaid
		}
	}
	return ErrPaymentAttemptPending
}

func (l *DefaultLedger) methodAllowed(method string) bool {
	for _, m := range l.Settings.Methods {
		if m == method {
			return true
		}
	}
	return false
}
