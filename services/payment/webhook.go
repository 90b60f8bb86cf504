package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"

	bookingRepo "cargo/database/repository/booking"
	paymentRepo "cargo/database/repository/payment"
	"cargo/models"
	"cargo/services/notification"
	"cargo/services/tasks"
	"cargo/utils"

	"go.uber.org/zap"
)

// WebhookEvent is the provider callback payload. Events are keyed by the
// transaction reference we handed the gateway at charge time.
type WebhookEvent struct {
	Event                string `json:"event"`
	TransactionReference string `json:"transaction_reference"`
	ErrorMessage         string `json:"error_message"`
}

// Reconciler applies provider webhook events to the payment ledger.
// Application is idempotent: redelivered and out-of-order events settle as
// no-ops, never as double side effects.
type Reconciler interface {
	Apply(ctx context.Context, signature string, body []byte) error
}

// DefaultReconciler implements Reconciler with HMAC-SHA256 signature
// verification against the shared webhook secret.
type DefaultReconciler struct {
	Payments paymentRepo.Repository
	Bookings bookingRepo.Repository
	Notifier notification.Service
	Tasks    tasks.Scheduler
	Secret   string
}

// Apply verifies the signature, parses the event and drives the referenced
// payment. The error is one of the package sentinels (or a repository
// error) so the handler can map it to a status code.
func (r *DefaultReconciler) Apply(ctx context.Context, signature string, body []byte) error {
	logger := utils.GetLogger()

	if !r.verifySignature(signature, body) {
		return ErrBadSignature
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return ErrMalformedPayload
	}
	if event.Event == "" || event.TransactionReference == "" {
		return ErrMalformedPayload
	}

	payment, err := r.Payments.GetByReference(ctx, event.TransactionReference)
	if err != nil {
		return err
	}

	switch event.Event {
	case "payment.success":
		return r.applySuccess(ctx, payment)
	case "payment.failed":
		return r.applyFailed(ctx, payment, event.ErrorMessage)
	case "payment.refunded":
		return r.applyRefunded(ctx, payment)
	default:
		logger.Warn("unhandled webhook event",
			zap.String("event", event.Event),
			zap.String("reference", event.TransactionReference))
		return ErrUnhandledEvent
	}
}

// verifySignature checks the base64 HMAC-SHA256 of the raw body in constant
// time.
func (r *DefaultReconciler) verifySignature(signature string, body []byte) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(r.Secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (r *DefaultReconciler) applySuccess(ctx context.Context, payment *models.Payment) error {
	logger := utils.GetLogger()

	if payment.Status != models.PaymentPending {
		// Duplicate delivery or an event that lost the race with Capture.
		logger.Info("success webhook ignored, payment already settled",
			zap.String("reference", payment.TransactionReference),
			zap.String("status", string(payment.Status)))
		return nil
	}

	completed, err := r.Payments.MarkCompleted(ctx, payment.ID, "")
	if err != nil {
		if errors.Is(err, paymentRepo.ErrAlreadyApplied) || errors.Is(err, paymentRepo.ErrStateConflict) {
			return nil
		}
		return err
	}

	logger.Info("payment settled via webhook",
		zap.String("paymentNumber", completed.PaymentNumber),
		zap.String("reference", completed.TransactionReference))

	booking, err := r.Bookings.GetByID(ctx, completed.BookingID)
	if err != nil {
		logger.Warn("settled payment but booking lookup failed", zap.Error(err))
		return nil
	}
	if r.Notifier != nil {
		if err := r.Notifier.PaymentReceived(ctx, completed); err != nil {
			logger.Warn("payment notification failed", zap.Error(err))
		}
		if err := r.Notifier.BookingConfirmed(ctx, booking); err != nil {
			logger.Warn("confirmation notification failed", zap.Error(err))
		}
	}
	if r.Tasks != nil {
		if err := r.Tasks.ScheduleReminders(ctx, booking); err != nil {
			logger.Warn("failed to schedule pickup reminders", zap.Error(err))
		}
	}
	return nil
}

func (r *DefaultReconciler) applyFailed(ctx context.Context, payment *models.Payment, reason string) error {
	if payment.Status != models.PaymentPending {
		// A failed event after completion is out of order: the capture
		// already settled, so it stays settled.
		utils.GetLogger().Info("failed webhook ignored, payment already settled",
			zap.String("reference", payment.TransactionReference),
			zap.String("status", string(payment.Status)))
		return nil
	}
	if reason == "" {
		reason = "Payment failed at provider"
	}

	_, err := r.Payments.MarkFailed(ctx, payment.ID, reason)
	if errors.Is(err, paymentRepo.ErrAlreadyApplied) || errors.Is(err, paymentRepo.ErrStateConflict) {
		return nil
	}
	return err
}

func (r *DefaultReconciler) applyRefunded(ctx context.Context, payment *models.Payment) error {
	logger := utils.GetLogger()

	switch payment.Status {
	case models.PaymentRefunded:
		return nil
	case models.PaymentCompleted:
		_, err := r.Payments.MarkRefunded(ctx, payment.ID, payment.TotalAmount, "Refunded by provider")
		if errors.Is(err, paymentRepo.ErrAlreadyApplied) || errors.Is(err, paymentRepo.ErrStateConflict) {
			return nil
		}
		return err
	default:
		logger.Warn("refund webhook for a payment that never completed",
			zap.String("reference", payment.TransactionReference),
			zap.String("status", string(payment.Status)))
		return nil
	}
}
