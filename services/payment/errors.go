package payment

import (
	"errors"
	"fmt"

	paymentRepo "cargo/database/repository/payment"
)

// Sentinel errors surfaced to the HTTP boundary.
var (
	// ErrPaymentNotFound mirrors the repository sentinel.
	ErrPaymentNotFound = paymentRepo.ErrPaymentNotFound
	// ErrUnsupportedMethod: the method is not in the configured allow-list.
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	// ErrInvalidAmount: zero/negative amount, or a refund above the
	// captured amount.
	ErrInvalidAmount = errors.New("invalid payment amount")
	// ErrBookingAlreadyPaid: the booking already settled.
	ErrBookingAlreadyPaid = errors.New("booking is already paid")
	// ErrPaymentAttemptPending: a previous attempt for this booking is
	// still awaiting its outcome.
	ErrPaymentAttemptPending = errors.New("a payment attempt for this booking is still pending")
	// ErrPaymentNotPending: capture requested on a payment already driven
	// to a terminal state.
	ErrPaymentNotPending = errors.New("payment is not pending")
	// ErrRefundNotAllowed: refunds are only legal from completed, once.
	ErrRefundNotAllowed = errors.New("payment cannot be refunded in its current state")
)

// Webhook reconciliation failures.
var (
	ErrBadSignature     = errors.New("webhook signature verification failed")
	ErrMalformedPayload = errors.New("webhook payload is missing required fields")
	ErrUnhandledEvent   = errors.New("unhandled webhook event type")
)

// GatewayError is a definitive rejection from the payment provider. A
// declined charge marks the payment failed; transport failures and timeouts
// never do (the payment stays pending for reconciliation).
type GatewayError struct {
	Code     string
	Message  string
	Declined bool
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %s", e.Code, e.Message)
}

// ErrGatewayPending signals the provider accepted the charge but has not
// settled it yet; the webhook or the reconciliation sweep finishes the job.
var ErrGatewayPending = errors.New("gateway result pending")
