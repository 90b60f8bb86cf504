package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"testing"

	paymentRepo "cargo/database/repository/payment"
	"cargo/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "webhook-test-secret"

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func successBody(reference string) []byte {
	return []byte(fmt.Sprintf(`{"event":"payment.success","transaction_reference":"%s"}`, reference))
}

// newTestReconciler seeds a booking with one pending payment and returns
// the reconciler plus the payment under test.
func newTestReconciler(t *testing.T) (*DefaultReconciler, *memStore, *recordingScheduler, *models.Payment) {
	t.Helper()
	store := newMemStore()
	store.addBooking(testBooking("bk-1"))
	sched := &recordingScheduler{}
	ledger := newTestLedger(store, &fakeGateway{}, sched)

	payment, err := ledger.CreatePayment(context.Background(), CreatePaymentRequest{
		BookingID: "bk-1", Amount: 750000, Method: "GCASH",
	})
	require.NoError(t, err)

	rec := &DefaultReconciler{
		Payments: store,
		Bookings: bookingStore{store},
		Tasks:    sched,
		Secret:   testSecret,
	}
	return rec, store, sched, payment
}

func TestWebhookSignature(t *testing.T) {
	rec, store, _, payment := newTestReconciler(t)
	ctx := context.Background()
	body := successBody(payment.TransactionReference)

	t.Run("MissingSignature", func(t *testing.T) {
		assert.ErrorIs(t, rec.Apply(ctx, "", body), ErrBadSignature)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		assert.ErrorIs(t, rec.Apply(ctx, sign("other-secret", body), body), ErrBadSignature)
	})

	t.Run("TamperedBody", func(t *testing.T) {
		tampered := successBody("PMT-FORGED-260601")
		assert.ErrorIs(t, rec.Apply(ctx, sign(testSecret, body), tampered), ErrBadSignature)
	})

	// None of the rejected deliveries may have touched the payment.
	stored, err := store.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, stored.Status)
}

func TestWebhookMalformedPayload(t *testing.T) {
	rec, _, _, _ := newTestReconciler(t)
	ctx := context.Background()

	for _, body := range [][]byte{
		[]byte(`not json`),
		[]byte(`{}`),
		[]byte(`{"event":"payment.success"}`),
		[]byte(`{"transaction_reference":"PMT-ABC123-260601"}`),
	} {
		assert.ErrorIs(t, rec.Apply(ctx, sign(testSecret, body), body), ErrMalformedPayload)
	}
}

func TestWebhookUnknownReference(t *testing.T) {
	rec, _, _, _ := newTestReconciler(t)
	body := successBody("PMT-NOSUCH-260601")
	err := rec.Apply(context.Background(), sign(testSecret, body), body)
	assert.ErrorIs(t, err, paymentRepo.ErrPaymentNotFound)
}

func TestWebhookUnhandledEvent(t *testing.T) {
	rec, _, _, payment := newTestReconciler(t)
	body := []byte(fmt.Sprintf(`{"event":"payment.disputed","transaction_reference":"%s"}`, payment.TransactionReference))
	err := rec.Apply(context.Background(), sign(testSecret, body), body)
	assert.ErrorIs(t, err, ErrUnhandledEvent)
}

func TestWebhookSuccess(t *testing.T) {
	rec, store, sched, payment := newTestReconciler(t)
	ctx := context.Background()
	body := successBody(payment.TransactionReference)

	require.NoError(t, rec.Apply(ctx, sign(testSecret, body), body))

	stored, err := store.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, stored.Status)

	booking := store.booking("bk-1")
	assert.Equal(t, models.BookingConfirmed, booking.Status)
	assert.Equal(t, models.BookingPaid, booking.PaymentStatus)
	assert.Equal(t, []string{"bk-1"}, sched.reminders)

	t.Run("RedeliveryIsNoOp", func(t *testing.T) {
		require.NoError(t, rec.Apply(ctx, sign(testSecret, body), body))
		assert.Equal(t, []string{"bk-1"}, sched.reminders, "side effects must not run twice")
	})
}

func TestWebhookFailed(t *testing.T) {
	rec, store, _, payment := newTestReconciler(t)
	ctx := context.Background()

	body := []byte(fmt.Sprintf(
		`{"event":"payment.failed","transaction_reference":"%s","error_message":"card expired"}`,
		payment.TransactionReference))
	require.NoError(t, rec.Apply(ctx, sign(testSecret, body), body))

	stored, err := store.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, stored.Status)
	assert.Equal(t, "card expired", stored.FailureReason)

	// The booking survives the failed attempt untouched.
	assert.Equal(t, models.BookingPending, store.booking("bk-1").Status)
}

// TestWebhookFailedAfterSuccess: an out-of-order failure event must not
// unsettle a completed payment.
func TestWebhookFailedAfterSuccess(t *testing.T) {
	rec, store, _, payment := newTestReconciler(t)
	ctx := context.Background()

	success := successBody(payment.TransactionReference)
	require.NoError(t, rec.Apply(ctx, sign(testSecret, success), success))

	failed := []byte(fmt.Sprintf(
		`{"event":"payment.failed","transaction_reference":"%s","error_message":"late failure"}`,
		payment.TransactionReference))
	require.NoError(t, rec.Apply(ctx, sign(testSecret, failed), failed))

	stored, err := store.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, stored.Status)
	assert.Equal(t, models.BookingPaid, store.booking("bk-1").PaymentStatus)
}

func TestWebhookRefunded(t *testing.T) {
	rec, store, _, payment := newTestReconciler(t)
	ctx := context.Background()

	refund := []byte(fmt.Sprintf(`{"event":"payment.refunded","transaction_reference":"%s"}`, payment.TransactionReference))

	t.Run("BeforeCompletionIsNoOp", func(t *testing.T) {
		require.NoError(t, rec.Apply(ctx, sign(testSecret, refund), refund))
		stored, err := store.GetByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPending, stored.Status)
	})

	success := successBody(payment.TransactionReference)
	require.NoError(t, rec.Apply(ctx, sign(testSecret, success), success))

	t.Run("AfterCompletionApplies", func(t *testing.T) {
		require.NoError(t, rec.Apply(ctx, sign(testSecret, refund), refund))
		stored, err := store.GetByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentRefunded, stored.Status)
		assert.Equal(t, stored.TotalAmount, stored.RefundAmount)
		assert.Equal(t, models.BookingUnpaid, store.booking("bk-1").PaymentStatus)
	})

	t.Run("RedeliveryIsNoOp", func(t *testing.T) {
		require.NoError(t, rec.Apply(ctx, sign(testSecret, refund), refund))
		stored, err := store.GetByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentRefunded, stored.Status)
	})
}
