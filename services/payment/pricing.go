package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Quote is the fee breakdown for a charge. All values are minor currency
// units (centavos); rates are basis points, truncated toward zero.
type Quote struct {
	Amount        int64
	ProcessingFee int64
	TaxAmount     int64
	Total         int64
}

// PriceCharge computes the processing fee and tax on top of amount.
// Total is always Amount + ProcessingFee + TaxAmount exactly.
func PriceCharge(amount, feeRateBps, taxRateBps int64) Quote {
	fee := amount * feeRateBps / 10000
	tax := amount * taxRateBps / 10000
	return Quote{
		Amount:        amount,
		ProcessingFee: fee,
		TaxAmount:     tax,
		Total:         amount + fee + tax,
	}
}

// newPaymentNumber produces a human-readable payment number like
// PY-8C01DA-250614.
func newPaymentNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("PY-%s-%s", suffix, now.Format("060102"))
}

// newTransactionReference produces the provider-facing reference like
// PMT-4B77E2-250614. It is unique per attempt and is the key webhooks use
// to find the payment again.
func newTransactionReference(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("PMT-%s-%s", suffix, now.Format("060102"))
}
