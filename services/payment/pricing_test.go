package payment

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriceCharge(t *testing.T) {
	// 3% processing fee, 12% VAT.
	q := PriceCharge(100000, 300, 1200)
	assert.Equal(t, int64(100000), q.Amount)
	assert.Equal(t, int64(3000), q.ProcessingFee)
	assert.Equal(t, int64(12000), q.TaxAmount)
	assert.Equal(t, int64(115000), q.Total)
}

func TestPriceChargeTruncation(t *testing.T) {
	// 33 * 300 / 10000 = 0.99 truncates to 0; the total still reconciles.
	q := PriceCharge(33, 300, 1200)
	assert.Equal(t, int64(0), q.ProcessingFee)
	assert.Equal(t, int64(0), q.TaxAmount)
	assert.Equal(t, q.Amount+q.ProcessingFee+q.TaxAmount, q.Total)
}

// TestPriceChargeReconciles checks the ledger identity over random amounts:
// the parts always sum to the total, with no drift from rounding.
func TestPriceChargeReconciles(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		amount := rng.Int63n(10_000_000) + 1
		q := PriceCharge(amount, 300, 1200)
		assert.Equal(t, q.Amount+q.ProcessingFee+q.TaxAmount, q.Total, "amount %d", amount)
		assert.GreaterOrEqual(t, q.ProcessingFee, int64(0))
		assert.GreaterOrEqual(t, q.TaxAmount, int64(0))
	}
}

func TestReferenceFormats(t *testing.T) {
	now := time.Date(2026, 6, 14, 9, 0, 0, 0, time.UTC)
	assert.Regexp(t, `^PY-[0-9A-F]{6}-260614$`, newPaymentNumber(now))
	assert.Regexp(t, `^PMT-[0-9A-F]{6}-260614$`, newTransactionReference(now))
}
