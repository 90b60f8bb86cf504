package models

import "time"

// PaymentStatus enumerates payment lifecycle states. Completed, failed and
// refunded are terminal; the only permitted transition out of a terminal
// state is completed -> refunded.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// IsTerminal reports whether s permits no further transition except the
// completed -> refunded case.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentCompleted || s == PaymentFailed || s == PaymentRefunded
}

// Payment is one settlement attempt against a booking. A booking may carry
// several failed attempts but at most one completed payment.
// All amounts are minor units (centavos).
type Payment struct {
	ID                   string        `bson:"id" json:"id"`
	PaymentNumber        string        `bson:"payment_number" json:"payment_number"`
	BookingID            string        `bson:"booking_id" json:"booking_id"`
	Amount               int64         `bson:"amount" json:"amount"`
	ProcessingFee        int64         `bson:"processing_fee" json:"processing_fee"`
	TaxAmount            int64         `bson:"tax_amount" json:"tax_amount"`
	TotalAmount          int64         `bson:"total_amount" json:"total_amount"`
	Currency             string        `bson:"currency" json:"currency"`
	Method               string        `bson:"payment_method" json:"payment_method"`
	Status               PaymentStatus `bson:"payment_status" json:"payment_status"`
	TransactionReference string        `bson:"transaction_reference" json:"transaction_reference"`
	CardLastFour         string        `bson:"card_last_four,omitempty" json:"card_last_four,omitempty"`
	FailureReason        string        `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	RefundAmount         int64         `bson:"refund_amount,omitempty" json:"refund_amount,omitempty"`
	RefundReason         string        `bson:"refund_reason,omitempty" json:"refund_reason,omitempty"`
	CreatedAt            time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time     `bson:"updated_at" json:"updated_at"`
}
