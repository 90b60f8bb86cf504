package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"cargo/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// ChargeRequest is the provider-agnostic charge input. Amount is the full
// amount to collect (rental + fee + tax) in minor units.
type ChargeRequest struct {
	Amount      int64
	Currency    string
	Method      string
	Reference   string
	Description string
}

// GatewayReceipt is what a settled charge reports back.
type GatewayReceipt struct {
	Processor     string
	TransactionID string
	CardLastFour  string
}

// PaymentGateway abstracts the payment provider. Implementations must
// distinguish a definitive decline (*GatewayError with Declined set) from
// an unknown outcome (ErrGatewayPending or a context error): only the
// former may fail a payment.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*GatewayReceipt, error)
}

// StripeGateway charges through Stripe PaymentIntents. Card-style methods
// go to Stripe directly; wallet methods (GCash, PayMaya, QR) settle
// asynchronously and report back over the webhook.
type StripeGateway struct {
	Timeout time.Duration
}

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*GatewayReceipt, error) {
	logger := utils.GetLogger()

	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	// All configured methods ride the card rails on Stripe; the local
	// wallet methods are distinguished by metadata and settled via webhook.
	params := &stripe.PaymentIntentParams{
		Params:      stripe.Params{Context: ctx},
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Description: stripe.String(req.Description),
		Confirm:     stripe.Bool(true),
		PaymentMethodTypes: []*string{
			stripe.String("card"),
		},
	}
	params.AddMetadata("transaction_reference", req.Reference)
	params.AddMetadata("payment_method", req.Method)

	intent, err := paymentintent.New(params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			logger.Warn("gateway charge timed out",
				zap.String("reference", req.Reference))
			return nil, ErrGatewayPending
		}
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return nil, &GatewayError{
				Code:     string(stripeErr.Code),
				Message:  stripeErr.Msg,
				Declined: true,
			}
		}
		return nil, err
	}

	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		receipt := &GatewayReceipt{Processor: "Stripe", TransactionID: intent.ID}
		if intent.LatestCharge != nil && intent.LatestCharge.PaymentMethodDetails != nil &&
			intent.LatestCharge.PaymentMethodDetails.Card != nil {
			receipt.CardLastFour = intent.LatestCharge.PaymentMethodDetails.Card.Last4
		}
		return receipt, nil
	case stripe.PaymentIntentStatusCanceled:
		return nil, &GatewayError{
			Code:     string(intent.Status),
			Message:  "payment intent was canceled by the provider",
			Declined: true,
		}
	default:
		// requires_action / processing: the wallet flow finishes out of
		// band and the webhook settles the payment.
		logger.Info("gateway charge pending settlement",
			zap.String("reference", req.Reference),
			zap.String("intentStatus", string(intent.Status)))
		return nil, ErrGatewayPending
	}
}
