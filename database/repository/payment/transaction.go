package paymentRepo

import (
	"context"
	"fmt"
	"time"

	"cargo/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MarkCompleted drives the payment pending -> completed and promotes the
// booking to confirmed/paid inside one transaction. A non-empty cardLastFour
// (known only when the capture path ran the charge) is persisted with the
// transition. A payment already completed yields ErrAlreadyApplied; any other
// status yields ErrStateConflict. The status precondition rides in the update
// filter, so concurrent webhook redeliveries cannot both apply.
func (repo *MongoPaymentRepo) MarkCompleted(ctx context.Context, id, cardLastFour string) (*models.Payment, error) {
	set := bson.M{"payment_status": models.PaymentCompleted}
	if cardLastFour != "" {
		set["card_last_four"] = cardLastFour
	}

	var payment models.Payment
	err := repo.withTxn(ctx, func(sc mongo.SessionContext) error {
		err := repo.transition(sc, id,
			bson.M{"id": id, "payment_status": models.PaymentPending},
			set,
			models.PaymentCompleted, &payment)
		if err != nil {
			return err
		}

		// Promote the booking. Matching zero documents here is fine: a prior
		// attempt for the same booking may already have confirmed it.
		bookingUpdate := bson.M{"$set": bson.M{
			"status":         models.BookingConfirmed,
			"payment_status": models.BookingPaid,
			"updated_at":     time.Now().UTC(),
		}}
		bookingFilter := bson.M{"id": payment.BookingID, "status": models.BookingPending}
		if _, err := repo.bookingColl.UpdateOne(sc, bookingFilter, bookingUpdate); err != nil {
			return fmt.Errorf("promote booking failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// MarkFailed drives the payment pending -> failed. The booking stays pending
// so the customer can retry with another attempt.
func (repo *MongoPaymentRepo) MarkFailed(ctx context.Context, id string, reason string) (*models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var payment models.Payment
	err := repo.transition(ctx, id,
		bson.M{"id": id, "payment_status": models.PaymentPending},
		bson.M{"payment_status": models.PaymentFailed, "failure_reason": reason},
		models.PaymentFailed, &payment)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// MarkRefunded drives the payment completed -> refunded and reverts the
// booking's payment_status to unpaid in the same transaction.
func (repo *MongoPaymentRepo) MarkRefunded(ctx context.Context, id string, amount int64, reason string) (*models.Payment, error) {
	var payment models.Payment
	err := repo.withTxn(ctx, func(sc mongo.SessionContext) error {
		err := repo.transition(sc, id,
			bson.M{"id": id, "payment_status": models.PaymentCompleted},
			bson.M{
				"payment_status": models.PaymentRefunded,
				"refund_amount":  amount,
				"refund_reason":  reason,
			},
			models.PaymentRefunded, &payment)
		if err != nil {
			return err
		}

		bookingUpdate := bson.M{"$set": bson.M{
			"payment_status": models.BookingUnpaid,
			"updated_at":     time.Now().UTC(),
		}}
		if _, err := repo.bookingColl.UpdateOne(sc, bson.M{"id": payment.BookingID}, bookingUpdate); err != nil {
			return fmt.Errorf("revert booking payment status failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// transition applies a conditional payment status update and classifies a
// zero-match result as either an idempotent duplicate or a state conflict.
func (repo *MongoPaymentRepo) transition(ctx context.Context, id string, filter, set bson.M, target models.PaymentStatus, out *models.Payment) error {
	set["updated_at"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := repo.paymentColl.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(out)
	if err == nil {
		return nil
	}
	if err != mongo.ErrNoDocuments {
		return fmt.Errorf("error updating payment status: %w", err)
	}

	current, getErr := repo.findOne(ctx, bson.M{"id": id})
	if getErr != nil {
		return getErr
	}
	if current.Status == target {
		*out = *current
		return ErrAlreadyApplied
	}
	return ErrStateConflict
}

// withTxn runs fn inside a Mongo transaction.
func (repo *MongoPaymentRepo) withTxn(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	client := repo.paymentColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
}
