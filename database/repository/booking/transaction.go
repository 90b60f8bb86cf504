package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"cargo/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// reserveAttempts bounds retries on transient transaction errors before the
// conflict is surfaced to the caller.
const reserveAttempts = 3

// Reserve inserts the booking only if no active booking overlaps its
// interval. The overlap re-check and the insert run inside one transaction,
// so two concurrent attempts for the same vehicle cannot both pass the check.
func (repo *MongoBookingRepo) Reserve(ctx context.Context, booking *models.Booking) error {
	return repo.withReservationTxn(ctx, func(sc mongo.SessionContext) error {
		count, err := repo.bookingColl.CountDocuments(sc,
			overlapFilter(booking.VehicleID, booking.StartDate, booking.EndDate, ""))
		if err != nil {
			return fmt.Errorf("overlap re-check failed: %w", err)
		}
		if count > 0 {
			return ErrVehicleUnavailable
		}
		if _, err := repo.bookingColl.InsertOne(sc, booking); err != nil {
			return fmt.Errorf("insert booking failed: %w", err)
		}
		return nil
	})
}

// Reschedule moves a pending or confirmed booking to a new interval,
// re-validating both the booking's status and availability (excluding the
// booking itself) in the same transaction as the update, so a lifecycle
// transition landing after the caller's status check cannot slip through.
func (repo *MongoBookingRepo) Reschedule(ctx context.Context, bookingID string, start, end time.Time, totalAmount int64) (*models.Booking, error) {
	var updated models.Booking
	err := repo.withReservationTxn(ctx, func(sc mongo.SessionContext) error {
		var current models.Booking
		if err := repo.bookingColl.FindOne(sc, bson.M{"id": bookingID}).Decode(&current); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrBookingNotFound
			}
			return fmt.Errorf("fetch booking failed: %w", err)
		}
		if current.Status != models.BookingPending && current.Status != models.BookingConfirmed {
			return ErrStatusConflict
		}

		count, err := repo.bookingColl.CountDocuments(sc,
			overlapFilter(current.VehicleID, start, end, bookingID))
		if err != nil {
			return fmt.Errorf("overlap re-check failed: %w", err)
		}
		if count > 0 {
			return ErrVehicleUnavailable
		}

		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		update := bson.M{"$set": bson.M{
			"start_date":   start,
			"end_date":     end,
			"total_amount": totalAmount,
			"updated_at":   time.Now().UTC(),
		}}
		if err := repo.bookingColl.FindOneAndUpdate(sc, bson.M{"id": bookingID}, update, opts).Decode(&updated); err != nil {
			return fmt.Errorf("update booking failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// withReservationTxn runs fn inside a Mongo transaction, retrying a bounded
// number of times when the server reports a transient transaction error.
func (repo *MongoBookingRepo) withReservationTxn(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	client := repo.bookingColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	var lastErr error
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		lastErr = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
			if err := sc.StartTransaction(); err != nil {
				return err
			}
			if err := fn(sc); err != nil {
				_ = sc.AbortTransaction(sc)
				return err
			}
			return sc.CommitTransaction(sc)
		})
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("reservation transaction failed: %w", lastErr)
}

func isTransient(err error) bool {
	if le, ok := err.(mongo.ServerError); ok {
		return le.HasErrorLabel("TransientTransactionError") ||
			le.HasErrorLabel("UnknownTransactionCommitResult")
	}
	return false
}
