package paymentRepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cargo/database"
	"cargo/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPaymentRepo implements Repository using MongoDB. It holds the booking
// collection as well because payment transitions cascade booking updates in
// the same transaction.
type MongoPaymentRepo struct {
	paymentColl *mongo.Collection
	bookingColl *mongo.Collection
}

// NewMongoPaymentRepo constructs a new instance of MongoPaymentRepo.
func NewMongoPaymentRepo() Repository {
	db := database.MongoClient.Database(database.DatabaseName)
	return &MongoPaymentRepo{
		paymentColl: db.Collection("payments"),
		bookingColl: db.Collection("bookings"),
	}
}

// activeAttemptIndex is the partial unique index allowing at most one
// pending-or-completed payment per booking. The insert, not a prior scan, is
// what decides a race between two concurrent attempts.
const activeAttemptIndex = "one_active_payment_per_booking"

// Create inserts a new payment document, classifying a duplicate-key
// rejection by the index that raised it.
func (repo *MongoPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.paymentColl.InsertOne(ctx, payment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), activeAttemptIndex) {
				return ErrActiveAttemptExists
			}
			return ErrDuplicateReference
		}
		return fmt.Errorf("error creating payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment document by ID.
func (repo *MongoPaymentRepo) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	return repo.findOne(ctx, bson.M{"id": id})
}

// GetByReference retrieves a payment by its transaction reference, the
// idempotency key used by webhook reconciliation.
func (repo *MongoPaymentRepo) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	return repo.findOne(ctx, bson.M{"transaction_reference": reference})
}

func (repo *MongoPaymentRepo) findOne(ctx context.Context, filter bson.M) (*models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var payment models.Payment
	if err := repo.paymentColl.FindOne(ctx, filter).Decode(&payment); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("error fetching payment: %w", err)
	}
	return &payment, nil
}

// ListByBooking retrieves all payment attempts for a booking.
func (repo *MongoPaymentRepo) ListByBooking(ctx context.Context, bookingID string) ([]models.Payment, error) {
	return repo.list(ctx, bson.M{"booking_id": bookingID}, 0, 0)
}

// List retrieves payments matching the filter, newest first.
func (repo *MongoPaymentRepo) List(ctx context.Context, f Filter) ([]models.Payment, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["payment_status"] = f.Status
	}
	if f.BookingID != "" {
		filter["booking_id"] = f.BookingID
	}
	created := bson.M{}
	if !f.FromDate.IsZero() {
		created["$gte"] = f.FromDate
	}
	if !f.ToDate.IsZero() {
		created["$lte"] = f.ToDate
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}
	return repo.list(ctx, filter, f.Page, f.Limit)
}

func (repo *MongoPaymentRepo) list(ctx context.Context, filter bson.M, page, limit int64) ([]models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
		if page > 1 {
			opts.SetSkip((page - 1) * limit)
		}
	}

	cursor, err := repo.paymentColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing payments: %w", err)
	}
	defer cursor.Close(ctx)

	var payments []models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("error decoding payments: %w", err)
	}
	return payments, nil
}

// EnsurePaymentIndexes creates the indexes the ledger depends on. The unique
// transaction_reference index is what makes the reference a safe idempotency
// key, and the partial booking_id index is what enforces one active payment
// per booking under concurrency.
func EnsurePaymentIndexes() error {
	coll := database.MongoClient.Database(database.DatabaseName).Collection("payments")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "transaction_reference", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "booking_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName(activeAttemptIndex).
				SetPartialFilterExpression(bson.M{
					"payment_status": bson.M{"$in": bson.A{models.PaymentPending, models.PaymentCompleted}},
				}),
		},
		{
			Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}

	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create payment indexes: %w", err)
	}
	return nil
}
