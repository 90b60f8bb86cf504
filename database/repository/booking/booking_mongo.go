package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"cargo/database"
	"cargo/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo implements Repository using MongoDB.
type MongoBookingRepo struct {
	bookingColl *mongo.Collection
}

// NewMongoBookingRepo constructs a new instance of MongoBookingRepo.
func NewMongoBookingRepo() Repository {
	db := database.MongoClient.Database(database.DatabaseName)
	return &MongoBookingRepo{
		bookingColl: db.Collection("bookings"),
	}
}

// overlapFilter matches active bookings for the vehicle whose half-open
// interval [start_date, end_date) intersects [start, end).
func overlapFilter(vehicleID string, start, end time.Time, excludeBookingID string) bson.M {
	filter := bson.M{
		"vehicle_id": vehicleID,
		"status":     bson.M{"$nin": bson.A{models.BookingCancelled, models.BookingRejected}},
		"start_date": bson.M{"$lt": end},
		"end_date":   bson.M{"$gt": start},
	}
	if excludeBookingID != "" {
		filter["id"] = bson.M{"$ne": excludeBookingID}
	}
	return filter
}

// GetByID retrieves a booking document by ID.
func (repo *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := repo.bookingColl.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("error fetching booking with id %s: %w", id, err)
	}
	return &booking, nil
}

// List retrieves bookings matching the filter, newest start date first.
func (repo *MongoBookingRepo) List(ctx context.Context, f Filter) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.VehicleID != "" {
		filter["vehicle_id"] = f.VehicleID
	}
	if !f.FromDate.IsZero() {
		filter["start_date"] = bson.M{"$gte": f.FromDate}
	}
	if !f.ToDate.IsZero() {
		filter["end_date"] = bson.M{"$lte": f.ToDate}
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
		if f.Page > 1 {
			opts.SetSkip((f.Page - 1) * f.Limit)
		}
	}

	cursor, err := repo.bookingColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

// ListByUser retrieves a user's bookings, optionally filtered by status.
func (repo *MongoBookingRepo) ListByUser(ctx context.Context, userID string, status models.BookingStatus, page, limit int64) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"user_id": userID}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
		if page > 1 {
			opts.SetSkip((page - 1) * limit)
		}
	}

	cursor, err := repo.bookingColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing user bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding user bookings: %w", err)
	}
	return bookings, nil
}

// UpdateStatus applies a conditional status transition. The expected prior
// statuses are part of the filter so a concurrent transition makes the
// update match nothing instead of clobbering it.
func (repo *MongoBookingRepo) UpdateStatus(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus, reason string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": bson.M{"$in": from}}
	set := bson.M{"status": to, "updated_at": time.Now().UTC()}
	if to == models.BookingCancelled && reason != "" {
		set["cancellation_reason"] = reason
	} else if reason != "" {
		set["booking_notes"] = reason
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var booking models.Booking
	err := repo.bookingColl.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		// Distinguish a missing booking from a lost race.
		if _, getErr := repo.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrStatusConflict
	}
	if err != nil {
		return nil, fmt.Errorf("error updating booking status: %w", err)
	}
	return &booking, nil
}

// CountOverlapping reports how many active bookings intersect the interval.
// This read is advisory: it is not atomic with any subsequent write and may
// be stale by the time a reservation is attempted.
func (repo *MongoBookingRepo) CountOverlapping(ctx context.Context, vehicleID string, start, end time.Time, excludeBookingID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := repo.bookingColl.CountDocuments(ctx, overlapFilter(vehicleID, start, end, excludeBookingID))
	if err != nil {
		return 0, fmt.Errorf("error counting overlapping bookings: %w", err)
	}
	return count, nil
}
