package vehicleRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cargo/database"
	"cargo/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrVehicleNotFound is returned when a vehicle lookup matches nothing.
var ErrVehicleNotFound = errors.New("vehicle not found")

// Repository is the narrow read contract the reservation core needs from the
// fleet. Vehicle CRUD is owned elsewhere.
type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Vehicle, error)
}

// MongoVehicleRepo implements Repository using MongoDB.
type MongoVehicleRepo struct {
	vehicleColl *mongo.Collection
}

// NewMongoVehicleRepo constructs a new instance of MongoVehicleRepo.
func NewMongoVehicleRepo() Repository {
	db := database.MongoClient.Database(database.DatabaseName)
	return &MongoVehicleRepo{
		vehicleColl: db.Collection("vehicles"),
	}
}

// GetByID retrieves a vehicle document by ID.
func (repo *MongoVehicleRepo) GetByID(ctx context.Context, id string) (*models.Vehicle, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var vehicle models.Vehicle
	if err := repo.vehicleColl.FindOne(ctx, bson.M{"id": id}).Decode(&vehicle); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("error fetching vehicle with id %s: %w", id, err)
	}
	return &vehicle, nil
}
