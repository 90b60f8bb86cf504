package models

import "time"

// Vehicle statuses. Only active vehicles accept reservations.
const (
	VehicleActive      = "active"
	VehicleDisabled    = "disabled"
	VehicleMaintenance = "maintenance"
)

// Vehicle is the reservable resource. Fleet CRUD lives outside this service;
// the reservation core only reads vehicles to price and gate bookings.
type Vehicle struct {
	ID           string    `bson:"id" json:"id"`
	Make         string    `bson:"make" json:"make"`
	Model        string    `bson:"model" json:"model"`
	LicensePlate string    `bson:"license_plate" json:"license_plate"`
	VehicleType  string    `bson:"vehicle_type" json:"vehicle_type"`
	DailyRate    int64     `bson:"daily_rate" json:"daily_rate"` // minor units per day
	Status       string    `bson:"status" json:"status"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// Bookable reports whether the vehicle may take new reservations.
func (v *Vehicle) Bookable() bool {
	return v.Status == VehicleActive
}
