package models

import "time"

// BookingStatus enumerates the booking lifecycle states.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingOngoing   BookingStatus = "ongoing"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingRejected  BookingStatus = "rejected"
)

// ParseBookingStatus validates a raw status value from the API boundary.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingOngoing,
		BookingCompleted, BookingCancelled, BookingRejected:
		return BookingStatus(s), true
	}
	return "", false
}

// IsTerminal reports whether no further transition is permitted from s.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCompleted || s == BookingCancelled || s == BookingRejected
}

// IsActive reports whether a booking in this status still occupies its
// vehicle for the booked interval.
func (s BookingStatus) IsActive() bool {
	return s != BookingCancelled && s != BookingRejected
}

// Booking payment settlement states.
const (
	BookingUnpaid = "unpaid"
	BookingPaid   = "paid"
)

// Booking represents a vehicle reservation over a half-open date interval
// [StartDate, EndDate). Dates are stored at UTC midnight, day granularity.
type Booking struct {
	ID                 string        `bson:"id" json:"id"`
	BookingNumber      string        `bson:"booking_number" json:"booking_number"`
	VehicleID          string        `bson:"vehicle_id" json:"vehicle_id"`
	UserID             string        `bson:"user_id" json:"user_id"`
	StartDate          time.Time     `bson:"start_date" json:"start_date"`
	EndDate            time.Time     `bson:"end_date" json:"end_date"` // exclusive
	PickupLocation     string        `bson:"pickup_location" json:"pickup_location"`
	ReturnLocation     string        `bson:"return_location" json:"return_location"`
	WithDriver         bool          `bson:"with_driver" json:"with_driver"`
	Notes              string        `bson:"booking_notes,omitempty" json:"booking_notes,omitempty"`
	Status             BookingStatus `bson:"status" json:"status"`
	PaymentStatus      string        `bson:"payment_status" json:"payment_status"`
	TotalAmount        int64         `bson:"total_amount" json:"total_amount"` // minor units
	CancellationReason string        `bson:"cancellation_reason,omitempty" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `bson:"updated_at" json:"updated_at"`
}

// RentalDays returns the booked length in whole days.
func (b *Booking) RentalDays() int {
	return int(b.EndDate.Sub(b.StartDate).Hours() / 24)
}
