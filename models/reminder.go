package models

// ReminderPayload is the asynq task payload for scheduled pickup reminders.
type ReminderPayload struct {
	BookingID     string `json:"bookingId"`
	BookingNumber string `json:"bookingNumber"`
	UserID        string `json:"userId"`
	FireDate      string `json:"fireDate"`
	Title         string `json:"title"`
	Body          string `json:"body"`
}

// PaymentCheckPayload is the asynq task payload for the pending-payment
// reconciliation sweep.
type PaymentCheckPayload struct {
	PaymentID string `json:"paymentId"`
}
