package notification

import (
	"context"

	"cargo/models"
	"cargo/utils"

	"go.uber.org/zap"
)

// Service delivers customer-facing notifications. Delivery is best effort:
// callers log failures and continue, they never fail a transaction over a
// notification.
type Service interface {
	BookingConfirmed(ctx context.Context, b *models.Booking) error
	BookingCancelled(ctx context.Context, b *models.Booking) error
	PaymentReceived(ctx context.Context, p *models.Payment) error
	PaymentStalled(ctx context.Context, p *models.Payment) error
	PickupReminder(ctx context.Context, r models.ReminderPayload) error
}

// LogService is the default delivery backend: it writes structured log
// entries where a mail/SMS provider would be wired in.
type LogService struct{}

func NewLogService() *LogService { return &LogService{} }

func (s *LogService) BookingConfirmed(ctx context.Context, b *models.Booking) error {
	utils.GetLogger().Info("notify: booking confirmed",
		zap.String("bookingNumber", b.BookingNumber),
		zap.String("userID", b.UserID))
	return nil
}

func (s *LogService) BookingCancelled(ctx context.Context, b *models.Booking) error {
	utils.GetLogger().Info("notify: booking cancelled",
		zap.String("bookingNumber", b.BookingNumber),
		zap.String("userID", b.UserID),
		zap.String("reason", b.CancellationReason))
	return nil
}

func (s *LogService) PaymentReceived(ctx context.Context, p *models.Payment) error {
	utils.GetLogger().Info("notify: payment received",
		zap.String("paymentNumber", p.PaymentNumber),
		zap.String("bookingID", p.BookingID),
		zap.Int64("totalAmount", p.TotalAmount))
	return nil
}

func (s *LogService) PaymentStalled(ctx context.Context, p *models.Payment) error {
	utils.GetLogger().Warn("notify: payment still pending",
		zap.String("paymentNumber", p.PaymentNumber),
		zap.String("reference", p.TransactionReference))
	return nil
}

func (s *LogService) PickupReminder(ctx context.Context, r models.ReminderPayload) error {
	utils.GetLogger().Info("notify: pickup reminder",
		zap.String("bookingNumber", r.BookingNumber),
		zap.String("userID", r.UserID),
		zap.String("fireDate", r.FireDate))
	return nil
}
