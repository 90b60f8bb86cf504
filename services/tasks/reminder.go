package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cargo/config"
	"cargo/models"
	"cargo/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeSendReminder = "reminder:send"
	TypePaymentCheck = "payment:check"
)

// Reminder lead times before the rental start.
var reminderLeads = []time.Duration{24 * time.Hour, 2 * time.Hour}

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{asynq.ProcessAt(fireAt)}

	return task, opts, nil
}

func NewPaymentCheckTask(payload models.PaymentCheckPayload, delay time.Duration) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypePaymentCheck, b)
	opts := []asynq.Option{asynq.ProcessIn(delay)}

	return task, opts, nil
}

// Scheduler enqueues deferred work. Schedules are best effort: callers log
// failures and continue.
type Scheduler interface {
	ScheduleReminders(ctx context.Context, b *models.Booking) error
	SchedulePaymentCheck(ctx context.Context, paymentID string, delay time.Duration) error
}

// AsynqScheduler enqueues onto the Redis-backed asynq queue.
type AsynqScheduler struct {
	Client *asynq.Client
}

func NewAsynqScheduler() *AsynqScheduler {
	return &AsynqScheduler{
		Client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisQueueDB,
		}),
	}
}

// ScheduleReminders enqueues a pickup reminder per lead time that is still
// in the future.
func (s *AsynqScheduler) ScheduleReminders(ctx context.Context, b *models.Booking) error {
	logger := utils.GetLogger()

	for _, lead := range reminderLeads {
		fireAt := b.StartDate.Add(-lead)
		if !fireAt.After(time.Now()) {
			continue
		}

		payload := models.ReminderPayload{
			BookingID:     b.ID,
			BookingNumber: b.BookingNumber,
			UserID:        b.UserID,
			FireDate:      fireAt.Format(time.RFC3339),
			Title:         "Upcoming vehicle pickup",
			Body:          fmt.Sprintf("Booking %s starts %s", b.BookingNumber, b.StartDate.Format("Jan 2, 2006")),
		}

		task, opts, err := NewReminderTask(payload, fireAt)
		if err != nil {
			return err
		}
		if _, err := s.Client.Enqueue(task, opts...); err != nil {
			logger.Error("failed to enqueue reminder task",
				zap.Error(err), zap.String("bookingNumber", b.BookingNumber))
			return err
		}
	}
	return nil
}

// SchedulePaymentCheck enqueues a deferred check on a pending payment.
func (s *AsynqScheduler) SchedulePaymentCheck(ctx context.Context, paymentID string, delay time.Duration) error {
	task, opts, err := NewPaymentCheckTask(models.PaymentCheckPayload{PaymentID: paymentID}, delay)
	if err != nil {
		return err
	}
	if _, err := s.Client.Enqueue(task, opts...); err != nil {
		utils.GetLogger().Error("failed to enqueue payment check task",
			zap.Error(err), zap.String("paymentID", paymentID))
		return err
	}
	return nil
}

// NoopScheduler drops all schedules. Used in tests and when the queue is
// disabled.
type NoopScheduler struct{}

func (NoopScheduler) ScheduleReminders(ctx context.Context, b *models.Booking) error {
	return nil
}

func (NoopScheduler) SchedulePaymentCheck(ctx context.Context, paymentID string, delay time.Duration) error {
	return nil
}
