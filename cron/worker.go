package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"cargo/config"
	paymentRepo "cargo/database/repository/payment"
	"cargo/models"
	"cargo/services/notification"
	"cargo/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

// InitWorker runs the async worker in background. It delivers scheduled
// pickup reminders and sweeps payments whose gateway outcome never arrived.
func InitWorker(notifSvc notification.Service, payments paymentRepo.Repository) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, handleReminderTask(notifSvc))
	mux.HandleFunc(tasks.TypePaymentCheck, handlePaymentCheckTask(notifSvc, payments))

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[Worker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[Worker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[Worker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleReminderTask(notifSvc notification.Service) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ReminderHandler] Invalid payload: %v", err)
			return err
		}

		if err := notifSvc.PickupReminder(ctx, p); err != nil {
			log.Printf("[ReminderHandler] Failed to send reminder for %s: %v", p.BookingNumber, err)
			return err
		}
		return nil
	}
}

// handlePaymentCheckTask is the reconciliation sweep for payments left
// pending by a gateway timeout. It never fails a payment on its own: only a
// provider event (webhook or definitive decline) may do that. A payment
// still pending at check time is flagged for staff follow-up.
func handlePaymentCheckTask(notifSvc notification.Service, payments paymentRepo.Repository) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.PaymentCheckPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[PaymentCheckHandler] Invalid payload: %v", err)
			return err
		}

		payment, err := payments.GetByID(ctx, p.PaymentID)
		if err != nil {
			log.Printf("[PaymentCheckHandler] Lookup failed for %s: %v", p.PaymentID, err)
			return err
		}
		if payment.Status != models.PaymentPending {
			return nil
		}

		log.Printf("[PaymentCheckHandler] Payment %s still pending after gateway timeout", payment.PaymentNumber)
		if err := notifSvc.PaymentStalled(ctx, payment); err != nil {
			log.Printf("[PaymentCheckHandler] Failed to flag stalled payment: %v", err)
		}
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[Worker] Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
