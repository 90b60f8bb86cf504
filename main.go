package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cargo/config"
	"cargo/cron"
	"cargo/database"
	bookingRepoPkg "cargo/database/repository/booking"
	paymentRepoPkg "cargo/database/repository/payment"
	vehicleRepoPkg "cargo/database/repository/vehicle"
	"cargo/handlers"
	"cargo/middleware"
	"cargo/routes"
	bookingSvc "cargo/services/booking"
	"cargo/services/notification"
	paymentSvc "cargo/services/payment"
	"cargo/services/tasks"
	"cargo/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.StartHealthMonitor(utils.GetCacheClient(), utils.GetAuthCacheClient(), database.MongoClient)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	bookingRepo := bookingRepoPkg.NewMongoBookingRepo()
	paymentRepo := paymentRepoPkg.NewMongoPaymentRepo()
	vehicleRepo := vehicleRepoPkg.NewMongoVehicleRepo()

	if err := bookingRepoPkg.EnsureBookingIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure booking indexes: %v", err)
	}
	if err := paymentRepoPkg.EnsurePaymentIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure payment indexes: %v", err)
	}

	// services.
	notificationService := notification.NewLogService()
	taskScheduler := tasks.NewAsynqScheduler()

	reservationService := &bookingSvc.DefaultReservationService{
		Repo:     bookingRepo,
		Vehicles: vehicleRepo,
		Notifier: notificationService,
		Rules: bookingSvc.Rules{
			MinRentalDays:      config.AppConfig.MinRentalDays,
			MaxRentalDays:      config.AppConfig.MaxRentalDays,
			AdvanceBookingDays: config.AppConfig.AdvanceBookingDays,
			CancellationWindow: config.CancellationWindow(),
		},
	}

	ledger := &paymentSvc.DefaultLedger{
		Payments: paymentRepo,
		Bookings: bookingRepo,
		Gateway:  &paymentSvc.StripeGateway{Timeout: config.GatewayTimeout()},
		Notifier: notificationService,
		Tasks:    taskScheduler,
		Settings: paymentSvc.Settings{
			Currency:          config.AppConfig.Currency,
			FeeRateBps:        config.AppConfig.ProcessingFeeBps,
			TaxRateBps:        config.AppConfig.TaxRateBps,
			Methods:           config.AppConfig.PaymentMethods,
			PendingCheckDelay: time.Duration(config.AppConfig.PendingCheckMinutes) * time.Minute,
		},
	}

	reconciler := &paymentSvc.DefaultReconciler{
		Payments: paymentRepo,
		Bookings: bookingRepo,
		Notifier: notificationService,
		Tasks:    taskScheduler,
		Secret:   config.AppConfig.WebhookSecret,
	}

	// Background worker for reminders and the pending-payment sweep.
	cron.InitWorker(notificationService, paymentRepo)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Bookings:   reservationService,
		Ledger:     ledger,
		Reconciler: reconciler,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}
	if err := database.CloseDB(shutdownCtx); err != nil {
		logger.Sugar().Warnf("main: failed to disconnect MongoDB: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
