package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort     string `mapstructure:"APP_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	Env         string `mapstructure:"ENV"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Payment provider.
	StripeKey     string `mapstructure:"STRIPE_KEY"`
	WebhookSecret string `mapstructure:"PAYMENT_WEBHOOK_SECRET"`
	Currency      string `mapstructure:"CURRENCY"`

	// Fee and tax rates in basis points (300 = 3%, 1200 = 12% VAT).
	ProcessingFeeBps int64    `mapstructure:"PROCESSING_FEE_BPS"`
	TaxRateBps       int64    `mapstructure:"TAX_RATE_BPS"`
	PaymentMethods   []string `mapstructure:"PAYMENT_METHODS"`

	// Booking business rules.
	MinRentalDays      int `mapstructure:"MIN_RENTAL_DAYS"`
	MaxRentalDays      int `mapstructure:"MAX_RENTAL_DAYS"`
	AdvanceBookingDays int `mapstructure:"ADVANCE_BOOKING_DAYS"`
	CancellationHours  int `mapstructure:"CANCELLATION_HOURS"`

	// Gateway and reconciliation timing.
	GatewayTimeoutSecs  int `mapstructure:"GATEWAY_TIMEOUT_SECS"`
	PendingCheckMinutes int `mapstructure:"PENDING_CHECK_MINUTES"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("CURRENCY", "PHP")
	viper.SetDefault("PROCESSING_FEE_BPS", 300)
	viper.SetDefault("TAX_RATE_BPS", 1200)
	viper.SetDefault("PAYMENT_METHODS", []string{"QR_CODE", "CREDIT_CARD", "DEBIT_CARD", "GCASH", "PAYMAYA"})
	viper.SetDefault("MIN_RENTAL_DAYS", 1)
	viper.SetDefault("MAX_RENTAL_DAYS", 30)
	viper.SetDefault("ADVANCE_BOOKING_DAYS", 90)
	viper.SetDefault("CANCELLATION_HOURS", 24)
	viper.SetDefault("GATEWAY_TIMEOUT_SECS", 30)
	viper.SetDefault("PENDING_CHECK_MINUTES", 30)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

// CancellationWindow is the minimum lead time before a booking's start
// required to allow cancellation.
func CancellationWindow() time.Duration {
	return time.Duration(AppConfig.CancellationHours) * time.Hour
}

// GatewayTimeout bounds the outbound payment-gateway call.
func GatewayTimeout() time.Duration {
	return time.Duration(AppConfig.GatewayTimeoutSecs) * time.Second
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
