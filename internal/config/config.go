package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	Logger LoggerConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	Billing      BillingConfig
	Notification NotificationConfig
	Reconciler   ReconcilerConfig
}

type LoggerConfig struct {
	Level string
	// Format selects the encoder, "json" or "console".
	Format string
}

// BillingConfig carries engine-wide billing defaults.
type BillingConfig struct {
	// Currency for generated invoices, ISO 4217.
	Currency string
	// GraceDays is the window between invoice issue and due date.
	GraceDays int
	// DefaultTrialDays applies when a package does not set its own.
	DefaultTrialDays int
}

type NotificationConfig struct {
	Enabled              bool
	PostmarkServerToken  string
	PostmarkAccountToken string
	SenderEmail          string
	SendTimeout          time.Duration
}

type ReconcilerConfig struct {
	RunInterval time.Duration
	BatchSize   int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "nusabill"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		Logger: LoggerConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "json"),
		},

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "nusabill"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		Billing: BillingConfig{
			Currency:         getenv("BILLING_CURRENCY", "IDR"),
			GraceDays:        getenvInt("BILLING_GRACE_DAYS", 7),
			DefaultTrialDays: getenvInt("BILLING_DEFAULT_TRIAL_DAYS", 14),
		},
		Notification: NotificationConfig{
			Enabled:              getenvBool("NOTIFICATION_ENABLED", false),
			PostmarkServerToken:  strings.TrimSpace(getenv("POSTMARK_SERVER_TOKEN", "")),
			PostmarkAccountToken: strings.TrimSpace(getenv("POSTMARK_ACCOUNT_TOKEN", "")),
			SenderEmail:          getenv("NOTIFICATION_SENDER_EMAIL", "billing@nusabill.id"),
			SendTimeout:          getenvDuration("NOTIFICATION_SEND_TIMEOUT", 5*time.Second),
		},
		Reconciler: ReconcilerConfig{
			RunInterval: getenvDuration("RECONCILER_RUN_INTERVAL", time.Hour),
			BatchSize:   getenvInt("RECONCILER_BATCH_SIZE", 100),
		},
	}
}

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: invalid int for %s: %q", key, raw)
		return fallback
	}
	return value
}

func getenvBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("config: invalid bool for %s: %q", key, raw)
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config: invalid duration for %s: %q", key, raw)
		return fallback
	}
	return value
}

// Module wires configuration loading for the application.
var Module = fx.Module("config",
	fx.Provide(Load),
)
