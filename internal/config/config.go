package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Ledger behavior
	DefaultCurrency string
	// Transactions dated further in the future than this are rejected.
	FutureDatingAllowance time.Duration
	// Maximum time a mutation waits for its aggregate lock before
	// giving up with a Busy error.
	LockWaitTimeout time.Duration
	// Number of transactions included in the dashboard's recent list.
	RecentTransactionsLimit int

	// Scheduler
	SchedulerInterval time.Duration
	// Reminders whose date falls within this window are picked up
	// for notification.
	ReminderLeadTime time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "tirelire"),
		DBPassword: getEnv("DB_PASSWORD", "tirelire"),
		DBName:     getEnv("DB_NAME", "tirelire"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		DefaultCurrency:         getEnv("DEFAULT_CURRENCY", "XAF"),
		FutureDatingAllowance:   getEnvDuration("FUTURE_DATING_ALLOWANCE", 24*time.Hour),
		LockWaitTimeout:         getEnvDuration("LOCK_WAIT_TIMEOUT", 5*time.Second),
		RecentTransactionsLimit: getEnvInt("RECENT_TRANSACTIONS_LIMIT", 10),

		SchedulerInterval: getEnvDuration("SCHEDULER_INTERVAL", 15*time.Minute),
		ReminderLeadTime:  getEnvDuration("REMINDER_LEAD_TIME", time.Hour),
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration, loading it on first use.
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, value, fallback)
		return fallback
	}
	return d
}
