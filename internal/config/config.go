package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Payroll  PayrollConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// PayrollConfig holds the salary computation engine knobs.
type PayrollConfig struct {
	// WorkerPoolSize bounds how many employees one run processes concurrently.
	WorkerPoolSize int
	// FetchRetryAttempts is how many times the per-employee data fetch phase
	// is attempted before that work unit is marked failed.
	FetchRetryAttempts int
	// FetchRetryBaseDelay is the initial backoff delay; it doubles per attempt.
	FetchRetryBaseDelay time.Duration
	// FailureThreshold is the fraction of failed employees above which the run
	// is marked failed. 0 means any failure fails the run.
	FailureThreshold float64
	// NonWorkingDays are weekdays excluded from the working-day count.
	NonWorkingDays []time.Weekday
}

func Load() (*Config, error) {
	// A missing .env file is fine in deployed environments; variables come
	// from the process environment there.
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "payroll_engine"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Payroll engine configuration
	workers, err := strconv.Atoi(getEnv("PAYROLL_WORKER_POOL_SIZE", "16"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_WORKER_POOL_SIZE: %w", err)
	}
	retryAttempts, err := strconv.Atoi(getEnv("PAYROLL_FETCH_RETRY_ATTEMPTS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_FETCH_RETRY_ATTEMPTS: %w", err)
	}
	retryDelay, err := time.ParseDuration(getEnv("PAYROLL_FETCH_RETRY_BASE_DELAY", "200ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_FETCH_RETRY_BASE_DELAY: %w", err)
	}
	failureThreshold, err := strconv.ParseFloat(getEnv("PAYROLL_FAILURE_THRESHOLD", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_FAILURE_THRESHOLD: %w", err)
	}
	nonWorkingDays, err := parseWeekdays(getEnv("PAYROLL_NON_WORKING_DAYS", "Saturday,Sunday"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_NON_WORKING_DAYS: %w", err)
	}

	config.Payroll = PayrollConfig{
		WorkerPoolSize:      workers,
		FetchRetryAttempts:  retryAttempts,
		FetchRetryBaseDelay: retryDelay,
		FailureThreshold:    failureThreshold,
		NonWorkingDays:      nonWorkingDays,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Payroll.WorkerPoolSize < 1 {
		return fmt.Errorf("PAYROLL_WORKER_POOL_SIZE must be at least 1")
	}
	if c.Payroll.FetchRetryAttempts < 1 {
		return fmt.Errorf("PAYROLL_FETCH_RETRY_ATTEMPTS must be at least 1")
	}
	if c.Payroll.FailureThreshold < 0 || c.Payroll.FailureThreshold > 1 {
		return fmt.Errorf("PAYROLL_FAILURE_THRESHOLD must be between 0 and 1")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekdays(value string) ([]time.Weekday, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	var days []time.Weekday
	for _, part := range strings.Split(value, ",") {
		day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		days = append(days, day)
	}
	return days, nil
}
