package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	App       AppConfig
	Cron      CronConfig
	FaceMatch FaceMatchConfig
	Payroll   PayrollConfig
	Storage   StorageConfig
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
	Port        int
	Env         string
	LogLevel    string
	Timezone    string
	FrontendURL string
}

// CronConfig controls the in-process job scheduler
type CronConfig struct {
	Enabled       bool
	CheckInterval time.Duration
	Workers       int
}

// FaceMatchConfig points at the face recognition collaborator
type FaceMatchConfig struct {
	URL           string
	APIKey        string
	Timeout       time.Duration
	MinSimilarity float64
}

// PayrollConfig holds pre-payroll settings
type PayrollConfig struct {
	UnpaidIncidentCodes []string
}

// StorageConfig controls where clocking photos are archived. An empty
// PhotoDir disables archiving.
type StorageConfig struct {
	PhotoDir string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file loaded, using process environment", "error", err)
	}

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
		Name:     getEnv("DB_NAME", "timeclock"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Timezone:    getEnv("APP_TIMEZONE", "America/Mexico_City"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Cron configuration
	cronEnabled, err := strconv.ParseBool(getEnv("CRON_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_ENABLED: %w", err)
	}
	cronInterval, err := time.ParseDuration(getEnv("CRON_CHECK_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_CHECK_INTERVAL: %w", err)
	}
	cronWorkers, err := strconv.Atoi(getEnv("CRON_WORKERS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_WORKERS: %w", err)
	}
	config.Cron = CronConfig{
		Enabled:       cronEnabled,
		CheckInterval: cronInterval,
		Workers:       cronWorkers,
	}

	// Face match configuration
	faceTimeout, err := time.ParseDuration(getEnv("FACE_MATCH_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid FACE_MATCH_TIMEOUT: %w", err)
	}
	minSimilarity, err := strconv.ParseFloat(getEnv("FACE_MATCH_MIN_SIMILARITY", "90"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid FACE_MATCH_MIN_SIMILARITY: %w", err)
	}
	config.FaceMatch = FaceMatchConfig{
		URL:           getEnv("FACE_MATCH_URL", ""),
		APIKey:        getEnv("FACE_MATCH_API_KEY", ""),
		Timeout:       faceTimeout,
		MinSimilarity: minSimilarity,
	}

	config.Payroll = PayrollConfig{
		UnpaidIncidentCodes: getEnvSlice("PAYROLL_UNPAID_CODES", []string{"F_INJUST", "P_SIN_GOCE"}),
	}

	config.Storage = StorageConfig{
		PhotoDir: getEnv("CLOCK_PHOTO_DIR", ""),
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
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.App.Timezone, err)
	}
	if c.Cron.Workers < 1 {
		return fmt.Errorf("CRON_WORKERS must be at least 1")
	}
	return nil
}

// Location returns the business time zone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlogLevel maps LOG_LEVEL to a slog level
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
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

func getEnvSlice(env string, fallback []string) []string {
	value := getEnv(env, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
