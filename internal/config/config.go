package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Env       string
	Port      string
	JWTSecret string

	// BaseURL is the public URL used when building pairing links and QR codes
	BaseURL string

	Database DatabaseConfig
	Pairing  PairingConfig
	Sync     SyncConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// PairingConfig controls pairing artifact issuance
type PairingConfig struct {
	Validity       time.Duration // how long a pairing token stays redeemable
	DeviceTokenTTL time.Duration // lifetime of the long-lived device credential
}

// SyncConfig controls the offline sale reconciler
type SyncConfig struct {
	PollInterval  time.Duration // how often the retry driver wakes up
	IngestTimeout time.Duration // upper bound on a single sale ingestion call
	MaxAttempts   int           // attempts before an item is parked as failed
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		Env:       getEnv("APP_ENV", "development"),
		Port:      getEnv("PORT", "3001"),
		JWTSecret: jwtSecret,
		BaseURL:   getEnv("BASE_URL", "http://localhost:3001"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "clubpos"),
		},
		Pairing: PairingConfig{
			Validity:       getEnvDuration("PAIRING_VALIDITY", time.Hour),
			DeviceTokenTTL: getEnvDuration("DEVICE_TOKEN_TTL", 30*24*time.Hour),
		},
		Sync: SyncConfig{
			PollInterval:  getEnvDuration("SYNC_POLL_INTERVAL", time.Minute),
			IngestTimeout: getEnvDuration("SYNC_INGEST_TIMEOUT", 15*time.Second),
			MaxAttempts:   getEnvInt("SYNC_MAX_ATTEMPTS", 10),
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
