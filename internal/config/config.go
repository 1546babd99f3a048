package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// SignatureTolerance bounds how far a webhook timestamp may drift from the server clock.
const SignatureTolerance = 300 * time.Second

type Config struct {
	// Server configuration
	Port string
	Mode string

	// Database configuration
	DatabaseURL  string
	SQLitePath   string
	StoreTimeout time.Duration

	// Redis configuration
	RedisURL    string
	DeliveryTTL time.Duration

	// Payment webhook configuration
	WebhookSecret string
	LiveMode      bool

	// Activation callback to the front-desk backend
	CallbackURL    string
	CallbackSecret string

	// Admin endpoints
	AdminAPIKey string
}

// Load reads configuration from the environment, honouring a local .env file.
func Load() (*Config, error) {
	// Load .env file; a missing file is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:          getEnv("PORT", "5000"),
		Mode:          getEnv("GIN_MODE", "debug"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "membership-api.db"),
		StoreTimeout:  time.Duration(getEnvInt("STORE_TIMEOUT_SECONDS", 5)) * time.Second,
		RedisURL:      getEnv("REDIS_URL", ""),
		DeliveryTTL:   time.Duration(getEnvInt("DELIVERY_TTL_HOURS", 24)) * time.Hour,
		WebhookSecret: strings.TrimSpace(getEnv("PAYMONGO_WEBHOOK_SECRET", "")),
		LiveMode:      getEnvBool("PAYMONGO_LIVE_MODE", false),
		AdminAPIKey:   strings.TrimSpace(getEnv("ADMIN_API_KEY", "")),

		CallbackURL:    getEnv("MEMBERSHIP_CALLBACK_URL", ""),
		CallbackSecret: getEnv("MEMBERSHIP_CALLBACK_SECRET", ""),
	}

	return cfg, nil
}

// SignatureCheckEnabled reports whether inbound webhooks must carry a valid signature.
func (c *Config) SignatureCheckEnabled() bool {
	return c.WebhookSecret != ""
}

// IsRelease reports whether the server runs in a production-like mode.
func (c *Config) IsRelease() bool {
	return c.Mode == "release"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
