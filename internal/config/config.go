package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string

	// CredentialKey encrypts marketplace tokens at rest (32 bytes).
	CredentialKey string

	DB     DatabaseConfig
	Redis  RedisConfig
	Ebay   EbayConfig
	Worker WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// EbayConfig contains the marketplace application credentials and tuning.
type EbayConfig struct {
	ClientID          string
	ClientSecret      string
	RedirectURI       string // RuName registered with the developer account
	VerificationToken string // pre-shared secret for webhook challenges
	WebhookEndpoint   string // public URL registered for notifications
	Sandbox           bool

	CallTimeout time.Duration // budget for a single outbound call
	RateLimit   float64       // outbound calls per second (token bucket)
	RateBurst   int
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	OrderSyncInterval time.Duration
	OrderSyncWindow   time.Duration

	// PublishConcurrency bounds the worker pool used by batch operations.
	PublishConcurrency int
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.CredentialKey = getEnv("CREDENTIAL_ENCRYPTION_KEY", "")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Marketplace application
	cfg.Ebay = EbayConfig{
		ClientID:          getEnv("EBAY_CLIENT_ID", ""),
		ClientSecret:      getEnv("EBAY_CLIENT_SECRET", ""),
		RedirectURI:       getEnv("EBAY_REDIRECT_URI", ""),
		VerificationToken: getEnv("EBAY_VERIFICATION_TOKEN", ""),
		WebhookEndpoint:   getEnv("EBAY_WEBHOOK_ENDPOINT", ""),
		Sandbox:           getEnv("EBAY_SANDBOX", "true") == "true",
		RateBurst:         getEnvInt("EBAY_RATE_BURST", 5),
	}

	var err error
	if cfg.Ebay.CallTimeout, err = parseDurationEnv("EBAY_CALL_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid EBAY_CALL_TIMEOUT: %w", err)
	}
	if cfg.Ebay.RateLimit, err = parseFloatEnv("EBAY_RATE_LIMIT", "4"); err != nil {
		return nil, fmt.Errorf("invalid EBAY_RATE_LIMIT: %w", err)
	}

	// Workers (durations)
	if cfg.Worker.OrderSyncInterval, err = parseDurationEnv("ORDER_SYNC_INTERVAL", "15m"); err != nil {
		return nil, fmt.Errorf("invalid ORDER_SYNC_INTERVAL: %w", err)
	}
	if cfg.Worker.OrderSyncWindow, err = parseDurationEnv("ORDER_SYNC_WINDOW", "24h"); err != nil {
		return nil, fmt.Errorf("invalid ORDER_SYNC_WINDOW: %w", err)
	}
	cfg.Worker.PublishConcurrency = getEnvInt("PUBLISH_CONCURRENCY", 2)
	if cfg.Worker.PublishConcurrency < 1 {
		cfg.Worker.PublishConcurrency = 1
	}

	// Basic validation for the parameters the process cannot run without.
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}
	if len(cfg.CredentialKey) != 32 {
		return nil, errors.New("CREDENTIAL_ENCRYPTION_KEY must be exactly 32 bytes")
	}
	if cfg.Ebay.ClientID == "" || cfg.Ebay.ClientSecret == "" {
		return nil, errors.New("marketplace configuration incomplete: ensure EBAY_CLIENT_ID and EBAY_CLIENT_SECRET are set")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

// parseFloatEnv reads an environment variable and parses it as float64.
func parseFloatEnv(key, def string) (float64, error) {
	raw := getEnv(key, def)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, fmt.Errorf("value must be > 0")
	}
	return f, nil
}
