package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port string
	Env  string

	PayTraq PayTraqConfig
	Google  GoogleConfig
	Redis   RedisConfig
	Sync    SyncConfig
}

// PayTraqConfig contains credentials and the base URL for the PayTraq API.
type PayTraqConfig struct {
	APIKey   string
	APIToken string
	BaseURL  string
}

// HasCredentials reports whether the credential pair is configured.
func (c PayTraqConfig) HasCredentials() bool {
	return c.APIKey != "" && c.APIToken != ""
}

// GoogleConfig contains the service-account credential blob granting
// spreadsheet read/write scope.
type GoogleConfig struct {
	ServiceAccountJSON string
}

// RedisConfig contains Redis connection parameters for the optional
// advisory sync lock. Locking is disabled when Host is empty.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// SyncConfig contains tuning for catalog pagination and reconciliation.
type SyncConfig struct {
	Timezone       string
	PageDelay      time.Duration
	MaxPages       int
	LogGranularity string
	LockTTL        time.Duration
}

// Log granularity modes for the change log.
const (
	LogPerField  = "field"
	LogPerRecord = "record"
)

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

	// PayTraq. Missing credentials are not fatal here: data endpoints
	// answer 400 instead, so the health endpoint stays reachable.
	cfg.PayTraq = PayTraqConfig{
		APIKey:   getEnv("PAYTRAQ_API_KEY", ""),
		APIToken: getEnv("PAYTRAQ_API_TOKEN", ""),
		BaseURL:  getEnv("PAYTRAQ_BASE_URL", "https://go.paytraq.com/api"),
	}

	// Google service account (raw JSON blob). Same non-fatal treatment:
	// only the sheet endpoints require it.
	cfg.Google = GoogleConfig{
		ServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
	}

	// Redis (optional advisory sync lock)
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", ""),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Sync tuning
	cfg.Sync = SyncConfig{
		Timezone:       getEnv("SYNC_TIMEZONE", "Europe/Riga"),
		MaxPages:       getEnvInt("SYNC_MAX_PAGES", 500),
		LogGranularity: getEnv("SYNC_LOG_GRANULARITY", LogPerField),
	}

	var err error
	if cfg.Sync.PageDelay, err = parseDurationEnv("SYNC_PAGE_DELAY", "400ms"); err != nil {
		return nil, fmt.Errorf("invalid SYNC_PAGE_DELAY: %w", err)
	}
	if cfg.Sync.LockTTL, err = parseDurationEnv("SYNC_LOCK_TTL", "10m"); err != nil {
		return nil, fmt.Errorf("invalid SYNC_LOCK_TTL: %w", err)
	}

	if cfg.Sync.LogGranularity != LogPerField && cfg.Sync.LogGranularity != LogPerRecord {
		return nil, fmt.Errorf("invalid SYNC_LOG_GRANULARITY %q: expected %q or %q",
			cfg.Sync.LogGranularity, LogPerField, LogPerRecord)
	}
	if cfg.Sync.MaxPages <= 0 {
		return nil, fmt.Errorf("SYNC_MAX_PAGES must be > 0")
	}
	if _, err := time.LoadLocation(cfg.Sync.Timezone); err != nil {
		return nil, fmt.Errorf("invalid SYNC_TIMEZONE %q: %w", cfg.Sync.Timezone, err)
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
