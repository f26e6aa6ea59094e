// Package config provides centralized configuration for the notes service.
// It loads configuration from CLI flags and environment variables, validates
// required fields, and provides sensible defaults.
package config

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arkadyev/zametki/internal/ratelimit"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	ListenAddr   string
	BaseURL      string
	TemplatesDir string

	// Storage
	DataDir         string // directory for the SQLite database file
	DatabaseKey     string // optional 64 hex chars (32 bytes) SQLCipher key; empty disables encryption
	SessionDuration time.Duration

	// Rate limiting for auth endpoints
	RateLimit ratelimit.Config
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// ParseFlags parses CLI flags. Call before Load.
func ParseFlags() (addr string) {
	flag.StringVar(&addr, "addr", "", "Listen address (default :8080, overrides LISTEN_ADDR env var)")
	flag.Parse()
	return addr
}

// Load loads configuration from environment variables and CLI flag values.
// The addr flag overrides the LISTEN_ADDR env var if non-empty.
func Load(addr string) (*Config, error) {
	cfg := &Config{}

	cfg.ListenAddr = getEnvOrDefault("LISTEN_ADDR", ":8080")
	if addr != "" {
		cfg.ListenAddr = addr
	}
	cfg.BaseURL = strings.TrimSpace(os.Getenv("BASE_URL"))
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost" + cfg.ListenAddr
	}
	cfg.TemplatesDir = getEnvOrDefault("TEMPLATES_DIR", "./web/templates")

	cfg.DataDir = getEnvOrDefault("DATA_DIR", "./data")
	cfg.DatabaseKey = strings.TrimSpace(os.Getenv("DB_KEY"))
	cfg.SessionDuration = parseDurationOrDefault("SESSION_DURATION", 24*time.Hour)

	cfg.RateLimit = ratelimit.Config{
		RPS:             parseFloat64OrDefault("AUTH_RATE_LIMIT_RPS", 5),
		Burst:           parseIntOrDefault("AUTH_RATE_LIMIT_BURST", 10),
		CleanupInterval: parseDurationOrDefault("AUTH_RATE_LIMIT_CLEANUP_INTERVAL", time.Hour),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var issues []string

	if c.DatabaseKey != "" {
		key, err := hex.DecodeString(c.DatabaseKey)
		if err != nil || len(key) != 32 {
			issues = append(issues, "DB_KEY must be 64 hex characters (32 bytes)")
		}
	}
	if c.SessionDuration <= 0 {
		issues = append(issues, "SESSION_DURATION must be positive")
	}
	if c.RateLimit.RPS <= 0 {
		issues = append(issues, "AUTH_RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimit.Burst <= 0 {
		issues = append(issues, "AUTH_RATE_LIMIT_BURST must be positive")
	}

	if len(issues) > 0 {
		return &ValidationError{Errors: issues}
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseDurationOrDefault(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func parseIntOrDefault(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat64OrDefault(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}
