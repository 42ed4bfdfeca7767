// Package config loads environment-driven configuration for the
// orchestrator-core service, following the same getenv-with-defaults-then-
// validate shape the teacher uses for its database configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the umbrella configuration for the service: HTTP listen address,
// database DSN, LLM provider credentials, and tool security defaults.
type Config struct {
	HTTPPort string

	DatabaseURL         string
	DBMaxOpenConns      int
	DBMaxIdleConns      int
	DBConnMaxLifetime   time.Duration
	DBAcquireTimeout    time.Duration

	AnthropicAPIKey      string
	GoogleAIStudioAPIKey string
	BraveSearchAPIKey    string

	OAuthClientID     string
	OAuthClientSecret string

	MaxIterations      int
	EventBusCapacity   int
	ToolHTTPTimeout    time.Duration
	ToolShellTimeout   time.Duration
}

// Load reads a .env file (if present) from envPath and then builds a Config
// from environment variables, applying defaults and validating required
// fields. A missing .env file is not an error — it mirrors how a deployed
// environment sets variables directly.
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not load %s: %v\n", envPath, err)
		}
	}

	maxOpen, err := strconv.Atoi(getEnvOrDefault("DB_MAX_OPEN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	maxIdle, err := strconv.Atoi(getEnvOrDefault("DB_MAX_IDLE_CONNS", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}
	connLifetime, err := time.ParseDuration(getEnvOrDefault("DB_CONN_MAX_LIFETIME", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}
	acquireTimeout, err := time.ParseDuration(getEnvOrDefault("DB_ACQUIRE_TIMEOUT", "3s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_ACQUIRE_TIMEOUT: %w", err)
	}

	maxIterations, err := strconv.Atoi(getEnvOrDefault("MAX_ITERATIONS", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_ITERATIONS: %w", err)
	}
	busCapacity, err := strconv.Atoi(getEnvOrDefault("EVENT_BUS_CAPACITY", "256"))
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_BUS_CAPACITY: %w", err)
	}
	toolHTTPTimeout, err := time.ParseDuration(getEnvOrDefault("TOOL_HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOOL_HTTP_TIMEOUT: %w", err)
	}
	toolShellTimeout, err := time.ParseDuration(getEnvOrDefault("TOOL_SHELL_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOOL_SHELL_TIMEOUT: %w", err)
	}

	cfg := &Config{
		HTTPPort:             getEnvOrDefault("HTTP_PORT", "8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		DBMaxOpenConns:       maxOpen,
		DBMaxIdleConns:       maxIdle,
		DBConnMaxLifetime:    connLifetime,
		DBAcquireTimeout:     acquireTimeout,
		AnthropicAPIKey:      os.Getenv("ANTHROPIC_API_KEY"),
		GoogleAIStudioAPIKey: os.Getenv("GOOGLE_AI_STUDIO_API_KEY"),
		BraveSearchAPIKey:    os.Getenv("BRAVE_SEARCH_API_KEY"),
		OAuthClientID:        os.Getenv("OAUTH_CLIENT_ID"),
		OAuthClientSecret:    os.Getenv("OAUTH_CLIENT_SECRET"),
		MaxIterations:        maxIterations,
		EventBusCapacity:     busCapacity,
		ToolHTTPTimeout:      toolHTTPTimeout,
		ToolShellTimeout:     toolShellTimeout,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields and internally-consistent bounds. At least
// one LLM provider key must be present — the service has nothing useful to
// do with zero configured providers.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMaxIdleConns > c.DBMaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS (%d) cannot exceed DB_MAX_OPEN_CONNS (%d)", c.DBMaxIdleConns, c.DBMaxOpenConns)
	}
	if c.AnthropicAPIKey == "" && c.GoogleAIStudioAPIKey == "" {
		return fmt.Errorf("at least one of ANTHROPIC_API_KEY or GOOGLE_AI_STUDIO_API_KEY is required")
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("MAX_ITERATIONS must be at least 1")
	}
	return nil
}

// DefaultEnvPath returns the conventional .env location relative to a
// config directory, mirroring the teacher's cmd/tarsy/main.go layout.
func DefaultEnvPath(configDir string) string {
	return filepath.Join(configDir, ".env")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
