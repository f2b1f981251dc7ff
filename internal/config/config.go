package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	Store          string
	DatabaseURL    string
	MigrationsPath string
	LogLevel       string
	LogFormat      string
	Timezone       *time.Location
	GeminiAPIKey   string
	GeminiModel    string
	FeedbackMode   string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		Store:          getEnvOrDefault("STORE", "postgres"),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "text"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		FeedbackMode:   getEnvOrDefault("FEEDBACK_MODE", "NORMAL"),
	}

	switch cfg.Store {
	case "postgres":
		if cfg.DatabaseURL = os.Getenv("DATABASE_URL"); cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required when STORE=postgres")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("unsupported STORE value %q (expected postgres or memory)", cfg.Store)
	}

	tz := getEnvOrDefault("TIMEZONE", "Local")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	cfg.Timezone = loc

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
