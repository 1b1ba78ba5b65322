package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv        string
	Port          string
	DatabaseURL   string
	RedisURL      string
	SessionSecret string
	// PublicURL is the externally visible origin of the site, used for
	// WebSocket origin checks.
	PublicURL string
	LogLevel  string
	LogFormat string
	// VotesPerMinute is the per-user vote budget: token bucket refill rate
	// per minute, with burst capacity to match.
	VotesPerMinute int
	// WSMaxConnections caps concurrent WebSocket clients per instance.
	WSMaxConnections int
	// WSMaxPerIP caps concurrent WebSocket clients per remote IP.
	WSMaxPerIP int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		PublicURL:     getEnv("PUBLIC_URL", "http://localhost:8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.VotesPerMinute, err = getEnvInt("VOTES_PER_MINUTE", 30); err != nil {
		return nil, err
	}
	if cfg.WSMaxConnections, err = getEnvInt("WS_MAX_CONNECTIONS", 1000); err != nil {
		return nil, err
	}
	if cfg.WSMaxPerIP, err = getEnvInt("WS_MAX_PER_IP", 8); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if len(cfg.SessionSecret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 characters, got %d", len(cfg.SessionSecret))
	}

	if cfg.VotesPerMinute <= 0 {
		return nil, fmt.Errorf("VOTES_PER_MINUTE must be positive")
	}
	if cfg.WSMaxConnections <= 0 || cfg.WSMaxPerIP <= 0 {
		return nil, fmt.Errorf("WebSocket connection limits must be positive")
	}

	return cfg, nil
}

// IsProduction reports whether the process runs with production hardening
// (secure cookies, strict origins).
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
