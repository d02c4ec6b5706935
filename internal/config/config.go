package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	DBPath        string
	ServerPort    string
	LogLevel      string
	PuzzleBaseURL string

	// Timezone anchors the puzzle day boundary for every participant,
	// regardless of where they live.
	Timezone     string
	AnnounceHour int

	// WebhookURL is where outbound chat messages are posted. Empty means
	// log-only delivery.
	WebhookURL string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:        getEnv("DB_PATH", "wordlegolf.db"),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PuzzleBaseURL: getEnv("PUZZLE_BASE_URL", "https://www.nytimes.com"),
		Timezone:      getEnv("TIMEZONE", "America/New_York"),
		AnnounceHour:  getEnvInt("ANNOUNCE_HOUR", 9),
		WebhookURL:    getEnv("WEBHOOK_URL", ""),
	}

	if cfg.AnnounceHour < 0 || cfg.AnnounceHour > 23 {
		return nil, fmt.Errorf("ANNOUNCE_HOUR must be in [0,23], got %d", cfg.AnnounceHour)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("timezone", cfg.Timezone).
		Int("announce_hour", cfg.AnnounceHour).
		Bool("webhook_configured", cfg.WebhookURL != "").
		Msg("configuration loaded")

	return cfg, nil
}

// Location is validated during Load, so lookup failures cannot happen here.
func (c *Config) Location() *time.Location {
	loc, _ := time.LoadLocation(c.Timezone)
	return loc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
