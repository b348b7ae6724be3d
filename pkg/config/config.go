// Package config loads settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	// Server
	Port int
	Env  string

	// Logging
	LogLevel string

	// CORS
	AllowedOrigins []string

	// Artifacts
	CleanedPath string
	ModelPath   string
	ScalerPath  string

	// Prediction journal; empty disables it
	JournalPath string

	// Training
	RandomSeed int64
	CVFolds    int
	TestRatio  float64

	// HTTP timeouts
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Load reads the configuration from environment variables, falling back
// to defaults for anything unset or unparseable.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnvInt("PORT", 8080),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CleanedPath: getEnv("CLEANED_PATH", "premier_league_cleaned.csv"),
		ModelPath:   getEnv("MODEL_PATH", "premier_league_model.gob"),
		ScalerPath:  getEnv("SCALER_PATH", "scaler.gob"),
		JournalPath: os.Getenv("JOURNAL_PATH"),

		RandomSeed: int64(getEnvInt("RANDOM_SEED", 42)),
		CVFolds:    getEnvInt("CV_FOLDS", 5),
		TestRatio:  getEnvFloat("TEST_RATIO", 0.2),

		ReadTimeout:  getEnvDuration("READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getEnvDuration("WRITE_TIMEOUT", 10*time.Second),
	}

	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %d", cfg.Port)
	}
	if cfg.CVFolds < 2 {
		return nil, fmt.Errorf("invalid CV_FOLDS: %d, need at least 2", cfg.CVFolds)
	}
	if cfg.TestRatio <= 0 || cfg.TestRatio >= 1 {
		return nil, fmt.Errorf("invalid TEST_RATIO: %v, want a value in (0,1)", cfg.TestRatio)
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool { return c.Env == "production" }

// NewLogger builds a JSON logger in production and a console logger
// otherwise, at LogLevel.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	var zc zap.Config
	if c.IsProduction() {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
