// Package config loads server settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultJWTSecret = "dev-secret-change-me"

type Config struct {
	Addr               string
	DBPath             string
	JWTSecret          []byte
	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	LoanDays           int
	SingleLoanPerTitle bool
	MediaDir           string
	SigninRate         float64
	SigninBurst        int
	LogLevel           slog.Level
}

// Load reads envFile (when it exists) into the process environment without overriding
// variables that are already set, then builds a Config from LIBRARY_* variables.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	level, err := parseLevel(getEnvAsString("LIBRARY_LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Addr:               getEnvAsString("LIBRARY_ADDR", ":8080"),
		DBPath:             getEnvAsString("LIBRARY_DB_PATH", "./data/library.db"),
		JWTSecret:          []byte(getEnvAsString("LIBRARY_JWT_SECRET", DefaultJWTSecret)),
		AccessTTL:          getEnvAsDuration("LIBRARY_ACCESS_TTL", 5*time.Minute),
		RefreshTTL:         getEnvAsDuration("LIBRARY_REFRESH_TTL", 24*time.Hour),
		LoanDays:           getEnvAsInt("LIBRARY_LOAN_DAYS", 14),
		SingleLoanPerTitle: getEnvAsBool("LIBRARY_SINGLE_LOAN_PER_TITLE", false),
		MediaDir:           getEnvAsString("LIBRARY_MEDIA_DIR", "./data/media"),
		SigninRate:         getEnvAsFloat("LIBRARY_SIGNIN_RATE", 1),
		SigninBurst:        getEnvAsInt("LIBRARY_SIGNIN_BURST", 5),
		LogLevel:           level,
	}
	if cfg.LoanDays <= 0 {
		return Config{}, fmt.Errorf("LIBRARY_LOAN_DAYS must be positive, got %d", cfg.LoanDays)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return Config{}, errors.New("token lifetimes must be positive")
	}
	return cfg, nil
}

func (c Config) UsesDefaultSecret() bool {
	return string(c.JWTSecret) == DefaultJWTSecret
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("LIBRARY_LOG_LEVEL: %w", err)
	}
	return l, nil
}

func getEnvAsString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
