package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		LogLevel     string
	}

	Predictor struct {
		URL     string
		Timeout time.Duration
	}

	Store struct {
		Driver      string
		Path        string
		DatabaseURL string
	}

	Trends struct {
		Schedule string
		CacheTTL time.Duration
	}

	Dashboard struct {
		ToastDuration time.Duration
	}

	CircuitBreaker struct {
		Threshold int
		Timeout   time.Duration
	}

	Retry struct {
		MaxRetries int
		Delay      time.Duration
		Multiplier float64
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	p := &parser{}
	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("FIBER_PORT", "8080")
	cfg.Server.ReadTimeout = p.parseDuration("FIBER_READ_TIMEOUT", "10s")
	cfg.Server.WriteTimeout = p.parseDuration("FIBER_WRITE_TIMEOUT", "10s")
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", "info")

	// Predictor configuration
	cfg.Predictor.URL = getEnv("PREDICTOR_URL", "http://localhost:5000")
	cfg.Predictor.Timeout = p.parseDuration("PREDICTOR_TIMEOUT", "10s")

	// Store configuration
	cfg.Store.Driver = getEnv("STORE_DRIVER", StoreFile)
	cfg.Store.Path = getEnv("STORE_PATH", "data/fireguard.json")
	cfg.Store.DatabaseURL = getEnv("DATABASE_URL", "")

	// Trend forecast configuration
	cfg.Trends.Schedule = getEnv("TREND_SCHEDULE", "@every 30m")
	cfg.Trends.CacheTTL = p.parseDuration("TREND_CACHE_TTL", "1h")

	cfg.Dashboard.ToastDuration = p.parseDuration("TOAST_DURATION", "5s")

	// Circuit breaker configuration
	cfg.CircuitBreaker.Threshold = p.parseInt("CIRCUIT_BREAKER_THRESHOLD", "3")
	cfg.CircuitBreaker.Timeout = p.parseDuration("CIRCUIT_BREAKER_TIMEOUT", "30s")

	// Predictions are never retried by default
	cfg.Retry.MaxRetries = p.parseInt("PREDICTOR_RETRIES", "0")
	cfg.Retry.Delay = p.parseDuration("RETRY_DELAY", "1s")
	cfg.Retry.Multiplier = p.parseFloat("RETRY_MULTIPLIER", "2")

	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreFile:
		if c.Store.Path == "" {
			return fmt.Errorf("STORE_PATH is required for the file store")
		}
	case StoreMemory:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is postgres")
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q", c.Store.Driver)
	}

	if c.Predictor.URL == "" {
		return fmt.Errorf("PREDICTOR_URL is required")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("invalid PREDICTOR_RETRIES: must not be negative")
	}
	if c.CircuitBreaker.Threshold <= 0 {
		return fmt.Errorf("invalid CIRCUIT_BREAKER_THRESHOLD: must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser keeps the first conversion error so LoadConfig can report it.
type parser struct {
	err error
}

func (p *parser) parseDuration(key, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil || duration < 0 {
		p.fail(key, value)
		return 0
	}
	return duration
}

func (p *parser) parseInt(key, defaultValue string) int {
	value := getEnv(key, defaultValue)
	intValue, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value)
		return 0
	}
	return intValue
}

func (p *parser) parseFloat(key, defaultValue string) float64 {
	value := getEnv(key, defaultValue)
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.fail(key, value)
		return 0
	}
	return floatValue
}

func (p *parser) fail(key, value string) {
	zap.L().Warn("Failed to parse config value", zap.String("key", key), zap.String("value", value))
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %q", key, value)
	}
}
