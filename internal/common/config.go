package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Embedding EmbeddingConfig
	Batch     BatchConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	// DSN is a Postgres connection string. When empty, the local SQLite
	// store at Path is used instead.
	DSN              string
	Path             string
	MaxConns         int
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// EmbeddingConfig holds embedding-service configuration
type EmbeddingConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// BatchConfig holds batch-processing configuration
type BatchConfig struct {
	Workers     int
	FileTimeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			Path:             getEnv("BID_DB_PATH", "./data/bids.db"),
			MaxConns:         getEnvAsInt("DB_MAX_CONNS", 10),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Embedding: EmbeddingConfig{
			BaseURL: getEnv("EMBED_API_URL", ""),
			APIKey:  getEnv("EMBED_API_KEY", ""),
			Model:   getEnv("EMBED_MODEL", "all-MiniLM-L6-v2"),
			Timeout: getEnvAsDuration("EMBED_TIMEOUT", 30*time.Second),
		},
		Batch: BatchConfig{
			Workers:     getEnvAsInt("BATCH_WORKERS", 1),
			FileTimeout: getEnvAsDuration("BATCH_FILE_TIMEOUT", 2*time.Minute),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" && c.Database.Path == "" {
		return NewAppError("CONFIG_ERROR", "either DB_URL or BID_DB_PATH is required", ErrInvalidInput)
	}
	if c.Batch.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "BATCH_WORKERS must be at least 1", ErrInvalidInput)
	}
	return nil
}
