package common

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Fetch    FetchConfig
	Cache    CacheConfig
	Auth     AuthConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// FetchConfig holds upstream retrieval configuration
type FetchConfig struct {
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
}

// CacheConfig holds the content cache configuration
type CacheConfig struct {
	Dir string
}

// AuthConfig holds API key configuration
type AuthConfig struct {
	KeysFile string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Fetch: FetchConfig{
			Timeout:    getEnvAsDuration("FETCH_TIMEOUT", 30*time.Second),
			Retries:    getEnvAsInt("FETCH_RETRIES", 3),
			RetryDelay: getEnvAsDuration("FETCH_RETRY_DELAY", 500*time.Millisecond),
		},
		Cache: CacheConfig{
			Dir: getEnv("CACHE_DIR", "./cache"),
		},
		Auth: AuthConfig{
			KeysFile: getEnv("API_KEYS_FILE", "./keys.txt"),
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
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
	if c.Database.DSN == "" {
		return errors.New("DB_URL is required")
	}
	if c.Server.Addr == "" {
		return errors.New("HTTP_ADDR is required")
	}
	if c.Auth.KeysFile == "" {
		return errors.New("API_KEYS_FILE is required")
	}
	if c.Fetch.Retries < 0 {
		return errors.New("FETCH_RETRIES must not be negative")
	}
	return nil
}
