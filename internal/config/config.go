// Package config loads the tour's settings from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Host string
	Port int
	Env  string // "development" or "production"

	// Redis (empty disables caching, budget tracking and rate limiting)
	RedisURL string

	// Logging
	LogLevel  string
	LogPretty bool

	// Room server content
	CatalogPath string
	StaticDir   string
	CacheMaxAge time.Duration

	// Server-side rate limit per client IP
	RateLimit  int
	RateWindow time.Duration

	// Client settings
	BaseURL    string
	RenderMode string
	UserAgent  string

	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		// Server
		Host: getEnv("TOUR_HOST", "0.0.0.0"),
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("TOUR_ENV", "development"),

		RedisURL: getEnv("REDIS_URL", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvBool("LOG_PRETTY", false),

		CatalogPath: getEnv("TOUR_CATALOG", ""),
		StaticDir:   getEnv("TOUR_STATIC_DIR", "./static"),
		CacheMaxAge: getEnvDuration("TOUR_CACHE_MAX_AGE", 5*time.Minute),

		RateLimit:  getEnvInt("TOUR_RATE_LIMIT", 120),
		RateWindow: getEnvDuration("TOUR_RATE_WINDOW", time.Minute),

		BaseURL:    getEnv("TOUR_BASE_URL", "http://localhost:8080"),
		RenderMode: getEnv("TOUR_RENDER_MODE", "text"),
		UserAgent:  getEnv("USER_AGENT", "room-tour/0.1.0"),

		ShutdownTimeout: getEnvDuration("TOUR_SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisEnabled reports whether a Redis URL is configured
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

// RedisOptions converts RedisURL to client options. Both "redis://host:port/db"
// URLs and bare "host:port" addresses are accepted.
func (c *Config) RedisOptions() (*redis.Options, error) {
	if !c.RedisEnabled() {
		return nil, fmt.Errorf("redis is not configured")
	}
	if strings.Contains(c.RedisURL, "://") {
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: c.RedisURL}, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
