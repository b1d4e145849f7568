package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting the service reads from the environment.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	RateLimit RateLimitConfig
	Health    HealthConfig
	Service   ServiceInfo
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	rateLimit, err := loadRateLimitConfig()
	if err != nil {
		return nil, err
	}

	health, err := loadHealthConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Store:     StoreConfig{Path: strings.TrimSpace(os.Getenv("DATABASE_PATH"))},
		RateLimit: rateLimit,
		Health:    health,
		Service: ServiceInfo{
			Name:    getEnvOrDefault("SERVICE_NAME", "vidaflow-api"),
			Env:     getEnvOrDefault("APP_ENV", "development"),
			Version: getEnvOrDefault("APP_VERSION", "dev"),
		},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// StoreConfig locates the SQLite database. An empty path selects the
// in-memory store.
type StoreConfig struct {
	Path string
}

// Configured reports whether a real database was requested.
func (c StoreConfig) Configured() bool { return c.Path != "" }

// RateLimitConfig bounds per-client request throughput.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

func loadRateLimitConfig() (RateLimitConfig, error) {
	max, err := parseIntEnv("RATE_LIMIT_MAX", 30)
	if err != nil {
		return RateLimitConfig{}, err
	}
	windowSeconds, err := parseIntEnv("RATE_LIMIT_WINDOW_SECONDS", 60)
	if err != nil {
		return RateLimitConfig{}, err
	}
	if max < 1 || windowSeconds < 1 {
		return RateLimitConfig{}, fmt.Errorf("rate limit settings must be positive, got max=%d window=%ds", max, windowSeconds)
	}
	return RateLimitConfig{Max: max, Window: time.Duration(windowSeconds) * time.Second}, nil
}

// HealthConfig tunes the health endpoint's response cache.
type HealthConfig struct {
	CacheTTL time.Duration
}

func loadHealthConfig() (HealthConfig, error) {
	ttlSeconds, err := parseIntEnv("HEALTH_CACHE_TTL_SECONDS", 10)
	if err != nil {
		return HealthConfig{}, err
	}
	if ttlSeconds < 0 {
		return HealthConfig{}, fmt.Errorf("health cache TTL must not be negative, got %d", ttlSeconds)
	}
	return HealthConfig{CacheTTL: time.Duration(ttlSeconds) * time.Second}, nil
}

// ServiceInfo identifies this deployment in health responses.
type ServiceInfo struct {
	Name    string
	Env     string
	Version string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
