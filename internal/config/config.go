// Package config provides configuration management with 2-tier priority:
// Environment variables > Default values
package config

import (
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Routing     RoutingConfig
	Circuit     CircuitConfig
	Health      HealthConfig
	Cache       CacheConfig
	Latency     LatencyConfig
	LogRotation LogRotationConfig
	RateLimit   RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host     string
	Port     int
	LogLevel string
}

// RoutingConfig holds orchestrator tunables.
type RoutingConfig struct {
	DefaultProvider  string
	DefaultStrategy  string // one of the recognized selection strategies
	CostOptimization bool   // force lowest_cost for low-complexity tasks
	AutoFallback     bool   // walk the fallback chain on routing
}

// CircuitConfig holds circuit breaker tunables, shared by all breakers.
type CircuitConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration // 0 disables automatic half-open probing
}

// HealthConfig holds health monitor tunables.
type HealthConfig struct {
	SlowResponseThresholdMs float64
}

// CacheConfig holds response cache tunables.
type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
}

// LatencyConfig holds latency optimizer tunables.
type LatencyConfig struct {
	DefaultTimeoutMs float64
}

// LogRotationConfig holds log rotation settings powered by lumberjack.
type LogRotationConfig struct {
	MaxSizeMB  int  // Maximum size in MB before rotation
	MaxBackups int  // Maximum number of old log files to retain
	MaxAgeDays int  // Maximum number of days to retain old log files
	Compress   bool // Whether to gzip compress rotated files
}

// RateLimitConfig holds API rate limiting configuration.
type RateLimitConfig struct {
	Enabled       bool
	MaxRequests   int
	WindowSeconds int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     8090,
			LogLevel: "INFO",
		},
		Routing: RoutingConfig{
			DefaultStrategy:  "balanced",
			CostOptimization: true,
			AutoFallback:     true,
		},
		Circuit: CircuitConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
		},
		Health: HealthConfig{
			SlowResponseThresholdMs: 5000,
		},
		Cache: CacheConfig{
			TTL:        time.Hour,
			MaxEntries: 10000,
		},
		Latency: LatencyConfig{
			DefaultTimeoutMs: 30000,
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			MaxRequests:   100,
			WindowSeconds: 60,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &ConfigError{Field: "server.port", Message: "must be between 1 and 65535"}
	}
	if c.Circuit.FailureThreshold < 1 {
		return &ConfigError{Field: "circuit.failure_threshold", Message: "must be at least 1"}
	}
	if c.Cache.MaxEntries < 1 {
		return &ConfigError{Field: "cache.max_entries", Message: "must be at least 1"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + ": " + e.Message
}
