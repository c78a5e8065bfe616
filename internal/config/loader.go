package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Load builds the configuration from defaults plus MODEL_ROUTER_* environment
// variable overrides.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads a .env file from the working directory, if present.
// Existing environment variables take precedence over file entries.
func loadDotEnv() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // .env file is optional
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.Trim(strings.TrimSpace(line[idx+1:]), `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

func applyEnvOverrides(cfg *Config) {
	cfg.Server.Host = getEnvStr("MODEL_ROUTER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("MODEL_ROUTER_PORT", cfg.Server.Port)
	cfg.Server.LogLevel = getEnvStr("MODEL_ROUTER_LOG_LEVEL", cfg.Server.LogLevel)

	cfg.Routing.DefaultProvider = getEnvStr("MODEL_ROUTER_DEFAULT_PROVIDER", cfg.Routing.DefaultProvider)
	cfg.Routing.DefaultStrategy = getEnvStr("MODEL_ROUTER_DEFAULT_STRATEGY", cfg.Routing.DefaultStrategy)
	cfg.Routing.CostOptimization = getEnvBool("MODEL_ROUTER_COST_OPTIMIZATION", cfg.Routing.CostOptimization)
	cfg.Routing.AutoFallback = getEnvBool("MODEL_ROUTER_AUTO_FALLBACK", cfg.Routing.AutoFallback)

	cfg.Circuit.FailureThreshold = getEnvInt("MODEL_ROUTER_CIRCUIT_FAILURE_THRESHOLD", cfg.Circuit.FailureThreshold)
	cfg.Circuit.RecoveryTimeout = getEnvDurationSec("MODEL_ROUTER_CIRCUIT_RECOVERY_SECONDS", cfg.Circuit.RecoveryTimeout)

	cfg.Health.SlowResponseThresholdMs = getEnvFloat("MODEL_ROUTER_HEALTH_SLOW_MS", cfg.Health.SlowResponseThresholdMs)

	cfg.Cache.TTL = getEnvDurationSec("MODEL_ROUTER_CACHE_TTL_SECONDS", cfg.Cache.TTL)
	cfg.Cache.MaxEntries = getEnvInt("MODEL_ROUTER_CACHE_MAX_ENTRIES", cfg.Cache.MaxEntries)

	cfg.Latency.DefaultTimeoutMs = getEnvFloat("MODEL_ROUTER_LATENCY_TIMEOUT_MS", cfg.Latency.DefaultTimeoutMs)

	cfg.LogRotation.MaxSizeMB = getEnvInt("MODEL_ROUTER_LOG_MAX_SIZE_MB", cfg.LogRotation.MaxSizeMB)
	cfg.LogRotation.MaxBackups = getEnvInt("MODEL_ROUTER_LOG_MAX_BACKUPS", cfg.LogRotation.MaxBackups)
	cfg.LogRotation.MaxAgeDays = getEnvInt("MODEL_ROUTER_LOG_MAX_AGE_DAYS", cfg.LogRotation.MaxAgeDays)
	cfg.LogRotation.Compress = getEnvBool("MODEL_ROUTER_LOG_COMPRESS", cfg.LogRotation.Compress)

	cfg.RateLimit.Enabled = getEnvBool("MODEL_ROUTER_RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.MaxRequests = getEnvInt("MODEL_ROUTER_RATE_LIMIT_MAX_REQUESTS", cfg.RateLimit.MaxRequests)
	cfg.RateLimit.WindowSeconds = getEnvInt("MODEL_ROUTER_RATE_LIMIT_WINDOW_SECONDS", cfg.RateLimit.WindowSeconds)
}

// Helper functions for environment variable parsing.

func getEnvStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultVal
}

func getEnvDurationSec(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultVal
	}
	return time.Duration(n) * time.Second
}
