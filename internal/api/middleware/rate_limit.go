package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// healthPath is never rate limited so liveness probes cannot starve out.
const healthPath = "/api/health"

// RateLimitConfig holds rate limiter configuration.
type RateLimitConfig struct {
	Enabled       bool
	MaxRequests   int
	WindowSeconds int
}

// DefaultRateLimitConfig returns the default rate limit configuration.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled:       true,
		MaxRequests:   100,
		WindowSeconds: 60,
	}
}

// slidingWindow counts requests per client over a rolling window.
type slidingWindow struct {
	mu          sync.Mutex
	requests    map[string][]time.Time
	maxRequests int
	window      time.Duration
}

func newSlidingWindow(maxRequests, windowSeconds int) *slidingWindow {
	return &slidingWindow{
		requests:    make(map[string][]time.Time),
		maxRequests: maxRequests,
		window:      time.Duration(windowSeconds) * time.Second,
	}
}

// allow records one request for clientID if the window has room.
// Returns (allowed, remaining, resetTimestamp).
func (sw *slidingWindow) allow(clientID string) (bool, int, int64) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	valid := pruneBefore(sw.requests[clientID], now.Add(-sw.window))
	resetTime := now.Add(sw.window).Unix()

	if len(valid) >= sw.maxRequests {
		sw.requests[clientID] = valid
		return false, 0, resetTime
	}

	sw.requests[clientID] = append(valid, now)
	return true, sw.maxRequests - len(valid) - 1, resetTime
}

// cleanup drops clients whose entire window has expired.
func (sw *slidingWindow) cleanup() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	cutoff := time.Now().Add(-sw.window)
	for clientID, reqs := range sw.requests {
		valid := pruneBefore(reqs, cutoff)
		if len(valid) == 0 {
			delete(sw.requests, clientID)
		} else {
			sw.requests[clientID] = valid
		}
	}
}

func pruneBefore(reqs []time.Time, cutoff time.Time) []time.Time {
	valid := reqs[:0]
	for _, t := range reqs {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	return valid
}

// RateLimit returns a per-client-IP rate limiting middleware.
func RateLimit(cfg *RateLimitConfig) gin.HandlerFunc {
	if cfg == nil {
		cfg = DefaultRateLimitConfig()
	}

	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	window := newSlidingWindow(cfg.MaxRequests, cfg.WindowSeconds)

	// Background cleanup every 5 minutes
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			window.cleanup()
		}
	}()

	return func(c *gin.Context) {
		if c.Request.URL.Path == healthPath {
			c.Next()
			return
		}

		allowed, remaining, resetTime := window.allow(clientIP(c))

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime, 10))

		if !allowed {
			retryAfter := resetTime - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail": "rate limit exceeded, try again later",
			})
			return
		}

		c.Next()
	}
}

// clientIP extracts the client IP, respecting reverse proxy headers.
func clientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		parts := strings.SplitN(xff, ",", 2)
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if xri := c.GetHeader("X-Real-IP"); xri != "" {
		return xri
	}
	return c.ClientIP()
}
