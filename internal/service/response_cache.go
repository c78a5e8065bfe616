package service

import (
	"sync"
	"time"

	"github.com/user/model-router-go/internal/models"
	"go.uber.org/zap"
)

type cacheEntry struct {
	key       string
	response  string
	modelID   string
	strategy  models.CacheStrategy
	hitCount  int64
	createdAt time.Time
}

// ResponseCache is an exact-key response cache. The strategy tag describes
// how an entry was populated and never alters matching. Entries expire
// lazily after the TTL; inserts evict oldest-first past the size bound.
type ResponseCache struct {
	logger     *zap.Logger
	ttl        time.Duration
	maxEntries int

	mu      sync.RWMutex
	entries map[string]*cacheEntry

	hits   int64
	misses int64
}

// NewResponseCache creates a ResponseCache. A non-positive ttl disables
// expiry; a non-positive maxEntries disables the size bound.
func NewResponseCache(ttl time.Duration, maxEntries int, logger *zap.Logger) *ResponseCache {
	return &ResponseCache{
		logger:     logger,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]*cacheEntry),
	}
}

// CacheResponse stores a response under an exact key, replacing any previous
// entry.
func (c *ResponseCache) CacheResponse(key, response, modelID string, strategy models.CacheStrategy) error {
	if !models.ValidCacheStrategy(strategy) {
		return models.ValidationError("unknown cache strategy %q", strategy)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = &cacheEntry{
		key:       key,
		response:  response,
		modelID:   modelID,
		strategy:  strategy,
		createdAt: time.Now(),
	}
	return nil
}

// evictOldestLocked removes the entry with the oldest createdAt. Must be
// called with the lock held.
func (c *ResponseCache) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for k, e := range c.entries {
		if first || e.createdAt.Before(oldestTime) {
			oldestKey = k
			oldestTime = e.createdAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
		c.logger.Debug("cache entry evicted", zap.String("key", oldestKey))
	}
}

// LookupCache returns the cached response for an exact key. An absent or
// expired key is a miss, never an error.
func (c *ResponseCache) LookupCache(key string) (*models.CacheHit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if ok && c.ttl > 0 && time.Since(entry.createdAt) > c.ttl {
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, false
	}
	entry.hitCount++
	c.hits++
	return &models.CacheHit{
		Response: entry.response,
		ModelID:  entry.modelID,
		Strategy: entry.strategy,
		HitCount: entry.hitCount,
	}, true
}

// Invalidate removes an entry. Absent keys are a no-op.
func (c *ResponseCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// HitRate returns hits/(hits+misses), 0 with no traffic.
func (c *ResponseCache) HitRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// Summary returns cache-level counters.
func (c *ResponseCache) Summary() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := c.hits + c.misses
	var rate float64
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return map[string]any{
		"entries":  len(c.entries),
		"hits":     c.hits,
		"misses":   c.misses,
		"hit_rate": rate,
		"max_size": c.maxEntries,
		"ttl_sec":  c.ttl.Seconds(),
	}
}
