//go:build !integration && !e2e

package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/model-router-go/internal/models"
	"go.uber.org/zap"
)

func newTestCache() *ResponseCache {
	return NewResponseCache(time.Hour, 100, zap.NewNop())
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newTestCache()
	require.NoError(t, cache.CacheResponse("k1", "resp", "gpt-4", models.CacheExactMatch))

	hit, ok := cache.LookupCache("k1")
	require.True(t, ok)
	assert.Equal(t, "resp", hit.Response)
	assert.Equal(t, "gpt-4", hit.ModelID)
	assert.Equal(t, models.CacheExactMatch, hit.Strategy)
	assert.Equal(t, int64(1), hit.HitCount)

	_, ok = cache.LookupCache("absent")
	assert.False(t, ok)

	summary := cache.Summary()
	assert.Equal(t, int64(1), summary["hits"])
	assert.Equal(t, int64(1), summary["misses"])
}

func TestCacheHitRateScenario(t *testing.T) {
	cache := newTestCache()
	require.NoError(t, cache.CacheResponse("k1", "resp", "gpt-4", models.CacheExactMatch))

	for i := 0; i < 2; i++ {
		hit, ok := cache.LookupCache("k1")
		require.True(t, ok)
		assert.Equal(t, int64(i+1), hit.HitCount)
	}
	_, ok := cache.LookupCache("k2")
	assert.False(t, ok)

	assert.InDelta(t, 2.0/3.0, cache.HitRate(), 0.001)
}

func TestCacheRejectsUnknownStrategy(t *testing.T) {
	cache := newTestCache()
	err := cache.CacheResponse("k1", "resp", "gpt-4", models.CacheStrategy("psychic"))
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
}

func TestCacheStrategyTagDoesNotAlterMatching(t *testing.T) {
	cache := newTestCache()
	require.NoError(t, cache.CacheResponse("prefix:abc", "resp", "gpt-4", models.CachePrefixMatch))

	// Lookup stays exact-key regardless of the stored strategy tag.
	_, ok := cache.LookupCache("prefix:abcdef")
	assert.False(t, ok)
	hit, ok := cache.LookupCache("prefix:abc")
	require.True(t, ok)
	assert.Equal(t, models.CachePrefixMatch, hit.Strategy)
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := NewResponseCache(10*time.Millisecond, 100, zap.NewNop())
	require.NoError(t, cache.CacheResponse("k1", "resp", "gpt-4", models.CacheExactMatch))

	time.Sleep(20 * time.Millisecond)

	_, ok := cache.LookupCache("k1")
	assert.False(t, ok)
	summary := cache.Summary()
	assert.Equal(t, 0, summary["entries"])
	assert.Equal(t, int64(1), summary["misses"])
}

func TestCacheSizeBoundEvictsOldest(t *testing.T) {
	cache := NewResponseCache(time.Hour, 3, zap.NewNop())
	for i := 1; i <= 4; i++ {
		key := fmt.Sprintf("k%d", i)
		require.NoError(t, cache.CacheResponse(key, "resp", "gpt-4", models.CacheExactMatch))
	}

	_, ok := cache.LookupCache("k1")
	assert.False(t, ok)
	for _, key := range []string{"k2", "k3", "k4"} {
		_, ok := cache.LookupCache(key)
		assert.True(t, ok, key)
	}
}

func TestCacheReinsertAfterInvalidateSurvivesEviction(t *testing.T) {
	cache := NewResponseCache(time.Hour, 2, zap.NewNop())
	require.NoError(t, cache.CacheResponse("k1", "resp", "gpt-4", models.CacheExactMatch))
	require.NoError(t, cache.CacheResponse("k2", "resp", "gpt-4", models.CacheExactMatch))

	cache.Invalidate("k1")
	require.NoError(t, cache.CacheResponse("k1", "fresh", "gpt-4", models.CacheExactMatch))
	require.NoError(t, cache.CacheResponse("k3", "resp", "gpt-4", models.CacheExactMatch))

	// k2 is now the oldest entry and the one the size bound drops.
	_, ok := cache.LookupCache("k2")
	assert.False(t, ok)
	hit, ok := cache.LookupCache("k1")
	require.True(t, ok)
	assert.Equal(t, "fresh", hit.Response)
	_, ok = cache.LookupCache("k3")
	assert.True(t, ok)
}

func TestCacheInvalidate(t *testing.T) {
	cache := newTestCache()
	require.NoError(t, cache.CacheResponse("k1", "resp", "gpt-4", models.CacheExactMatch))
	cache.Invalidate("k1")
	_, ok := cache.LookupCache("k1")
	assert.False(t, ok)
	cache.Invalidate("never-existed")
}

func TestCacheOverwriteKeepsSingleEntry(t *testing.T) {
	cache := newTestCache()
	require.NoError(t, cache.CacheResponse("k1", "old", "gpt-4", models.CacheExactMatch))
	require.NoError(t, cache.CacheResponse("k1", "new", "claude-3", models.CacheSemanticSimilarity))

	hit, ok := cache.LookupCache("k1")
	require.True(t, ok)
	assert.Equal(t, "new", hit.Response)
	assert.Equal(t, "claude-3", hit.ModelID)
	assert.Equal(t, int64(1), hit.HitCount)
	assert.Equal(t, 1, cache.Summary()["entries"])
}
