//go:build !integration && !e2e

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/model-router-go/internal/models"
	"go.uber.org/zap"
)

func TestLatencyStats(t *testing.T) {
	lo := NewLatencyOptimizer(30000, zap.NewNop())
	for _, ms := range []float64{100, 120, 110, 400, 90} {
		lo.RecordLatency("gpt-4", ms, true)
	}

	stats, err := lo.LatencyStats("gpt-4")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.SampleCount)
	assert.InDelta(t, 164, stats.AvgLatencyMs, 0.001)
	assert.Equal(t, 90.0, stats.MinLatencyMs)
	assert.Equal(t, 400.0, stats.MaxLatencyMs)
	// Nearest rank over [90,100,110,120,400]: floor(5*0.5)=2, floor(5*0.95)=4.
	assert.Equal(t, 110.0, stats.P50LatencyMs)
	assert.Equal(t, 400.0, stats.P95LatencyMs)

	_, err = lo.LatencyStats("ghost")
	assert.True(t, models.IsNotFound(err))
}

func TestPercentileNearestRankClamps(t *testing.T) {
	assert.Equal(t, 10.0, percentile([]float64{10}, 0.95))
	assert.Equal(t, 20.0, percentile([]float64{10, 20}, 0.95))
	assert.Zero(t, percentile(nil, 0.5))
}

func TestFastestModelRespectsMinSamples(t *testing.T) {
	lo := NewLatencyOptimizer(30000, zap.NewNop())
	for _, ms := range []float64{100, 120, 110} {
		lo.RecordLatency("model-a", ms, true)
	}
	lo.RecordLatency("model-b", 10, true)
	lo.RecordLatency("model-b", 12, true)

	// model-b is faster but has only 2 samples, below the minimum of 3.
	fastest, err := lo.FastestModel([]string{"model-a", "model-b"}, 3)
	require.NoError(t, err)
	assert.Equal(t, "model-a", fastest.ModelID)
	assert.InDelta(t, 110, fastest.AvgLatencyMs, 0.001)

	rankings := lo.RankModels([]string{"model-a", "model-b"}, 3)
	require.Len(t, rankings, 1)

	_, err = lo.FastestModel([]string{"model-b"}, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNoCandidate)
}

func TestRankModelsFastestFirst(t *testing.T) {
	lo := NewLatencyOptimizer(30000, zap.NewNop())
	lo.RecordLatency("slow", 500, true)
	lo.RecordLatency("fast", 50, true)

	rankings := lo.RankModels([]string{"slow", "fast"}, 1)
	require.Len(t, rankings, 2)
	assert.Equal(t, "fast", rankings[0].ModelID)
	assert.Equal(t, "slow", rankings[1].ModelID)
}

func TestTimeoutsCounted(t *testing.T) {
	lo := NewLatencyOptimizer(30000, zap.NewNop())
	lo.SetTimeout("gpt-4", 200)
	assert.Equal(t, 200.0, lo.Timeout("gpt-4"))
	assert.Equal(t, 30000.0, lo.Timeout("unconfigured"))

	lo.RecordLatency("gpt-4", 150, true)
	lo.RecordLatency("gpt-4", 250, false)

	summary := lo.Summary()
	assert.Equal(t, int64(1), summary["timeouts"])
	assert.Equal(t, int64(1), summary["failed_samples"])
	assert.Equal(t, 2, summary["total_samples"])
}

func TestOptimizeRouting(t *testing.T) {
	lo := NewLatencyOptimizer(30000, zap.NewNop())
	for i := 0; i < 5; i++ {
		lo.RecordLatency("snappy", 50, true)
		lo.RecordLatency("sluggish", 2000, true)
	}
	// Mostly fast with a slow tail: avg under budget, p95 over it.
	for _, ms := range []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100,
		100, 100, 100, 100, 100, 100, 100, 100, 100, 1500} {
		lo.RecordLatency("spiky", ms, true)
	}

	recs := lo.OptimizeRouting(1000)
	require.Len(t, recs, 2)
	assert.Equal(t, "sluggish", recs[0].ModelID)
	assert.Equal(t, "deprioritize", recs[0].Action)
	assert.Equal(t, "spiky", recs[1].ModelID)
	assert.Equal(t, "monitor", recs[1].Action)
}
