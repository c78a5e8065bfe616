//go:build !integration && !e2e

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/model-router-go/internal/models"
	"go.uber.org/zap"
)

func newTestCore(options RouterOptions) *Router {
	logger := zap.NewNop()
	return NewRouter(
		options,
		NewComplexityAnalyzer(logger),
		NewModelRegistry(logger),
		NewSelector(logger),
		NewFallbackRouter(5, 30*time.Second, logger),
		NewHealthMonitor(5000, logger),
		NewCostTracker(logger),
		NewLatencyOptimizer(30000, logger),
		NewResponseCache(time.Hour, 1000, logger),
		NewQualityComparator(logger),
		logger,
	)
}

func setupAlphaProvider(t *testing.T, r *Router) {
	t.Helper()
	_, registered, err := r.SetupProvider(models.Provider{
		ID:           "alpha",
		Name:         "Alpha",
		RateLimitRPM: 100,
		RateLimitTPM: 100000,
	}, []models.ModelSpec{
		{
			ModelID:        "m1",
			Name:           "Alpha Small",
			Capabilities:   []models.Capability{models.CapTextGeneration},
			MaxTokens:      4096,
			InputCostPer1K: 0.002,
			ContextWindow:  16384,
		},
		{
			ModelID:        "m2",
			Name:           "Alpha Large",
			Capabilities:   []models.Capability{models.CapTextGeneration, models.CapReasoning},
			MaxTokens:      8192,
			InputCostPer1K: 0.01,
			ContextWindow:  128000,
		},
	})
	require.NoError(t, err)
	require.Len(t, registered, 2)
}

func TestRouteTaskEndToEnd(t *testing.T) {
	r := newTestCore(RouterOptions{DefaultStrategy: models.StrategyBalanced})
	setupAlphaProvider(t, r)

	decision, err := r.RouteTask(RouteTaskParams{
		TaskText: "Explain the trade-offs of X vs Y in depth",
		Strategy: models.StrategyLowestCost,
	})
	require.NoError(t, err)
	assert.Equal(t, "m1", decision.ModelID)
	assert.Contains(t, []models.ComplexityLevel{models.ComplexityModerate, models.ComplexityComplex}, decision.ComplexityLevel)
	assert.Equal(t, models.StrategyLowestCost, decision.Strategy)
	assert.False(t, decision.IsFallback)

	m, err := r.Registry().GetModel("m1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.UsageCount)
}

func TestRouteTaskRequiredCapabilities(t *testing.T) {
	r := newTestCore(RouterOptions{})
	setupAlphaProvider(t, r)

	decision, err := r.RouteTask(RouteTaskParams{
		TaskText:             "Summarize this document",
		RequiredCapabilities: []models.Capability{models.CapReasoning},
		Strategy:             models.StrategyLowestCost,
	})
	require.NoError(t, err)
	assert.Equal(t, "m2", decision.ModelID)
}

func TestRouteTaskCostOptimizationOverride(t *testing.T) {
	r := newTestCore(RouterOptions{CostOptimization: true})
	setupAlphaProvider(t, r)

	// A trivial task is forced onto the lowest-cost strategy.
	decision, err := r.RouteTask(RouteTaskParams{
		TaskText: "Hi",
		Strategy: models.StrategyBestQuality,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StrategyLowestCost, decision.Strategy)
	assert.Equal(t, "m1", decision.ModelID)
}

func TestRouteTaskProviderWidening(t *testing.T) {
	r := newTestCore(RouterOptions{})
	setupAlphaProvider(t, r)

	// Unknown preferred provider yields no scoped candidates; the pool
	// widens to all providers instead of failing.
	decision, err := r.RouteTask(RouteTaskParams{
		TaskText:          "Translate this sentence",
		PreferredProvider: "beta",
		Strategy:          models.StrategyLowestCost,
	})
	require.NoError(t, err)
	assert.Equal(t, "m1", decision.ModelID)
}

func TestRouteTaskAutoFallback(t *testing.T) {
	r := newTestCore(RouterOptions{AutoFallback: true})
	setupAlphaProvider(t, r)
	r.Fallbacks().ConfigureRoute("m1", []string{"m2"})
	for i := 0; i < 5; i++ {
		r.Fallbacks().RecordFailure("m1")
	}

	decision, err := r.RouteTask(RouteTaskParams{
		TaskText: "Quick question",
		Strategy: models.StrategyLowestCost,
	})
	require.NoError(t, err)
	assert.Equal(t, "m2", decision.ModelID)
	assert.True(t, decision.IsFallback)
}

func TestRouteTaskNoModels(t *testing.T) {
	r := newTestCore(RouterOptions{})
	_, err := r.RouteTask(RouteTaskParams{TaskText: "anything"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNoCandidate)
}

func TestRecordCompletionFansOut(t *testing.T) {
	r := newTestCore(RouterOptions{})
	setupAlphaProvider(t, r)

	receipt := r.RecordCompletion(models.CompletionOutcome{
		ModelID:         "m1",
		Provider:        "alpha",
		InputTokens:     1000,
		OutputTokens:    500,
		LatencyMs:       320,
		InputCostPer1K:  0.002,
		OutputCostPer1K: 0.004,
		QualityScore:    0.85,
		TaskDomain:      "coding",
		Success:         true,
	})
	assert.InDelta(t, 0.004, receipt.TotalCost, 1e-9)
	assert.False(t, receipt.RateLimited)

	costs := r.Costs().CostByModel("m1")
	assert.Equal(t, 1, costs.UsageCount)
	stats, err := r.Latencies().LatencyStats("m1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SampleCount)
	perf, err := r.Comparator().ModelPerformance("m1")
	require.NoError(t, err)
	assert.InDelta(t, 0.85, perf.AvgScore, 0.001)
	status, err := r.Health().GetRateLimitStatus("alpha")
	require.NoError(t, err)
	assert.Equal(t, 1, status.RPMCurrent)
}

func TestRecordCompletionAdvisoryRateLimit(t *testing.T) {
	r := newTestCore(RouterOptions{})
	_, _, err := r.SetupProvider(models.Provider{ID: "tiny", Name: "Tiny", RateLimitRPM: 2}, []models.ModelSpec{
		{ModelID: "t1", Name: "T1", Capabilities: []models.Capability{models.CapTextGeneration}},
	})
	require.NoError(t, err)

	outcome := models.CompletionOutcome{ModelID: "t1", Provider: "tiny", Success: true}
	first := r.RecordCompletion(outcome)
	assert.False(t, first.RateLimited)
	second := r.RecordCompletion(outcome)
	assert.True(t, second.RateLimited)
}

func TestRecordCompletionSinkIsolation(t *testing.T) {
	r := newTestCore(RouterOptions{})
	// Unknown provider makes the health sink fail; all other sinks still
	// record the outcome.
	receipt := r.RecordCompletion(models.CompletionOutcome{
		ModelID:      "mystery",
		Provider:     "unregistered",
		InputTokens:  100,
		LatencyMs:    50,
		QualityScore: 0.5,
		Success:      true,
	})
	require.NotNil(t, receipt)

	stats, err := r.Latencies().LatencyStats("mystery")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SampleCount)
	_, err = r.Comparator().ModelPerformance("mystery")
	assert.NoError(t, err)
}

func TestRecordCompletionFeedsBreaker(t *testing.T) {
	r := newTestCore(RouterOptions{})
	setupAlphaProvider(t, r)
	r.Fallbacks().ConfigureRoute("m1", []string{"m2"})

	for i := 0; i < 5; i++ {
		r.RecordCompletion(models.CompletionOutcome{ModelID: "m1", Provider: "alpha", Success: false})
	}
	assert.False(t, r.Fallbacks().IsAvailable("m1"))
}

func TestSetupProviderRejectsBadCapability(t *testing.T) {
	r := newTestCore(RouterOptions{})
	_, registered, err := r.SetupProvider(models.Provider{ID: "alpha", Name: "Alpha"}, []models.ModelSpec{
		{ModelID: "ok", Name: "OK", Capabilities: []models.Capability{models.CapTextGeneration}},
		{ModelID: "bad", Name: "Bad", Capabilities: []models.Capability{models.Capability("clairvoyance")}},
	})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
	assert.Len(t, registered, 1)
}

func TestAnalyticsAndSummary(t *testing.T) {
	r := newTestCore(RouterOptions{DefaultStrategy: models.StrategyBalanced})
	setupAlphaProvider(t, r)

	_, err := r.RouteTask(RouteTaskParams{TaskText: "Write a haiku"})
	require.NoError(t, err)
	r.RecordCompletion(models.CompletionOutcome{ModelID: "m1", Provider: "alpha", LatencyMs: 100, Success: true})

	analytics := r.GetAnalytics()
	for _, key := range []string{"costs", "latencies", "cache", "quality", "health", "circuits", "selector"} {
		assert.Contains(t, analytics, key)
	}

	summary := r.GetSummary()
	assert.Equal(t, int64(1), summary["routed_tasks"])
	assert.Equal(t, int64(1), summary["recorded_completions"])
	assert.Equal(t, 2, summary["registered_models"])
}
