package service

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/user/model-router-go/internal/models"
	"go.uber.org/zap"
)

// latencySeries holds the append-only samples for one model.
type latencySeries struct {
	samples  []float64
	timeouts int64
	failures int64
}

// LatencyOptimizer accumulates per-model latency samples and ranks models by
// observed speed.
type LatencyOptimizer struct {
	logger           *zap.Logger
	defaultTimeoutMs float64

	mu       sync.RWMutex
	series   map[string]*latencySeries
	timeouts map[string]float64
}

// NewLatencyOptimizer creates a LatencyOptimizer. defaultTimeoutMs applies
// to models without an explicit timeout; non-positive falls back to 30000.
func NewLatencyOptimizer(defaultTimeoutMs float64, logger *zap.Logger) *LatencyOptimizer {
	if defaultTimeoutMs <= 0 {
		defaultTimeoutMs = 30000
	}
	return &LatencyOptimizer{
		logger:           logger,
		defaultTimeoutMs: defaultTimeoutMs,
		series:           make(map[string]*latencySeries),
		timeouts:         make(map[string]float64),
	}
}

// RecordLatency appends one sample for a model. Samples slower than the
// model's configured timeout are counted as timeouts as well.
func (l *LatencyOptimizer) RecordLatency(modelID string, latencyMs float64, success bool) {
	l.mu.Lock()
	s, ok := l.series[modelID]
	if !ok {
		s = &latencySeries{}
		l.series[modelID] = s
	}
	s.samples = append(s.samples, latencyMs)
	if !success {
		s.failures++
	}
	timedOut := latencyMs > l.timeoutForLocked(modelID)
	if timedOut {
		s.timeouts++
	}
	l.mu.Unlock()

	if timedOut {
		l.logger.Warn("latency sample exceeded timeout",
			zap.String("model_id", modelID),
			zap.Float64("latency_ms", latencyMs))
	}
}

// SetTimeout sets the per-model timeout in milliseconds.
func (l *LatencyOptimizer) SetTimeout(modelID string, timeoutMs float64) {
	l.mu.Lock()
	l.timeouts[modelID] = timeoutMs
	l.mu.Unlock()
}

// Timeout returns the effective timeout for a model.
func (l *LatencyOptimizer) Timeout(modelID string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.timeoutForLocked(modelID)
}

func (l *LatencyOptimizer) timeoutForLocked(modelID string) float64 {
	if t, ok := l.timeouts[modelID]; ok && t > 0 {
		return t
	}
	return l.defaultTimeoutMs
}

// LatencyStats summarizes the recorded samples for one model.
func (l *LatencyOptimizer) LatencyStats(modelID string) (models.LatencyStats, error) {
	l.mu.RLock()
	s, ok := l.series[modelID]
	if !ok || len(s.samples) == 0 {
		l.mu.RUnlock()
		return models.LatencyStats{}, models.NotFoundError("no latency samples for model %q", modelID)
	}
	samples := append([]float64(nil), s.samples...)
	l.mu.RUnlock()

	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	var sum float64
	for _, v := range samples {
		sum += v
	}
	return models.LatencyStats{
		ModelID:      modelID,
		AvgLatencyMs: sum / float64(len(samples)),
		MinLatencyMs: sorted[0],
		MaxLatencyMs: sorted[len(sorted)-1],
		P50LatencyMs: percentile(sorted, 0.5),
		P95LatencyMs: percentile(sorted, 0.95),
		SampleCount:  len(samples),
	}, nil
}

// percentile uses nearest-rank indexing on an already sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Floor(float64(len(sorted)) * p))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// FastestModel ranks the candidates with at least minSamples observations by
// mean latency and returns the fastest.
func (l *LatencyOptimizer) FastestModel(candidates []string, minSamples int) (*models.LatencyRanking, error) {
	rankings := l.RankModels(candidates, minSamples)
	if len(rankings) == 0 {
		return nil, models.NoCandidateError("no candidate has %d or more latency samples", minSamples)
	}
	fastest := rankings[0]
	return &fastest, nil
}

// RankModels returns latency rankings for the candidates with enough
// samples, fastest mean first.
func (l *LatencyOptimizer) RankModels(candidates []string, minSamples int) []models.LatencyRanking {
	rankings := make([]models.LatencyRanking, 0, len(candidates))
	for _, id := range candidates {
		stats, err := l.LatencyStats(id)
		if err != nil || stats.SampleCount < minSamples {
			continue
		}
		rankings = append(rankings, models.LatencyRanking{
			ModelID:      id,
			AvgLatencyMs: stats.AvgLatencyMs,
			P50LatencyMs: stats.P50LatencyMs,
			P95LatencyMs: stats.P95LatencyMs,
			SampleCount:  stats.SampleCount,
		})
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].AvgLatencyMs < rankings[j].AvgLatencyMs
	})
	return rankings
}

// OptimizeRouting inspects every tracked model against a latency budget and
// suggests corrective actions for the slow ones.
func (l *LatencyOptimizer) OptimizeRouting(budgetMs float64) []models.RoutingRecommendation {
	l.mu.RLock()
	ids := make([]string, 0, len(l.series))
	for id := range l.series {
		ids = append(ids, id)
	}
	l.mu.RUnlock()
	sort.Strings(ids)

	var recs []models.RoutingRecommendation
	for _, id := range ids {
		stats, err := l.LatencyStats(id)
		if err != nil {
			continue
		}
		switch {
		case stats.AvgLatencyMs > budgetMs:
			recs = append(recs, models.RoutingRecommendation{
				ModelID:      id,
				AvgLatencyMs: stats.AvgLatencyMs,
				Action:       "deprioritize",
				Reason:       fmt.Sprintf("average latency %.0fms exceeds budget %.0fms", stats.AvgLatencyMs, budgetMs),
			})
		case stats.P95LatencyMs > budgetMs:
			recs = append(recs, models.RoutingRecommendation{
				ModelID:      id,
				AvgLatencyMs: stats.AvgLatencyMs,
				Action:       "monitor",
				Reason:       fmt.Sprintf("p95 latency %.0fms exceeds budget %.0fms", stats.P95LatencyMs, budgetMs),
			})
		}
	}
	return recs
}

// Summary returns optimizer-level counters.
func (l *LatencyOptimizer) Summary() map[string]any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var samples int
	var timeouts, failures int64
	for _, s := range l.series {
		samples += len(s.samples)
		timeouts += s.timeouts
		failures += s.failures
	}
	return map[string]any{
		"tracked_models":     len(l.series),
		"total_samples":      samples,
		"timeouts":           timeouts,
		"failed_samples":     failures,
		"default_timeout_ms": l.defaultTimeoutMs,
	}
}
