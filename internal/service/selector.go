package service

import (
	"sync"

	"github.com/user/model-router-go/internal/models"
	"go.uber.org/zap"
)

// Normalization ceilings for scoring factors.
const (
	contextWindowNorm = 200000
	capabilityNorm    = 10
	inputCostNorm     = 0.1
)

// SelectionCriteria bounds the candidate set before scoring. Zero values
// disable the corresponding bound.
type SelectionCriteria struct {
	RequiredCapabilities []models.Capability
	Strategy             models.Strategy
	MaxCostPer1K         float64
	MaxLatencyMs         float64
	MinContext           int
	ComplexityScore      float64
}

// Selector scores and ranks candidate models under a named strategy.
// Scoring is pure: identical inputs always yield the same ranked order.
type Selector struct {
	logger *zap.Logger

	statsMu    sync.Mutex
	selections int64
	fallbacks  int64
	byStrategy map[models.Strategy]int64
}

// NewSelector creates a Selector.
func NewSelector(logger *zap.Logger) *Selector {
	return &Selector{
		logger:     logger,
		byStrategy: make(map[models.Strategy]int64),
	}
}

// Select filters candidates by the criteria, scores the survivors under the
// strategy, and returns the top candidate. When filtering removes every
// candidate from a non-empty pool the first unfiltered candidate is returned
// and flagged as a fallback selection.
func (s *Selector) Select(candidates []*models.Model, criteria SelectionCriteria) (*models.SelectionResult, error) {
	scoreFn, ok := strategyScorers[criteria.Strategy]
	if !ok {
		return nil, models.ValidationError("unknown strategy %q", criteria.Strategy)
	}
	if len(candidates) == 0 {
		return nil, models.NoCandidateError("no candidate models supplied")
	}

	filtered := filterCandidates(candidates, criteria)

	if len(filtered) == 0 {
		// Never fail outright when the pool was non-empty: surface the
		// first unfiltered candidate as a fallback selection.
		s.recordSelection(criteria.Strategy, true)
		s.logger.Warn("selection filters removed all candidates, using fallback",
			zap.String("strategy", string(criteria.Strategy)),
			zap.String("model_id", candidates[0].ID))
		return &models.SelectionResult{
			ModelID:        candidates[0].ID,
			Score:          0,
			Strategy:       criteria.Strategy,
			CandidateCount: len(candidates),
			IsFallback:     true,
			MaxLatencyMs:   criteria.MaxLatencyMs,
		}, nil
	}

	best := filtered[0]
	bestScore := scoreFn(best)
	for _, m := range filtered[1:] {
		// Strictly greater keeps input order stable on ties.
		if score := scoreFn(m); score > bestScore {
			best = m
			bestScore = score
		}
	}

	s.recordSelection(criteria.Strategy, false)
	s.logger.Debug("model selected",
		zap.String("model_id", best.ID),
		zap.String("strategy", string(criteria.Strategy)),
		zap.Float64("score", bestScore),
		zap.Float64("complexity_score", criteria.ComplexityScore),
		zap.Int("candidates", len(filtered)))

	return &models.SelectionResult{
		ModelID:        best.ID,
		Score:          bestScore,
		Strategy:       criteria.Strategy,
		CandidateCount: len(filtered),
		MaxLatencyMs:   criteria.MaxLatencyMs,
	}, nil
}

// SelectionCount returns the total number of completed selections.
func (s *Selector) SelectionCount() int64 {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.selections
}

// Summary returns selection counters broken down by strategy.
func (s *Selector) Summary() map[string]any {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	byStrategy := make(map[string]int64, len(s.byStrategy))
	for k, v := range s.byStrategy {
		byStrategy[string(k)] = v
	}
	return map[string]any{
		"total_selections":    s.selections,
		"fallback_selections": s.fallbacks,
		"by_strategy":         byStrategy,
	}
}

func (s *Selector) recordSelection(strategy models.Strategy, fallback bool) {
	s.statsMu.Lock()
	s.selections++
	s.byStrategy[strategy]++
	if fallback {
		s.fallbacks++
	}
	s.statsMu.Unlock()
}

func filterCandidates(candidates []*models.Model, c SelectionCriteria) []*models.Model {
	filtered := make([]*models.Model, 0, len(candidates))
	for _, m := range candidates {
		if m.Status != models.StatusActive {
			continue
		}
		if !hasAllCapabilities(m, c.RequiredCapabilities) {
			continue
		}
		if c.MaxCostPer1K > 0 && m.InputCostPer1K > c.MaxCostPer1K {
			continue
		}
		if c.MinContext > 0 && m.ContextWindow < c.MinContext {
			continue
		}
		filtered = append(filtered, m)
	}
	return filtered
}

func hasAllCapabilities(m *models.Model, required []models.Capability) bool {
	for _, c := range required {
		if !m.HasCapability(c) {
			return false
		}
	}
	return true
}

// strategyScorers maps each strategy to its scoring function. All factors
// are normalized to [0,1] before blending.
var strategyScorers = map[models.Strategy]func(*models.Model) float64{
	models.StrategyBestQuality:     scoreBestQuality,
	models.StrategyLowestCost:      scoreLowestCost,
	models.StrategyBalanced:        scoreBalanced,
	models.StrategyFastest:         scoreFastest,
	models.StrategyCapabilityMatch: scoreCapabilityMatch,
}

func contextFactor(m *models.Model) float64 {
	return minF(float64(m.ContextWindow)/contextWindowNorm, 1)
}

func capabilityFactor(m *models.Model) float64 {
	return minF(float64(len(m.Capabilities))/capabilityNorm, 1)
}

func costFactor(m *models.Model) float64 {
	return 1 - minF(m.InputCostPer1K/inputCostNorm, 1)
}

func scoreBestQuality(m *models.Model) float64 {
	return 0.5*contextFactor(m) + 0.5*capabilityFactor(m)
}

func scoreLowestCost(m *models.Model) float64 {
	return costFactor(m)
}

func scoreBalanced(m *models.Model) float64 {
	quality := 0.3*contextFactor(m) + 0.3*capabilityFactor(m)
	return 0.6*quality + 0.4*costFactor(m)
}

// scoreFastest uses a smaller context window as a speed proxy.
func scoreFastest(m *models.Model) float64 {
	return 1 - contextFactor(m)
}

func scoreCapabilityMatch(m *models.Model) float64 {
	return capabilityFactor(m)
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
