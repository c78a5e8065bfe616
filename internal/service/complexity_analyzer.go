package service

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/user/model-router-go/internal/models"
	"go.uber.org/zap"
)

// complexityMarkers is the fixed vocabulary of phrases that indicate a
// harder task. Matched case-insensitively as substrings; each distinct
// marker found adds markerWeight to the score.
var complexityMarkers = []string{
	"analyze",
	"compare",
	"optimize",
	"optimization",
	"trade-off",
	"evaluate",
	"design",
	"explain",
	"implement",
	"architect",
	"prove",
	"derive",
	"refactor",
	"multi-step",
	"step by step",
	"in depth",
	"why",
	"vs",
	"complex",
	"strategy",
}

const (
	markerWeight     = 0.08
	markerScoreCap   = 0.4
	questionWeight   = 0.05
	questionScoreCap = 0.15
	contextBonus     = 0.1
	minTokenEstimate = 256
)

// domainBucket maps a domain to its keyword list. Order matters: ties are
// resolved by the first registered domain.
type domainBucket struct {
	domain   string
	keywords []string
}

var domainBuckets = []domainBucket{
	{"coding", []string{"code", "function", "debug", "bug", "api", "program", "script", "compile", "class", "variable"}},
	{"math", []string{"equation", "calculate", "formula", "proof", "math", "solve", "theorem", "algebra", "geometry", "integral"}},
	{"writing", []string{"essay", "article", "blog", "write", "draft", "edit", "paragraph", "story", "letter", "copy"}},
	{"analysis", []string{"data", "statistics", "trend", "insight", "metric", "dataset", "correlation", "forecast", "report", "chart"}},
	{"translation", []string{"translate", "translation", "language", "english", "spanish", "french", "german", "localize", "bilingual", "interpret"}},
	{"legal", []string{"contract", "clause", "legal", "compliance", "regulation", "law", "liability", "agreement", "statute", "court"}},
	{"medical", []string{"patient", "diagnosis", "symptom", "treatment", "medical", "clinical", "disease", "drug", "therapy", "dosage"}},
	{"science", []string{"experiment", "hypothesis", "research", "physics", "chemistry", "biology", "molecule", "quantum", "cell", "energy"}},
	{"business", []string{"market", "revenue", "customer", "sales", "profit", "budget", "invest", "startup", "pricing", "growth"}},
	{"creative", []string{"poem", "song", "creative", "imagine", "fiction", "character", "plot", "lyrics", "brainstorm", "invent"}},
}

// ComplexityAnalyzer scores inbound tasks for difficulty, token footprint,
// and domain. It never fails: empty text yields score 0, level trivial.
type ComplexityAnalyzer struct {
	logger *zap.Logger

	mu       sync.RWMutex
	analyses map[string]*models.ComplexityAnalysis

	statsMu  sync.Mutex
	analyzed int64
	predicts int64
}

// NewComplexityAnalyzer creates a ComplexityAnalyzer.
func NewComplexityAnalyzer(logger *zap.Logger) *ComplexityAnalyzer {
	return &ComplexityAnalyzer{
		logger:   logger,
		analyses: make(map[string]*models.ComplexityAnalysis),
	}
}

// Analyze scores taskText and returns an immutable analysis. tokenHint, when
// positive, overrides the heuristic token estimate.
func (a *ComplexityAnalyzer) Analyze(taskText, context string, tokenHint int) *models.ComplexityAnalysis {
	lower := strings.ToLower(taskText)
	wordCount := countWords(lower)

	score := lengthScore(wordCount)
	if strings.TrimSpace(context) != "" {
		score += contextBonus
	}

	markerCount := 0
	markerScore := 0.0
	for _, marker := range complexityMarkers {
		if strings.Contains(lower, marker) {
			markerCount++
			markerScore += markerWeight
		}
	}
	if markerScore > markerScoreCap {
		markerScore = markerScoreCap
	}
	score += markerScore

	questionScore := float64(strings.Count(taskText, "?")) * questionWeight
	if questionScore > questionScoreCap {
		questionScore = questionScoreCap
	}
	score += questionScore

	score = clamp01(score)

	analysis := &models.ComplexityAnalysis{
		AnalysisID:      newID("ca"),
		Score:           score,
		Level:           levelForScore(score),
		Domain:          detectDomain(lower),
		EstimatedTokens: estimateTokens(wordCount, score, tokenHint),
		ReasoningDepth:  depthForScore(score),
		WordCount:       wordCount,
		MarkerCount:     markerCount,
		AnalyzedAt:      time.Now().UTC(),
	}

	a.mu.Lock()
	a.analyses[analysis.AnalysisID] = analysis
	a.mu.Unlock()

	a.statsMu.Lock()
	a.analyzed++
	a.statsMu.Unlock()

	a.logger.Debug("task analyzed",
		zap.String("analysis_id", analysis.AnalysisID),
		zap.Float64("score", score),
		zap.String("level", string(analysis.Level)),
		zap.String("domain", analysis.Domain))

	return analysis
}

// PredictResources estimates serving cost for a previously produced analysis.
func (a *ComplexityAnalyzer) PredictResources(analysisID string) (*models.ResourcePrediction, error) {
	a.mu.RLock()
	analysis, ok := a.analyses[analysisID]
	a.mu.RUnlock()
	if !ok {
		return nil, models.NotFoundError("analysis %q not found", analysisID)
	}

	a.statsMu.Lock()
	a.predicts++
	a.statsMu.Unlock()

	// Latency scales with estimated output size; reasoning depth adds a
	// fixed multiplier on top.
	latency := float64(analysis.EstimatedTokens) * 2
	switch analysis.ReasoningDepth {
	case models.ReasoningDeep:
		latency *= 2
	case models.ReasoningModerate:
		latency *= 1.5
	}

	memClass := "small"
	switch {
	case analysis.EstimatedTokens > 8192:
		memClass = "large"
	case analysis.EstimatedTokens > 2048:
		memClass = "medium"
	}

	return &models.ResourcePrediction{
		AnalysisID:         analysisID,
		EstimatedLatencyMs: latency,
		EstimatedTokens:    analysis.EstimatedTokens,
		MemoryClass:        memClass,
	}, nil
}

// AnalysisCount returns the number of retained analyses.
func (a *ComplexityAnalyzer) AnalysisCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.analyses)
}

// Summary returns read-only analyzer counters.
func (a *ComplexityAnalyzer) Summary() map[string]any {
	a.mu.RLock()
	total := len(a.analyses)
	a.mu.RUnlock()

	a.statsMu.Lock()
	analyzed, predicts := a.analyzed, a.predicts
	a.statsMu.Unlock()

	return map[string]any{
		"total_analyses":        total,
		"analyses_performed":    analyzed,
		"predictions_performed": predicts,
		"complexity_levels":     len(models.ComplexityLevels),
		"domains":               len(domainBuckets),
	}
}

// countWords splits on whitespace and hyphens so compounds like
// "trade-offs" count as two words.
func countWords(text string) int {
	return len(strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	}))
}

// lengthScore gives partial credit at 10 and 50 words, saturating at 200.
func lengthScore(wordCount int) float64 {
	switch {
	case wordCount > 200:
		return 0.3
	case wordCount > 50:
		return 0.2
	case wordCount >= 10:
		return 0.1
	}
	return 0
}

func levelForScore(score float64) models.ComplexityLevel {
	switch {
	case score >= 0.8:
		return models.ComplexityExpert
	case score >= 0.6:
		return models.ComplexityComplex
	case score >= 0.4:
		return models.ComplexityModerate
	case score >= 0.2:
		return models.ComplexitySimple
	}
	return models.ComplexityTrivial
}

func depthForScore(score float64) models.ReasoningDepth {
	switch {
	case score >= 0.8:
		return models.ReasoningDeep
	case score >= 0.5:
		return models.ReasoningModerate
	}
	return models.ReasoningShallow
}

// detectDomain picks the domain bucket with the most keyword hits.
// Ties go to the first registered bucket; no hits means "general".
func detectDomain(lowerText string) string {
	best := "general"
	bestHits := 0
	for _, bucket := range domainBuckets {
		hits := 0
		for _, kw := range bucket.keywords {
			if strings.Contains(lowerText, kw) {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			best = bucket.domain
		}
	}
	return best
}

func estimateTokens(wordCount int, score float64, hint int) int {
	if hint > 0 {
		return hint
	}
	estimate := int(float64(wordCount) * 2 * (1 + 4*score))
	if estimate < minTokenEstimate {
		return minTokenEstimate
	}
	return estimate
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
