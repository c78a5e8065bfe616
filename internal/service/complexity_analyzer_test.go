//go:build !integration && !e2e

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/model-router-go/internal/models"
	"go.uber.org/zap"
)

func TestAnalyzeScoring(t *testing.T) {
	a := NewComplexityAnalyzer(zap.NewNop())

	tests := []struct {
		name      string
		task      string
		context   string
		wantLevel models.ComplexityLevel
	}{
		{
			name:      "short greeting is trivial",
			task:      "Hi",
			wantLevel: models.ComplexityTrivial,
		},
		{
			name:      "single marker short task is simple",
			task:      "Explain why this design works in one short sentence please and thanks",
			wantLevel: models.ComplexitySimple,
		},
		{
			name: "marker-dense task with context is moderate or above",
			task: "Analyze and compare these two architectures, evaluate the trade-offs and design an optimization strategy",
			context: "We run a latency sensitive service with strict budgets " +
				"and a mixed workload profile",
			wantLevel: models.ComplexityModerate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := a.Analyze(tt.task, tt.context, 0)
			assert.GreaterOrEqual(t, analysis.Score, 0.0)
			assert.LessOrEqual(t, analysis.Score, 1.0)
			if tt.wantLevel == models.ComplexityModerate {
				assert.GreaterOrEqual(t, analysis.Score, 0.4)
			} else {
				assert.Equal(t, tt.wantLevel, analysis.Level)
			}
			assert.NotEmpty(t, analysis.AnalysisID)
		})
	}
}

func TestAnalyzeEmptyText(t *testing.T) {
	a := NewComplexityAnalyzer(zap.NewNop())

	analysis := a.Analyze("", "", 0)

	assert.Equal(t, 0.0, analysis.Score)
	assert.Equal(t, models.ComplexityTrivial, analysis.Level)
	assert.Equal(t, "general", analysis.Domain)
	assert.Equal(t, minTokenEstimate, analysis.EstimatedTokens)
}

func TestAnalyzeDomainDetection(t *testing.T) {
	a := NewComplexityAnalyzer(zap.NewNop())

	tests := []struct {
		task   string
		domain string
	}{
		{"Debug this function, the api returns the wrong code", "coding"},
		{"Solve this equation and show the proof", "math"},
		{"Draft a blog article about remote work", "writing"},
		{"Translate this letter to spanish", "translation"},
		{"What should I eat for lunch", "general"},
	}
	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			assert.Equal(t, tt.domain, a.Analyze(tt.task, "", 0).Domain)
		})
	}

	t.Run("tie goes to first registered bucket", func(t *testing.T) {
		// One coding keyword and one math keyword.
		analysis := a.Analyze("calculate the result of this code", "", 0)
		assert.Equal(t, "coding", analysis.Domain)
	})
}

func TestAnalyzeTokenEstimate(t *testing.T) {
	a := NewComplexityAnalyzer(zap.NewNop())

	t.Run("hint overrides heuristic", func(t *testing.T) {
		analysis := a.Analyze("summarize this", "", 4096)
		assert.Equal(t, 4096, analysis.EstimatedTokens)
	})

	t.Run("floor applies to tiny tasks", func(t *testing.T) {
		analysis := a.Analyze("hello", "", 0)
		assert.Equal(t, minTokenEstimate, analysis.EstimatedTokens)
	})

	t.Run("hyphenated compounds count as separate words", func(t *testing.T) {
		analysis := a.Analyze("weigh the trade-offs", "", 0)
		assert.Equal(t, 4, analysis.WordCount)
	})
}

func TestPredictResources(t *testing.T) {
	a := NewComplexityAnalyzer(zap.NewNop())

	analysis := a.Analyze("summarize this short note", "", 1000)
	prediction, err := a.PredictResources(analysis.AnalysisID)
	require.NoError(t, err)

	assert.Equal(t, analysis.AnalysisID, prediction.AnalysisID)
	assert.Equal(t, 1000, prediction.EstimatedTokens)
	assert.Equal(t, 2000.0, prediction.EstimatedLatencyMs)
	assert.Equal(t, "small", prediction.MemoryClass)

	t.Run("memory class scales with tokens", func(t *testing.T) {
		big := a.Analyze("summarize", "", 10000)
		prediction, err := a.PredictResources(big.AnalysisID)
		require.NoError(t, err)
		assert.Equal(t, "large", prediction.MemoryClass)
	})

	t.Run("unknown analysis id", func(t *testing.T) {
		_, err := a.PredictResources("ca_ffffffff")
		assert.True(t, models.IsNotFound(err))
	})
}

func TestAnalyzerSummary(t *testing.T) {
	a := NewComplexityAnalyzer(zap.NewNop())

	a.Analyze("first task", "", 0)
	a.Analyze("second task", "", 0)

	summary := a.Summary()
	assert.Equal(t, 2, summary["total_analyses"])
	assert.Equal(t, int64(2), summary["analyses_performed"])
	assert.Equal(t, 2, a.AnalysisCount())
}
