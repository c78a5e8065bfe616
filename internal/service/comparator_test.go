//go:build !integration && !e2e

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/model-router-go/internal/models"
	"go.uber.org/zap"
)

func TestEvaluateResponse(t *testing.T) {
	qc := NewQualityComparator(zap.NewNop())

	eval, err := qc.EvaluateResponse("gpt-4", "task-1", "coding", map[models.QualityDimension]float64{
		models.DimAccuracy:  0.9,
		models.DimRelevance: 0.7,
	}, 0, "solid answer")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, eval.OverallScore, 0.001)
	assert.NotEmpty(t, eval.EvalID)
	assert.Equal(t, "coding", eval.TaskDomain)
}

func TestEvaluateResponseClampsScores(t *testing.T) {
	qc := NewQualityComparator(zap.NewNop())

	eval, err := qc.EvaluateResponse("gpt-4", "", "", map[models.QualityDimension]float64{
		models.DimAccuracy: 1.7,
		models.DimSafety:   -0.5,
	}, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, eval.Scores[models.DimAccuracy])
	assert.Equal(t, 0.0, eval.Scores[models.DimSafety])
	assert.InDelta(t, 0.5, eval.OverallScore, 0.001)
}

func TestEvaluateResponseUnknownDimension(t *testing.T) {
	qc := NewQualityComparator(zap.NewNop())

	_, err := qc.EvaluateResponse("gpt-4", "", "", map[models.QualityDimension]float64{
		models.QualityDimension("vibes"): 0.9,
	}, 0, "")
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
}

func TestEvaluateResponseExplicitOverall(t *testing.T) {
	qc := NewQualityComparator(zap.NewNop())

	eval, err := qc.EvaluateResponse("gpt-4", "", "", nil, 0.65, "")
	require.NoError(t, err)
	assert.Equal(t, 0.65, eval.OverallScore)
}

func TestModelPerformanceAndComparison(t *testing.T) {
	qc := NewQualityComparator(zap.NewNop())

	for _, score := range []float64{0.6, 0.8} {
		_, err := qc.EvaluateResponse("gpt-4", "", "", nil, score, "")
		require.NoError(t, err)
	}
	_, err := qc.EvaluateResponse("claude-3", "", "", nil, 0.9, "")
	require.NoError(t, err)

	perf, err := qc.ModelPerformance("gpt-4")
	require.NoError(t, err)
	assert.InDelta(t, 0.7, perf.AvgScore, 0.001)
	assert.Equal(t, 0.8, perf.BestScore)
	assert.Equal(t, 2, perf.EvalCount)

	ranked := qc.CompareModels([]string{"gpt-4", "claude-3", "unseen"})
	require.Len(t, ranked, 2)
	assert.Equal(t, "claude-3", ranked[0].ModelID)
	assert.Equal(t, "gpt-4", ranked[1].ModelID)

	_, err = qc.ModelPerformance("unseen")
	assert.True(t, models.IsNotFound(err))
}

func TestBestModelForDomain(t *testing.T) {
	qc := NewQualityComparator(zap.NewNop())

	_, err := qc.EvaluateResponse("gpt-4", "", "coding", nil, 0.7, "")
	require.NoError(t, err)
	_, err = qc.EvaluateResponse("claude-3", "", "coding", nil, 0.9, "")
	require.NoError(t, err)
	_, err = qc.EvaluateResponse("gpt-3.5", "", "writing", nil, 0.95, "")
	require.NoError(t, err)

	best, err := qc.BestModelForDomain("coding")
	require.NoError(t, err)
	assert.Equal(t, "claude-3", best.ModelID)

	_, err = qc.BestModelForDomain("astrology")
	assert.True(t, models.IsNotFound(err))
}

func TestComparatorSummary(t *testing.T) {
	qc := NewQualityComparator(zap.NewNop())
	_, err := qc.EvaluateResponse("gpt-4", "", "", nil, 0.7, "")
	require.NoError(t, err)
	_, err = qc.EvaluateResponse("gpt-4", "", "", nil, 0.8, "")
	require.NoError(t, err)

	summary := qc.Summary()
	assert.Equal(t, 1, summary["evaluated_models"])
	assert.Equal(t, 2, summary["total_evaluations"])
}
