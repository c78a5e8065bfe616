package service

import (
	"sort"
	"sync"
	"time"

	"github.com/user/model-router-go/internal/models"
	"go.uber.org/zap"
)

// QualityComparator records quality evaluations of model responses and
// ranks models by their accumulated scores.
type QualityComparator struct {
	logger *zap.Logger

	mu          sync.RWMutex
	evaluations map[string][]models.Evaluation
	order       []string
}

// NewQualityComparator creates a QualityComparator.
func NewQualityComparator(logger *zap.Logger) *QualityComparator {
	return &QualityComparator{
		logger:      logger,
		evaluations: make(map[string][]models.Evaluation),
	}
}

// EvaluateResponse records one quality evaluation. Dimension scores are
// clamped to [0,1]; when overall is not supplied it is the mean of the
// dimension scores.
func (q *QualityComparator) EvaluateResponse(modelID, taskID, taskDomain string, scores map[models.QualityDimension]float64, overall float64, feedback string) (*models.Evaluation, error) {
	clamped := make(map[models.QualityDimension]float64, len(scores))
	for dim, v := range scores {
		if !validDimension(dim) {
			return nil, models.ValidationError("unknown quality dimension %q", dim)
		}
		clamped[dim] = clamp01(v)
	}
	if overall <= 0 && len(clamped) > 0 {
		var sum float64
		for _, v := range clamped {
			sum += v
		}
		overall = sum / float64(len(clamped))
	}

	eval := models.Evaluation{
		EvalID:       newID("ev"),
		ModelID:      modelID,
		TaskID:       taskID,
		TaskDomain:   taskDomain,
		Scores:       clamped,
		OverallScore: clamp01(overall),
		Feedback:     feedback,
		EvaluatedAt:  time.Now(),
	}

	q.mu.Lock()
	if _, seen := q.evaluations[modelID]; !seen {
		q.order = append(q.order, modelID)
	}
	q.evaluations[modelID] = append(q.evaluations[modelID], eval)
	q.mu.Unlock()

	q.logger.Debug("response evaluated",
		zap.String("model_id", modelID),
		zap.Float64("overall_score", eval.OverallScore))
	return &eval, nil
}

func validDimension(d models.QualityDimension) bool {
	for _, known := range models.QualityDimensions {
		if d == known {
			return true
		}
	}
	return false
}

// ModelPerformance aggregates the recorded evaluations for one model.
func (q *QualityComparator) ModelPerformance(modelID string) (models.ModelPerformance, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	evals, ok := q.evaluations[modelID]
	if !ok || len(evals) == 0 {
		return models.ModelPerformance{}, models.NotFoundError("no evaluations for model %q", modelID)
	}
	return aggregate(modelID, evals), nil
}

func aggregate(modelID string, evals []models.Evaluation) models.ModelPerformance {
	perf := models.ModelPerformance{ModelID: modelID, EvalCount: len(evals)}
	var sum float64
	for _, e := range evals {
		sum += e.OverallScore
		if e.OverallScore > perf.BestScore {
			perf.BestScore = e.OverallScore
		}
	}
	perf.AvgScore = sum / float64(len(evals))
	return perf
}

// CompareModels ranks the given models by average overall score, best
// first. Models without evaluations are skipped.
func (q *QualityComparator) CompareModels(modelIDs []string) []models.ModelPerformance {
	q.mu.RLock()
	ranked := make([]models.ModelPerformance, 0, len(modelIDs))
	for _, id := range modelIDs {
		if evals := q.evaluations[id]; len(evals) > 0 {
			ranked = append(ranked, aggregate(id, evals))
		}
	}
	q.mu.RUnlock()
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AvgScore > ranked[j].AvgScore
	})
	return ranked
}

// BestModelForDomain returns the model with the highest average score among
// evaluations tagged with the given task domain.
func (q *QualityComparator) BestModelForDomain(domain string) (models.ModelPerformance, error) {
	q.mu.RLock()
	var best models.ModelPerformance
	found := false
	for _, id := range q.order {
		var domainEvals []models.Evaluation
		for _, e := range q.evaluations[id] {
			if e.TaskDomain == domain {
				domainEvals = append(domainEvals, e)
			}
		}
		if len(domainEvals) == 0 {
			continue
		}
		perf := aggregate(id, domainEvals)
		if !found || perf.AvgScore > best.AvgScore {
			best = perf
			found = true
		}
	}
	q.mu.RUnlock()
	if !found {
		return models.ModelPerformance{}, models.NotFoundError("no evaluations for domain %q", domain)
	}
	return best, nil
}

// Summary returns comparator-level counters.
func (q *QualityComparator) Summary() map[string]any {
	q.mu.RLock()
	defer q.mu.RUnlock()
	total := 0
	for _, evals := range q.evaluations {
		total += len(evals)
	}
	return map[string]any{
		"evaluated_models":  len(q.evaluations),
		"total_evaluations": total,
	}
}
