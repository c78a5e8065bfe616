package service

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/user/model-router-go/internal/models"
	"go.uber.org/zap"
)

// budget accumulates spend against daily and monthly caps. Alerts are
// recorded, never enforced.
type budget struct {
	name         string
	provider     string
	dailyLimit   float64
	monthlyLimit float64

	day          string
	month        string
	dailySpent   float64
	monthlySpent float64
	alerts       []models.BudgetAlert
}

// CostTracker accumulates per-call cost samples and tracks named budgets.
// Records are append-only and aggregated on read.
type CostTracker struct {
	logger *zap.Logger

	mu      sync.RWMutex
	records []models.UsageRecord
	budgets map[string]*budget
}

// NewCostTracker creates a CostTracker.
func NewCostTracker(logger *zap.Logger) *CostTracker {
	return &CostTracker{
		logger:  logger,
		budgets: make(map[string]*budget),
	}
}

// roundCost rounds to 6 decimal places, the resolution costs are stored at.
func roundCost(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// RecordUsage computes the cost of one call and appends it to the ledger.
// Spend is applied to every budget whose scope matches the provider.
func (c *CostTracker) RecordUsage(modelID, provider string, inputTokens, outputTokens int, inputPricePer1K, outputPricePer1K float64, taskID string) *models.UsageRecord {
	now := time.Now()
	inputCost := roundCost(float64(inputTokens) / 1000 * inputPricePer1K)
	outputCost := roundCost(float64(outputTokens) / 1000 * outputPricePer1K)
	record := models.UsageRecord{
		RecordID:     newID("ur"),
		ModelID:      modelID,
		Provider:     provider,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		InputCost:    inputCost,
		OutputCost:   outputCost,
		TotalCost:    roundCost(inputCost + outputCost),
		TaskID:       taskID,
		RecordedAt:   now,
	}

	c.mu.Lock()
	c.records = append(c.records, record)
	for _, b := range c.budgets {
		if b.provider != "" && b.provider != provider {
			continue
		}
		c.applySpendLocked(b, record.TotalCost, now)
	}
	c.mu.Unlock()

	c.logger.Debug("usage recorded",
		zap.String("record_id", record.RecordID),
		zap.String("model_id", modelID),
		zap.Float64("total_cost", record.TotalCost))
	return &record
}

// applySpendLocked rolls the budget's periods forward and raises an alert
// the first time spend crosses a cap within a period.
func (c *CostTracker) applySpendLocked(b *budget, cost float64, now time.Time) {
	day := now.Format("2006-01-02")
	month := now.Format("2006-01")
	if b.day != day {
		b.day = day
		b.dailySpent = 0
	}
	if b.month != month {
		b.month = month
		b.monthlySpent = 0
	}

	prevDaily, prevMonthly := b.dailySpent, b.monthlySpent
	b.dailySpent = roundCost(b.dailySpent + cost)
	b.monthlySpent = roundCost(b.monthlySpent + cost)

	if b.dailyLimit > 0 && prevDaily <= b.dailyLimit && b.dailySpent > b.dailyLimit {
		b.alerts = append(b.alerts, models.BudgetAlert{Type: models.AlertDailyExceeded, At: now})
		c.logger.Warn("daily budget exceeded",
			zap.String("budget", b.name),
			zap.Float64("spent", b.dailySpent),
			zap.Float64("limit", b.dailyLimit))
	}
	if b.monthlyLimit > 0 && prevMonthly <= b.monthlyLimit && b.monthlySpent > b.monthlyLimit {
		b.alerts = append(b.alerts, models.BudgetAlert{Type: models.AlertMonthlyExceeded, At: now})
		c.logger.Warn("monthly budget exceeded",
			zap.String("budget", b.name),
			zap.Float64("spent", b.monthlySpent),
			zap.Float64("limit", b.monthlyLimit))
	}
}

// SetBudget creates or replaces a named budget. An empty provider scopes the
// budget to all spend.
func (c *CostTracker) SetBudget(name, provider string, dailyLimit, monthlyLimit float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.budgets[name] = &budget{
		name:         name,
		provider:     provider,
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
	}
}

// BudgetStatus returns a copy-safe view of one named budget.
func (c *CostTracker) BudgetStatus(name string) (models.BudgetStatus, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.budgets[name]
	if !ok {
		return models.BudgetStatus{}, models.NotFoundError("budget %q not found", name)
	}
	return models.BudgetStatus{
		Name:         b.name,
		Provider:     b.provider,
		DailyLimit:   b.dailyLimit,
		MonthlyLimit: b.monthlyLimit,
		DailySpent:   b.dailySpent,
		MonthlySpent: b.monthlySpent,
		Alerts:       append([]models.BudgetAlert(nil), b.alerts...),
	}, nil
}

// CostByModel aggregates spend for one model.
func (c *CostTracker) CostByModel(modelID string) models.CostReport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	report := models.CostReport{ModelID: modelID}
	for _, r := range c.records {
		if r.ModelID != modelID {
			continue
		}
		report.TotalCost = roundCost(report.TotalCost + r.TotalCost)
		report.TotalTokens += r.TotalTokens
		report.UsageCount++
	}
	if report.UsageCount > 0 {
		report.AvgCost = roundCost(report.TotalCost / float64(report.UsageCount))
	}
	return report
}

// CostByProvider aggregates spend for one provider.
func (c *CostTracker) CostByProvider(provider string) models.CostReport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	report := models.CostReport{Provider: provider}
	for _, r := range c.records {
		if r.Provider != provider {
			continue
		}
		report.TotalCost = roundCost(report.TotalCost + r.TotalCost)
		report.TotalTokens += r.TotalTokens
		report.UsageCount++
	}
	if report.UsageCount > 0 {
		report.AvgCost = roundCost(report.TotalCost / float64(report.UsageCount))
	}
	return report
}

// CompareProviders ranks all seen providers by cost per 1k tokens, cheapest
// first.
func (c *CostTracker) CompareProviders() []models.ProviderCostComparison {
	c.mu.RLock()
	byProvider := make(map[string]*models.ProviderCostComparison)
	var order []string
	for _, r := range c.records {
		entry, ok := byProvider[r.Provider]
		if !ok {
			entry = &models.ProviderCostComparison{Provider: r.Provider}
			byProvider[r.Provider] = entry
			order = append(order, r.Provider)
		}
		entry.TotalCost = roundCost(entry.TotalCost + r.TotalCost)
		entry.TotalTokens += r.TotalTokens
		entry.UsageCount++
	}
	c.mu.RUnlock()

	comparisons := make([]models.ProviderCostComparison, 0, len(order))
	for _, p := range order {
		entry := byProvider[p]
		if entry.TotalTokens > 0 {
			entry.CostPer1KToken = roundCost(entry.TotalCost / float64(entry.TotalTokens) * 1000)
		}
		comparisons = append(comparisons, *entry)
	}
	sort.SliceStable(comparisons, func(i, j int) bool {
		return comparisons[i].CostPer1KToken < comparisons[j].CostPer1KToken
	})
	return comparisons
}

// Summary returns ledger-level totals.
func (c *CostTracker) Summary() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var totalCost float64
	var totalTokens int
	for _, r := range c.records {
		totalCost = roundCost(totalCost + r.TotalCost)
		totalTokens += r.TotalTokens
	}
	return map[string]any{
		"total_records": len(c.records),
		"total_cost":    totalCost,
		"total_tokens":  totalTokens,
		"budgets":       len(c.budgets),
	}
}
