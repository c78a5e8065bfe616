//go:build !integration && !e2e

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/model-router-go/internal/models"
	"go.uber.org/zap"
)

func TestRecordUsageComputesRoundedCost(t *testing.T) {
	ct := NewCostTracker(zap.NewNop())

	record := ct.RecordUsage("gpt-4", "openai", 1500, 500, 0.03, 0.06, "task-1")
	assert.Equal(t, 2000, record.TotalTokens)
	assert.InDelta(t, 0.045, record.InputCost, 1e-9)
	assert.InDelta(t, 0.03, record.OutputCost, 1e-9)
	assert.InDelta(t, 0.075, record.TotalCost, 1e-9)
	assert.NotEmpty(t, record.RecordID)
}

func TestRecordUsageRoundsToSixDecimals(t *testing.T) {
	ct := NewCostTracker(zap.NewNop())
	record := ct.RecordUsage("gpt-3.5", "openai", 7, 0, 0.0005, 0.0015, "")
	// 7/1000*0.0005 = 0.0000035 rounds to 0.000004 at 6 decimals.
	assert.InDelta(t, 0.000004, record.InputCost, 1e-12)
}

func TestCostAggregation(t *testing.T) {
	ct := NewCostTracker(zap.NewNop())
	ct.RecordUsage("gpt-4", "openai", 1000, 1000, 0.03, 0.06, "")
	ct.RecordUsage("gpt-4", "openai", 1000, 1000, 0.03, 0.06, "")
	ct.RecordUsage("claude-3", "anthropic", 1000, 1000, 0.015, 0.075, "")

	byModel := ct.CostByModel("gpt-4")
	assert.Equal(t, 2, byModel.UsageCount)
	assert.InDelta(t, 0.18, byModel.TotalCost, 1e-9)
	assert.Equal(t, 4000, byModel.TotalTokens)
	assert.InDelta(t, 0.09, byModel.AvgCost, 1e-9)

	byProvider := ct.CostByProvider("anthropic")
	assert.Equal(t, 1, byProvider.UsageCount)
	assert.InDelta(t, 0.09, byProvider.TotalCost, 1e-9)

	empty := ct.CostByModel("unknown")
	assert.Zero(t, empty.UsageCount)
	assert.Zero(t, empty.TotalCost)
}

func TestCompareProvidersCheapestFirst(t *testing.T) {
	ct := NewCostTracker(zap.NewNop())
	ct.RecordUsage("gpt-4", "openai", 1000, 1000, 0.03, 0.06, "")
	ct.RecordUsage("gpt-3.5", "cheapo", 1000, 1000, 0.0005, 0.0015, "")

	comparisons := ct.CompareProviders()
	require.Len(t, comparisons, 2)
	assert.Equal(t, "cheapo", comparisons[0].Provider)
	assert.InDelta(t, 0.001, comparisons[0].CostPer1KToken, 1e-9)
	assert.Equal(t, "openai", comparisons[1].Provider)
	assert.InDelta(t, 0.045, comparisons[1].CostPer1KToken, 1e-9)
}

func TestBudgetAlerts(t *testing.T) {
	ct := NewCostTracker(zap.NewNop())
	ct.SetBudget("openai-daily", "openai", 0.05, 10)

	// 0.03 stays under the cap, the second record crosses it.
	ct.RecordUsage("gpt-4", "openai", 1000, 0, 0.03, 0.06, "")
	ct.RecordUsage("gpt-4", "openai", 1000, 0, 0.03, 0.06, "")
	// Spend outside the budget's provider scope is not counted.
	ct.RecordUsage("claude-3", "anthropic", 1000, 0, 0.015, 0.075, "")

	status, err := ct.BudgetStatus("openai-daily")
	require.NoError(t, err)
	assert.InDelta(t, 0.06, status.DailySpent, 1e-9)
	require.Len(t, status.Alerts, 1)
	assert.Equal(t, models.AlertDailyExceeded, status.Alerts[0].Type)

	// Crossing the cap alerts once; further spend does not re-alert.
	ct.RecordUsage("gpt-4", "openai", 1000, 0, 0.03, 0.06, "")
	status, err = ct.BudgetStatus("openai-daily")
	require.NoError(t, err)
	assert.Len(t, status.Alerts, 1)

	_, err = ct.BudgetStatus("ghost")
	assert.True(t, models.IsNotFound(err))
}

func TestCostTrackerSummary(t *testing.T) {
	ct := NewCostTracker(zap.NewNop())
	ct.SetBudget("global", "", 100, 1000)
	ct.RecordUsage("gpt-4", "openai", 1000, 1000, 0.03, 0.06, "")

	summary := ct.Summary()
	assert.Equal(t, 1, summary["total_records"])
	assert.Equal(t, 2000, summary["total_tokens"])
	assert.InDelta(t, 0.09, summary["total_cost"].(float64), 1e-9)
	assert.Equal(t, 1, summary["budgets"])
}
