// Package models defines the domain models for the model-routing core.
package models

import "time"

// Strategy represents a named scoring policy for ranking candidate models.
type Strategy string

const (
	StrategyBestQuality     Strategy = "best_quality"
	StrategyLowestCost      Strategy = "lowest_cost"
	StrategyBalanced        Strategy = "balanced"
	StrategyFastest         Strategy = "fastest"
	StrategyCapabilityMatch Strategy = "capability_match"
)

// Strategies lists every recognized strategy.
var Strategies = []Strategy{
	StrategyBestQuality,
	StrategyLowestCost,
	StrategyBalanced,
	StrategyFastest,
	StrategyCapabilityMatch,
}

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, bool) {
	for _, st := range Strategies {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Capability represents a declared model capability tag.
type Capability string

const (
	CapTextGeneration   Capability = "text_generation"
	CapCodeGeneration   Capability = "code_generation"
	CapReasoning        Capability = "reasoning"
	CapSummarization    Capability = "summarization"
	CapTranslation      Capability = "translation"
	CapClassification   Capability = "classification"
	CapEmbedding        Capability = "embedding"
	CapVision           Capability = "vision"
	CapFunctionCalling  Capability = "function_calling"
	CapStructuredOutput Capability = "structured_output"
)

// Capabilities lists every recognized capability tag.
var Capabilities = []Capability{
	CapTextGeneration,
	CapCodeGeneration,
	CapReasoning,
	CapSummarization,
	CapTranslation,
	CapClassification,
	CapEmbedding,
	CapVision,
	CapFunctionCalling,
	CapStructuredOutput,
}

// ValidCapability reports whether c is a recognized capability tag.
func ValidCapability(c Capability) bool {
	for _, known := range Capabilities {
		if c == known {
			return true
		}
	}
	return false
}

// ModelStatus represents the activation status of a model.
type ModelStatus string

const (
	StatusActive      ModelStatus = "active"
	StatusInactive    ModelStatus = "inactive"
	StatusDeprecated  ModelStatus = "deprecated"
	StatusMaintenance ModelStatus = "maintenance"
)

// ValidStatus reports whether s is a recognized model status.
func ValidStatus(s ModelStatus) bool {
	switch s {
	case StatusActive, StatusInactive, StatusDeprecated, StatusMaintenance:
		return true
	}
	return false
}

// Model represents a registered backend model.
type Model struct {
	ID              string       `json:"model_id"`
	Provider        string       `json:"provider"`
	Name            string       `json:"name"`
	Capabilities    []Capability `json:"capabilities"`
	MaxTokens       int          `json:"max_tokens"`
	InputCostPer1K  float64      `json:"input_cost_per_1k"`
	OutputCostPer1K float64      `json:"output_cost_per_1k"`
	ContextWindow   int          `json:"context_window"`
	Description     string       `json:"description,omitempty"`
	Status          ModelStatus  `json:"status"`
	UsageCount      int64        `json:"usage_count"`
	RegisteredAt    time.Time    `json:"registered_at"`
}

// HasCapability reports whether the model declares the given capability.
func (m *Model) HasCapability(c Capability) bool {
	for _, have := range m.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Provider represents a registered backend provider.
type Provider struct {
	ID           string    `json:"provider_id"`
	Name         string    `json:"name"`
	BaseURL      string    `json:"base_url"`
	APIType      string    `json:"api_type"`
	AuthType     string    `json:"auth_type"`
	RateLimitRPM int       `json:"rate_limit_rpm"`
	RateLimitTPM int       `json:"rate_limit_tpm"`
	Description  string    `json:"description,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Pricing holds the unit prices for a model.
type Pricing struct {
	ModelID         string  `json:"model_id"`
	InputCostPer1K  float64 `json:"input_cost_per_1k"`
	OutputCostPer1K float64 `json:"output_cost_per_1k"`
}

// ComplexityLevel is the 5-tier label derived from a complexity score.
type ComplexityLevel string

const (
	ComplexityTrivial  ComplexityLevel = "trivial"
	ComplexitySimple   ComplexityLevel = "simple"
	ComplexityModerate ComplexityLevel = "moderate"
	ComplexityComplex  ComplexityLevel = "complex"
	ComplexityExpert   ComplexityLevel = "expert"
)

// ComplexityLevels lists all 5 tiers from easiest to hardest.
var ComplexityLevels = []ComplexityLevel{
	ComplexityTrivial,
	ComplexitySimple,
	ComplexityModerate,
	ComplexityComplex,
	ComplexityExpert,
}

// ReasoningDepth classifies how much multi-step reasoning a task needs.
type ReasoningDepth string

const (
	ReasoningShallow  ReasoningDepth = "shallow"
	ReasoningModerate ReasoningDepth = "moderate"
	ReasoningDeep     ReasoningDepth = "deep"
)

// ComplexityAnalysis is the immutable result of analyzing an inbound task.
type ComplexityAnalysis struct {
	AnalysisID      string          `json:"analysis_id"`
	Score           float64         `json:"complexity_score"`
	Level           ComplexityLevel `json:"complexity_level"`
	Domain          string          `json:"domain"`
	EstimatedTokens int             `json:"estimated_tokens"`
	ReasoningDepth  ReasoningDepth  `json:"reasoning_depth"`
	WordCount       int             `json:"word_count"`
	MarkerCount     int             `json:"marker_count"`
	AnalyzedAt      time.Time       `json:"analyzed_at"`
}

// ResourcePrediction estimates the serving cost of a previously analyzed task.
type ResourcePrediction struct {
	AnalysisID         string  `json:"analysis_id"`
	EstimatedLatencyMs float64 `json:"estimated_latency_ms"`
	EstimatedTokens    int     `json:"estimated_tokens"`
	MemoryClass        string  `json:"memory_class"`
}

// SelectionResult is the outcome of one selector run.
type SelectionResult struct {
	ModelID        string   `json:"model_id"`
	Score          float64  `json:"score"`
	Strategy       Strategy `json:"strategy"`
	CandidateCount int      `json:"candidate_count"`
	IsFallback     bool     `json:"is_fallback"`
	MaxLatencyMs   float64  `json:"max_latency_ms,omitempty"`
}

// CircuitState represents the state of a per-model circuit breaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// CircuitSnapshot is a copy-safe view of one breaker.
type CircuitSnapshot struct {
	ModelID             string       `json:"model_id"`
	State               CircuitState `json:"state"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
	LastFailureAt       *time.Time   `json:"last_failure_at,omitempty"`
	LastSuccessAt       *time.Time   `json:"last_success_at,omitempty"`
}

// RouteResult is the outcome of walking a primary model's fallback chain.
type RouteResult struct {
	Target     string   `json:"routed_to"`
	IsFallback bool     `json:"is_fallback"`
	Attempted  []string `json:"attempted,omitempty"`
}

// HealthState is the coarse liveness classification of a provider.
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthDegraded  HealthState = "degraded"
	HealthUnhealthy HealthState = "unhealthy"
	HealthUnknown   HealthState = "unknown"
)

// HealthCheckResult is the outcome of one recorded health check.
type HealthCheckResult struct {
	CheckID        string      `json:"check_id"`
	ProviderID     string      `json:"provider_id"`
	State          HealthState `json:"health_state"`
	ResponseTimeMs float64     `json:"response_time_ms"`
	IsAvailable    bool        `json:"is_available"`
	ErrorMessage   string      `json:"error_message,omitempty"`
	CheckedAt      time.Time   `json:"checked_at"`
}

// Incident records a transition away from a healthy state.
type Incident struct {
	IncidentID string      `json:"incident_id"`
	ProviderID string      `json:"provider_id"`
	State      HealthState `json:"state"`
	Error      string      `json:"error,omitempty"`
	DetectedAt time.Time   `json:"detected_at"`
	Resolved   bool        `json:"resolved"`
}

// UptimeReport summarizes a provider's uptime checks.
type UptimeReport struct {
	ProviderID       string  `json:"provider_id"`
	UptimePercent    float64 `json:"uptime_percent"`
	TotalChecks      int64   `json:"total_checks"`
	SuccessfulChecks int64   `json:"successful_checks"`
}

// ErrorRateEntry pairs a provider with its rolling error rate.
type ErrorRateEntry struct {
	ProviderID    string  `json:"provider_id"`
	Name          string  `json:"name"`
	ErrorRate     float64 `json:"error_rate"`
	TotalRequests int64   `json:"total_requests"`
	TotalErrors   int64   `json:"total_errors"`
}

// RateLimitStatus reports current rate-limit consumption for a provider.
type RateLimitStatus struct {
	ProviderID      string  `json:"provider_id"`
	RPMLimit        int     `json:"rpm_limit"`
	RPMCurrent      int     `json:"rpm_current"`
	RPMUsagePercent float64 `json:"rpm_usage_percent"`
	TPMLimit        int     `json:"tpm_limit"`
	TPMCurrent      int     `json:"tpm_current"`
	TPMUsagePercent float64 `json:"tpm_usage_percent"`
}

// ProviderHealthSnapshot is a copy-safe view of one provider's health record.
type ProviderHealthSnapshot struct {
	ProviderID    string      `json:"provider_id"`
	Name          string      `json:"name"`
	State         HealthState `json:"health_state"`
	UptimePercent float64     `json:"uptime_percent"`
	ErrorRate     float64     `json:"error_rate"`
	TotalRequests int64       `json:"total_requests"`
	LastCheck     *time.Time  `json:"last_check,omitempty"`
}

// UsageRecord is one append-only cost sample.
type UsageRecord struct {
	RecordID     string    `json:"record_id"`
	ModelID      string    `json:"model_id"`
	Provider     string    `json:"provider"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	TotalTokens  int       `json:"total_tokens"`
	InputCost    float64   `json:"input_cost"`
	OutputCost   float64   `json:"output_cost"`
	TotalCost    float64   `json:"total_cost"`
	TaskID       string    `json:"task_id,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// BudgetAlertType distinguishes daily from monthly budget alerts.
type BudgetAlertType string

const (
	AlertDailyExceeded   BudgetAlertType = "daily_exceeded"
	AlertMonthlyExceeded BudgetAlertType = "monthly_exceeded"
)

// BudgetAlert records a crossed spending cap. Advisory only.
type BudgetAlert struct {
	Type BudgetAlertType `json:"type"`
	At   time.Time       `json:"at"`
}

// BudgetStatus is a copy-safe view of one named budget.
type BudgetStatus struct {
	Name         string        `json:"name"`
	Provider     string        `json:"provider,omitempty"`
	DailyLimit   float64       `json:"daily_limit"`
	MonthlyLimit float64       `json:"monthly_limit"`
	DailySpent   float64       `json:"daily_spent"`
	MonthlySpent float64       `json:"monthly_spent"`
	Alerts       []BudgetAlert `json:"alerts"`
}

// CostReport aggregates cost for one model or provider.
type CostReport struct {
	ModelID     string  `json:"model_id,omitempty"`
	Provider    string  `json:"provider,omitempty"`
	TotalCost   float64 `json:"total_cost"`
	TotalTokens int     `json:"total_tokens"`
	UsageCount  int     `json:"usage_count"`
	AvgCost     float64 `json:"avg_cost,omitempty"`
}

// ProviderCostComparison ranks providers by cost per 1k tokens.
type ProviderCostComparison struct {
	Provider       string  `json:"provider"`
	TotalCost      float64 `json:"total_cost"`
	TotalTokens    int     `json:"total_tokens"`
	CostPer1KToken float64 `json:"cost_per_1k_tokens"`
	UsageCount     int     `json:"usage_count"`
}

// LatencyStats summarizes recorded latency samples for one model.
type LatencyStats struct {
	ModelID      string  `json:"model_id"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	MinLatencyMs float64 `json:"min_latency_ms"`
	MaxLatencyMs float64 `json:"max_latency_ms"`
	P50LatencyMs float64 `json:"p50_latency_ms"`
	P95LatencyMs float64 `json:"p95_latency_ms"`
	SampleCount  int     `json:"sample_count"`
}

// LatencyRanking is one entry of a fastest-model ranking.
type LatencyRanking struct {
	ModelID      string  `json:"model_id"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	P50LatencyMs float64 `json:"p50_latency_ms"`
	P95LatencyMs float64 `json:"p95_latency_ms"`
	SampleCount  int     `json:"sample_count"`
}

// RoutingRecommendation suggests a corrective action for a slow model.
type RoutingRecommendation struct {
	ModelID      string  `json:"model_id"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	Action       string  `json:"action"`
	Reason       string  `json:"reason"`
}

// CacheStrategy tags how a cache entry was populated. Stored for
// observability; lookup is exact-key regardless of strategy.
type CacheStrategy string

const (
	CacheExactMatch         CacheStrategy = "exact_match"
	CacheSemanticSimilarity CacheStrategy = "semantic_similarity"
	CachePrefixMatch        CacheStrategy = "prefix_match"
	CacheTemplateMatch      CacheStrategy = "template_match"
)

// ValidCacheStrategy reports whether s is a recognized cache strategy tag.
func ValidCacheStrategy(s CacheStrategy) bool {
	switch s {
	case CacheExactMatch, CacheSemanticSimilarity, CachePrefixMatch, CacheTemplateMatch:
		return true
	}
	return false
}

// CacheHit is the result of a successful cache lookup.
type CacheHit struct {
	Response string        `json:"response"`
	ModelID  string        `json:"model_id"`
	Strategy CacheStrategy `json:"strategy"`
	HitCount int64         `json:"hit_count"`
}

// QualityDimension names one axis of response quality scoring.
type QualityDimension string

const (
	DimAccuracy             QualityDimension = "accuracy"
	DimRelevance            QualityDimension = "relevance"
	DimCoherence            QualityDimension = "coherence"
	DimCompleteness         QualityDimension = "completeness"
	DimCreativity           QualityDimension = "creativity"
	DimSafety               QualityDimension = "safety"
	DimInstructionFollowing QualityDimension = "instruction_following"
)

// QualityDimensions lists the recognized scoring axes.
var QualityDimensions = []QualityDimension{
	DimAccuracy,
	DimRelevance,
	DimCoherence,
	DimCompleteness,
	DimCreativity,
	DimSafety,
	DimInstructionFollowing,
}

// Evaluation is one recorded quality evaluation of a model response.
type Evaluation struct {
	EvalID       string                       `json:"eval_id"`
	ModelID      string                       `json:"model_id"`
	TaskID       string                       `json:"task_id,omitempty"`
	TaskDomain   string                       `json:"task_domain,omitempty"`
	Scores       map[QualityDimension]float64 `json:"scores,omitempty"`
	OverallScore float64                      `json:"overall_score"`
	Feedback     string                       `json:"feedback,omitempty"`
	EvaluatedAt  time.Time                    `json:"evaluated_at"`
}

// ModelPerformance aggregates quality scores for one model.
type ModelPerformance struct {
	ModelID   string  `json:"model_id"`
	AvgScore  float64 `json:"avg_score"`
	BestScore float64 `json:"best_score"`
	EvalCount int     `json:"eval_count"`
}

// RouteDecision is the orchestrator's answer to a routing request.
type RouteDecision struct {
	ModelID         string          `json:"model_id"`
	ComplexityScore float64         `json:"complexity_score"`
	ComplexityLevel ComplexityLevel `json:"complexity_level"`
	Domain          string          `json:"domain"`
	Strategy        Strategy        `json:"strategy"`
	SelectionScore  float64         `json:"selection_score"`
	EstimatedTokens int             `json:"estimated_tokens"`
	IsFallback      bool            `json:"is_fallback"`
}

// CompletionOutcome reports a finished backend call back into the core.
type CompletionOutcome struct {
	ModelID         string  `json:"model_id"`
	Provider        string  `json:"provider"`
	InputTokens     int     `json:"input_tokens"`
	OutputTokens    int     `json:"output_tokens"`
	LatencyMs       float64 `json:"latency_ms"`
	InputCostPer1K  float64 `json:"input_cost_per_1k"`
	OutputCostPer1K float64 `json:"output_cost_per_1k"`
	QualityScore    float64 `json:"quality_score,omitempty"`
	TaskID          string  `json:"task_id,omitempty"`
	TaskDomain      string  `json:"task_domain,omitempty"`
	Success         bool    `json:"success"`
}

// CompletionReceipt confirms a recorded completion.
type CompletionReceipt struct {
	ModelID     string  `json:"model_id"`
	TotalCost   float64 `json:"total_cost"`
	LatencyMs   float64 `json:"latency_ms"`
	RateLimited bool    `json:"rate_limited"`
}

// ModelSpec describes one model inside a provider setup request.
type ModelSpec struct {
	ModelID         string       `json:"model_id"`
	Name            string       `json:"name"`
	Capabilities    []Capability `json:"capabilities"`
	MaxTokens       int          `json:"max_tokens"`
	InputCostPer1K  float64      `json:"input_cost_per_1k"`
	OutputCostPer1K float64      `json:"output_cost_per_1k"`
	ContextWindow   int          `json:"context_window"`
}
