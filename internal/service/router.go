package service

import (
	"sync/atomic"

	"github.com/user/model-router-go/internal/models"
	"go.uber.org/zap"
)

// costOptimizationCeiling is the complexity score at or below which the
// lowest-cost strategy overrides the requested one.
const costOptimizationCeiling = 0.3

// RouterOptions tunes the orchestration pipeline.
type RouterOptions struct {
	DefaultProvider  string
	DefaultStrategy  models.Strategy
	CostOptimization bool
	AutoFallback     bool
}

// Router composes the analyzer, registry, selector, fallback router, health
// monitor, and telemetry into the two top-level operations: RouteTask and
// RecordCompletion. It owns no state of its own beyond request counters.
type Router struct {
	logger  *zap.Logger
	options RouterOptions

	analyzer   *ComplexityAnalyzer
	registry   *ModelRegistry
	selector   *Selector
	fallbacks  *FallbackRouter
	health     *HealthMonitor
	costs      *CostTracker
	latencies  *LatencyOptimizer
	cache      *ResponseCache
	comparator *QualityComparator

	routedTasks    atomic.Int64
	recordedCompls atomic.Int64
}

// NewRouter wires the routing core together. Every component is injected so
// tests can build isolated instances.
func NewRouter(
	options RouterOptions,
	analyzer *ComplexityAnalyzer,
	registry *ModelRegistry,
	selector *Selector,
	fallbacks *FallbackRouter,
	health *HealthMonitor,
	costs *CostTracker,
	latencies *LatencyOptimizer,
	cache *ResponseCache,
	comparator *QualityComparator,
	logger *zap.Logger,
) *Router {
	if options.DefaultStrategy == "" {
		options.DefaultStrategy = models.StrategyBalanced
	}
	return &Router{
		logger:     logger,
		options:    options,
		analyzer:   analyzer,
		registry:   registry,
		selector:   selector,
		fallbacks:  fallbacks,
		health:     health,
		costs:      costs,
		latencies:  latencies,
		cache:      cache,
		comparator: comparator,
	}
}

// RouteTaskParams carries one inbound routing request.
type RouteTaskParams struct {
	TaskText             string
	Context              string
	TokenHint            int
	RequiredCapabilities []models.Capability
	PreferredProvider    string
	MaxCostPer1K         float64
	MaxLatencyMs         float64
	MinContext           int
	Strategy             models.Strategy
}

// RouteTask analyzes the task, scopes the candidate pool to the preferred
// provider (widening to all providers when the scoped pool is empty), runs
// the selector, and routes the pick through the fallback layer. Usage is
// incremented on the model that was ultimately chosen.
func (r *Router) RouteTask(params RouteTaskParams) (*models.RouteDecision, error) {
	analysis := r.analyzer.Analyze(params.TaskText, params.Context, params.TokenHint)

	strategy := params.Strategy
	if strategy == "" {
		strategy = r.options.DefaultStrategy
	}
	if r.options.CostOptimization && analysis.Score <= costOptimizationCeiling {
		strategy = models.StrategyLowestCost
	}

	provider := params.PreferredProvider
	if provider == "" {
		provider = r.options.DefaultProvider
	}
	candidates := r.registry.FindByCapability("", provider)
	if len(candidates) == 0 && provider != "" {
		candidates = r.registry.FindByCapability("", "")
	}

	selection, err := r.selector.Select(candidates, SelectionCriteria{
		RequiredCapabilities: params.RequiredCapabilities,
		Strategy:             strategy,
		MaxCostPer1K:         params.MaxCostPer1K,
		MaxLatencyMs:         params.MaxLatencyMs,
		MinContext:           params.MinContext,
		ComplexityScore:      analysis.Score,
	})
	if err != nil {
		return nil, err
	}

	chosen := selection.ModelID
	isFallback := selection.IsFallback
	if r.options.AutoFallback {
		route, err := r.fallbacks.RouteRequest(chosen)
		switch {
		case err == nil:
			chosen = route.Target
			isFallback = isFallback || route.IsFallback
		case models.IsNotFound(err):
			// No chain configured for the pick; use it directly.
		default:
			return nil, err
		}
	}

	r.registry.IncrementUsage(chosen)
	r.routedTasks.Add(1)

	r.logger.Info("task routed",
		zap.String("model_id", chosen),
		zap.String("strategy", string(strategy)),
		zap.Float64("complexity_score", analysis.Score),
		zap.String("domain", analysis.Domain),
		zap.Bool("is_fallback", isFallback))

	return &models.RouteDecision{
		ModelID:         chosen,
		ComplexityScore: analysis.Score,
		ComplexityLevel: analysis.Level,
		Domain:          analysis.Domain,
		Strategy:        strategy,
		SelectionScore:  selection.Score,
		EstimatedTokens: analysis.EstimatedTokens,
		IsFallback:      isFallback,
	}, nil
}

// RecordCompletion fans one finished backend call out into the cost,
// latency, quality, and health tables plus the model's circuit breaker.
// Each sink is independent: a failure in one is logged and never blocks the
// others.
func (r *Router) RecordCompletion(outcome models.CompletionOutcome) *models.CompletionReceipt {
	receipt := &models.CompletionReceipt{
		ModelID:   outcome.ModelID,
		LatencyMs: outcome.LatencyMs,
	}

	record := r.costs.RecordUsage(outcome.ModelID, outcome.Provider,
		outcome.InputTokens, outcome.OutputTokens,
		outcome.InputCostPer1K, outcome.OutputCostPer1K, outcome.TaskID)
	receipt.TotalCost = record.TotalCost

	r.latencies.RecordLatency(outcome.ModelID, outcome.LatencyMs, outcome.Success)

	if outcome.QualityScore > 0 {
		if _, err := r.comparator.EvaluateResponse(outcome.ModelID, outcome.TaskID, outcome.TaskDomain, nil, outcome.QualityScore, ""); err != nil {
			r.logger.Warn("quality sink rejected completion",
				zap.String("model_id", outcome.ModelID), zap.Error(err))
		}
	}

	if outcome.Provider != "" {
		tokens := outcome.InputTokens + outcome.OutputTokens
		switch err := r.health.RecordRequest(outcome.Provider, outcome.Success, tokens); {
		case err == nil:
		case models.IsRateLimited(err):
			receipt.RateLimited = true
		default:
			r.logger.Warn("health sink rejected completion",
				zap.String("provider", outcome.Provider), zap.Error(err))
		}
	}

	if outcome.Success {
		r.fallbacks.RecordSuccess(outcome.ModelID)
	} else {
		r.fallbacks.RecordFailure(outcome.ModelID)
	}

	r.recordedCompls.Add(1)
	return receipt
}

// SetupProvider registers a provider with the registry and health monitor
// and bulk-registers its models. The first invalid model spec aborts with
// the models registered so far.
func (r *Router) SetupProvider(provider models.Provider, specs []models.ModelSpec) (*models.Provider, []*models.Model, error) {
	registered := r.registry.RegisterProvider(provider)
	r.health.RegisterProvider(registered)

	out := make([]*models.Model, 0, len(specs))
	for _, spec := range specs {
		m, err := r.registry.RegisterModel(models.Model{
			ID:              spec.ModelID,
			Provider:        registered.ID,
			Name:            spec.Name,
			Capabilities:    spec.Capabilities,
			MaxTokens:       spec.MaxTokens,
			InputCostPer1K:  spec.InputCostPer1K,
			OutputCostPer1K: spec.OutputCostPer1K,
			ContextWindow:   spec.ContextWindow,
		})
		if err != nil {
			return registered, out, err
		}
		out = append(out, m)
	}
	return registered, out, nil
}

// Registry exposes the model registry for read paths and admin handlers.
func (r *Router) Registry() *ModelRegistry { return r.registry }

// Fallbacks exposes the fallback router for route configuration and
// operator circuit transitions.
func (r *Router) Fallbacks() *FallbackRouter { return r.fallbacks }

// Health exposes the health monitor.
func (r *Router) Health() *HealthMonitor { return r.health }

// Costs exposes the cost tracker.
func (r *Router) Costs() *CostTracker { return r.costs }

// Latencies exposes the latency optimizer.
func (r *Router) Latencies() *LatencyOptimizer { return r.latencies }

// Cache exposes the response cache.
func (r *Router) Cache() *ResponseCache { return r.cache }

// Comparator exposes the quality comparator.
func (r *Router) Comparator() *QualityComparator { return r.comparator }

// Analyzer exposes the complexity analyzer.
func (r *Router) Analyzer() *ComplexityAnalyzer { return r.analyzer }

// GetAnalytics aggregates the read-only summaries of every component.
// Reporting collaborators poll this; it never mutates state.
func (r *Router) GetAnalytics() map[string]any {
	return map[string]any{
		"costs":     r.costs.Summary(),
		"latencies": r.latencies.Summary(),
		"cache":     r.cache.Summary(),
		"quality":   r.comparator.Summary(),
		"health":    r.health.Dashboard(),
		"circuits":  r.fallbacks.Summary(),
		"selector":  r.selector.Summary(),
	}
}

// GetSummary returns top-level routing counters.
func (r *Router) GetSummary() map[string]any {
	return map[string]any{
		"routed_tasks":          r.routedTasks.Load(),
		"recorded_completions":  r.recordedCompls.Load(),
		"registered_models":     r.registry.ModelCount(),
		"analyses_performed":    r.analyzer.AnalysisCount(),
		"cache_hit_rate":        r.cache.HitRate(),
		"default_strategy":      string(r.options.DefaultStrategy),
		"auto_fallback":         r.options.AutoFallback,
		"cost_optimization":     r.options.CostOptimization,
	}
}
