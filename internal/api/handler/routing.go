package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/model-router-go/internal/models"
	"github.com/user/model-router-go/internal/service"
	"go.uber.org/zap"
)

// RoutingHandler exposes the routing pipeline: route a task, record a
// completed backend call, and set up providers.
type RoutingHandler struct {
	router *service.Router
	logger *zap.Logger
}

// NewRoutingHandler creates a RoutingHandler.
func NewRoutingHandler(router *service.Router, logger *zap.Logger) *RoutingHandler {
	return &RoutingHandler{router: router, logger: logger}
}

type routeRequest struct {
	Task                 string   `json:"task" binding:"required"`
	Context              string   `json:"context"`
	TokenHint            int      `json:"token_hint"`
	RequiredCapabilities []string `json:"required_capabilities"`
	PreferredProvider    string   `json:"preferred_provider"`
	MaxCostPer1K         float64  `json:"max_cost_per_1k"`
	MaxLatencyMs         float64  `json:"max_latency_ms"`
	MinContext           int      `json:"min_context"`
	Strategy             string   `json:"strategy"`
}

// Route handles POST /v1/route.
func (h *RoutingHandler) Route(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var strategy models.Strategy
	if req.Strategy != "" {
		parsed, ok := models.ParseStrategy(req.Strategy)
		if !ok {
			errorResponse(c, http.StatusBadRequest, "unknown strategy: "+req.Strategy)
			return
		}
		strategy = parsed
	}

	capabilities := make([]models.Capability, 0, len(req.RequiredCapabilities))
	for _, raw := range req.RequiredCapabilities {
		tag := models.Capability(raw)
		if !models.ValidCapability(tag) {
			errorResponse(c, http.StatusBadRequest, "unknown capability: "+raw)
			return
		}
		capabilities = append(capabilities, tag)
	}

	decision, err := h.router.RouteTask(service.RouteTaskParams{
		TaskText:             req.Task,
		Context:              req.Context,
		TokenHint:            req.TokenHint,
		RequiredCapabilities: capabilities,
		PreferredProvider:    req.PreferredProvider,
		MaxCostPer1K:         req.MaxCostPer1K,
		MaxLatencyMs:         req.MaxLatencyMs,
		MinContext:           req.MinContext,
		Strategy:             strategy,
	})
	if err != nil {
		routerErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

// RecordCompletion handles POST /v1/completions/record.
func (h *RoutingHandler) RecordCompletion(c *gin.Context) {
	var outcome models.CompletionOutcome
	if err := c.ShouldBindJSON(&outcome); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if outcome.ModelID == "" {
		errorResponse(c, http.StatusBadRequest, "model_id is required")
		return
	}
	receipt := h.router.RecordCompletion(outcome)
	c.JSON(http.StatusOK, receipt)
}

type setupProviderRequest struct {
	Provider models.Provider    `json:"provider" binding:"required"`
	Models   []models.ModelSpec `json:"models"`
}

// SetupProvider handles POST /v1/providers.
func (h *RoutingHandler) SetupProvider(c *gin.Context) {
	var req setupProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Provider.ID == "" {
		errorResponse(c, http.StatusBadRequest, "provider.provider_id is required")
		return
	}
	provider, registered, err := h.router.SetupProvider(req.Provider, req.Models)
	if err != nil {
		routerErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"provider": provider,
		"models":   registered,
	})
}

type analyzeRequest struct {
	Task      string `json:"task" binding:"required"`
	Context   string `json:"context"`
	TokenHint int    `json:"token_hint"`
}

// Analyze handles POST /v1/analyze.
func (h *RoutingHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	analysis := h.router.Analyzer().Analyze(req.Task, req.Context, req.TokenHint)
	c.JSON(http.StatusOK, analysis)
}

// PredictResources handles GET /v1/analyses/:id/resources.
func (h *RoutingHandler) PredictResources(c *gin.Context) {
	prediction, err := h.router.Analyzer().PredictResources(c.Param("id"))
	if err != nil {
		routerErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, prediction)
}
