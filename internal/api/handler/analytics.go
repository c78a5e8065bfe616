package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/model-router-go/internal/models"
	"github.com/user/model-router-go/internal/service"
)

// AnalyticsHandler exposes the read-only reporting surface. Dashboards poll
// these endpoints; nothing here mutates routing state.
type AnalyticsHandler struct {
	router *service.Router
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(router *service.Router) *AnalyticsHandler {
	return &AnalyticsHandler{router: router}
}

// Analytics handles GET /api/analytics.
func (h *AnalyticsHandler) Analytics(c *gin.Context) {
	c.JSON(http.StatusOK, h.router.GetAnalytics())
}

// Summary handles GET /api/summary.
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, h.router.GetSummary())
}

// ListProviders handles GET /api/providers.
func (h *AnalyticsHandler) ListProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.router.Registry().ListProviders()})
}

// ListModels handles GET /api/models with optional capability and provider
// query filters.
func (h *AnalyticsHandler) ListModels(c *gin.Context) {
	capability := models.Capability(c.Query("capability"))
	if capability != "" && !models.ValidCapability(capability) {
		errorResponse(c, http.StatusBadRequest, "unknown capability: "+string(capability))
		return
	}
	found := h.router.Registry().FindByCapability(capability, c.Query("provider"))
	c.JSON(http.StatusOK, gin.H{"models": found})
}

// GetModel handles GET /api/models/:id.
func (h *AnalyticsHandler) GetModel(c *gin.Context) {
	m, err := h.router.Registry().GetModel(c.Param("id"))
	if err != nil {
		routerErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

type statusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateModelStatus handles PATCH /api/models/:id/status.
func (h *AnalyticsHandler) UpdateModelStatus(c *gin.Context) {
	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.router.Registry().UpdateStatus(c.Param("id"), models.ModelStatus(req.Status)); err != nil {
		routerErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// ModelCosts handles GET /api/models/:id/costs.
func (h *AnalyticsHandler) ModelCosts(c *gin.Context) {
	c.JSON(http.StatusOK, h.router.Costs().CostByModel(c.Param("id")))
}

// CompareProviderCosts handles GET /api/costs/providers.
func (h *AnalyticsHandler) CompareProviderCosts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.router.Costs().CompareProviders()})
}

// ModelLatency handles GET /api/models/:id/latency.
func (h *AnalyticsHandler) ModelLatency(c *gin.Context) {
	stats, err := h.router.Latencies().LatencyStats(c.Param("id"))
	if err != nil {
		routerErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// OptimizeRouting handles GET /api/latency/recommendations?budget_ms=N.
func (h *AnalyticsHandler) OptimizeRouting(c *gin.Context) {
	budget, err := strconv.ParseFloat(c.DefaultQuery("budget_ms", "1000"), 64)
	if err != nil || budget <= 0 {
		errorResponse(c, http.StatusBadRequest, "budget_ms must be a positive number")
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": h.router.Latencies().OptimizeRouting(budget)})
}

// ModelPerformance handles GET /api/models/:id/performance.
func (h *AnalyticsHandler) ModelPerformance(c *gin.Context) {
	perf, err := h.router.Comparator().ModelPerformance(c.Param("id"))
	if err != nil {
		routerErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, perf)
}

type cacheStoreRequest struct {
	Key      string `json:"key" binding:"required"`
	Response string `json:"response" binding:"required"`
	ModelID  string `json:"model_id"`
	Strategy string `json:"strategy"`
}

// CacheStore handles POST /api/cache.
func (h *AnalyticsHandler) CacheStore(c *gin.Context) {
	var req cacheStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	strategy := models.CacheStrategy(req.Strategy)
	if req.Strategy == "" {
		strategy = models.CacheExactMatch
	}
	if err := h.router.Cache().CacheResponse(req.Key, req.Response, req.ModelID, strategy); err != nil {
		routerErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"cached": true})
}

// CacheLookup handles GET /api/cache?key=K. A miss is 404 with the miss
// counted, not an internal error.
func (h *AnalyticsHandler) CacheLookup(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		errorResponse(c, http.StatusBadRequest, "key query parameter is required")
		return
	}
	hit, ok := h.router.Cache().LookupCache(key)
	if !ok {
		errorResponse(c, http.StatusNotFound, "cache miss")
		return
	}
	c.JSON(http.StatusOK, hit)
}

// CacheInvalidate handles DELETE /api/cache?key=K.
func (h *AnalyticsHandler) CacheInvalidate(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		errorResponse(c, http.StatusBadRequest, "key query parameter is required")
		return
	}
	h.router.Cache().Invalidate(key)
	c.JSON(http.StatusOK, gin.H{"invalidated": true})
}
