package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/model-router-go/internal/models"
	"github.com/user/model-router-go/internal/service"
	"github.com/user/model-router-go/internal/version"
)

// HealthHandler exposes the health monitor.
type HealthHandler struct {
	monitor *service.HealthMonitor
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(monitor *service.HealthMonitor) *HealthHandler {
	return &HealthHandler{monitor: monitor}
}

// Health handles GET /api/health: service liveness plus the provider
// dashboard.
func (h *HealthHandler) Health(c *gin.Context) {
	dash := h.monitor.Dashboard()
	states := dash["states"].(map[string]int)

	status := "healthy"
	if states[string(models.HealthDegraded)] > 0 {
		status = "degraded"
	}
	if states[string(models.HealthUnhealthy)] > 0 {
		status = "unhealthy"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"version":   version.Short(),
		"providers": dash["providers"],
		"states":    states,
	})
}

type healthCheckRequest struct {
	ResponseTimeMs float64 `json:"response_time_ms"`
	IsAvailable    bool    `json:"is_available"`
	Error          string  `json:"error"`
}

// PerformCheck handles POST /api/providers/:id/health-check: an external
// prober reports one check observation.
func (h *HealthHandler) PerformCheck(c *gin.Context) {
	var req healthCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	result, err := h.monitor.PerformHealthCheck(c.Param("id"), req.ResponseTimeMs, req.IsAvailable, req.Error)
	if err != nil {
		routerErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Uptime handles GET /api/providers/:id/uptime.
func (h *HealthHandler) Uptime(c *gin.Context) {
	report, err := h.monitor.GetUptime(c.Param("id"))
	if err != nil {
		routerErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ErrorRates handles GET /api/providers/error-rates.
func (h *HealthHandler) ErrorRates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"error_rates": h.monitor.GetErrorRates()})
}

// RateLimits handles GET /api/providers/:id/rate-limits.
func (h *HealthHandler) RateLimits(c *gin.Context) {
	status, err := h.monitor.GetRateLimitStatus(c.Param("id"))
	if err != nil {
		routerErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ResetRateCounters handles POST /api/providers/:id/rate-counters/reset.
// Driven by an external periodic trigger.
func (h *HealthHandler) ResetRateCounters(c *gin.Context) {
	if err := h.monitor.ResetRateCounters(c.Param("id")); err != nil {
		routerErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

// Incidents handles GET /api/providers/:id/incidents.
func (h *HealthHandler) Incidents(c *gin.Context) {
	incidents, err := h.monitor.Incidents(c.Param("id"))
	if err != nil {
		routerErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"incidents": incidents})
}
