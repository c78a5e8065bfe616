package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/model-router-go/internal/service"
)

// CircuitHandler exposes operator controls over the fallback router's
// circuit breakers.
type CircuitHandler struct {
	fallbacks *service.FallbackRouter
}

// NewCircuitHandler creates a CircuitHandler.
func NewCircuitHandler(fallbacks *service.FallbackRouter) *CircuitHandler {
	return &CircuitHandler{fallbacks: fallbacks}
}

// List handles GET /api/circuits.
func (h *CircuitHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"circuits": h.fallbacks.Circuits()})
}

// Status handles GET /api/circuits/:model.
func (h *CircuitHandler) Status(c *gin.Context) {
	snap, err := h.fallbacks.CircuitStatus(c.Param("model"))
	if err != nil {
		routerErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Reset handles POST /api/circuits/:model/reset.
func (h *CircuitHandler) Reset(c *gin.Context) {
	if err := h.fallbacks.ResetCircuit(c.Param("model")); err != nil {
		routerErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

// HalfOpen handles POST /api/circuits/:model/half-open.
func (h *CircuitHandler) HalfOpen(c *gin.Context) {
	if err := h.fallbacks.HalfOpenCircuit(c.Param("model")); err != nil {
		routerErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"half_open": true})
}

type configureRouteRequest struct {
	FallbackChain []string `json:"fallback_chain"`
}

// ConfigureRoute handles PUT /api/routes/:model.
func (h *CircuitHandler) ConfigureRoute(c *gin.Context) {
	var req configureRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	h.fallbacks.ConfigureRoute(c.Param("model"), req.FallbackChain)
	c.JSON(http.StatusOK, gin.H{
		"primary":        c.Param("model"),
		"fallback_chain": req.FallbackChain,
	})
}
