package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/model-router-go/internal/api/handler"
	"github.com/user/model-router-go/internal/api/middleware"
	"github.com/user/model-router-go/internal/service"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and dependencies.
type Server struct {
	router *gin.Engine
	logger *zap.Logger
}

// ServerDeps holds all dependencies for the API server.
type ServerDeps struct {
	Router    *service.Router
	RateLimit *middleware.RateLimitConfig
	Logger    *zap.Logger
}

// NewServer creates a new API server with all routes configured. The serving
// layer is thin: it never calls a backend itself, it only exposes the
// routing core.
func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware.
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RateLimit(deps.RateLimit))

	routingHandler := handler.NewRoutingHandler(deps.Router, logger)
	healthHandler := handler.NewHealthHandler(deps.Router.Health())
	analyticsHandler := handler.NewAnalyticsHandler(deps.Router)
	circuitHandler := handler.NewCircuitHandler(deps.Router.Fallbacks())

	// Routing pipeline.
	v1 := r.Group("/v1")
	{
		v1.POST("/route", routingHandler.Route)
		v1.POST("/completions/record", routingHandler.RecordCompletion)
		v1.POST("/providers", routingHandler.SetupProvider)
		v1.POST("/analyze", routingHandler.Analyze)
		v1.GET("/analyses/:id/resources", routingHandler.PredictResources)
	}

	// Health surface.
	r.GET("/api/health", healthHandler.Health)
	providerGroup := r.Group("/api/providers")
	{
		providerGroup.GET("", analyticsHandler.ListProviders)
		providerGroup.GET("/error-rates", healthHandler.ErrorRates)
		providerGroup.POST("/:id/health-check", healthHandler.PerformCheck)
		providerGroup.GET("/:id/uptime", healthHandler.Uptime)
		providerGroup.GET("/:id/rate-limits", healthHandler.RateLimits)
		providerGroup.POST("/:id/rate-counters/reset", healthHandler.ResetRateCounters)
		providerGroup.GET("/:id/incidents", healthHandler.Incidents)
	}

	// Read-only analytics, polled by reporting collaborators.
	r.GET("/api/analytics", analyticsHandler.Analytics)
	r.GET("/api/summary", analyticsHandler.Summary)
	r.GET("/api/costs/providers", analyticsHandler.CompareProviderCosts)
	r.GET("/api/latency/recommendations", analyticsHandler.OptimizeRouting)

	modelGroup := r.Group("/api/models")
	{
		modelGroup.GET("", analyticsHandler.ListModels)
		modelGroup.GET("/:id", analyticsHandler.GetModel)
		modelGroup.PATCH("/:id/status", analyticsHandler.UpdateModelStatus)
		modelGroup.GET("/:id/costs", analyticsHandler.ModelCosts)
		modelGroup.GET("/:id/latency", analyticsHandler.ModelLatency)
		modelGroup.GET("/:id/performance", analyticsHandler.ModelPerformance)
	}

	// Response cache.
	cacheGroup := r.Group("/api/cache")
	{
		cacheGroup.POST("", analyticsHandler.CacheStore)
		cacheGroup.GET("", analyticsHandler.CacheLookup)
		cacheGroup.DELETE("", analyticsHandler.CacheInvalidate)
	}

	// Circuit breaker controls.
	circuitGroup := r.Group("/api/circuits")
	{
		circuitGroup.GET("", circuitHandler.List)
		circuitGroup.GET("/:model", circuitHandler.Status)
		circuitGroup.POST("/:model/reset", circuitHandler.Reset)
		circuitGroup.POST("/:model/half-open", circuitHandler.HalfOpen)
	}
	r.PUT("/api/routes/:model", circuitHandler.ConfigureRoute)

	return &Server{
		router: r,
		logger: logger,
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run starts the HTTP server.
func (s *Server) Run(addr string) error {
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.router.Run(addr)
}
