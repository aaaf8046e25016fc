package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/entitleops/licensesync/internal/interfaces/http/handlers"
	"github.com/entitleops/licensesync/internal/interfaces/http/middleware"
)

type ReconciliationRouteConfig struct {
	HealthHandler    *handlers.HealthHandler
	PollerHandler    *handlers.PollerHandler
	ReconcileHandler *handlers.ReconcileHandler
	// ReconcileLimiter is nil when rate limiting is disabled.
	ReconcileLimiter *middleware.RateLimiter
}

func SetupReconciliationRoutes(engine *gin.Engine, config *ReconciliationRouteConfig) {
	engine.GET("/health", config.HealthHandler.Health)

	api := engine.Group("/api")

	poller := api.Group("/poller")
	{
		poller.GET("", config.PollerHandler.GetStats)
		poller.POST("/start", config.PollerHandler.Start)
		poller.POST("/stop", config.PollerHandler.Stop)
		poller.PUT("/config", config.PollerHandler.UpdateConfig)
	}

	reconcile := []gin.HandlerFunc{config.ReconcileHandler.Reconcile}
	if config.ReconcileLimiter != nil {
		reconcile = append([]gin.HandlerFunc{config.ReconcileLimiter.Limit()}, reconcile...)
	}
	api.POST("/reconcile", reconcile...)

	runs := api.Group("/runs")
	{
		runs.GET("", config.ReconcileHandler.ListRuns)
		runs.GET("/:id", config.ReconcileHandler.GetRun)
	}
}
