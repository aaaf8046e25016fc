package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/entitleops/licensesync/internal/domain/reconciliation"
	"github.com/entitleops/licensesync/internal/infrastructure/config"
	"github.com/entitleops/licensesync/internal/interfaces/http/handlers"
	"github.com/entitleops/licensesync/internal/interfaces/http/middleware"
	"github.com/entitleops/licensesync/internal/interfaces/http/routes"
	"github.com/entitleops/licensesync/internal/shared/logger"
)

const (
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 2 * time.Minute
)

// RedisClient backs the reconcile rate limiter.
type RedisClient = redis.UniversalClient

// Dependencies are the collaborators the control API drives.
type Dependencies struct {
	Poller       handlers.Poller
	Reconciler   handlers.Reconciler
	RunRepo      reconciliation.RunRepository
	Redis        RedisClient
	HealthChecks map[string]handlers.HealthCheck
}

// Router represents the HTTP router configuration
type Router struct {
	engine           *gin.Engine
	cfg              *config.Config
	logger           logger.Interface
	healthHandler    *handlers.HealthHandler
	pollerHandler    *handlers.PollerHandler
	reconcileHandler *handlers.ReconcileHandler
	rateLimiter      *middleware.RateLimiter
	server           *http.Server
}

// NewRouter creates a new HTTP router with all dependencies
func NewRouter(cfg *config.Config, deps Dependencies, log logger.Interface) *Router {
	engine := gin.New()

	var limiter *middleware.RateLimiter
	if deps.Redis != nil && cfg.Server.ReconcileRateLimit > 0 {
		limiter = middleware.NewRateLimiter(deps.Redis, "reconcile", cfg.Server.ReconcileRateLimit, time.Minute, log)
	}

	return &Router{
		engine:           engine,
		cfg:              cfg,
		logger:           log,
		healthHandler:    handlers.NewHealthHandler(deps.HealthChecks),
		pollerHandler:    handlers.NewPollerHandler(deps.Poller, log.Named("poller")),
		reconcileHandler: handlers.NewReconcileHandler(deps.Reconciler, deps.RunRepo, log.Named("reconcile")),
		rateLimiter:      limiter,
	}
}

// SetupRoutes registers middleware and all routes.
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.CustomLogger(r.logger))
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.SecurityHeaders())
	if len(r.cfg.Server.AllowedOrigins) > 0 {
		r.engine.Use(middleware.CORS(r.cfg.Server.AllowedOrigins))
	}
	r.engine.Use(middleware.ErrorHandler(r.logger))

	routes.SetupReconciliationRoutes(r.engine, &routes.ReconciliationRouteConfig{
		HealthHandler:    r.healthHandler,
		PollerHandler:    r.pollerHandler,
		ReconcileHandler: r.reconcileHandler,
		ReconcileLimiter: r.rateLimiter,
	})
}

// GetEngine returns the gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server and blocks until it stops. A graceful Shutdown
// makes Run return nil.
func (r *Router) Run(addr string) error {
	r.server = &http.Server{
		Addr:              addr,
		Handler:           r.engine,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
	if err := r.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (r *Router) Shutdown(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	return r.server.Shutdown(ctx)
}
