package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/entitleops/licensesync/internal/shared/utils"
	"github.com/entitleops/licensesync/internal/shared/version"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler reports liveness and dependency status
type HealthHandler struct {
	checks map[string]HealthCheck
}

// NewHealthHandler creates a health handler. checks may be empty.
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	status := "ok"
	components := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			components[name] = err.Error()
			status = "degraded"
			continue
		}
		components[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, utils.APIResponse{
		Success: status == "ok",
		Data: gin.H{
			"status":     status,
			"version":    version.Get().Version,
			"components": components,
		},
	})
}
