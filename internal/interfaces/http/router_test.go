package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entitleops/licensesync/internal/application/reconciliation/dto"
	"github.com/entitleops/licensesync/internal/application/reconciliation/testutil"
	"github.com/entitleops/licensesync/internal/application/reconciliation/usecases"
	"github.com/entitleops/licensesync/internal/infrastructure/config"
	"github.com/entitleops/licensesync/internal/infrastructure/document"
	"github.com/entitleops/licensesync/internal/infrastructure/scheduler"
	"github.com/entitleops/licensesync/internal/shared/constants"
	"github.com/entitleops/licensesync/internal/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPoller struct {
	stats scheduler.Stats
}

func (p *stubPoller) Start() error { p.stats.Running = true; return nil }
func (p *stubPoller) Stop() error { p.stats.Running = false; return nil }
func (p *stubPoller) Configure(target document.Target) error { p.stats.DocumentID = target.DocumentID; return nil }
func (p *stubPoller) Reconfigure(interval time.Duration) error { return nil }
func (p *stubPoller) Stats() scheduler.Stats { return p.stats }

type stubReconciler struct{}

func (stubReconciler) Execute(ctx context.Context, cmd usecases.ReconcileCommand) (*dto.ReconciliationReport, error) {
	return &dto.ReconciliationReport{TenantKey: cmd.Request.TenantKey, ResultStatus: "Success"}, nil
}

func newTestRouter(t *testing.T, deps Dependencies, cfg *config.Config) *Router {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	if deps.Poller == nil {
		deps.Poller = &stubPoller{}
	}
	if deps.Reconciler == nil {
		deps.Reconciler = stubReconciler{}
	}
	r := NewRouter(cfg, deps, logger.NewNopLogger())
	r.SetupRoutes()
	return r
}

func do(r *Router, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, req)
	return w
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(t, Dependencies{RunRepo: testutil.NewMockRunRepository()}, nil)

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/api/poller", "", http.StatusOK},
		{http.MethodPost, "/api/poller/start", "", http.StatusOK},
		{http.MethodPost, "/api/poller/stop", "", http.StatusOK},
		{http.MethodPut, "/api/poller/config", `{"interval_seconds": 10}`, http.StatusOK},
		{http.MethodPut, "/api/poller/config", `{"interval_seconds": 0}`, http.StatusBadRequest},
		{http.MethodPost, "/api/reconcile", `{"tenant_key": "Acme"}`, http.StatusOK},
		{http.MethodPost, "/api/reconcile", `{}`, http.StatusBadRequest},
		{http.MethodGet, "/api/runs", "", http.StatusOK},
		{http.MethodGet, "/api/runs/1", "", http.StatusNotFound},
		{http.MethodGet, "/api/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := do(r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(constants.HeaderXRequestID))
		})
	}
}

func TestRouter_ReconcileRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{}
	cfg.Server.ReconcileRateLimit = 1
	r := newTestRouter(t, Dependencies{Redis: client}, cfg)

	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/reconcile", `{"tenant_key": "Acme"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/api/reconcile", `{"tenant_key": "Acme"}`).Code)

	// other routes are not limited
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/poller", "").Code)
}
