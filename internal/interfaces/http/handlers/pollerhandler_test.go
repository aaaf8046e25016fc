package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/entitleops/licensesync/internal/infrastructure/document"
	"github.com/entitleops/licensesync/internal/infrastructure/scheduler"
	"github.com/entitleops/licensesync/internal/interfaces/http/handlers/testutil"
	"github.com/entitleops/licensesync/internal/shared/logger"
)

type mockPoller struct {
	mock.Mock
}

func (m *mockPoller) Start() error { return m.Called().Error(0) }
func (m *mockPoller) Stop() error  { return m.Called().Error(0) }

func (m *mockPoller) Configure(target document.Target) error {
	return m.Called(target).Error(0)
}

func (m *mockPoller) Reconfigure(interval time.Duration) error {
	return m.Called(interval).Error(0)
}

func (m *mockPoller) Stats() scheduler.Stats {
	return m.Called().Get(0).(scheduler.Stats)
}

func decodeResponse(t *testing.T, body []byte) testutil.APIResponse {
	var resp testutil.APIResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func TestPollerHandler_GetStats(t *testing.T) {
	poller := new(mockPoller)
	poller.On("Stats").Return(scheduler.Stats{Running: true, IntervalSeconds: 5, DocumentID: "doc-1", Ticks: 12})
	h := NewPollerHandler(poller, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/poller", nil)
	h.GetStats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w.Body.Bytes())
	assert.True(t, resp.Success)

	var stats scheduler.Stats
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.True(t, stats.Running)
	assert.Equal(t, uint64(12), stats.Ticks)
}

func TestPollerHandler_StartWithoutTarget(t *testing.T) {
	poller := new(mockPoller)
	poller.On("Start").Return(scheduler.ErrTargetNotConfigured)
	h := NewPollerHandler(poller, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/api/poller/start", nil)
	h.Start(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeResponse(t, w.Body.Bytes())
	assert.False(t, resp.Success)
	assert.Equal(t, "conflict", resp.Error.Type)
}

func TestPollerHandler_StartAfterShutdown(t *testing.T) {
	poller := new(mockPoller)
	poller.On("Start").Return(scheduler.ErrSchedulerShutdown)
	h := NewPollerHandler(poller, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/api/poller/start", nil)
	h.Start(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeResponse(t, w.Body.Bytes())
	assert.Equal(t, "poller is shutting down", resp.Error.Message)
}

func TestPollerHandler_StartAndStop(t *testing.T) {
	poller := new(mockPoller)
	poller.On("Start").Return(nil)
	poller.On("Stop").Return(nil)
	poller.On("Stats").Return(scheduler.Stats{})
	h := NewPollerHandler(poller, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/api/poller/start", nil)
	h.Start(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = testutil.NewTestContext(http.MethodPost, "/api/poller/stop", nil)
	h.Stop(c)
	assert.Equal(t, http.StatusOK, w.Code)

	poller.AssertExpectations(t)
}

func TestPollerHandler_UpdateConfig(t *testing.T) {
	t.Run("interval and target", func(t *testing.T) {
		poller := new(mockPoller)
		poller.On("Stats").Return(scheduler.Stats{Sheet: "Reconcile"})
		poller.On("Configure", document.Target{DocumentID: "doc-2", Sheet: "Reconcile"}).Return(nil)
		poller.On("Reconfigure", 10*time.Second).Return(nil)
		h := NewPollerHandler(poller, logger.NewNopLogger())

		c, w := testutil.NewTestContext(http.MethodPut, "/api/poller/config", map[string]any{
			"interval_seconds": 10,
			"document_id":      "doc-2",
		})
		h.UpdateConfig(c)

		assert.Equal(t, http.StatusOK, w.Code)
		poller.AssertExpectations(t)
	})

	t.Run("interval out of range rejected by binding", func(t *testing.T) {
		poller := new(mockPoller)
		h := NewPollerHandler(poller, logger.NewNopLogger())

		c, w := testutil.NewTestContext(http.MethodPut, "/api/poller/config", map[string]any{
			"interval_seconds": 61,
		})
		h.UpdateConfig(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w.Body.Bytes())
		assert.Equal(t, "validation_error", resp.Error.Type)
		poller.AssertNotCalled(t, "Reconfigure", mock.Anything)
	})

	t.Run("missing interval", func(t *testing.T) {
		h := NewPollerHandler(new(mockPoller), logger.NewNopLogger())

		c, w := testutil.NewTestContext(http.MethodPut, "/api/poller/config", map[string]any{"sheet": "Ops"})
		h.UpdateConfig(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
