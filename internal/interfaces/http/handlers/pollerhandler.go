package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/entitleops/licensesync/internal/infrastructure/document"
	"github.com/entitleops/licensesync/internal/infrastructure/scheduler"
	"github.com/entitleops/licensesync/internal/shared/errors"
	"github.com/entitleops/licensesync/internal/shared/logger"
	"github.com/entitleops/licensesync/internal/shared/utils"
)

// Poller is the control surface of the document poller.
type Poller interface {
	Start() error
	Stop() error
	Configure(target document.Target) error
	Reconfigure(interval time.Duration) error
	Stats() scheduler.Stats
}

// PollerConfigRequest changes the poll interval and, optionally, the polled
// document. Sheet defaults to the currently configured sheet.
type PollerConfigRequest struct {
	IntervalSeconds int    `json:"interval_seconds" binding:"required,min=1,max=60"`
	DocumentID      string `json:"document_id" binding:"omitempty,max=255"`
	Sheet           string `json:"sheet" binding:"omitempty,max=100"`
}

// PollerHandler handles HTTP requests controlling the document poller
type PollerHandler struct {
	poller Poller
	logger logger.Interface
}

// NewPollerHandler creates a new poller handler
func NewPollerHandler(poller Poller, logger logger.Interface) *PollerHandler {
	return &PollerHandler{
		poller: poller,
		logger: logger,
	}
}

// GetStats handles GET /api/poller
func (h *PollerHandler) GetStats(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "", h.poller.Stats())
}

// Start handles POST /api/poller/start
func (h *PollerHandler) Start(c *gin.Context) {
	if err := h.poller.Start(); err != nil {
		h.logger.Warnw("failed to start poller", "error", err)
		utils.ErrorResponseWithError(c, pollerError(err))
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "poller started", h.poller.Stats())
}

// Stop handles POST /api/poller/stop
func (h *PollerHandler) Stop(c *gin.Context) {
	if err := h.poller.Stop(); err != nil {
		h.logger.Errorw("failed to stop poller", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "poller stopped", h.poller.Stats())
}

// UpdateConfig handles PUT /api/poller/config
func (h *PollerHandler) UpdateConfig(c *gin.Context) {
	var req PollerConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BindingErrorResponse(c, err)
		return
	}

	if documentID := strings.TrimSpace(req.DocumentID); documentID != "" {
		sheet := strings.TrimSpace(req.Sheet)
		if sheet == "" {
			sheet = h.poller.Stats().Sheet
		}
		if err := h.poller.Configure(document.Target{DocumentID: documentID, Sheet: sheet}); err != nil {
			utils.ErrorResponseWithError(c, pollerError(err))
			return
		}
	}

	if err := h.poller.Reconfigure(time.Duration(req.IntervalSeconds) * time.Second); err != nil {
		utils.ErrorResponseWithError(c, pollerError(err))
		return
	}

	h.logger.Infow("poller configuration updated",
		"interval_seconds", req.IntervalSeconds,
		"document_id", req.DocumentID,
		"sheet", req.Sheet)
	utils.SuccessResponse(c, http.StatusOK, "poller configuration updated", h.poller.Stats())
}

func pollerError(err error) error {
	switch {
	case errors.Is(err, scheduler.ErrTargetNotConfigured):
		return errors.NewConflictError("no document configured for polling")
	case errors.Is(err, scheduler.ErrSchedulerShutdown):
		return errors.NewConflictError("poller is shutting down")
	case errors.Is(err, scheduler.ErrIntervalOutOfRange):
		return errors.NewValidationError(err.Error())
	default:
		return err
	}
}
