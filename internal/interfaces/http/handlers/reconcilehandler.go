package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/entitleops/licensesync/internal/application/reconciliation/dto"
	"github.com/entitleops/licensesync/internal/application/reconciliation/usecases"
	"github.com/entitleops/licensesync/internal/domain/reconciliation"
	"github.com/entitleops/licensesync/internal/shared/errors"
	"github.com/entitleops/licensesync/internal/shared/logger"
	"github.com/entitleops/licensesync/internal/shared/utils"
)

// Reconciler runs one reconciliation request.
type Reconciler interface {
	Execute(ctx context.Context, cmd usecases.ReconcileCommand) (*dto.ReconciliationReport, error)
}

// ReconcileRequest is a one-off reconciliation outside the document.
type ReconcileRequest struct {
	TenantKey       string `json:"tenant_key" binding:"required,max=255"`
	ProvisioningKey string `json:"provisioning_key" binding:"omitempty,max=255"`
	ForceFresh      bool   `json:"force_fresh"`
}

// ReconcileHandler handles one-off reconciliations and run history
type ReconcileHandler struct {
	reconciler Reconciler
	runRepo    reconciliation.RunRepository
	logger     logger.Interface
}

// NewReconcileHandler creates a new reconcile handler
func NewReconcileHandler(reconciler Reconciler, runRepo reconciliation.RunRepository, logger logger.Interface) *ReconcileHandler {
	return &ReconcileHandler{
		reconciler: reconciler,
		runRepo:    runRepo,
		logger:     logger,
	}
}

// Reconcile handles POST /api/reconcile
// A handled failure such as an unknown tenant is still 200 with the report's
// result status set to Error.
func (h *ReconcileHandler) Reconcile(c *gin.Context) {
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BindingErrorResponse(c, err)
		return
	}

	report, err := h.reconciler.Execute(c.Request.Context(), usecases.ReconcileCommand{
		Request: reconciliation.NewRequest(req.TenantKey, req.ProvisioningKey, req.ForceFresh),
	})
	if err != nil {
		h.logger.Errorw("reconciliation failed",
			"tenant_key", req.TenantKey,
			"provisioning_key", req.ProvisioningKey,
			"error", err,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", report)
}

// ListRuns handles GET /api/runs
// Query parameters:
//   - limit: number of runs, newest first (default 20, max 100)
//   - document_id, tenant_key: optional filters
func (h *ReconcileHandler) ListRuns(c *gin.Context) {
	if h.runRepo == nil {
		utils.SuccessResponse(c, http.StatusOK, "", []*dto.RunDTO{})
		return
	}

	limit, err := utils.ParseLimit(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	runs, err := h.runRepo.List(c.Request.Context(), reconciliation.RunFilter{
		DocumentID: c.Query("document_id"),
		TenantKey:  c.Query("tenant_key"),
		Limit:      limit,
	})
	if err != nil {
		h.logger.Errorw("failed to list runs", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto.ToRunDTOList(runs))
}

// GetRun handles GET /api/runs/:id
func (h *ReconcileHandler) GetRun(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid run ID"))
		return
	}
	if h.runRepo == nil {
		utils.ErrorResponseWithError(c, errors.NewNotFoundError("run not found"))
		return
	}

	run, err := h.runRepo.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		h.logger.Errorw("failed to get run", "id", id, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}
	if run == nil {
		utils.ErrorResponseWithError(c, errors.NewNotFoundError("run not found"))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto.ToRunDTO(run))
}
