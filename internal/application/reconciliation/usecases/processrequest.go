package usecases

import (
	"context"
	"fmt"
	"sync"

	"github.com/entitleops/licensesync/internal/application/reconciliation/dto"
	"github.com/entitleops/licensesync/internal/application/reconciliation/services"
	"github.com/entitleops/licensesync/internal/domain/reconciliation"
	"github.com/entitleops/licensesync/internal/infrastructure/cache"
	"github.com/entitleops/licensesync/internal/infrastructure/document"
	"github.com/entitleops/licensesync/internal/shared/biztime"
	"github.com/entitleops/licensesync/internal/shared/config"
	"github.com/entitleops/licensesync/internal/shared/errors"
	"github.com/entitleops/licensesync/internal/shared/goroutine"
	"github.com/entitleops/licensesync/internal/shared/logger"
)

// DocumentLocker excludes other service instances from a document while a
// request is processed.
type DocumentLocker interface {
	Acquire(ctx context.Context, documentID string) (func(context.Context) error, error)
}

// ProcessRequestUseCase is the request state machine. Each call to
// CheckForWork reads the status cell of a document and, when an operator
// wrote the pull signal, runs the request and writes results back.
type ProcessRequestUseCase struct {
	provider  document.Provider
	reconcile *ReconcileUseCase
	locker    DocumentLocker
	cells     config.CellLayout
	logger    logger.Interface

	mu       sync.Mutex
	trackers map[string]*reconciliation.Tracker
}

// NewProcessRequestUseCase creates a new ProcessRequestUseCase. locker may be nil.
func NewProcessRequestUseCase(
	provider document.Provider,
	reconcile *ReconcileUseCase,
	locker DocumentLocker,
	cells config.CellLayout,
	logger logger.Interface,
) *ProcessRequestUseCase {
	return &ProcessRequestUseCase{
		provider:  provider,
		reconcile: reconcile,
		locker:    locker,
		cells:     cells,
		logger:    logger,
		trackers:  make(map[string]*reconciliation.Tracker),
	}
}

// Status returns the state of the request tracked for target.
func (uc *ProcessRequestUseCase) Status(target document.Target) reconciliation.Status {
	return uc.tracker(target).Status()
}

func (uc *ProcessRequestUseCase) tracker(target document.Target) *reconciliation.Tracker {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	key := target.String()
	t, ok := uc.trackers[key]
	if !ok {
		t = reconciliation.NewTracker()
		uc.trackers[key] = t
	}
	return t
}

// CheckForWork processes at most one request. processed reports whether a
// request was picked up. A returned error means the request or the status
// read failed unexpectedly; handled failures such as a blank tenant key are
// written to the document and not returned.
func (uc *ProcessRequestUseCase) CheckForWork(ctx context.Context, target document.Target) (processed bool, err error) {
	tracker := uc.tracker(target)
	if tracker.Status().IsBusy() {
		uc.logger.Debugw("request in progress, skipping check", "document_id", target.DocumentID)
		return false, nil
	}

	doc, err := uc.provider.Open(ctx, target)
	if err != nil {
		return false, fmt.Errorf("failed to open document: %w", err)
	}

	signal, err := doc.ReadCell(ctx, uc.cells.Status)
	if err != nil {
		return false, fmt.Errorf("failed to read status cell: %w", err)
	}

	if !reconciliation.IsTrigger(signal) {
		if !reconciliation.IsSettled(signal) && tracker.Reset() {
			uc.logger.Debugw("status cell cleared, request tracker idle", "document_id", target.DocumentID)
		}
		return false, nil
	}

	if err := tracker.Claim(); err != nil {
		return false, nil
	}

	release, ok := uc.acquireLock(ctx, target)
	if !ok {
		if err := tracker.Release(); err != nil {
			uc.logger.Warnw("failed to release request claim", "document_id", target.DocumentID, "error", err)
		}
		return false, nil
	}
	defer release()

	if err := tracker.Transition(reconciliation.StatusProcessing); err != nil {
		return false, err
	}

	uc.logger.Infow("reconciliation request picked up", "document_id", target.DocumentID, "sheet", target.Sheet)
	uc.write(ctx, doc, uc.cells.Status, reconciliation.SignalProcessing)
	uc.write(ctx, doc, uc.cells.ResultTimestamp, biztime.FormatTimestamp(biztime.NowUTC()))

	var (
		report *dto.ReconciliationReport
		runErr error
	)
	if panicErr := goroutine.Run(uc.logger, "process-request", func() {
		report, runErr = uc.runRequest(ctx, doc, target)
	}); panicErr != nil {
		runErr = errors.NewInternalError(panicErr.Error())
	}

	if runErr != nil {
		uc.writeFailure(ctx, doc, runErr)
		if err := tracker.Transition(reconciliation.StatusFailed); err != nil {
			uc.logger.Warnw("failed to mark request failed", "document_id", target.DocumentID, "error", err)
		}
		if errors.IsValidationError(runErr) {
			uc.logger.Warnw("reconciliation request rejected",
				"document_id", target.DocumentID,
				"error", runErr,
			)
			return true, nil
		}
		uc.logger.Errorw("reconciliation request failed",
			"document_id", target.DocumentID,
			"error_type", errors.TypeOf(runErr),
			"error", runErr,
		)
		return true, runErr
	}

	uc.writeReport(ctx, doc, report)
	if err := tracker.Transition(reconciliation.StatusCompleted); err != nil {
		uc.logger.Warnw("failed to mark request completed", "document_id", target.DocumentID, "error", err)
	}
	return true, nil
}

func (uc *ProcessRequestUseCase) runRequest(ctx context.Context, doc document.Document, target document.Target) (*dto.ReconciliationReport, error) {
	tenantKey, err := doc.ReadCell(ctx, uc.cells.TenantKey)
	if err != nil {
		return nil, errors.NewUpstreamError("failed to read tenant key", err)
	}
	provisioningKey, err := doc.ReadCell(ctx, uc.cells.ProvisioningKey)
	if err != nil {
		return nil, errors.NewUpstreamError("failed to read provisioning key", err)
	}
	forceFresh, err := doc.ReadCell(ctx, uc.cells.ForceFresh)
	if err != nil {
		return nil, errors.NewUpstreamError("failed to read force-fresh flag", err)
	}

	req := reconciliation.NewRequest(tenantKey, provisioningKey, reconciliation.ParseForceFresh(forceFresh))
	return uc.reconcile.Execute(ctx, ReconcileCommand{DocumentID: target.DocumentID, Request: req})
}

func (uc *ProcessRequestUseCase) acquireLock(ctx context.Context, target document.Target) (func(), bool) {
	noop := func() {}
	if uc.locker == nil {
		return noop, true
	}

	release, err := uc.locker.Acquire(ctx, target.DocumentID)
	if errors.Is(err, cache.ErrDocumentLocked) {
		uc.logger.Infow("document locked by another instance, skipping", "document_id", target.DocumentID)
		return nil, false
	}
	if err != nil {
		uc.logger.Warnw("could not obtain document lock; proceeding without lock",
			"document_id", target.DocumentID,
			"error", err,
		)
		return noop, true
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			uc.logger.Warnw("failed to release document lock", "document_id", target.DocumentID, "error", err)
		}
	}, true
}

// writeReport writes every output of a handled request, status cell last.
func (uc *ProcessRequestUseCase) writeReport(ctx context.Context, doc document.Document, report *dto.ReconciliationReport) {
	c := uc.cells

	uc.clear(ctx, doc, c.RawListing)
	uc.writeRange(ctx, doc, c.RawHeader, services.HeaderCells(services.RawHeader))
	uc.writeRange(ctx, doc, c.RawListing, services.RawCells(report.RawListing))

	uc.clear(ctx, doc, c.ComparisonListing)
	uc.writeRange(ctx, doc, c.ComparisonHeader, services.HeaderCells(services.ComparisonHeader))
	uc.writeRange(ctx, doc, c.ComparisonListing, services.ComparisonCells(report.ComparisonListing))

	uc.clear(ctx, doc, c.Summary)
	uc.writeRange(ctx, doc, c.Summary, services.SummaryCells(report.SummaryBlock))

	uc.write(ctx, doc, c.ResultStatus, report.ResultStatus)
	uc.write(ctx, doc, c.ResultError, report.Error)
	uc.write(ctx, doc, c.ResultErrorType, report.ErrorType)
	uc.write(ctx, doc, c.ResultTimestamp, report.Timestamp)
	uc.write(ctx, doc, c.Status, reconciliation.SignalCompleted)
}

// writeFailure reports a request that could not be handled. Listings are
// left untouched. Rejected input still counts as handled, so the status
// cell shows Completed; anything else shows Error.
func (uc *ProcessRequestUseCase) writeFailure(ctx context.Context, doc document.Document, err error) {
	c := uc.cells
	signal := reconciliation.SignalError
	if errors.IsValidationError(err) {
		signal = reconciliation.SignalCompleted
	}

	uc.write(ctx, doc, c.ResultStatus, reconciliation.ResultError)
	uc.write(ctx, doc, c.ResultError, ErrorMessage(err))
	uc.write(ctx, doc, c.ResultErrorType, string(errors.TypeOf(err)))
	uc.write(ctx, doc, c.ResultTimestamp, biztime.FormatTimestamp(biztime.NowUTC()))
	uc.write(ctx, doc, c.Status, signal)
}

// Document writes are best-effort: failures are logged and never retried.
// They use a context detached from cancellation so a stopping scheduler
// does not leave the status cell on Processing.

func (uc *ProcessRequestUseCase) write(ctx context.Context, doc document.Document, addr string, value any) {
	if addr == "" {
		return
	}
	if err := doc.WriteCell(context.WithoutCancel(ctx), addr, value); err != nil {
		uc.logger.Warnw("document write failed", "cell", addr, "error", err)
	}
}

func (uc *ProcessRequestUseCase) writeRange(ctx context.Context, doc document.Document, addr string, rows [][]any) {
	if addr == "" || len(rows) == 0 {
		return
	}
	if err := doc.WriteRange(context.WithoutCancel(ctx), addr, rows); err != nil {
		uc.logger.Warnw("document range write failed", "range", addr, "rows", len(rows), "error", err)
	}
}

func (uc *ProcessRequestUseCase) clear(ctx context.Context, doc document.Document, addr string) {
	if addr == "" {
		return
	}
	if err := doc.ClearRange(context.WithoutCancel(ctx), addr); err != nil {
		uc.logger.Warnw("document clear failed", "range", addr, "error", err)
	}
}
