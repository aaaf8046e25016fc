// Package usecases drives reconciliation requests from the shared document,
// the control API, and the CLI through one engine.
package usecases

import (
	"context"
	"fmt"

	"github.com/entitleops/licensesync/internal/application/reconciliation/dto"
	"github.com/entitleops/licensesync/internal/application/reconciliation/services"
	"github.com/entitleops/licensesync/internal/domain/entitlement"
	"github.com/entitleops/licensesync/internal/domain/reconciliation"
	"github.com/entitleops/licensesync/internal/shared/biztime"
	"github.com/entitleops/licensesync/internal/shared/errors"
	"github.com/entitleops/licensesync/internal/shared/logger"
)

// ReconcileCommand is one reconciliation request. DocumentID is empty for
// requests that do not come from a document.
type ReconcileCommand struct {
	DocumentID string
	Request    reconciliation.Request
}

// ReconcileUseCase looks a tenant up, optionally compares it with a
// provisioning record, and records the run.
type ReconcileUseCase struct {
	licenseSource      reconciliation.LicenseSource
	provisioningSource reconciliation.ProvisioningSource
	validator          *reconciliation.MatchValidator
	formatter          *services.ResultFormatter
	runRepo            reconciliation.RunRepository
	logger             logger.Interface
}

// NewReconcileUseCase creates a new ReconcileUseCase. runRepo may be nil.
func NewReconcileUseCase(
	licenseSource reconciliation.LicenseSource,
	provisioningSource reconciliation.ProvisioningSource,
	validator *reconciliation.MatchValidator,
	formatter *services.ResultFormatter,
	runRepo reconciliation.RunRepository,
	logger logger.Interface,
) *ReconcileUseCase {
	return &ReconcileUseCase{
		licenseSource:      licenseSource,
		provisioningSource: provisioningSource,
		validator:          validator,
		formatter:          formatter,
		runRepo:            runRepo,
		logger:             logger,
	}
}

// Execute runs the request. Missing tenants, missing records and tenant
// mismatches are reported in the returned report with result status Error.
// Invalid input and remote failures are returned as errors.
func (uc *ReconcileUseCase) Execute(ctx context.Context, cmd ReconcileCommand) (*dto.ReconciliationReport, error) {
	req := cmd.Request
	run := reconciliation.NewRun(cmd.DocumentID, req, biztime.NowUTC())

	report, err := uc.reconcile(ctx, req)
	if err != nil {
		if failErr := run.Fail(string(errors.TypeOf(err)), ErrorMessage(err), biztime.NowUTC()); failErr != nil {
			uc.logger.Warnw("failed to mark run failed", "error", failErr)
		}
		uc.saveRun(ctx, run)
		return nil, err
	}

	var summary *entitlement.Summary
	if report.Summary != nil {
		summary = &entitlement.Summary{
			ProvisioningOnly: report.Summary.ProvisioningOnly,
			LicenseOnly:      report.Summary.LicenseOnly,
			Changed:          report.Summary.Changed,
			Matching:         report.Summary.Matching,
			HasDiscrepancies: report.Summary.HasDiscrepancies,
		}
	}
	if err := run.Complete(summary, report.ErrorType, report.Error, report.Warning, biztime.NowUTC()); err != nil {
		uc.logger.Warnw("failed to mark run completed", "error", err)
	}
	uc.saveRun(ctx, run)

	uc.logger.Infow("reconciliation completed",
		"tenant_key", req.TenantKey,
		"provisioning_key", req.ProvisioningKey,
		"result_status", report.ResultStatus,
		"error_type", report.ErrorType,
		"lookup_only", report.LookupOnly,
	)
	return report, nil
}

func (uc *ReconcileUseCase) reconcile(ctx context.Context, req reconciliation.Request) (*dto.ReconciliationReport, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	report := &dto.ReconciliationReport{
		TenantKey:         req.TenantKey,
		ProvisioningKey:   req.ProvisioningKey,
		LookupOnly:        req.LookupOnly(),
		ResultStatus:      reconciliation.ResultSuccess,
		RawListing:        []dto.RawRow{},
		ComparisonListing: []dto.ComparisonRow{},
		Timestamp:         biztime.FormatTimestamp(biztime.NowUTC()),
	}

	tenant, err := uc.licenseSource.FetchTenantEntitlements(ctx, req.TenantKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tenant entitlements: %w", err)
	}
	if tenant == nil {
		uc.fail(report, errors.NewNotFoundError(fmt.Sprintf("tenant %q not found in license service", req.TenantKey)))
		return report, nil
	}
	report.TenantName = tenant.TenantName

	licenseSet := entitlement.NormalizeSet(tenant.Entitlements)
	report.RawListing = uc.formatter.RawListing(licenseSet)

	if req.LookupOnly() {
		report.SummaryBlock = uc.formatter.SummaryBlock(nil)
		return report, nil
	}

	record, err := uc.provisioningSource.FindRecord(ctx, req.ProvisioningKey, req.ForceFresh)
	if err != nil {
		return nil, fmt.Errorf("failed to find provisioning record: %w", err)
	}
	if record == nil {
		uc.fail(report, errors.NewNotFoundError(fmt.Sprintf("provisioning record %q not found", req.ProvisioningKey)))
		return report, nil
	}
	report.RecordTenantName = stringValue(record.TenantName)

	match := uc.validator.Validate(tenant.TenantName, record.TenantName, req.TenantKey)
	if !match.Matches {
		uc.fail(report, errors.NewMismatchError(fmt.Sprintf("%s; record %s", match.Error, recordLabel(record))))
		return report, nil
	}
	if match.Warning != "" {
		report.Warning = match.Warning
		uc.logger.Warnw("tenant match not verified",
			"tenant_key", req.TenantKey,
			"record_id", record.RecordID,
			"warning", match.Warning,
		)
	}

	provisioningSet := entitlement.NormalizeSet(record.Entitlements)
	result := entitlement.ReconcileSets(licenseSet, provisioningSet)
	summary := result.Summary()

	report.ComparisonListing = uc.formatter.ComparisonListing(result)
	report.Summary = uc.formatter.Summary(&summary)
	report.SummaryBlock = uc.formatter.SummaryBlock(&summary)
	return report, nil
}

// fail turns the report into a handled failure. Listings already built are kept.
func (uc *ReconcileUseCase) fail(report *dto.ReconciliationReport, err *errors.AppError) {
	report.ResultStatus = reconciliation.ResultError
	report.ErrorType = string(err.Type)
	report.Error = err.Message
	report.SummaryBlock = uc.formatter.SummaryBlock(nil)
}

func (uc *ReconcileUseCase) saveRun(ctx context.Context, run *reconciliation.Run) {
	if uc.runRepo == nil {
		return
	}
	if err := uc.runRepo.Create(ctx, run); err != nil {
		uc.logger.Warnw("failed to record reconciliation run",
			"tenant_key", run.TenantKey(),
			"error", err,
		)
	}
}

// ErrorMessage renders err for operators: the AppError message when
// classified, the full error otherwise.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if appErr := errors.GetAppError(err); appErr != nil {
		return appErr.Message
	}
	return err.Error()
}

func recordLabel(record *reconciliation.ProvisioningRecord) string {
	if record.Name != "" && record.Name != record.RecordID {
		return fmt.Sprintf("%s (%s)", record.RecordID, record.Name)
	}
	return record.RecordID
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
