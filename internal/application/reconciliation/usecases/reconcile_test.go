package usecases

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entitleops/licensesync/internal/application/reconciliation/services"
	"github.com/entitleops/licensesync/internal/application/reconciliation/testutil"
	"github.com/entitleops/licensesync/internal/domain/entitlement"
	"github.com/entitleops/licensesync/internal/domain/reconciliation"
	"github.com/entitleops/licensesync/internal/shared/errors"
	"github.com/entitleops/licensesync/internal/shared/logger"
)

func strPtr(s string) *string { return &s }

func acmeTenant() *reconciliation.TenantEntitlements {
	return &reconciliation.TenantEntitlements{
		TenantID:   "t-100",
		TenantName: "Acme Corp",
		Entitlements: entitlement.RawEntitlementSet{
			"apps": {
				{"productCode": "RI-APP", "packageName": "Gold", "quantity": 5, "startDate": "2025-01-01", "endDate": "2025-12-31"},
			},
			"models": {
				{"productCode": "X", "startDate": "2025-01-01"},
			},
		},
	}
}

func acmeRecord(tenantName *string) *reconciliation.ProvisioningRecord {
	return &reconciliation.ProvisioningRecord{
		RecordID:   "a0X001",
		Name:       "PR-0001",
		TenantName: tenantName,
		Entitlements: entitlement.RawEntitlementSet{
			"apps": {
				{"productCode": "RI-APP", "packageName": "Gold", "quantity": 10, "startDate": "2025-01-01", "endDate": "2025-12-31"},
			},
		},
	}
}

type reconcileFixture struct {
	license      *testutil.MockLicenseSource
	provisioning *testutil.MockProvisioningSource
	runs         *testutil.MockRunRepository
	uc           *ReconcileUseCase
}

func newReconcileFixture(records ...*reconciliation.ProvisioningRecord) *reconcileFixture {
	f := &reconcileFixture{
		license:      testutil.NewMockLicenseSource(acmeTenant()),
		provisioning: testutil.NewMockProvisioningSource(records...),
		runs:         testutil.NewMockRunRepository(),
	}
	f.uc = NewReconcileUseCase(
		f.license,
		f.provisioning,
		reconciliation.NewMatchValidator(nil),
		services.NewResultFormatter(),
		f.runs,
		logger.NewNopLogger(),
	)
	return f
}

func TestReconcile_LookupOnly(t *testing.T) {
	f := newReconcileFixture()

	report, err := f.uc.Execute(context.Background(), ReconcileCommand{
		DocumentID: "doc-1",
		Request:    reconciliation.NewRequest(" Acme Corp ", "", false),
	})

	require.NoError(t, err)
	assert.True(t, report.LookupOnly)
	assert.True(t, report.Succeeded())
	assert.Equal(t, "Acme Corp", report.TenantName)
	require.Len(t, report.RawListing, 2)
	assert.Equal(t, "RI-APP", report.RawListing[0].ProductCode)
	assert.Equal(t, "X", report.RawListing[1].ProductCode)
	assert.Empty(t, report.ComparisonListing)
	assert.Nil(t, report.Summary)
	for _, row := range report.SummaryBlock {
		assert.Equal(t, services.NotApplicable, row.Value, row.Label)
	}

	runs := f.runs.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, "doc-1", runs[0].DocumentID())
	assert.Equal(t, reconciliation.StatusCompleted, runs[0].Status())
	assert.Equal(t, reconciliation.ResultSuccess, runs[0].ResultStatus())
	assert.Nil(t, runs[0].Summary())
}

func TestReconcile_Compare(t *testing.T) {
	f := newReconcileFixture(acmeRecord(strPtr("ACME")))

	report, err := f.uc.Execute(context.Background(), ReconcileCommand{
		Request: reconciliation.NewRequest("Acme Corp", "a0X001", true),
	})

	require.NoError(t, err)
	assert.True(t, report.Succeeded())
	assert.Equal(t, "ACME", report.RecordTenantName)
	require.NotNil(t, report.Summary)
	assert.Equal(t, 1, report.Summary.Changed)
	assert.Equal(t, 1, report.Summary.LicenseOnly)
	assert.Equal(t, 0, report.Summary.ProvisioningOnly)
	assert.Equal(t, 0, report.Summary.Matching)
	assert.True(t, report.Summary.HasDiscrepancies)

	require.Len(t, report.ComparisonListing, 2)
	assert.Equal(t, "X", report.ComparisonListing[0].ProductCode)
	assert.Equal(t, "removing", report.ComparisonListing[0].Tag)
	assert.Equal(t, "RI-APP", report.ComparisonListing[1].ProductCode)
	assert.Equal(t, "updating", report.ComparisonListing[1].Tag)
	assert.Equal(t, "quantity: license=5, provisioning=10", report.ComparisonListing[1].Notes)

	assert.Equal(t, []bool{true}, f.provisioning.ForceFreshFlags())

	runs := f.runs.Runs()
	require.Len(t, runs, 1)
	require.NotNil(t, runs[0].Summary())
	assert.Equal(t, 1, runs[0].Summary().Changed)
}

func TestReconcile_TenantNotFound(t *testing.T) {
	f := newReconcileFixture(acmeRecord(nil))

	report, err := f.uc.Execute(context.Background(), ReconcileCommand{
		Request: reconciliation.NewRequest("Globex", "a0X001", false),
	})

	require.NoError(t, err)
	assert.False(t, report.Succeeded())
	assert.Equal(t, reconciliation.ResultError, report.ResultStatus)
	assert.Equal(t, string(errors.ErrorTypeNotFound), report.ErrorType)
	assert.Contains(t, report.Error, "Globex")
	assert.Empty(t, report.RawListing)
	assert.Empty(t, f.provisioning.ForceFreshFlags(), "record lookup skipped")

	runs := f.runs.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, reconciliation.StatusCompleted, runs[0].Status())
	assert.Equal(t, reconciliation.ResultError, runs[0].ResultStatus())
}

func TestReconcile_RecordNotFoundKeepsRawListing(t *testing.T) {
	f := newReconcileFixture()

	report, err := f.uc.Execute(context.Background(), ReconcileCommand{
		Request: reconciliation.NewRequest("Acme Corp", "missing", false),
	})

	require.NoError(t, err)
	assert.Equal(t, string(errors.ErrorTypeNotFound), report.ErrorType)
	assert.Contains(t, report.Error, `"missing"`)
	assert.Len(t, report.RawListing, 2)
	assert.Empty(t, report.ComparisonListing)
}

func TestReconcile_TenantMismatch(t *testing.T) {
	f := newReconcileFixture(acmeRecord(strPtr("Globex Industries")))

	report, err := f.uc.Execute(context.Background(), ReconcileCommand{
		Request: reconciliation.NewRequest("Acme Corp", "a0X001", false),
	})

	require.NoError(t, err)
	assert.Equal(t, string(errors.ErrorTypeMismatch), report.ErrorType)
	assert.Contains(t, report.Error, "Globex Industries")
	assert.Contains(t, report.Error, "record a0X001 (PR-0001)")
	assert.Empty(t, report.ComparisonListing)
	assert.Nil(t, report.Summary)
}

func TestReconcile_MissingRecordTenantWarns(t *testing.T) {
	f := newReconcileFixture(acmeRecord(nil))

	report, err := f.uc.Execute(context.Background(), ReconcileCommand{
		Request: reconciliation.NewRequest("Acme Corp", "PR-0001", false),
	})

	require.NoError(t, err)
	assert.True(t, report.Succeeded())
	assert.NotEmpty(t, report.Warning)
	assert.Empty(t, report.Error)
	require.NotNil(t, report.Summary)

	runs := f.runs.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, report.Warning, runs[0].Warning())
}

func TestReconcile_BlankTenantKey(t *testing.T) {
	f := newReconcileFixture()

	report, err := f.uc.Execute(context.Background(), ReconcileCommand{
		Request: reconciliation.NewRequest("   ", "a0X001", false),
	})

	assert.Nil(t, report)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Equal(t, "tenant key is required", ErrorMessage(err))
	assert.Zero(t, f.license.Calls())

	runs := f.runs.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, reconciliation.StatusFailed, runs[0].Status())
	assert.Equal(t, string(errors.ErrorTypeValidation), runs[0].ErrorType())
}

func TestReconcile_UpstreamFailure(t *testing.T) {
	f := newReconcileFixture()
	f.license.SetFetchError(errors.NewUpstreamError("license service authentication expired", fmt.Errorf("401")))

	_, err := f.uc.Execute(context.Background(), ReconcileCommand{
		Request: reconciliation.NewRequest("Acme Corp", "", false),
	})

	require.Error(t, err)
	assert.True(t, errors.IsUpstreamError(err))
	assert.Equal(t, "license service authentication expired", ErrorMessage(err))

	runs := f.runs.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, reconciliation.StatusFailed, runs[0].Status())
	assert.Equal(t, string(errors.ErrorTypeUpstream), runs[0].ErrorType())
}

func TestReconcile_RunRepositoryFailureIsIgnored(t *testing.T) {
	f := newReconcileFixture()
	f.runs.SetCreateError(fmt.Errorf("disk full"))

	report, err := f.uc.Execute(context.Background(), ReconcileCommand{
		Request: reconciliation.NewRequest("Acme Corp", "", false),
	})

	require.NoError(t, err)
	assert.True(t, report.Succeeded())
}

func TestReconcile_NilRunRepository(t *testing.T) {
	uc := NewReconcileUseCase(
		testutil.NewMockLicenseSource(acmeTenant()),
		testutil.NewMockProvisioningSource(),
		reconciliation.NewMatchValidator(nil),
		services.NewResultFormatter(),
		nil,
		logger.NewNopLogger(),
	)

	report, err := uc.Execute(context.Background(), ReconcileCommand{
		Request: reconciliation.NewRequest("t-100", "", false),
	})

	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", report.TenantName)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "", ErrorMessage(nil))
	assert.Equal(t, "plain", ErrorMessage(fmt.Errorf("plain")))
	assert.Equal(t, "bad input", ErrorMessage(fmt.Errorf("wrapped: %w", errors.NewValidationError("bad input"))))
}
