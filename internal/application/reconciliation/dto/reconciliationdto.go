package dto

import (
	"time"

	"github.com/entitleops/licensesync/internal/domain/reconciliation"
	"github.com/entitleops/licensesync/internal/shared/mapper"
)

// RawRow is one license-service entitlement in the raw listing.
type RawRow struct {
	ProductCode     string `json:"product_code" yaml:"product_code"`
	Category        string `json:"category" yaml:"category"`
	PackageName     string `json:"package_name" yaml:"package_name"`
	StartDate       string `json:"start_date" yaml:"start_date"`
	EndDate         string `json:"end_date" yaml:"end_date"`
	Quantity        string `json:"quantity" yaml:"quantity"`
	ProductModifier string `json:"product_modifier" yaml:"product_modifier"`
}

// ComparisonRow is one reconciled key in the comparison listing. Side
// columns are blank where the key is absent.
type ComparisonRow struct {
	ProductCode           string `json:"product_code" yaml:"product_code"`
	Category              string `json:"category" yaml:"category"`
	Bucket                string `json:"bucket" yaml:"bucket"`
	Tag                   string `json:"tag" yaml:"tag"`
	LicenseStartDate      string `json:"license_start_date" yaml:"license_start_date"`
	LicenseEndDate        string `json:"license_end_date" yaml:"license_end_date"`
	LicensePackage        string `json:"license_package" yaml:"license_package"`
	ProvisioningStartDate string `json:"provisioning_start_date" yaml:"provisioning_start_date"`
	ProvisioningEndDate   string `json:"provisioning_end_date" yaml:"provisioning_end_date"`
	ProvisioningPackage   string `json:"provisioning_package" yaml:"provisioning_package"`
	Notes                 string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// SummaryRow is one label/value pair of the summary block.
type SummaryRow struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// SummaryDTO is the machine-readable summary.
type SummaryDTO struct {
	ProvisioningOnly int  `json:"provisioning_only" yaml:"provisioning_only"`
	LicenseOnly      int  `json:"license_only" yaml:"license_only"`
	Changed          int  `json:"changed" yaml:"changed"`
	Matching         int  `json:"matching" yaml:"matching"`
	HasDiscrepancies bool `json:"has_discrepancies" yaml:"has_discrepancies"`
}

// ReconciliationReport is the full outcome of one request.
type ReconciliationReport struct {
	TenantKey         string          `json:"tenant_key" yaml:"tenant_key"`
	TenantName        string          `json:"tenant_name,omitempty" yaml:"tenant_name,omitempty"`
	ProvisioningKey   string          `json:"provisioning_key,omitempty" yaml:"provisioning_key,omitempty"`
	RecordTenantName  string          `json:"record_tenant_name,omitempty" yaml:"record_tenant_name,omitempty"`
	LookupOnly        bool            `json:"lookup_only" yaml:"lookup_only"`
	ResultStatus      string          `json:"result_status" yaml:"result_status"`
	ErrorType         string          `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	Error             string          `json:"error,omitempty" yaml:"error,omitempty"`
	Warning           string          `json:"warning,omitempty" yaml:"warning,omitempty"`
	RawListing        []RawRow        `json:"raw_listing" yaml:"raw_listing"`
	ComparisonListing []ComparisonRow `json:"comparison_listing" yaml:"comparison_listing"`
	Summary           *SummaryDTO     `json:"summary,omitempty" yaml:"summary,omitempty"`
	SummaryBlock      []SummaryRow    `json:"summary_block" yaml:"summary_block"`
	Timestamp         string          `json:"timestamp" yaml:"timestamp"`
}

// Succeeded reports whether the report carries no error.
func (r *ReconciliationReport) Succeeded() bool {
	return r.ResultStatus == reconciliation.ResultSuccess
}

// RunDTO is a processed request as exposed by the control API.
type RunDTO struct {
	ID              uint        `json:"id"`
	DocumentID      string      `json:"document_id,omitempty"`
	TenantKey       string      `json:"tenant_key"`
	ProvisioningKey string      `json:"provisioning_key,omitempty"`
	ForceFresh      bool        `json:"force_fresh"`
	Status          string      `json:"status"`
	ResultStatus    string      `json:"result_status"`
	ErrorType       string      `json:"error_type,omitempty"`
	ErrorMessage    string      `json:"error_message,omitempty"`
	Warning         string      `json:"warning,omitempty"`
	Summary         *SummaryDTO `json:"summary,omitempty"`
	StartedAt       time.Time   `json:"started_at"`
	FinishedAt      *time.Time  `json:"finished_at,omitempty"`
	DurationMs      int64       `json:"duration_ms"`
}

// ToRunDTO converts a domain run.
func ToRunDTO(run *reconciliation.Run) *RunDTO {
	if run == nil {
		return nil
	}
	out := &RunDTO{
		ID:              run.ID(),
		DocumentID:      run.DocumentID(),
		TenantKey:       run.TenantKey(),
		ProvisioningKey: run.ProvisioningKey(),
		ForceFresh:      run.ForceFresh(),
		Status:          run.Status().String(),
		ResultStatus:    run.ResultStatus(),
		ErrorType:       run.ErrorType(),
		ErrorMessage:    run.ErrorMessage(),
		Warning:         run.Warning(),
		StartedAt:       run.StartedAt(),
		FinishedAt:      run.FinishedAt(),
		DurationMs:      run.Duration().Milliseconds(),
	}
	if s := run.Summary(); s != nil {
		out.Summary = &SummaryDTO{
			ProvisioningOnly: s.ProvisioningOnly,
			LicenseOnly:      s.LicenseOnly,
			Changed:          s.Changed,
			Matching:         s.Matching,
			HasDiscrepancies: s.HasDiscrepancies,
		}
	}
	return out
}

// ToRunDTOList converts a list of domain runs.
func ToRunDTOList(runs []*reconciliation.Run) []*RunDTO {
	return mapper.MapSlicePtrSkipNil(runs, ToRunDTO)
}
