package reconciliation

import (
	"context"

	"github.com/entitleops/licensesync/internal/domain/entitlement"
)

// TenantEntitlements is a tenant as reported by the license service.
type TenantEntitlements struct {
	TenantID     string
	TenantName   string
	Entitlements entitlement.RawEntitlementSet
}

// ProvisioningRecord is the CRM-side record used as comparison baseline.
// TenantName is nil when the record carries no tenant name field.
type ProvisioningRecord struct {
	RecordID     string
	Name         string
	TenantName   *string
	Entitlements entitlement.RawEntitlementSet
}

// LicenseSource looks up what a tenant actually has provisioned.
type LicenseSource interface {
	// FetchTenantEntitlements returns nil, nil when the tenant does not exist
	FetchTenantEntitlements(ctx context.Context, tenantKey string) (*TenantEntitlements, error)
}

// ProvisioningSource looks up provisioning records.
type ProvisioningSource interface {
	// FindRecord returns nil, nil when no record matches key. forceFresh
	// bypasses any cached copy.
	FindRecord(ctx context.Context, key string, forceFresh bool) (*ProvisioningRecord, error)
}
