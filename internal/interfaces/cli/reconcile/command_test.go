package reconcile

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/entitleops/licensesync/internal/application/reconciliation/dto"
)

func sampleReport() *dto.ReconciliationReport {
	return &dto.ReconciliationReport{
		TenantKey:       "Acme Corp",
		TenantName:      "Acme Corp",
		ProvisioningKey: "a0X001",
		ResultStatus:    "Success",
		RawListing: []dto.RawRow{
			{ProductCode: "RI-APP", Category: "apps", PackageName: "Gold", Quantity: "5"},
		},
		ComparisonListing: []dto.ComparisonRow{
			{ProductCode: "RI-APP", Category: "apps", Bucket: "changed", Tag: "updating"},
		},
		Summary:   &dto.SummaryDTO{Changed: 1, HasDiscrepancies: true},
		Timestamp: "2025-03-01 09:00:00",
	}
}

func TestWriteReportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleReport(), OutputJSON))

	var decoded dto.ReconciliationReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "a0X001", decoded.ProvisioningKey)
	require.Len(t, decoded.ComparisonListing, 1)
	assert.Equal(t, "updating", decoded.ComparisonListing[0].Tag)
	assert.Contains(t, buf.String(), "\n  \"tenant_key\"")
}

func TestWriteReportYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleReport(), OutputYAML))

	out := buf.String()
	assert.Contains(t, out, "tenant_key: Acme Corp")
	assert.Contains(t, out, "raw_listing:")
	assert.Contains(t, out, "has_discrepancies: true")

	var decoded dto.ReconciliationReport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 1, decoded.Summary.Changed)
}

func TestWriteReportUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteReport(&buf, sampleReport(), "csv"))
	assert.Empty(t, buf.String())
}
