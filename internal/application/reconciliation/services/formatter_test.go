package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entitleops/licensesync/internal/application/reconciliation/dto"
	"github.com/entitleops/licensesync/internal/domain/entitlement"
)

func ent(c entitlement.Category, code, pkg string, qty int64, start, end entitlement.Date) entitlement.Entitlement {
	e := entitlement.Entitlement{Category: c, ProductCode: code, PackageName: pkg, StartDate: start, EndDate: end}
	if qty >= 0 {
		e.Quantity = decimal.NewNullDecimal(decimal.NewFromInt(qty))
	}
	return e
}

func TestResultFormatter_RawListing(t *testing.T) {
	set := entitlement.Set{
		entitlement.CategoryData:   {ent(entitlement.CategoryData, "D-1", "", -1, "", "")},
		entitlement.CategoryApps:   {ent(entitlement.CategoryApps, "Z-APP", "Gold", 5, "2025-01-01", ""), ent(entitlement.CategoryApps, "A-APP", "", -1, "", "")},
		entitlement.CategoryModels: {ent(entitlement.CategoryModels, "M-1", "", -1, "", "2025-12-31")},
	}

	rows := NewResultFormatter().RawListing(set)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Z-APP", "A-APP", "M-1", "D-1"}, []string{rows[0].ProductCode, rows[1].ProductCode, rows[2].ProductCode, rows[3].ProductCode})
	assert.Equal(t, dto.RawRow{
		ProductCode: "Z-APP",
		Category:    "apps",
		PackageName: "Gold",
		StartDate:   "2025-01-01",
		Quantity:    "5",
	}, rows[0])
	assert.Equal(t, "", rows[1].Quantity)

	cells := RawCells(rows)
	require.Len(t, cells, 4)
	assert.Len(t, cells[0], len(RawHeader))
	assert.Equal(t, "Z-APP", cells[0][0])
	assert.Equal(t, "5", cells[0][5])
}

func TestResultFormatter_ComparisonListingOrder(t *testing.T) {
	license := entitlement.Set{
		entitlement.CategoryApps: {
			ent(entitlement.CategoryApps, "B-APP", "Gold", 5, "2025-01-01", ""),
			ent(entitlement.CategoryApps, "OLD", "", -1, "", ""),
			ent(entitlement.CategoryApps, "SAME", "", 1, "", ""),
		},
		entitlement.CategoryModels: {ent(entitlement.CategoryModels, "A-MODEL", "", -1, "2025-01-01", "")},
	}
	provisioning := entitlement.Set{
		entitlement.CategoryApps: {
			ent(entitlement.CategoryApps, "B-APP", "Gold", 10, "2025-01-01", ""),
			ent(entitlement.CategoryApps, "NEW-Z", "", -1, "", ""),
			ent(entitlement.CategoryApps, "SAME", "", 1, "", ""),
		},
		entitlement.CategoryModels: {
			ent(entitlement.CategoryModels, "A-MODEL", "", -1, "2025-02-01", ""),
			ent(entitlement.CategoryModels, "NEW-A", "", -1, "", ""),
		},
	}

	rows := NewResultFormatter().ComparisonListing(entitlement.ReconcileSets(license, provisioning))

	got := make([][2]string, 0, len(rows))
	for _, r := range rows {
		got = append(got, [2]string{r.Bucket, r.ProductCode})
	}
	assert.Equal(t, [][2]string{
		{"Provisioning Only", "NEW-A"},
		{"Provisioning Only", "NEW-Z"},
		{"License Only", "OLD"},
		{"Changed", "A-MODEL"},
		{"Changed", "B-APP"},
		{"Matching", "SAME"},
	}, got)

	assert.Equal(t, "adding", rows[0].Tag)
	assert.Equal(t, "", rows[0].LicenseStartDate)
	assert.Equal(t, "removing", rows[2].Tag)
	assert.Equal(t, "", rows[2].ProvisioningPackage)
	assert.Equal(t, "updating", rows[3].Tag)
	assert.Equal(t, "startDate: license=2025-01-01, provisioning=2025-02-01", rows[3].Notes)
	assert.Equal(t, "quantity: license=5, provisioning=10", rows[4].Notes)
	assert.Equal(t, "Gold", rows[4].LicensePackage)
	assert.Equal(t, "Gold", rows[4].ProvisioningPackage)
	assert.Equal(t, "no change", rows[5].Tag)
	assert.Empty(t, rows[5].Notes)

	cells := ComparisonCells(rows)
	assert.Len(t, cells[0], len(ComparisonHeader))
}

func TestResultFormatter_SummaryBlock(t *testing.T) {
	f := NewResultFormatter()

	rows := f.SummaryBlock(&entitlement.Summary{ProvisioningOnly: 2, LicenseOnly: 1, Changed: 0, Matching: 4, HasDiscrepancies: true})
	assert.Equal(t, []dto.SummaryRow{
		{Label: "Provisioning Only", Value: "2"},
		{Label: "License Only", Value: "1"},
		{Label: "Changed", Value: "0"},
		{Label: "Matching", Value: "4"},
		{Label: "Has Discrepancies", Value: "YES"},
	}, rows)

	clean := f.SummaryBlock(&entitlement.Summary{Matching: 3})
	assert.Equal(t, "NO", clean[len(clean)-1].Value)

	empty := f.SummaryBlock(&entitlement.Summary{})
	assert.Equal(t, "0", empty[0].Value, "zero entitlements compared")

	for _, r := range f.SummaryBlock(nil) {
		assert.Equal(t, NotApplicable, r.Value, r.Label)
	}

	assert.Equal(t, [][]any{{"Changed", "0"}}, SummaryCells(rows[2:3]))
	assert.Nil(t, f.Summary(nil))
}

func TestHeaderCells(t *testing.T) {
	cells := HeaderCells(RawHeader)
	require.Len(t, cells, 1)
	assert.Len(t, cells[0], 7)
	assert.Equal(t, "Product Code", cells[0][0])
	assert.Len(t, ComparisonHeader, 11)
}
