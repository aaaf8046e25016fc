// Package services holds the presentation logic shared by the document,
// the control API, and the CLI.
package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/entitleops/licensesync/internal/application/reconciliation/dto"
	"github.com/entitleops/licensesync/internal/domain/entitlement"
)

// NotApplicable marks summary values when no comparison was requested.
const NotApplicable = "N/A"

// Column headers written above each listing.
var (
	RawHeader = []string{
		"Product Code", "Category", "Package", "Start Date", "End Date", "Quantity", "Modifier",
	}
	ComparisonHeader = []string{
		"Product Code", "Category", "Status", "Action",
		"License Start", "License End", "License Package",
		"Provisioning Start", "Provisioning End", "Provisioning Package",
		"Notes",
	}
)

const hasDiscrepanciesLabel = "Has Discrepancies"

// ResultFormatter projects normalized entitlements and reconciliation
// results into row shapes.
type ResultFormatter struct{}

// NewResultFormatter creates a new ResultFormatter.
func NewResultFormatter() *ResultFormatter {
	return &ResultFormatter{}
}

// RawListing lists license-service entitlements grouped by category in
// category order, keeping input order within a category.
func (f *ResultFormatter) RawListing(set entitlement.Set) []dto.RawRow {
	rows := make([]dto.RawRow, 0, set.Len())
	for _, c := range entitlement.Categories {
		for _, e := range set.Get(c) {
			rows = append(rows, dto.RawRow{
				ProductCode:     e.ProductCode,
				Category:        c.String(),
				PackageName:     e.PackageName,
				StartDate:       e.StartDate.String(),
				EndDate:         e.EndDate.String(),
				Quantity:        e.QuantityString(),
				ProductModifier: e.ProductModifier,
			})
		}
	}
	return rows
}

// ComparisonListing lists every reconciled entry ordered by bucket
// priority, then product code. Ties keep category order, then key order.
func (f *ResultFormatter) ComparisonListing(result entitlement.Result) []dto.ComparisonRow {
	entries := result.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		pi, pj := entries[i].Bucket.Priority(), entries[j].Bucket.Priority()
		if pi != pj {
			return pi < pj
		}
		return entries[i].ProductCode() < entries[j].ProductCode()
	})

	rows := make([]dto.ComparisonRow, 0, len(entries))
	for _, e := range entries {
		row := dto.ComparisonRow{
			ProductCode: e.ProductCode(),
			Category:    e.Category.String(),
			Bucket:      e.Bucket.Label(),
			Tag:         e.Bucket.Tag(),
			Notes:       formatDifferences(e.Differences),
		}
		if e.License != nil {
			row.LicenseStartDate = e.License.StartDate.String()
			row.LicenseEndDate = e.License.EndDate.String()
			row.LicensePackage = e.License.PackageName
		}
		if e.Provisioning != nil {
			row.ProvisioningStartDate = e.Provisioning.StartDate.String()
			row.ProvisioningEndDate = e.Provisioning.EndDate.String()
			row.ProvisioningPackage = e.Provisioning.PackageName
		}
		rows = append(rows, row)
	}
	return rows
}

// SummaryBlock renders per-bucket counts. A nil summary means no comparison
// was requested and every value is N/A.
func (f *ResultFormatter) SummaryBlock(summary *entitlement.Summary) []dto.SummaryRow {
	rows := make([]dto.SummaryRow, 0, len(entitlement.Buckets)+1)
	for _, b := range entitlement.Buckets {
		value := NotApplicable
		if summary != nil {
			value = strconv.Itoa(summary.Count(b))
		}
		rows = append(rows, dto.SummaryRow{Label: b.Label(), Value: value})
	}

	value := NotApplicable
	if summary != nil {
		value = "NO"
		if summary.HasDiscrepancies {
			value = "YES"
		}
	}
	return append(rows, dto.SummaryRow{Label: hasDiscrepanciesLabel, Value: value})
}

// Summary converts a domain summary; nil stays nil.
func (f *ResultFormatter) Summary(summary *entitlement.Summary) *dto.SummaryDTO {
	if summary == nil {
		return nil
	}
	return &dto.SummaryDTO{
		ProvisioningOnly: summary.ProvisioningOnly,
		LicenseOnly:      summary.LicenseOnly,
		Changed:          summary.Changed,
		Matching:         summary.Matching,
		HasDiscrepancies: summary.HasDiscrepancies,
	}
}

func formatDifferences(diffs []entitlement.FieldDifference) string {
	if len(diffs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(diffs))
	for _, d := range diffs {
		parts = append(parts, fmt.Sprintf("%s: license=%s, provisioning=%s",
			d.Field, displayValue(d.LicenseValue), displayValue(d.ProvisioningValue)))
	}
	return strings.Join(parts, "; ")
}

func displayValue(v string) string {
	if v == "" {
		return "(none)"
	}
	return v
}

// HeaderCells returns a header as a single document row.
func HeaderCells(header []string) [][]any {
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	return [][]any{row}
}

// RawCells projects raw rows in RawHeader column order.
func RawCells(rows []dto.RawRow) [][]any {
	cells := make([][]any, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []any{
			r.ProductCode, r.Category, r.PackageName, r.StartDate, r.EndDate, r.Quantity, r.ProductModifier,
		})
	}
	return cells
}

// ComparisonCells projects comparison rows in ComparisonHeader column order.
func ComparisonCells(rows []dto.ComparisonRow) [][]any {
	cells := make([][]any, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []any{
			r.ProductCode, r.Category, r.Bucket, r.Tag,
			r.LicenseStartDate, r.LicenseEndDate, r.LicensePackage,
			r.ProvisioningStartDate, r.ProvisioningEndDate, r.ProvisioningPackage,
			r.Notes,
		})
	}
	return cells
}

// SummaryCells projects the summary block as label/value rows.
func SummaryCells(rows []dto.SummaryRow) [][]any {
	cells := make([][]any, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []any{r.Label, r.Value})
	}
	return cells
}
