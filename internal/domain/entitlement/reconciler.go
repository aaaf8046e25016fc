package entitlement

import (
	"sort"
)

// FieldDifference records one tracked field that differs between the two
// sides of a matched key.
type FieldDifference struct {
	Field             string `json:"field"`
	LicenseValue      string `json:"licenseValue"`
	ProvisioningValue string `json:"provisioningValue"`
}

// Entry is one reconciled key. License or Provisioning is nil on the side
// where the key is absent.
type Entry struct {
	Key          string            `json:"key"`
	Category     Category          `json:"category"`
	Bucket       Bucket            `json:"bucket"`
	License      *Entitlement      `json:"license,omitempty"`
	Provisioning *Entitlement      `json:"provisioning,omitempty"`
	Differences  []FieldDifference `json:"differences,omitempty"`
}

// ProductCode returns the code from whichever side is present.
func (e Entry) ProductCode() string {
	if e.Provisioning != nil {
		return e.Provisioning.ProductCode
	}
	if e.License != nil {
		return e.License.ProductCode
	}
	return ""
}

// CategoryResult holds the four buckets of one category, each sorted by key.
type CategoryResult struct {
	Category         Category `json:"category"`
	ProvisioningOnly []Entry  `json:"provisioningOnly"`
	LicenseOnly      []Entry  `json:"licenseOnly"`
	Changed          []Entry  `json:"changed"`
	Matching         []Entry  `json:"matching"`
}

// Entries returns every entry of the category in bucket priority order.
func (r CategoryResult) Entries() []Entry {
	out := make([]Entry, 0, len(r.ProvisioningOnly)+len(r.LicenseOnly)+len(r.Changed)+len(r.Matching))
	out = append(out, r.ProvisioningOnly...)
	out = append(out, r.LicenseOnly...)
	out = append(out, r.Changed...)
	out = append(out, r.Matching...)
	return out
}

// Result is the reconciliation of all categories, in category order.
type Result struct {
	Categories []CategoryResult `json:"categories"`
}

// Category returns the result for c, or an empty result when absent.
func (r Result) Category(c Category) CategoryResult {
	for _, cr := range r.Categories {
		if cr.Category == c {
			return cr
		}
	}
	return CategoryResult{Category: c}
}

// Entries flattens every category's entries.
func (r Result) Entries() []Entry {
	var out []Entry
	for _, cr := range r.Categories {
		out = append(out, cr.Entries()...)
	}
	return out
}

// Summary counts entries per bucket across all categories.
type Summary struct {
	ProvisioningOnly int  `json:"provisioningOnly"`
	LicenseOnly      int  `json:"licenseOnly"`
	Changed          int  `json:"changed"`
	Matching         int  `json:"matching"`
	HasDiscrepancies bool `json:"hasDiscrepancies"`
}

// Count returns the count of one bucket.
func (s Summary) Count(b Bucket) int {
	switch b {
	case BucketProvisioningOnly:
		return s.ProvisioningOnly
	case BucketLicenseOnly:
		return s.LicenseOnly
	case BucketChanged:
		return s.Changed
	case BucketMatching:
		return s.Matching
	default:
		return 0
	}
}

func (r Result) Summary() Summary {
	var s Summary
	for _, cr := range r.Categories {
		s.ProvisioningOnly += len(cr.ProvisioningOnly)
		s.LicenseOnly += len(cr.LicenseOnly)
		s.Changed += len(cr.Changed)
		s.Matching += len(cr.Matching)
	}
	s.HasDiscrepancies = s.ProvisioningOnly+s.LicenseOnly+s.Changed > 0
	return s
}

// Reconcile diffs the license-service and provisioning-record entitlements
// of one category. Duplicate keys on a side resolve last-write-wins.
func Reconcile(category Category, license, provisioning []Entitlement) CategoryResult {
	licenseByKey := indexByKey(category, license)
	provisioningByKey := indexByKey(category, provisioning)

	result := CategoryResult{
		Category:         category,
		ProvisioningOnly: []Entry{},
		LicenseOnly:      []Entry{},
		Changed:          []Entry{},
		Matching:         []Entry{},
	}

	for _, key := range sortedKeys(provisioningByKey) {
		p := provisioningByKey[key]
		l, ok := licenseByKey[key]
		if !ok {
			result.ProvisioningOnly = append(result.ProvisioningOnly, Entry{
				Key:          key,
				Category:     category,
				Bucket:       BucketProvisioningOnly,
				Provisioning: &p,
			})
			continue
		}

		diffs := Compare(category, l, p)
		entry := Entry{
			Key:          key,
			Category:     category,
			License:      &l,
			Provisioning: &p,
		}
		if len(diffs) > 0 {
			entry.Bucket = BucketChanged
			entry.Differences = diffs
			result.Changed = append(result.Changed, entry)
		} else {
			entry.Bucket = BucketMatching
			result.Matching = append(result.Matching, entry)
		}
	}

	for _, key := range sortedKeys(licenseByKey) {
		if _, ok := provisioningByKey[key]; ok {
			continue
		}
		l := licenseByKey[key]
		result.LicenseOnly = append(result.LicenseOnly, Entry{
			Key:      key,
			Category: category,
			Bucket:   BucketLicenseOnly,
			License:  &l,
		})
	}

	return result
}

// ReconcileSets reconciles every category independently.
func ReconcileSets(license, provisioning Set) Result {
	result := Result{Categories: make([]CategoryResult, 0, len(Categories))}
	for _, c := range Categories {
		result.Categories = append(result.Categories, Reconcile(c, license.Get(c), provisioning.Get(c)))
	}
	return result
}

// Compare returns the tracked fields that differ between a license-side and
// a provisioning-side entitlement, in report order.
func Compare(category Category, license, provisioning Entitlement) []FieldDifference {
	var diffs []FieldDifference
	for _, field := range TrackedFields(category) {
		if field == FieldQuantity {
			if quantitiesEqual(license.Quantity, provisioning.Quantity) {
				continue
			}
		} else if license.FieldValue(field) == provisioning.FieldValue(field) {
			continue
		}
		diffs = append(diffs, FieldDifference{
			Field:             field,
			LicenseValue:      license.FieldValue(field),
			ProvisioningValue: provisioning.FieldValue(field),
		})
	}
	return diffs
}

func indexByKey(category Category, items []Entitlement) map[string]Entitlement {
	m := make(map[string]Entitlement, len(items))
	for _, e := range items {
		m[e.KeyFor(category)] = e
	}
	return m
}

func sortedKeys(m map[string]Entitlement) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
