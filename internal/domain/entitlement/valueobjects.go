// Package entitlement holds the canonical entitlement model, the normalizer
// that produces it from either system of record, and the per-category
// reconciler that diffs the two sides.
package entitlement

// Category scopes normalization and comparison. Entitlements of different
// categories are never matched against each other.
type Category string

const (
	CategoryApps   Category = "apps"
	CategoryModels Category = "models"
	CategoryData   Category = "data"
)

// Categories lists every category in presentation order.
var Categories = []Category{CategoryApps, CategoryModels, CategoryData}

func (c Category) IsValid() bool {
	switch c {
	case CategoryApps, CategoryModels, CategoryData:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

// Bucket is the reconciliation outcome for one matching key.
type Bucket string

const (
	// BucketProvisioningOnly: in the provisioning record only, to be added.
	BucketProvisioningOnly Bucket = "provisioning-only"
	// BucketLicenseOnly: in the license service only, to be removed.
	BucketLicenseOnly Bucket = "license-only"
	// BucketChanged: on both sides with at least one tracked field differing.
	BucketChanged Bucket = "changed"
	// BucketMatching: on both sides and identical on all tracked fields.
	BucketMatching Bucket = "matching"
)

// Buckets lists every bucket in presentation priority, problems first.
var Buckets = []Bucket{BucketProvisioningOnly, BucketLicenseOnly, BucketChanged, BucketMatching}

func (b Bucket) IsValid() bool {
	switch b {
	case BucketProvisioningOnly, BucketLicenseOnly, BucketChanged, BucketMatching:
		return true
	default:
		return false
	}
}

func (b Bucket) String() string {
	return string(b)
}

// Priority orders buckets for presentation; lower sorts first.
func (b Bucket) Priority() int {
	for i, candidate := range Buckets {
		if candidate == b {
			return i
		}
	}
	return len(Buckets)
}

// Label is the human-readable bucket name written to the document.
func (b Bucket) Label() string {
	switch b {
	case BucketProvisioningOnly:
		return "Provisioning Only"
	case BucketLicenseOnly:
		return "License Only"
	case BucketChanged:
		return "Changed"
	case BucketMatching:
		return "Matching"
	default:
		return string(b)
	}
}

// Tag is the fixed semantic meaning of a bucket for reviewers.
func (b Bucket) Tag() string {
	switch b {
	case BucketProvisioningOnly:
		return "adding"
	case BucketLicenseOnly:
		return "removing"
	case BucketChanged:
		return "updating"
	case BucketMatching:
		return "no change"
	default:
		return ""
	}
}

// Tracked field names reported in field differences.
const (
	FieldStartDate       = "startDate"
	FieldEndDate         = "endDate"
	FieldProductModifier = "productModifier"
	FieldPackageName     = "packageName"
	FieldQuantity        = "quantity"
)

// TrackedFields returns the fields compared for a category, in report order.
func TrackedFields(c Category) []string {
	fields := []string{FieldStartDate, FieldEndDate, FieldProductModifier}
	if c == CategoryApps {
		fields = append(fields, FieldPackageName, FieldQuantity)
	}
	return fields
}
