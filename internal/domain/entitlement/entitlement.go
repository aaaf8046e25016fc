package entitlement

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Date is a calendar day rendered YYYY-MM-DD. The empty Date is null.
type Date string

// IsNull reports whether the date is absent or was unparsable.
func (d Date) IsNull() bool {
	return d == ""
}

func (d Date) String() string {
	return string(d)
}

// Entitlement is the canonical shape produced by the normalizer. It is a
// value: copy it freely, never mutate a shared one.
type Entitlement struct {
	Category        Category            `json:"category"`
	ProductCode     string              `json:"productCode"`
	ProductModifier string              `json:"productModifier"`
	PackageName     string              `json:"packageName"`
	Quantity        decimal.NullDecimal `json:"quantity"`
	StartDate       Date                `json:"startDate"`
	EndDate         Date                `json:"endDate"`
}

// Key builds the matching key for the entitlement's own category.
func (e Entitlement) Key() string {
	return e.KeyFor(e.Category)
}

// KeyFor builds the matching key within the given category. App package
// names change entitlement semantics, so they are part of the key for apps
// only.
func (e Entitlement) KeyFor(category Category) string {
	if category == CategoryApps {
		return strings.Join([]string{e.ProductCode, e.PackageName, e.ProductModifier}, "|")
	}
	return strings.Join([]string{e.ProductCode, e.ProductModifier}, "|")
}

// QuantityString renders the quantity, or "" when there is none.
func (e Entitlement) QuantityString() string {
	if !e.Quantity.Valid {
		return ""
	}
	return e.Quantity.Decimal.String()
}

// FieldValue returns the display value of a tracked field.
func (e Entitlement) FieldValue(field string) string {
	switch field {
	case FieldStartDate:
		return e.StartDate.String()
	case FieldEndDate:
		return e.EndDate.String()
	case FieldProductModifier:
		return e.ProductModifier
	case FieldPackageName:
		return e.PackageName
	case FieldQuantity:
		return e.QuantityString()
	default:
		return ""
	}
}

// Raw projects the entitlement back into the raw shape accepted by the
// normalizer, using canonical field names.
func (e Entitlement) Raw() RawEntitlement {
	raw := RawEntitlement{
		"productCode":     e.ProductCode,
		"productModifier": e.ProductModifier,
		"packageName":     e.PackageName,
		"startDate":       e.StartDate.String(),
		"endDate":         e.EndDate.String(),
	}
	if e.Quantity.Valid {
		raw["quantity"] = e.Quantity.Decimal.String()
	}
	return raw
}

// Equal compares two entitlements by value; quantities compare numerically.
func (e Entitlement) Equal(other Entitlement) bool {
	return e.Category == other.Category &&
		e.ProductCode == other.ProductCode &&
		e.ProductModifier == other.ProductModifier &&
		e.PackageName == other.PackageName &&
		e.StartDate == other.StartDate &&
		e.EndDate == other.EndDate &&
		quantitiesEqual(e.Quantity, other.Quantity)
}

// Set groups canonical entitlements by category.
type Set map[Category][]Entitlement

// Get returns the entitlements of one category; nil when absent.
func (s Set) Get(c Category) []Entitlement {
	if s == nil {
		return nil
	}
	return s[c]
}

// Len counts entitlements across all categories.
func (s Set) Len() int {
	n := 0
	for _, items := range s {
		n += len(items)
	}
	return n
}

func quantitiesEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}
