package entitlement

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/entitleops/licensesync/internal/shared/biztime"
)

// RawEntitlement is an entitlement as delivered by either system of record.
// Field names vary by source.
type RawEntitlement map[string]any

// RawEntitlementSet groups raw entitlements under their source category key.
type RawEntitlementSet map[string][]RawEntitlement

var (
	productCodeKeys = []string{"productCode", "product_code", "code", "name"}
	modifierKeys    = []string{"productModifier", "product_modifier", "modifier"}
	packageKeys     = []string{"packageName", "package_name", "package"}
	quantityKeys    = []string{"quantity", "qty"}
	startDateKeys   = []string{"startDate", "start_date", "start"}
	endDateKeys     = []string{"endDate", "end_date", "end"}
	expansionKeys   = []string{"expansionPacks", "expansion_packs", "expansions"}

	categoryAliases = map[string]Category{
		"apps":         CategoryApps,
		"applications": CategoryApps,
		"models":       CategoryModels,
		"data":         CategoryData,
		"datasets":     CategoryData,
	}

	dateLayouts = []string{
		biztime.DateLayout,
		time.RFC3339Nano,
		"2006-01-02T15:04:05.000-0700",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"01/02/2006",
	}
)

// DecodeRawSet decodes a JSON object of category arrays. Numbers keep their
// textual form so quantities are not rounded through float64.
func DecodeRawSet(data []byte) (RawEntitlementSet, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return RawEntitlementSet{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var set RawEntitlementSet
	if err := dec.Decode(&set); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return set, nil
}

// Normalize converts a single raw record, ignoring expansion packs.
// It never fails: missing codes become "", bad dates and quantities null.
func Normalize(category Category, raw RawEntitlement) Entitlement {
	return Entitlement{
		Category:        category,
		ProductCode:     normalizeString(firstValue(raw, productCodeKeys)),
		ProductModifier: normalizeString(firstValue(raw, modifierKeys)),
		PackageName:     normalizeString(firstValue(raw, packageKeys)),
		Quantity:        normalizeQuantity(firstValue(raw, quantityKeys)),
		StartDate:       NormalizeDate(firstValue(raw, startDateKeys)),
		EndDate:         NormalizeDate(firstValue(raw, endDateKeys)),
	}
}

// NormalizeAll converts raw records of one category, flattening nested
// expansion packs into sibling entries. A pack without its own package
// name inherits its parent's.
func NormalizeAll(category Category, raws []RawEntitlement) []Entitlement {
	out := make([]Entitlement, 0, len(raws))
	for _, raw := range raws {
		out = appendFlattened(out, category, raw, "")
	}
	return out
}

func appendFlattened(out []Entitlement, category Category, raw RawEntitlement, parentPackage string) []Entitlement {
	if raw == nil {
		return out
	}
	e := Normalize(category, raw)
	if e.PackageName == "" {
		e.PackageName = parentPackage
	}
	out = append(out, e)

	for _, child := range expansionPacks(raw) {
		out = appendFlattened(out, category, child, e.PackageName)
	}
	return out
}

// NormalizeSet normalizes every known category of a raw set. Unknown keys
// are ignored.
func NormalizeSet(raw RawEntitlementSet) Set {
	set := Set{}
	for _, c := range Categories {
		set[c] = []Entitlement{}
	}
	for key, items := range raw {
		c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			continue
		}
		set[c] = append(set[c], NormalizeAll(c, items)...)
	}
	return set
}

// NormalizeDate parses the supported date encodings and truncates to the
// UTC calendar day. Only numeric values are read as epoch milliseconds;
// digit-only strings are not. Anything unparsable is null.
func NormalizeDate(v any) Date {
	switch val := v.(type) {
	case nil:
		return ""
	case Date:
		return NormalizeDate(string(val))
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return Date(biztime.FormatDate(val))
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return ""
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return Date(biztime.FormatDate(t))
			}
		}
		return ""
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return ""
		}
		return dateFromMillis(f)
	case float64:
		return dateFromMillis(val)
	case int:
		return dateFromMillis(float64(val))
	case int64:
		return dateFromMillis(float64(val))
	default:
		return ""
	}
}

func dateFromMillis(ms float64) Date {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms <= 0 {
		return ""
	}
	return Date(biztime.FormatDate(time.UnixMilli(int64(ms))))
}

func normalizeQuantity(v any) decimal.NullDecimal {
	var (
		d   decimal.Decimal
		err error
	)
	switch val := v.(type) {
	case json.Number:
		d, err = decimal.NewFromString(val.String())
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return decimal.NullDecimal{}
		}
		d, err = decimal.NewFromString(s)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.NullDecimal{}
		}
		d = decimal.NewFromFloat(val)
	case int:
		d = decimal.NewFromInt(int64(val))
	case int64:
		d = decimal.NewFromInt(val)
	case decimal.Decimal:
		d = val
	default:
		return decimal.NullDecimal{}
	}
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func normalizeString(v any) string {
	var s string
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		s = val
	case json.Number:
		s = val.String()
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		s = strconv.Itoa(val)
	case bool:
		s = strconv.FormatBool(val)
	default:
		s = fmt.Sprint(val)
	}
	return norm.NFC.String(strings.TrimSpace(s))
}

func firstValue(raw RawEntitlement, keys []string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func expansionPacks(raw RawEntitlement) []RawEntitlement {
	v := firstValue(raw, expansionKeys)
	switch packs := v.(type) {
	case []RawEntitlement:
		return packs
	case []map[string]any:
		out := make([]RawEntitlement, 0, len(packs))
		for _, p := range packs {
			out = append(out, RawEntitlement(p))
		}
		return out
	case []any:
		out := make([]RawEntitlement, 0, len(packs))
		for _, p := range packs {
			switch m := p.(type) {
			case map[string]any:
				out = append(out, RawEntitlement(m))
			case RawEntitlement:
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}
