package reconciliation

import (
	"fmt"
	"strings"
)

// Tenant match strategy names accepted in configuration.
const (
	MatchStrategySubstring = "substring"
	MatchStrategyExact     = "exact"
)

// NameMatchStrategy decides whether two tenant names refer to the same tenant.
type NameMatchStrategy func(a, b string) bool

// SubstringMatch accepts equal names or names where one contains the other,
// ignoring case. Blank names never match. There is no minimum length, so a
// very short name can match an unrelated tenant.
func SubstringMatch(a, b string) bool {
	a, b = foldName(a), foldName(b)
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// ExactMatch accepts only names equal ignoring case and surrounding space.
func ExactMatch(a, b string) bool {
	a, b = foldName(a), foldName(b)
	if a == "" || b == "" {
		return false
	}
	return a == b
}

// StrategyByName resolves a configured strategy; "" selects substring matching.
func StrategyByName(name string) (NameMatchStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", MatchStrategySubstring:
		return SubstringMatch, nil
	case MatchStrategyExact:
		return ExactMatch, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMatchStrategy, name)
	}
}

func foldName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MatchResult is the outcome of validating a provisioning record against a tenant.
type MatchResult struct {
	Matches bool   `json:"matches"`
	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MatchValidator checks that a provisioning record belongs to the tenant
// being reconciled.
type MatchValidator struct {
	strategy NameMatchStrategy
}

// NewMatchValidator returns a validator using strategy, or SubstringMatch when nil.
func NewMatchValidator(strategy NameMatchStrategy) *MatchValidator {
	if strategy == nil {
		strategy = SubstringMatch
	}
	return &MatchValidator{strategy: strategy}
}

// Validate applies the match policy in order: a record without a tenant
// name matches with a warning; then the license-service tenant name is
// tried against the record's tenant name; then the user-supplied key is.
func (v *MatchValidator) Validate(licenseTenantName string, recordTenantName *string, userSuppliedKey string) MatchResult {
	if recordTenantName == nil || strings.TrimSpace(*recordTenantName) == "" {
		return MatchResult{
			Matches: true,
			Warning: "provisioning record has no tenant name; tenant match could not be verified",
		}
	}
	recordName := strings.TrimSpace(*recordTenantName)

	if v.strategy(licenseTenantName, recordName) {
		return MatchResult{Matches: true}
	}
	if v.strategy(userSuppliedKey, recordName) {
		return MatchResult{Matches: true}
	}

	return MatchResult{
		Matches: false,
		Error: fmt.Sprintf(
			"tenant mismatch: license service tenant %q does not match provisioning record tenant %q (lookup key %q)",
			strings.TrimSpace(licenseTenantName), recordName, strings.TrimSpace(userSuppliedKey),
		),
	}
}
