package reconciliation

import (
	"strings"
)

// Values an operator or the service writes to the status cell.
const (
	SignalPullData   = "Pull Data"
	SignalProcessing = "Processing..."
	SignalCompleted  = "Completed"
	SignalError      = "Error"
)

// Values written to the result status cell.
const (
	ResultSuccess = "Success"
	ResultError   = "Error"
)

// ForceFreshYes is the input value that bypasses cached provisioning records.
const ForceFreshYes = "YES"

// IsTrigger reports whether a status cell value requests a pull.
func IsTrigger(cell string) bool {
	return strings.EqualFold(strings.TrimSpace(cell), SignalPullData)
}

// IsSettled reports whether a status cell still shows a value written by
// the service rather than by an operator.
func IsSettled(cell string) bool {
	v := strings.TrimSpace(cell)
	return strings.EqualFold(v, SignalCompleted) ||
		strings.EqualFold(v, SignalError) ||
		strings.EqualFold(v, SignalProcessing)
}

// ParseForceFresh interprets the force-fresh input cell.
func ParseForceFresh(cell string) bool {
	return strings.EqualFold(strings.TrimSpace(cell), ForceFreshYes)
}

// Request is one unit of work read from the document input cells.
type Request struct {
	TenantKey       string
	ProvisioningKey string
	ForceFresh      bool
}

// NewRequest builds a request from raw input values, trimming them.
func NewRequest(tenantKey, provisioningKey string, forceFresh bool) Request {
	return Request{
		TenantKey:       strings.TrimSpace(tenantKey),
		ProvisioningKey: strings.TrimSpace(provisioningKey),
		ForceFresh:      forceFresh,
	}
}

// Validate checks the request inputs.
func (r Request) Validate() error {
	if r.TenantKey == "" {
		return ErrTenantKeyRequired
	}
	return nil
}

// LookupOnly reports whether no provisioning record was requested, in which
// case only the license-service side is listed.
func (r Request) LookupOnly() bool {
	return r.ProvisioningKey == ""
}
