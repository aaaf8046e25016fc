package reconciliation

import (
	"fmt"
	"strings"
	"time"

	"github.com/entitleops/licensesync/internal/domain/entitlement"
)

// Run is the audit record of one processed request.
type Run struct {
	id              uint
	documentID      string // empty for runs not driven by a document
	tenantKey       string
	provisioningKey string
	forceFresh      bool
	status          Status
	resultStatus    string
	errorType       string
	errorMessage    string
	warning         string
	summary         *entitlement.Summary // nil when no comparison was made
	startedAt       time.Time
	finishedAt      *time.Time
}

// NewRun starts a run for req.
func NewRun(documentID string, req Request, startedAt time.Time) *Run {
	return &Run{
		documentID:      documentID,
		tenantKey:       req.TenantKey,
		provisioningKey: req.ProvisioningKey,
		forceFresh:      req.ForceFresh,
		status:          StatusProcessing,
		startedAt:       startedAt.UTC(),
	}
}

// ReconstructRun rebuilds a run from persistence.
func ReconstructRun(
	id uint,
	documentID, tenantKey, provisioningKey string,
	forceFresh bool,
	status Status,
	resultStatus, errorType, errorMessage, warning string,
	summary *entitlement.Summary,
	startedAt time.Time,
	finishedAt *time.Time,
) (*Run, error) {
	if id == 0 {
		return nil, fmt.Errorf("run ID cannot be zero")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid run status: %s", status)
	}
	return &Run{
		id:              id,
		documentID:      documentID,
		tenantKey:       tenantKey,
		provisioningKey: provisioningKey,
		forceFresh:      forceFresh,
		status:          status,
		resultStatus:    resultStatus,
		errorType:       errorType,
		errorMessage:    errorMessage,
		warning:         warning,
		summary:         summary,
		startedAt:       startedAt,
		finishedAt:      finishedAt,
	}, nil
}

// Complete records a handled request. An empty errorMessage means success.
func (r *Run) Complete(summary *entitlement.Summary, errorType, errorMessage, warning string, at time.Time) error {
	if err := r.status.ValidateTransition(StatusCompleted); err != nil {
		return err
	}
	r.status = StatusCompleted
	r.summary = summary
	r.warning = warning
	r.errorType = errorType
	r.errorMessage = errorMessage
	if strings.TrimSpace(errorMessage) == "" {
		r.resultStatus = ResultSuccess
	} else {
		r.resultStatus = ResultError
	}
	r.finish(at)
	return nil
}

// Fail records a request that could not be handled.
func (r *Run) Fail(errorType, errorMessage string, at time.Time) error {
	if err := r.status.ValidateTransition(StatusFailed); err != nil {
		return err
	}
	r.status = StatusFailed
	r.resultStatus = ResultError
	r.errorType = errorType
	r.errorMessage = errorMessage
	r.finish(at)
	return nil
}

func (r *Run) finish(at time.Time) {
	t := at.UTC()
	r.finishedAt = &t
}

// SetID is called by the repository after insert.
func (r *Run) SetID(id uint) {
	r.id = id
}

func (r *Run) ID() uint                      { return r.id }
func (r *Run) DocumentID() string            { return r.documentID }
func (r *Run) TenantKey() string             { return r.tenantKey }
func (r *Run) ProvisioningKey() string       { return r.provisioningKey }
func (r *Run) ForceFresh() bool              { return r.forceFresh }
func (r *Run) Status() Status                { return r.status }
func (r *Run) ResultStatus() string          { return r.resultStatus }
func (r *Run) ErrorType() string             { return r.errorType }
func (r *Run) ErrorMessage() string          { return r.errorMessage }
func (r *Run) Warning() string               { return r.warning }
func (r *Run) Summary() *entitlement.Summary { return r.summary }
func (r *Run) StartedAt() time.Time          { return r.startedAt }
func (r *Run) FinishedAt() *time.Time        { return r.finishedAt }

// Duration is zero until the run finishes.
func (r *Run) Duration() time.Duration {
	if r.finishedAt == nil {
		return 0
	}
	return r.finishedAt.Sub(r.startedAt)
}
