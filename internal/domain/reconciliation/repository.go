package reconciliation

import "context"

// RunFilter narrows run listings.
type RunFilter struct {
	DocumentID string
	TenantKey  string
	Limit      int
}

// RunRepository persists processed request history.
type RunRepository interface {
	// Create inserts a finished run and assigns its ID
	Create(ctx context.Context, run *Run) error

	// GetByID returns nil, nil when the run does not exist
	GetByID(ctx context.Context, id uint) (*Run, error)

	// List returns runs newest first
	List(ctx context.Context, filter RunFilter) ([]*Run, error)
}
