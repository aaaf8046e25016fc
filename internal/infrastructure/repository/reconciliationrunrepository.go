package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/entitleops/licensesync/internal/domain/reconciliation"
	"github.com/entitleops/licensesync/internal/infrastructure/persistence/mappers"
	"github.com/entitleops/licensesync/internal/infrastructure/persistence/models"
	"github.com/entitleops/licensesync/internal/shared/constants"
	"github.com/entitleops/licensesync/internal/shared/db"
	"github.com/entitleops/licensesync/internal/shared/logger"
)

// ReconciliationRunRepositoryImpl implements reconciliation.RunRepository
type ReconciliationRunRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.ReconciliationRunMapper
	logger logger.Interface
}

// NewReconciliationRunRepository creates a new run repository instance
func NewReconciliationRunRepository(db *gorm.DB, logger logger.Interface) reconciliation.RunRepository {
	return &ReconciliationRunRepositoryImpl{
		db:     db,
		mapper: mappers.NewReconciliationRunMapper(),
		logger: logger,
	}
}

// Create inserts a run and assigns its ID
func (r *ReconciliationRunRepositoryImpl) Create(ctx context.Context, run *reconciliation.Run) error {
	model, err := r.mapper.ToModel(run)
	if err != nil {
		return fmt.Errorf("failed to map run: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create reconciliation run",
			"tenant_key", run.TenantKey(),
			"document_id", run.DocumentID(),
			"error", err)
		return fmt.Errorf("failed to create reconciliation run: %w", err)
	}

	run.SetID(model.ID)

	r.logger.Debugw("reconciliation run recorded",
		"id", model.ID,
		"tenant_key", model.TenantKey,
		"status", model.Status)
	return nil
}

// GetByID returns nil, nil when the run does not exist
func (r *ReconciliationRunRepositoryImpl) GetByID(ctx context.Context, id uint) (*reconciliation.Run, error) {
	var model models.ReconciliationRunModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get reconciliation run", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get reconciliation run: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// List returns runs newest first
func (r *ReconciliationRunRepositoryImpl) List(ctx context.Context, filter reconciliation.RunFilter) ([]*reconciliation.Run, error) {
	var runModels []*models.ReconciliationRunModel
	err := r.db.WithContext(ctx).
		Scopes(
			db.EqualIfSet("document_id", filter.DocumentID),
			db.EqualIfSet("tenant_key", filter.TenantKey),
			db.Limit(filter.Limit, constants.DefaultPageSize, constants.MaxPageSize),
		).
		Order("started_at DESC, id DESC").
		Find(&runModels).Error
	if err != nil {
		r.logger.Errorw("failed to list reconciliation runs", "error", err)
		return nil, fmt.Errorf("failed to list reconciliation runs: %w", err)
	}

	return r.mapper.ToEntities(runModels)
}
