package mappers

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/entitleops/licensesync/internal/domain/entitlement"
	"github.com/entitleops/licensesync/internal/domain/reconciliation"
	"github.com/entitleops/licensesync/internal/infrastructure/persistence/models"
	"github.com/entitleops/licensesync/internal/shared/mapper"
)

// ReconciliationRunMapper converts between run aggregates and persistence models
type ReconciliationRunMapper interface {
	ToEntity(model *models.ReconciliationRunModel) (*reconciliation.Run, error)
	ToModel(entity *reconciliation.Run) (*models.ReconciliationRunModel, error)
	ToEntities(models []*models.ReconciliationRunModel) ([]*reconciliation.Run, error)
}

type reconciliationRunMapper struct{}

// NewReconciliationRunMapper creates a new run mapper
func NewReconciliationRunMapper() ReconciliationRunMapper {
	return &reconciliationRunMapper{}
}

type summaryJSON struct {
	ProvisioningOnly int  `json:"provisioning_only"`
	LicenseOnly      int  `json:"license_only"`
	Changed          int  `json:"changed"`
	Matching         int  `json:"matching"`
	HasDiscrepancies bool `json:"has_discrepancies"`
}

func (m *reconciliationRunMapper) ToEntity(model *models.ReconciliationRunModel) (*reconciliation.Run, error) {
	if model == nil {
		return nil, nil
	}

	var summary *entitlement.Summary
	if len(model.Summary) > 0 && string(model.Summary) != "null" {
		var s summaryJSON
		if err := json.Unmarshal(model.Summary, &s); err != nil {
			return nil, fmt.Errorf("failed to decode run summary: %w", err)
		}
		summary = &entitlement.Summary{
			ProvisioningOnly: s.ProvisioningOnly,
			LicenseOnly:      s.LicenseOnly,
			Changed:          s.Changed,
			Matching:         s.Matching,
			HasDiscrepancies: s.HasDiscrepancies,
		}
	}

	run, err := reconciliation.ReconstructRun(
		model.ID,
		model.DocumentID,
		model.TenantKey,
		model.ProvisioningKey,
		model.ForceFresh,
		reconciliation.Status(model.Status),
		model.ResultStatus,
		model.ErrorType,
		model.ErrorMessage,
		model.Warning,
		summary,
		model.StartedAt.UTC(),
		utcPtr(model.FinishedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct run entity: %w", err)
	}
	return run, nil
}

func (m *reconciliationRunMapper) ToModel(entity *reconciliation.Run) (*models.ReconciliationRunModel, error) {
	if entity == nil {
		return nil, nil
	}

	model := &models.ReconciliationRunModel{
		ID:              entity.ID(),
		DocumentID:      entity.DocumentID(),
		TenantKey:       entity.TenantKey(),
		ProvisioningKey: entity.ProvisioningKey(),
		ForceFresh:      entity.ForceFresh(),
		Status:          entity.Status().String(),
		ResultStatus:    entity.ResultStatus(),
		ErrorType:       entity.ErrorType(),
		ErrorMessage:    entity.ErrorMessage(),
		Warning:         entity.Warning(),
		StartedAt:       entity.StartedAt(),
		FinishedAt:      entity.FinishedAt(),
	}

	if s := entity.Summary(); s != nil {
		raw, err := json.Marshal(summaryJSON{
			ProvisioningOnly: s.ProvisioningOnly,
			LicenseOnly:      s.LicenseOnly,
			Changed:          s.Changed,
			Matching:         s.Matching,
			HasDiscrepancies: s.HasDiscrepancies,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode run summary: %w", err)
		}
		model.Summary = datatypes.JSON(raw)
	}

	return model, nil
}

func (m *reconciliationRunMapper) ToEntities(runModels []*models.ReconciliationRunModel) ([]*reconciliation.Run, error) {
	entities, err := mapper.MapSliceWithError(runModels, m.ToEntity)
	if err != nil {
		return nil, fmt.Errorf("failed to map reconciliation runs: %w", err)
	}
	return entities, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
