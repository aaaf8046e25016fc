package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/entitleops/licensesync/internal/shared/constants"
)

// ReconciliationRunModel is the persisted history of one processed request.
// Summary holds the bucket counts as JSON and is null for runs without a
// comparison.
type ReconciliationRunModel struct {
	ID              uint   `gorm:"primarykey"`
	DocumentID      string `gorm:"size:255;index:idx_run_document_started,priority:1"`
	TenantKey       string `gorm:"not null;size:255;index:idx_run_tenant"`
	ProvisioningKey string `gorm:"size:255"`
	ForceFresh      bool   `gorm:"not null;default:false"`
	Status          string `gorm:"not null;size:20"`
	ResultStatus    string `gorm:"size:20"`
	ErrorType       string `gorm:"size:50"`
	ErrorMessage    string `gorm:"type:text"`
	Warning         string `gorm:"type:text"`
	Summary         datatypes.JSON
	StartedAt       time.Time `gorm:"not null;index:idx_run_document_started,priority:2"`
	FinishedAt      *time.Time
	CreatedAt       time.Time
}

// TableName specifies the table name for GORM
func (ReconciliationRunModel) TableName() string {
	return constants.TableReconciliationRuns
}
