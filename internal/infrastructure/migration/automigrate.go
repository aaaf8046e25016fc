package migration

import (
	"github.com/entitleops/licensesync/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists the models managed by GormAutoMigrateStrategy.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.ReconciliationRunModel{},
	}
}
