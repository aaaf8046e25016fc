package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/entitleops/licensesync/internal/domain/entitlement"
	"github.com/entitleops/licensesync/internal/domain/reconciliation"
	"github.com/entitleops/licensesync/internal/infrastructure/persistence/models"
	"github.com/entitleops/licensesync/internal/shared/logger"
)

func setupRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.ReconciliationRunModel{}))
	return db
}

func newFinishedRun(t *testing.T, documentID, tenantKey string, startedAt time.Time, summary *entitlement.Summary) *reconciliation.Run {
	run := reconciliation.NewRun(documentID, reconciliation.NewRequest(tenantKey, "a0X001", true), startedAt)
	require.NoError(t, run.Complete(summary, "", "", "", startedAt.Add(2*time.Second)))
	return run
}

func TestReconciliationRunRepository_CreateAndGet(t *testing.T) {
	repo := NewReconciliationRunRepository(setupRunDB(t), logger.NewNopLogger())
	ctx := context.Background()
	started := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	summary := &entitlement.Summary{ProvisioningOnly: 2, LicenseOnly: 3, Changed: 2, Matching: 1, HasDiscrepancies: true}
	run := newFinishedRun(t, "doc-1", "Acme Corp", started, summary)

	require.NoError(t, repo.Create(ctx, run))
	require.NotZero(t, run.ID())

	found, err := repo.GetByID(ctx, run.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "doc-1", found.DocumentID())
	assert.Equal(t, "Acme Corp", found.TenantKey())
	assert.Equal(t, "a0X001", found.ProvisioningKey())
	assert.True(t, found.ForceFresh())
	assert.Equal(t, reconciliation.StatusCompleted, found.Status())
	assert.Equal(t, reconciliation.ResultSuccess, found.ResultStatus())
	assert.Equal(t, summary, found.Summary())
	assert.True(t, started.Equal(found.StartedAt()))
	require.NotNil(t, found.FinishedAt())
	assert.Equal(t, 2*time.Second, found.Duration())
}

func TestReconciliationRunRepository_FailedRunWithoutSummary(t *testing.T) {
	repo := NewReconciliationRunRepository(setupRunDB(t), logger.NewNopLogger())
	ctx := context.Background()

	run := reconciliation.NewRun("", reconciliation.NewRequest("Acme Corp", "", false), time.Now())
	require.NoError(t, run.Fail("upstream_error", "license service authentication expired", time.Now()))
	require.NoError(t, repo.Create(ctx, run))

	found, err := repo.GetByID(ctx, run.ID())
	require.NoError(t, err)
	assert.Nil(t, found.Summary())
	assert.Equal(t, reconciliation.StatusFailed, found.Status())
	assert.Equal(t, "upstream_error", found.ErrorType())
	assert.Equal(t, "license service authentication expired", found.ErrorMessage())
}

func TestReconciliationRunRepository_GetByIDMissing(t *testing.T) {
	repo := NewReconciliationRunRepository(setupRunDB(t), logger.NewNopLogger())

	found, err := repo.GetByID(context.Background(), 42)
	assert.NoError(t, err)
	assert.Nil(t, found)
}

func TestReconciliationRunRepository_List(t *testing.T) {
	repo := NewReconciliationRunRepository(setupRunDB(t), logger.NewNopLogger())
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newFinishedRun(t, "doc-1", "Acme Corp", base, nil)))
	require.NoError(t, repo.Create(ctx, newFinishedRun(t, "doc-1", "Globex", base.Add(time.Minute), nil)))
	require.NoError(t, repo.Create(ctx, newFinishedRun(t, "doc-2", "Acme Corp", base.Add(2*time.Minute), nil)))

	t.Run("newest first", func(t *testing.T) {
		runs, err := repo.List(ctx, reconciliation.RunFilter{})
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, "doc-2", runs[0].DocumentID())
		assert.Equal(t, "Globex", runs[1].TenantKey())
	})

	t.Run("filter by document", func(t *testing.T) {
		runs, err := repo.List(ctx, reconciliation.RunFilter{DocumentID: "doc-1"})
		require.NoError(t, err)
		assert.Len(t, runs, 2)
	})

	t.Run("filter by tenant with limit", func(t *testing.T) {
		runs, err := repo.List(ctx, reconciliation.RunFilter{TenantKey: "Acme Corp", Limit: 1})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "doc-2", runs[0].DocumentID())
	})
}
