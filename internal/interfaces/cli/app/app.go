// Package app wires configuration, infrastructure and use cases for the
// command line entry points.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/entitleops/licensesync/internal/application/reconciliation/services"
	"github.com/entitleops/licensesync/internal/application/reconciliation/usecases"
	"github.com/entitleops/licensesync/internal/domain/reconciliation"
	"github.com/entitleops/licensesync/internal/infrastructure/cache"
	"github.com/entitleops/licensesync/internal/infrastructure/config"
	"github.com/entitleops/licensesync/internal/infrastructure/database"
	"github.com/entitleops/licensesync/internal/infrastructure/document"
	"github.com/entitleops/licensesync/internal/infrastructure/licenseservice"
	"github.com/entitleops/licensesync/internal/infrastructure/provisioning"
	"github.com/entitleops/licensesync/internal/infrastructure/repository"
	"github.com/entitleops/licensesync/internal/interfaces/http/handlers"
	"github.com/entitleops/licensesync/internal/shared/biztime"
	"github.com/entitleops/licensesync/internal/shared/logger"
)

const redisPingTimeout = 3 * time.Second

// Options selects the optional parts of the container.
type Options struct {
	// Database opens the run history database.
	Database bool
	// Documents builds the document provider and the request state machine.
	Documents bool
}

// App holds the wired components. Fields of parts not requested in Options
// stay nil.
type App struct {
	Config         *config.Config
	Logger         logger.Interface
	DB             *gorm.DB
	Redis          *redis.Client
	RunRepo        reconciliation.RunRepository
	Documents      document.Provider
	Reconcile      *usecases.ReconcileUseCase
	ProcessRequest *usecases.ProcessRequestUseCase
}

// Bootstrap loads configuration and initializes the logger and the business
// timezone.
func Bootstrap(env, configPath string) (*config.Config, logger.Interface, error) {
	cfg, err := config.Load(env, configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	return cfg, logger.NewLogger(), nil
}

// New wires the application. Call Close when done.
func New(ctx context.Context, cfg *config.Config, log logger.Interface, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: log}

	if opts.Database {
		if err := database.Init(&cfg.Database); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.DB = database.Get()
		a.RunRepo = repository.NewReconciliationRunRepository(a.DB, log.Named("runs"))
	}

	if cfg.Redis.Enabled {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		if err := a.Redis.Ping(pingCtx).Err(); err != nil {
			log.Warnw("redis unreachable at startup, continuing", "addr", cfg.Redis.GetAddr(), "error", err)
		}
		cancel()
	}

	strategy, err := reconciliation.StrategyByName(cfg.Reconcile.TenantMatchStrategy)
	if err != nil {
		a.Close()
		return nil, err
	}

	var recordCache provisioning.RecordCache
	if a.Redis != nil {
		recordCache = cache.NewProvisioningRecordCache(a.Redis, cfg.Provisioning.CacheTTL())
	}
	provisioningSource := provisioning.NewCachedFinder(
		provisioning.NewClient(cfg.Provisioning, log.Named("provisioning")),
		recordCache,
		log.Named("provisioning"),
	)

	a.Reconcile = usecases.NewReconcileUseCase(
		licenseservice.NewClient(cfg.LicenseService, log.Named("licenseservice")),
		provisioningSource,
		reconciliation.NewMatchValidator(strategy),
		services.NewResultFormatter(),
		a.RunRepo,
		log.Named("reconcile"),
	)

	if opts.Documents {
		a.Documents, err = document.NewProvider(ctx, cfg.Document, log.Named("document"))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize document provider: %w", err)
		}

		var locker usecases.DocumentLocker
		if a.Redis != nil && cfg.Poller.LockTTLSeconds > 0 {
			locker = cache.NewDocumentLocker(a.Redis, time.Duration(cfg.Poller.LockTTLSeconds)*time.Second)
		}
		a.ProcessRequest = usecases.NewProcessRequestUseCase(
			a.Documents,
			a.Reconcile,
			locker,
			cfg.Document.Cells,
			log.Named("request"),
		)
	}

	return a, nil
}

// Target is the document configured for polling. It is zero when no
// document id is configured.
func (a *App) Target() document.Target {
	return document.Target{
		DocumentID: a.Config.Document.DocumentID,
		Sheet:      a.Config.Document.Sheet,
	}
}

// HealthChecks returns a probe per backing service in use.
func (a *App) HealthChecks() map[string]handlers.HealthCheck {
	checks := make(map[string]handlers.HealthCheck)
	if a.DB != nil {
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

// Close releases the database and redis connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warnw("failed to close redis client", "error", err)
		}
	}
	if a.DB != nil {
		if err := database.Close(); err != nil {
			a.Logger.Warnw("failed to close database", "error", err)
		}
	}
}
