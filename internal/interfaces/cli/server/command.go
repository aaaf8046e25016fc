package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/entitleops/licensesync/internal/infrastructure/database"
	"github.com/entitleops/licensesync/internal/infrastructure/migration"
	"github.com/entitleops/licensesync/internal/infrastructure/scheduler"
	"github.com/entitleops/licensesync/internal/interfaces/cli/app"
	httpRouter "github.com/entitleops/licensesync/internal/interfaces/http"
	"github.com/entitleops/licensesync/internal/shared/constants"
	"github.com/entitleops/licensesync/internal/shared/logger"
	"github.com/entitleops/licensesync/internal/shared/version"
)

const shutdownTimeout = 30 * time.Second

var (
	env                string
	configPath         string
	autoMigrate        bool
	skipMigrationCheck bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Start the document poller and the control API",
		Long: `Start the licensesync service: the poller watching the configured document
for reconciliation requests and the HTTP control API.`,
		RunE: run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Apply database migrations on startup")
	cmd.Flags().BoolVar(&skipMigrationCheck, "skip-migration-check", false, "Skip migration status check on startup")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, log, err := app.Bootstrap(env, configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	info := version.Get()
	log.Infow("starting server",
		"environment", env,
		"version", info.Version,
		"commit", info.Commit,
		"auto_migrate", autoMigrate)

	gin.SetMode(mapEnvToGinMode(cfg.Server.Mode))
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log, app.Options{Database: true, Documents: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := handleMigrations(a, log); err != nil {
		return fmt.Errorf("migration handling failed: %w", err)
	}

	poller, err := scheduler.NewPollingScheduler(a.ProcessRequest, cfg.Poller.Interval(), log.Named("poller"))
	if err != nil {
		return fmt.Errorf("failed to create poller: %w", err)
	}
	defer func() {
		if err := poller.Shutdown(); err != nil {
			log.Errorw("failed to shut down poller", "error", err)
		}
	}()

	if target := a.Target(); !target.IsZero() {
		if err := poller.Configure(target); err != nil {
			return fmt.Errorf("failed to configure poller: %w", err)
		}
		if cfg.Poller.AutoStart {
			if err := poller.Start(); err != nil {
				return fmt.Errorf("failed to start poller: %w", err)
			}
		}
	} else {
		log.Warnw("no document configured, poller idle until configured through the API")
	}

	router := httpRouter.NewRouter(cfg, httpRouter.Dependencies{
		Poller:       poller,
		Reconciler:   a.Reconcile,
		RunRepo:      a.RunRepo,
		Redis:        redisOrNil(a),
		HealthChecks: a.HealthChecks(),
	}, log.Named("http"))
	router.SetupRoutes()

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("server starting",
			"address", cfg.Server.GetAddr(),
			"mode", gin.Mode())
		serverErr <- router.Run(cfg.Server.GetAddr())
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Infow("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := poller.Stop(); err != nil {
		log.Warnw("failed to stop poller", "error", err)
	}
	if err := router.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

func handleMigrations(a *app.App, log logger.Interface) error {
	if skipMigrationCheck {
		log.Infow("skipping migration check")
		return nil
	}

	driver := database.Driver(&a.Config.Database)

	if autoMigrate {
		if env == constants.EnvProduction {
			log.Warnw("auto-migration is enabled in production")
		}
		manager := migration.NewManager(env, driver, log)
		return manager.Migrate(a.DB, migration.AutoMigrateModels()...)
	}

	strategy := migration.NewGooseStrategy(driver, log)
	current, err := strategy.GetVersion(a.DB)
	if err != nil {
		log.Warnw("failed to check migration status", "error", err)
		return nil
	}
	log.Infow("current migration version", "version", current)
	return nil
}

// redisOrNil keeps a nil *redis.Client from becoming a non-nil interface.
func redisOrNil(a *app.App) httpRouter.RedisClient {
	if a.Redis == nil {
		return nil
	}
	return a.Redis
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case constants.EnvProduction, "prod", gin.ReleaseMode:
		return gin.ReleaseMode
	case constants.EnvTest, "testing":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
