package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entitleops/licensesync/internal/infrastructure/database"
	"github.com/entitleops/licensesync/internal/infrastructure/migration"
	"github.com/entitleops/licensesync/internal/interfaces/cli/app"
	"github.com/entitleops/licensesync/internal/shared/constants"
	"github.com/entitleops/licensesync/internal/shared/logger"
)

var (
	env        string
	configPath string
	steps      int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage the run history schema: apply, roll back and inspect migrations.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE:  runStatus,
	}
}

// withStrategy opens the database and hands a goose strategy for its driver
// to fn.
func withStrategy(fn func(a *app.App, strategy *migration.GooseStrategy, log logger.Interface) error) error {
	cfg, log, err := app.Bootstrap(env, configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a := &app.App{Config: cfg, Logger: log, DB: database.Get()}
	defer a.Close()

	return fn(a, migration.NewGooseStrategy(database.Driver(&cfg.Database), log), log)
}

func runUp(cmd *cobra.Command, args []string) error {
	return withStrategy(func(a *app.App, strategy *migration.GooseStrategy, log logger.Interface) error {
		log.Infow("running up migrations", "environment", env)
		if err := strategy.Migrate(a.DB); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		log.Infow("migrations completed successfully")
		return nil
	})
}

func runDown(cmd *cobra.Command, args []string) error {
	if steps < 1 {
		return fmt.Errorf("steps must be at least 1")
	}
	return withStrategy(func(a *app.App, strategy *migration.GooseStrategy, log logger.Interface) error {
		log.Infow("running down migrations", "environment", env, "steps", steps)
		if err := strategy.MigrateDown(a.DB, steps); err != nil {
			return fmt.Errorf("down migration failed: %w", err)
		}
		log.Infow("down migration completed successfully")
		return nil
	})
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withStrategy(func(a *app.App, strategy *migration.GooseStrategy, log logger.Interface) error {
		current, err := strategy.GetVersion(a.DB)
		if err != nil {
			return fmt.Errorf("failed to get migration version: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\nMigration Status:\n")
		fmt.Fprintf(out, "  Environment:     %s\n", env)
		fmt.Fprintf(out, "  Driver:          %s\n", database.Driver(&a.Config.Database))
		fmt.Fprintf(out, "  Current Version: %d\n", current)

		if err := strategy.Status(a.DB); err != nil {
			return fmt.Errorf("failed to get detailed status: %w", err)
		}
		return nil
	})
}
