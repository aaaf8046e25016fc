package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/entitleops/licensesync/internal/interfaces/cli/migrate"
	"github.com/entitleops/licensesync/internal/interfaces/cli/reconcile"
	"github.com/entitleops/licensesync/internal/interfaces/cli/server"
	"github.com/entitleops/licensesync/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "licensesync",
		Short:   "licensesync - license entitlement reconciliation",
		Long:    `licensesync compares tenant entitlements in the license service with provisioning records and reports the differences in a shared spreadsheet.`,
		Version: version.Get().String(),
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		reconcile.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
