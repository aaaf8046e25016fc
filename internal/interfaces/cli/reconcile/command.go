package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/entitleops/licensesync/internal/application/reconciliation/dto"
	"github.com/entitleops/licensesync/internal/application/reconciliation/usecases"
	"github.com/entitleops/licensesync/internal/domain/reconciliation"
	"github.com/entitleops/licensesync/internal/interfaces/cli/app"
	"github.com/entitleops/licensesync/internal/shared/constants"
	"github.com/entitleops/licensesync/internal/shared/logger"
)

// Output formats.
const (
	OutputYAML = "yaml"
	OutputJSON = "json"
)

// ErrFinishedWithError is returned after printing a report whose result
// status is Error.
var ErrFinishedWithError = errors.New("reconciliation finished with error")

var (
	env        string
	configPath string
	tenant     string
	record     string
	forceFresh bool
	output     string
	noHistory  bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile one tenant without the document",
		Long: `Look a tenant up in the license service and, when --record is given, compare
it with the provisioning record. Prints the listings and the summary.`,
		Example: `  licensesync reconcile --tenant "Acme Corp"
  licensesync reconcile --tenant t-100 --record a0X001 --force-fresh --output json`,
		SilenceUsage: true,
		RunE:         run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().StringVarP(&tenant, "tenant", "t", "", "Tenant id or name (required)")
	cmd.Flags().StringVarP(&record, "record", "r", "", "Provisioning record id or name")
	cmd.Flags().BoolVar(&forceFresh, "force-fresh", false, "Bypass the provisioning record cache")
	cmd.Flags().StringVarP(&output, "output", "o", OutputYAML, "Output format (yaml, json)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the run in the database")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(output)
	if format != OutputYAML && format != OutputJSON {
		return fmt.Errorf("unsupported output format %q", output)
	}

	cfg, log, err := app.Bootstrap(env, configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := app.New(cmd.Context(), cfg, log, app.Options{Database: !noHistory})
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Reconcile.Execute(cmd.Context(), usecases.ReconcileCommand{
		Request: reconciliation.NewRequest(tenant, record, forceFresh),
	})
	if err != nil {
		return errors.New(usecases.ErrorMessage(err))
	}

	if err := WriteReport(cmd.OutOrStdout(), report, format); err != nil {
		return err
	}
	if !report.Succeeded() {
		return fmt.Errorf("%w: %s", ErrFinishedWithError, report.Error)
	}
	return nil
}

// WriteReport encodes report to w as yaml or json.
func WriteReport(w io.Writer, report *dto.ReconciliationReport, format string) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
