package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/drivemirror/pkg/models"
	"github.com/sdejongh/drivemirror/pkg/output"
	"github.com/sdejongh/drivemirror/pkg/sync"
)

// NewSyncCommand creates the sync command
func NewSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <local-dir> <remote-path>",
		Short: "Mirror a local directory into a remote folder",
		Long: `Upload every file and folder that exists under the local directory but
not under the remote folder. Nothing is ever deleted or overwritten: remote-only
objects and size mismatches are reported only. Each run records its tasks in a
ledger that "ledger retry" can re-drive.`,
		Args: cobra.ExactArgs(2),
		RunE: runSync,
	}

	addPlanFlags(cmd)
	addRunFlags(cmd)
	addLogFlags(cmd)
	cmd.Flags().BoolVar(&syncFlags.DryRun, "dry-run", false, "plan only, don't upload")

	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override config with command-line flags
	if err := applyFlagsToConfig(cmd, cfg); err != nil {
		return err
	}

	operation, err := createOperation(cfg, args[0], args[1], syncFlags.DryRun)
	if err != nil {
		return fmt.Errorf("failed to create sync operation: %w", err)
	}

	logger, err := createLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Close()

	formatter, writer := newFormatter(cfg, cmd.OutOrStdout())
	engine := sync.NewEngine(sync.EngineConfig{
		Operation: operation,
		Connector: newConnector(cfg),
		Formatter: formatter,
		Writer:    writer,
		Logger:    logger,
	})

	report, err := engine.Run(ctx)
	if err != nil && report == nil {
		return runFailed("sync", err)
	}

	if operation.DryRun {
		if werr := output.WritePlan(cmd.OutOrStdout(), report, cfg.Output.Format); werr != nil {
			return fmt.Errorf("failed to write plan: %w", werr)
		}
	}
	if syncFlags.Report != "" {
		if werr := output.WritePlanReport(report, syncFlags.Report, syncFlags.ReportFormat); werr != nil {
			return fmt.Errorf("failed to write plan report: %w", werr)
		}
	}

	return finishRun(report, err)
}

// finishRun maps a completed or interrupted run onto its exit code
func finishRun(report *models.RunReport, err error) error {
	if err != nil {
		return &ExitError{Code: report.Status.ExitCode(), Err: err}
	}
	return exitWith(report.Status)
}
