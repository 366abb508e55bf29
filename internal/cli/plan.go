package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/drivemirror/pkg/output"
	"github.com/sdejongh/drivemirror/pkg/sync"
)

// NewPlanCommand creates the plan command
func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <local-dir> <remote-path>",
		Short: "Show what a sync would upload (dry-run)",
		Long: `Compare the local directory with the remote folder and print the ordered
upload plan, remote-only objects and size mismatches without uploading anything.
This is equivalent to sync --dry-run.`,
		Args: cobra.ExactArgs(2),
		RunE: runPlan,
	}

	addPlanFlags(cmd)
	addLogFlags(cmd)

	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFlagsToConfig(cmd, cfg); err != nil {
		return err
	}

	operation, err := createOperation(cfg, args[0], args[1], true)
	if err != nil {
		return fmt.Errorf("failed to create sync operation: %w", err)
	}

	logger, err := createLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Close()

	engine := sync.NewEngine(sync.EngineConfig{
		Operation: operation,
		Connector: newConnector(cfg),
		Writer:    cmd.OutOrStdout(),
		Logger:    logger,
	})

	report, err := engine.Run(ctx)
	if err != nil {
		return runFailed("plan", err)
	}

	if err := output.WritePlan(cmd.OutOrStdout(), report, cfg.Output.Format); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}
	if syncFlags.Report != "" {
		if err := output.WritePlanReport(report, syncFlags.Report, syncFlags.ReportFormat); err != nil {
			return fmt.Errorf("failed to write plan report: %w", err)
		}
	}

	return nil
}
