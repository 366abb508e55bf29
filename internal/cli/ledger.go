package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/sdejongh/drivemirror/pkg/ledger"
	"github.com/sdejongh/drivemirror/pkg/output"
	"github.com/sdejongh/drivemirror/pkg/sync"
)

// NewLedgerCommand creates the ledger command
func NewLedgerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and retry run ledgers",
		Long: `Every non-dry run persists its Pending, Completed and Failed task lists
in a directory named after the run ID under the ledger directory.`,
	}

	cmd.AddCommand(newLedgerListCommand())
	cmd.AddCommand(newLedgerShowCommand())
	cmd.AddCommand(newLedgerRetryCommand())

	return cmd
}

func newLedgerListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the runs recorded in the ledger directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := applyFlagsToConfig(cmd, cfg); err != nil {
				return err
			}

			snaps, err := loadRuns(cfg.Ledger.Dir)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(snaps) == 0 {
				fmt.Fprintf(w, "No runs recorded in %s\n", cfg.Ledger.Dir)
				return nil
			}
			for _, snap := range snaps {
				fmt.Fprintf(w, "%s  %-20s  completed %d, failed %d, pending %d\n",
					snap.Meta.RunID,
					humanize.Time(snap.Meta.StartedAt),
					len(snap.Completed), len(snap.Failed), len(snap.Pending))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&syncFlags.LedgerDir, "ledger-dir", "", "directory holding run ledgers")
	return cmd
}

func newLedgerShowCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <run-dir>",
		Short: "Show the task lists of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(args[0])
			if err != nil {
				return err
			}
			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			writeSnapshot(cmd.OutOrStdout(), snap)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "human", "output format: human, json")
	return cmd
}

func newLedgerRetryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retry <run-dir>",
		Short: "Re-drive the failed and pending tasks of a run",
		Long: `Load the ledger of a previous run and execute its failed and pending tasks
again, in plan order, as a new run with its own ledger. The trees are not
compared again; each task keeps the remote parent it was planned with.`,
		Args: cobra.ExactArgs(1),
		RunE: runLedgerRetry,
	}

	addRunFlags(cmd)
	addLogFlags(cmd)
	cmd.Flags().StringVarP(&syncFlags.Output, "output", "o", "", "output format: human, json")
	cmd.Flags().BoolVar(&syncFlags.DryRun, "dry-run", false, "list the tasks that would be retried")

	return cmd
}

func runLedgerRetry(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	prior, err := loadSnapshot(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFlagsToConfig(cmd, cfg); err != nil {
		return err
	}

	operation, err := createOperation(cfg, prior.Meta.LocalRoot, prior.Meta.RemoteRoot, syncFlags.DryRun)
	if err != nil {
		return fmt.Errorf("failed to create retry operation: %w", err)
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

	report, err := engine.Retry(ctx, prior)
	if err != nil && report == nil {
		return runFailed("retry", err)
	}

	if operation.DryRun {
		if werr := output.WritePlan(cmd.OutOrStdout(), report, cfg.Output.Format); werr != nil {
			return fmt.Errorf("failed to write plan: %w", werr)
		}
	}

	return finishRun(report, err)
}

// loadSnapshot reads a persisted ledger and releases it
func loadSnapshot(dir string) (*ledger.Snapshot, error) {
	store, err := ledger.OpenExisting(dir)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	snap, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger %s: %w", dir, err)
	}
	return snap, nil
}

// loadRuns loads every ledger under root, newest first
func loadRuns(root string) ([]*ledger.Snapshot, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger directory: %w", err)
	}

	var snaps []*ledger.Snapshot
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		snap, err := loadSnapshot(filepath.Join(root, entry.Name()))
		if errors.Is(err, ledger.ErrNoLedger) {
			continue
		}
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}

	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].Meta.StartedAt.After(snaps[j].Meta.StartedAt)
	})
	return snaps, nil
}

// writeSnapshot prints a ledger in human-readable form
func writeSnapshot(w io.Writer, snap *ledger.Snapshot) {
	fmt.Fprintf(w, "Run:     %s\n", snap.Meta.RunID)
	if snap.Meta.RetryOf != "" {
		fmt.Fprintf(w, "Retry of: %s\n", snap.Meta.RetryOf)
	}
	fmt.Fprintf(w, "Local:   %s\n", snap.Meta.LocalRoot)
	fmt.Fprintf(w, "Remote:  %s\n", snap.Meta.RemoteRoot)
	fmt.Fprintf(w, "Started: %s (%s)\n", snap.Meta.StartedAt.Format(time.RFC3339), humanize.Time(snap.Meta.StartedAt))
	fmt.Fprintf(w, "Updated: %s\n\n", snap.Meta.UpdatedAt.Format(time.RFC3339))

	var uploaded int64
	for _, e := range snap.Completed {
		uploaded += e.Task.Size
	}
	fmt.Fprintf(w, "Completed: %d (%s)\n", len(snap.Completed), formatSize(uploaded))
	fmt.Fprintf(w, "Failed:    %d\n", len(snap.Failed))
	fmt.Fprintf(w, "Pending:   %d\n", len(snap.Pending))

	if len(snap.Failed) > 0 {
		fmt.Fprintf(w, "\nFailed tasks:\n")
		for _, e := range snap.Failed {
			fmt.Fprintf(w, "  %4d  %s [%s] %s\n", e.Task.Seq, e.Task.Source, e.ErrorKind, e.Error)
		}
	}
	if len(snap.Pending) > 0 {
		fmt.Fprintf(w, "\nPending tasks:\n")
		for _, e := range snap.Pending {
			fmt.Fprintf(w, "  %4d  %s\n", e.Task.Seq, e.Task.Source)
		}
	}
}

func formatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
