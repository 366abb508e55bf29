package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the drivemirror command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "drivemirror",
		Short: "Mirror local directories into Google Drive",
		Long: `drivemirror uploads local files and folders that are missing from a remote
Google Drive folder. It never deletes or overwrites remote objects, records every
run in a resumable ledger and retries transient failures after a backoff.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewSyncCommand())
	rootCmd.AddCommand(NewPlanCommand())
	rootCmd.AddCommand(NewUploadCommand())
	rootCmd.AddCommand(NewMkdirCommand())
	rootCmd.AddCommand(NewResolveCommand())
	rootCmd.AddCommand(NewLedgerCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
