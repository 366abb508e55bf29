package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdejongh/drivemirror/pkg/config"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or create the drivemirror configuration file.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Credentials File: %s\n", cfg.Drive.CredentialsFile)
			fmt.Fprintf(w, "Token File: %s\n", cfg.Drive.TokenFile)
			fmt.Fprintf(w, "Order: %s\n", cfg.Sync.Order)
			fmt.Fprintf(w, "Backoff: %s\n", cfg.Sync.Backoff)
			fmt.Fprintf(w, "Bandwidth Limit: %s\n", cfg.Sync.BandwidthLimit)
			fmt.Fprintf(w, "Exclude: %s\n", strings.Join(cfg.Sync.Exclude, ", "))
			fmt.Fprintf(w, "Ignore File: %s\n", cfg.Sync.IgnoreFile)
			fmt.Fprintf(w, "Ledger Dir: %s\n", cfg.Ledger.Dir)
			fmt.Fprintf(w, "Ledger Format: %s\n", cfg.Ledger.Format)
			fmt.Fprintf(w, "Output Format: %s\n", cfg.Output.Format)
			fmt.Fprintf(w, "Log Format: %s\n", cfg.Logging.Format)
			fmt.Fprintf(w, "Log Level: %s\n", cfg.Logging.Level)

			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigFile
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
			}

			cfg := config.Default()
			if err := config.SaveToFile(cfg, path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	return cmd
}
