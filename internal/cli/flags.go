package cli

import (
	"github.com/spf13/cobra"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile  string
	Credentials string
	Token       string
	Verbose     bool
	Quiet       bool
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file (default is $HOME/.config/drivemirror/config.yaml)",
	)
	cmd.PersistentFlags().StringVar(
		&globalFlags.Credentials,
		"credentials",
		"",
		"OAuth client secret file (overrides drive.credentials_file)",
	)
	cmd.PersistentFlags().StringVar(
		&globalFlags.Token,
		"token",
		"",
		"cached OAuth token file (overrides drive.token_file)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Verbose,
		"verbose",
		"v",
		false,
		"verbose output",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Quiet,
		"quiet",
		"q",
		false,
		"suppress non-error output",
	)
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() *GlobalFlags {
	return &globalFlags
}

// SyncFlags holds the flags shared by sync and plan
type SyncFlags struct {
	Order        string
	Backoff      string
	DryRun       bool
	Exclude      []string
	IgnoreFile   string
	Bandwidth    string
	LedgerDir    string
	LedgerFormat string
	Output       string
	Report       string
	ReportFormat string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var syncFlags SyncFlags

// addPlanFlags registers the flags that shape the diff and plan
func addPlanFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&syncFlags.Order, "order", "", "upload order: size, name, discovery (default from config)")
	cmd.Flags().StringSliceVar(&syncFlags.Exclude, "exclude", []string{}, "glob patterns to exclude")
	cmd.Flags().StringVar(&syncFlags.IgnoreFile, "ignore-file", "", "gitignore-style file in the local root")
	cmd.Flags().StringVarP(&syncFlags.Output, "output", "o", "", "output format: human, json")
	cmd.Flags().StringVar(&syncFlags.Report, "report", "", "write the plan report to file")
	cmd.Flags().StringVar(&syncFlags.ReportFormat, "report-format", "human", "plan report format: human, json")
}

// addRunFlags registers the flags that shape execution
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&syncFlags.Backoff, "backoff", "", "wait after a transient error (e.g. \"10s\")")
	cmd.Flags().StringVarP(&syncFlags.Bandwidth, "bandwidth", "b", "", "bandwidth limit (e.g., \"10MB\", \"1MiB\")")
	cmd.Flags().StringVar(&syncFlags.LedgerDir, "ledger-dir", "", "directory holding run ledgers")
	cmd.Flags().StringVar(&syncFlags.LedgerFormat, "ledger-format", "", "ledger format: json, bolt")
}

// addLogFlags registers the logging flags
func addLogFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&syncFlags.LogFile, "log-file", "", "write logs to file")
	cmd.Flags().StringVar(&syncFlags.LogFormat, "log-format", "", "log format: text, json")
	cmd.Flags().StringVar(&syncFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
}
