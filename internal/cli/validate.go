package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sdejongh/drivemirror/pkg/config"
	"github.com/sdejongh/drivemirror/pkg/logging"
	"github.com/sdejongh/drivemirror/pkg/models"
	"github.com/sdejongh/drivemirror/pkg/output"
	"github.com/sdejongh/drivemirror/pkg/remote"
	"github.com/sdejongh/drivemirror/pkg/remote/drive"
)

// ExitError carries a process exit code out of a command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitWith turns a non-success run status into an ExitError
func exitWith(status models.RunStatus) error {
	if code := status.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// runFailed wraps a fatal run error with the failed exit code
func runFailed(action string, err error) error {
	code := models.StatusFailed.ExitCode()
	if errors.Is(err, context.Canceled) {
		code = models.StatusCancelled.ExitCode()
	}
	return &ExitError{Code: code, Err: fmt.Errorf("%s failed: %w", action, err)}
}

// newConnector builds the remote connector for cfg
var newConnector = func(cfg *config.Config) remote.Connector {
	return drive.NewConnector(drive.Config{
		CredentialsFile: cfg.Drive.CredentialsFile,
		TokenFile:       cfg.Drive.TokenFile,
	})
}

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if globalFlags.ConfigFile != "" {
		cfg, err = config.LoadFromFile(globalFlags.ConfigFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if globalFlags.Credentials != "" {
		cfg.Drive.CredentialsFile = globalFlags.Credentials
	}
	if globalFlags.Token != "" {
		cfg.Drive.TokenFile = globalFlags.Token
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}
	if globalFlags.Verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// applyFlagsToConfig overrides config values with the flags set on cmd
func applyFlagsToConfig(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}

	if changed("order") {
		cfg.Sync.Order = models.OrderPolicy(syncFlags.Order)
	}
	if changed("backoff") {
		backoff, err := time.ParseDuration(syncFlags.Backoff)
		if err != nil {
			return fmt.Errorf("invalid backoff %q: %w", syncFlags.Backoff, err)
		}
		cfg.Sync.Backoff = backoff
	}
	if changed("bandwidth") {
		cfg.Sync.BandwidthLimit = syncFlags.Bandwidth
	}
	if changed("exclude") {
		cfg.Sync.Exclude = syncFlags.Exclude
	}
	if changed("ignore-file") {
		cfg.Sync.IgnoreFile = syncFlags.IgnoreFile
	}
	if changed("ledger-dir") {
		cfg.Ledger.Dir = syncFlags.LedgerDir
	}
	if changed("ledger-format") {
		cfg.Ledger.Format = models.LedgerFormat(syncFlags.LedgerFormat)
	}
	if changed("output") {
		cfg.Output.Format = syncFlags.Output
	}
	if changed("log-file") {
		cfg.Logging.Enabled = true
		cfg.Logging.File = syncFlags.LogFile
	}
	if changed("log-format") {
		cfg.Logging.Format = syncFlags.LogFormat
	}
	if changed("log-level") {
		cfg.Logging.Level = syncFlags.LogLevel
	}

	return cfg.Validate()
}

// createOperation creates a mirror operation from configuration
func createOperation(cfg *config.Config, localRoot, remoteRoot string, dryRun bool) (*models.SyncOperation, error) {
	bandwidth, err := cfg.BandwidthBytes()
	if err != nil {
		return nil, err
	}
	if abs, err := filepath.Abs(localRoot); localRoot != "" && err == nil {
		localRoot = abs
	}

	operation := &models.SyncOperation{
		ID:              uuid.New().String(),
		LocalRoot:       localRoot,
		RemoteRoot:      remoteRoot,
		Order:           cfg.Sync.Order,
		Backoff:         cfg.Sync.Backoff,
		BandwidthLimit:  bandwidth,
		ExcludePatterns: cfg.Sync.Exclude,
		IgnoreFile:      cfg.Sync.IgnoreFile,
		LedgerDir:       cfg.Ledger.Dir,
		LedgerFormat:    cfg.Ledger.Format,
		DryRun:          dryRun,
		CreatedAt:       time.Now(),
	}

	if err := operation.Validate(); err != nil {
		return nil, err
	}

	return operation, nil
}

// newFormatter creates the run formatter and the writer it reports to
func newFormatter(cfg *config.Config, stdout io.Writer) (output.Formatter, io.Writer) {
	if cfg.Output.Quiet && cfg.Output.Format != "json" {
		return output.NewHumanFormatter(), io.Discard
	}
	return output.New(cfg.Output.Format, cfg.Output.Progress), stdout
}

// createLogger creates a logger based on configuration. Records go to the
// log file when one is set, and warnings to stderr unless quiet.
func createLogger(cfg *config.Config, stderr io.Writer) (logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NewNullLogger(), nil
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	var loggers []logging.Logger

	if cfg.Logging.File != "" {
		format := logging.FormatText
		if cfg.Logging.Format == "json" {
			format = logging.FormatJSON
		}
		fileLogger, err := logging.NewFileLogger(logging.FileLoggerConfig{
			Path:       cfg.Logging.File,
			Format:     format,
			Level:      level,
			MaxSize:    cfg.Logging.MaxSize,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		loggers = append(loggers, fileLogger)
	}

	if !cfg.Output.Quiet {
		consoleLevel := logging.WarnLevel
		if globalFlags.Verbose {
			consoleLevel = logging.DebugLevel
		}
		loggers = append(loggers, logging.NewConsoleLogger(stderr, consoleLevel))
	}

	if len(loggers) == 0 {
		return logging.NewNullLogger(), nil
	}
	return logging.NewMultiLogger(loggers...), nil
}
