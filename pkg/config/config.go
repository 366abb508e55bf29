package config

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/drivemirror/pkg/models"
)

// Config represents the application configuration
type Config struct {
	Drive   DriveConfig   `yaml:"drive"`
	Sync    SyncConfig    `yaml:"sync"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// DriveConfig locates the OAuth material for the Drive backend
type DriveConfig struct {
	CredentialsFile string `yaml:"credentials_file"` // OAuth client secret JSON
	TokenFile       string `yaml:"token_file"`       // cached token, rewritten on refresh
}

// SyncConfig holds mirror-related settings
type SyncConfig struct {
	Order          models.OrderPolicy `yaml:"order"`
	Backoff        time.Duration      `yaml:"backoff"`
	BandwidthLimit string             `yaml:"bandwidth_limit"` // e.g. "2MiB", "0" = unlimited
	Exclude        []string           `yaml:"exclude"`
	IgnoreFile     string             `yaml:"ignore_file"`
}

// LedgerConfig holds run ledger settings
type LedgerConfig struct {
	Dir    string              `yaml:"dir"`
	Format models.LedgerFormat `yaml:"format"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human" or "json"
	Progress bool   `yaml:"progress"` // Show progress bars
	Quiet    bool   `yaml:"quiet"`    // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Format     string `yaml:"format"` // "json" or "text"
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	File       string `yaml:"file"`   // Log file path (empty = stderr)
	MaxSize    int64  `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Drive: DriveConfig{
			CredentialsFile: "~/.config/drivemirror/credentials.json",
			TokenFile:       "~/.config/drivemirror/token.json",
		},
		Sync: SyncConfig{
			Order:          models.OrderSize,
			Backoff:        10 * time.Second,
			BandwidthLimit: "0",
			Exclude: []string{
				"*.tmp",
				".git/",
			},
			IgnoreFile: ".drivemirrorignore",
		},
		Ledger: LedgerConfig{
			Dir:    "~/.local/share/drivemirror/runs",
			Format: models.LedgerJSON,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
			Quiet:    false,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Format:     "text",
			Level:      "info",
			File:       "",
			MaxSize:    10 * 1024 * 1024,
			MaxBackups: 3,
		},
	}
}

// BandwidthBytes returns the upload limit in bytes per second, 0 for unlimited
func (c *Config) BandwidthBytes() (int64, error) {
	return ParseBandwidth(c.Sync.BandwidthLimit)
}

// ParseBandwidth parses a human byte size such as "500KB" or "2MiB"
func ParseBandwidth(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, &models.ValidationError{Field: "sync.bandwidth_limit", Message: err.Error()}
	}
	return int64(n), nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !c.Sync.Order.Valid() {
		return &models.ValidationError{
			Field:   "sync.order",
			Message: "must be 'size', 'name', or 'discovery'",
		}
	}

	if c.Sync.Backoff < 0 {
		return &models.ValidationError{
			Field:   "sync.backoff",
			Message: "cannot be negative",
		}
	}

	if _, err := c.BandwidthBytes(); err != nil {
		return err
	}

	switch c.Ledger.Format {
	case models.LedgerJSON, models.LedgerBolt:
	default:
		return &models.ValidationError{
			Field:   "ledger.format",
			Message: "must be 'json' or 'bolt'",
		}
	}

	if c.Ledger.Dir == "" {
		return &models.ValidationError{
			Field:   "ledger.dir",
			Message: "is required",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	return nil
}
