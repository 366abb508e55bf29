package models

import (
	"time"
)

// OrderPolicy defines how the planner orders upload tasks
type OrderPolicy string

const (
	// OrderDiscovery keeps the depth-first order in which the differ found entries
	OrderDiscovery OrderPolicy = "discovery"
	// OrderName sorts tasks lexically by source path
	OrderName OrderPolicy = "name"
	// OrderSize sorts tasks by ascending size so small files land first
	OrderSize OrderPolicy = "size"
)

// Valid reports whether the policy is known
func (p OrderPolicy) Valid() bool {
	switch p {
	case OrderDiscovery, OrderName, OrderSize:
		return true
	default:
		return false
	}
}

// LedgerFormat selects the on-disk representation of a run ledger
type LedgerFormat string

const (
	// LedgerJSON writes one JSON document per list
	LedgerJSON LedgerFormat = "json"
	// LedgerBolt writes a single bbolt database
	LedgerBolt LedgerFormat = "bolt"
)

// SyncOperation represents a single mirror run configuration
type SyncOperation struct {
	ID              string
	LocalRoot       string
	RemoteRoot      string
	Order           OrderPolicy
	Backoff         time.Duration // wait after a transient store error
	BandwidthLimit  int64         // bytes per second, 0 = unlimited
	ExcludePatterns []string
	IgnoreFile      string // gitignore-style file name inside LocalRoot
	LedgerDir       string
	LedgerFormat    LedgerFormat
	DryRun          bool
	CreatedAt       time.Time
}

// Validate checks if the operation configuration is valid
func (op *SyncOperation) Validate() error {
	if op.LocalRoot == "" {
		return &ValidationError{Field: "LocalRoot", Message: "local root is required"}
	}
	if op.RemoteRoot == "" {
		return &ValidationError{Field: "RemoteRoot", Message: "remote root is required"}
	}
	if !op.Order.Valid() {
		return &ValidationError{Field: "Order", Message: "order must be discovery, name or size"}
	}
	if op.Backoff < 0 {
		return &ValidationError{Field: "Backoff", Message: "backoff cannot be negative"}
	}
	if op.BandwidthLimit < 0 {
		return &ValidationError{Field: "BandwidthLimit", Message: "bandwidth limit cannot be negative"}
	}
	if !op.DryRun && op.LedgerDir == "" {
		return &ValidationError{Field: "LedgerDir", Message: "ledger directory is required"}
	}
	switch op.LedgerFormat {
	case LedgerJSON, LedgerBolt:
	default:
		return &ValidationError{Field: "LedgerFormat", Message: "ledger format must be json or bolt"}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
