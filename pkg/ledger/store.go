package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/sdejongh/drivemirror/pkg/models"
)

const lockFile = ".lock"

// ErrLocked is returned when another process holds the ledger directory
var ErrLocked = errors.New("ledger directory is locked by another run")

// ErrNoLedger is returned when a directory holds no persisted ledger
var ErrNoLedger = errors.New("no ledger found")

// Store persists ledger snapshots
type Store interface {
	// Save replaces the persisted lists with snap
	Save(snap *Snapshot) error

	// Load reads the persisted lists back
	Load() (*Snapshot, error)

	// Location returns where the ledger lives on disk
	Location() string

	// Format returns the on-disk format
	Format() models.LedgerFormat

	// Close releases the store and its directory lock
	Close() error
}

// Open creates dir if needed, takes its lock and returns a store of the
// requested format
func Open(dir string, format models.LedgerFormat) (Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory %s: %w", dir, err)
	}

	lock := flock.New(filepath.Join(dir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock ledger directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", dir, ErrLocked)
	}

	var store Store
	switch format {
	case models.LedgerJSON, "":
		store = newJSONStore(dir, lock)
	case models.LedgerBolt:
		store, err = newBoltStore(dir, lock)
	default:
		err = fmt.Errorf("unknown ledger format %q", format)
	}
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	return store, nil
}

// OpenExisting opens a persisted ledger, detecting its format
func OpenExisting(dir string) (Store, error) {
	format, err := DetectFormat(dir)
	if err != nil {
		return nil, err
	}
	return Open(dir, format)
}

// DetectFormat inspects dir for a persisted ledger
func DetectFormat(dir string) (models.LedgerFormat, error) {
	if _, err := os.Stat(filepath.Join(dir, boltFile)); err == nil {
		return models.LedgerBolt, nil
	}
	if _, err := os.Stat(filepath.Join(dir, runFile)); err == nil {
		return models.LedgerJSON, nil
	}
	return "", fmt.Errorf("%s: %w", dir, ErrNoLedger)
}

// release unlocks the directory and removes the lock file
func release(lock *flock.Flock) error {
	if !lock.Locked() {
		return nil
	}
	if err := lock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock ledger directory: %w", err)
	}
	return os.Remove(lock.Path())
}
