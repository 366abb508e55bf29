package ledger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"

	"github.com/sdejongh/drivemirror/pkg/models"
)

const (
	runFile       = "run.json"
	pendingFile   = "pending.json"
	completedFile = "completed.json"
	failedFile    = "failed.json"
)

// JSONStore writes one JSON document per list plus run.json for metadata
type JSONStore struct {
	dir  string
	lock *flock.Flock
}

func newJSONStore(dir string, lock *flock.Flock) *JSONStore {
	return &JSONStore{dir: dir, lock: lock}
}

// Save writes every file through a temporary file and a rename, so a
// reader sees either the previous or the new content of each list
func (s *JSONStore) Save(snap *Snapshot) error {
	files := []struct {
		name  string
		value any
	}{
		{pendingFile, snap.Pending},
		{completedFile, snap.Completed},
		{failedFile, snap.Failed},
		{runFile, snap.Meta},
	}

	for _, f := range files {
		if err := s.write(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the lists back
func (s *JSONStore) Load() (*Snapshot, error) {
	snap := &Snapshot{}
	if err := s.read(runFile, &snap.Meta); err != nil {
		return nil, err
	}
	if err := s.read(pendingFile, &snap.Pending); err != nil {
		return nil, err
	}
	if err := s.read(completedFile, &snap.Completed); err != nil {
		return nil, err
	}
	if err := s.read(failedFile, &snap.Failed); err != nil {
		return nil, err
	}
	return snap, nil
}

// Location returns the run directory
func (s *JSONStore) Location() string {
	return s.dir
}

// Format returns models.LedgerJSON
func (s *JSONStore) Format() models.LedgerFormat {
	return models.LedgerJSON
}

// Close releases the directory lock
func (s *JSONStore) Close() error {
	return release(s.lock)
}

func (s *JSONStore) write(name string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func (s *JSONStore) read(name string, value any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", name, ErrNoLedger)
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}
