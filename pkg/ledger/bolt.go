package ledger

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
	"go.etcd.io/bbolt"

	"github.com/sdejongh/drivemirror/pkg/models"
)

const boltFile = "ledger.db"

var (
	bucketMeta = []byte("meta")
	metaKey    = []byte("run")

	listBuckets = [][]byte{
		[]byte(StatePending),
		[]byte(StateCompleted),
		[]byte(StateFailed),
	}
)

// BoltStore keeps the ledger in a single bbolt database with one bucket
// per list. Keys are zero-padded positions, so a cursor walks an ordered
// list in order.
type BoltStore struct {
	dir  string
	conn *bbolt.DB
	lock *flock.Flock
}

func newBoltStore(dir string, lock *flock.Flock) (*BoltStore, error) {
	db, err := bbolt.Open(filepath.Join(dir, boltFile), 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketMeta); err != nil {
			return err
		}
		for _, name := range listBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ledger buckets: %w", err)
	}

	return &BoltStore{dir: dir, conn: db, lock: lock}, nil
}

// Save replaces all lists in one transaction
func (s *BoltStore) Save(snap *Snapshot) error {
	lists := [][]Entry{snap.Pending, snap.Completed, snap.Failed}

	return s.conn.Update(func(tx *bbolt.Tx) error {
		meta, err := json.Marshal(snap.Meta)
		if err != nil {
			return fmt.Errorf("failed to encode meta: %w", err)
		}
		if err := tx.Bucket(bucketMeta).Put(metaKey, meta); err != nil {
			return err
		}

		for i, name := range listBuckets {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			b, err := tx.CreateBucket(name)
			if err != nil {
				return err
			}
			for pos, entry := range lists[i] {
				data, err := json.Marshal(entry)
				if err != nil {
					return fmt.Errorf("failed to encode %s entry: %w", name, err)
				}
				if err := b.Put(positionKey(pos), data); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Load reads the lists back
func (s *BoltStore) Load() (*Snapshot, error) {
	snap := &Snapshot{}
	lists := []*[]Entry{&snap.Pending, &snap.Completed, &snap.Failed}

	err := s.conn.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta).Get(metaKey)
		if meta == nil {
			return ErrNoLedger
		}
		if err := json.Unmarshal(meta, &snap.Meta); err != nil {
			return fmt.Errorf("failed to decode meta: %w", err)
		}

		for i, name := range listBuckets {
			entries := []Entry{}
			err := tx.Bucket(name).ForEach(func(k, v []byte) error {
				var entry Entry
				if err := json.Unmarshal(v, &entry); err != nil {
					return fmt.Errorf("failed to decode %s entry key=%s: %w", name, string(k), err)
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
			*lists[i] = entries
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Location returns the database path
func (s *BoltStore) Location() string {
	return filepath.Join(s.dir, boltFile)
}

// Format returns models.LedgerBolt
func (s *BoltStore) Format() models.LedgerFormat {
	return models.LedgerBolt
}

// Close closes the database and releases the directory lock
func (s *BoltStore) Close() error {
	if err := s.conn.Close(); err != nil {
		release(s.lock)
		return fmt.Errorf("failed to close ledger database: %w", err)
	}
	return release(s.lock)
}

func positionKey(pos int) []byte {
	return []byte(fmt.Sprintf("%010d", pos))
}
