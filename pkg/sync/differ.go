package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/sdejongh/drivemirror/internal/platform"
	"github.com/sdejongh/drivemirror/pkg/compare"
	"github.com/sdejongh/drivemirror/pkg/logging"
	"github.com/sdejongh/drivemirror/pkg/models"
	"github.com/sdejongh/drivemirror/pkg/remote"
	"github.com/sdejongh/drivemirror/pkg/storage"
)

// PreconditionError reports a sync root that cannot be used.
// It is raised before any task is planned or executed.
type PreconditionError struct {
	Root    string
	Message string
	Err     error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("precondition failed for %s: %s: %v", e.Root, e.Message, e.Err)
	}
	return fmt.Sprintf("precondition failed for %s: %s", e.Root, e.Message)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// IsPrecondition reports whether err is a PreconditionError
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// Candidate is a local entry found missing remotely, with the folder it
// must be created in
type Candidate struct {
	Entry  models.LocalEntry
	Kind   models.Kind
	Parent models.RemoteRef
}

// DiffResult is everything the differ learned about a local/remote tree pair
type DiffResult struct {
	// Candidates in discovery order
	Candidates     []Candidate
	RemoteOnly     []models.RemoteOnlyEntry
	SizeMismatches []models.SizeMismatch

	LocalEntriesScanned  int
	RemoteObjectsScanned int
	DirsDescended        int
}

// Differ compares a local directory tree with a remote folder tree
type Differ struct {
	local      storage.Backend
	store      remote.Store
	comparator compare.Comparator
	excluder   *Excluder
	logger     logging.Logger
}

// NewDiffer creates a differ. excluder may be nil.
func NewDiffer(local storage.Backend, store remote.Store, excluder *Excluder, logger logging.Logger) *Differ {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Differ{
		local:      local,
		store:      store,
		comparator: compare.NewNameSizeComparator(),
		excluder:   excluder,
		logger:     logger,
	}
}

// frame is one directory pair waiting to be compared
type frame struct {
	localDir   string
	remoteDir  models.RemoteObject
	remotePath string
}

// Diff walks localDir and remoteDir depth first.
//
// Every directory pair is fully processed (its local-only entries emitted)
// before any of its common subdirectories, and common subdirectories are
// visited in local listing order. Popping frames from a stack therefore
// yields the same order a recursive walk would.
func (d *Differ) Diff(ctx context.Context, localDir string, remoteDir *models.RemoteObject) (*DiffResult, error) {
	if err := d.checkRoots(ctx, localDir, remoteDir); err != nil {
		return nil, err
	}

	result := &DiffResult{}
	stack := []frame{{localDir: localDir, remoteDir: *remoteDir, remotePath: "/"}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		descend, err := d.diffDirectory(ctx, current, result)
		if err != nil {
			return nil, err
		}

		for i := len(descend) - 1; i >= 0; i-- {
			stack = append(stack, descend[i])
		}
	}

	return result, nil
}

func (d *Differ) checkRoots(ctx context.Context, localDir string, remoteDir *models.RemoteObject) error {
	info, err := d.local.Stat(ctx, localDir)
	if err != nil {
		return &PreconditionError{Root: localDir, Message: "local root is not accessible", Err: err}
	}
	if !info.IsDir {
		return &PreconditionError{Root: localDir, Message: "local root is not a directory"}
	}

	if remoteDir == nil {
		return &PreconditionError{Root: "remote", Message: "remote root does not exist"}
	}
	if !remoteDir.IsFolder() {
		return &PreconditionError{Root: remoteDir.Name, Message: "remote root is not a folder"}
	}
	return nil
}

// diffDirectory compares one directory pair and returns the common
// subdirectories to descend into, in local listing order
func (d *Differ) diffDirectory(ctx context.Context, f frame, result *DiffResult) ([]frame, error) {
	localEntries, err := d.listLocal(ctx, f.localDir)
	if err != nil {
		return nil, err
	}

	remoteEntries, err := d.store.ListChildren(ctx, f.remoteDir.ID)
	if err != nil {
		return nil, fmt.Errorf("list remote folder %s: %w", f.remotePath, err)
	}

	result.DirsDescended++
	result.LocalEntriesScanned += len(localEntries)
	result.RemoteObjectsScanned += len(remoteEntries)

	partition := PartitionEntries(localEntries, remoteEntries)
	parent := f.remoteDir.Ref()

	for _, entry := range partition.LocalOnly {
		if !entry.IsDir() {
			result.Candidates = append(result.Candidates, Candidate{Entry: entry, Kind: models.KindFile, Parent: parent})
			continue
		}
		if err := d.flatten(ctx, entry, parent, result); err != nil {
			return nil, err
		}
	}

	var descend []frame
	for _, pair := range partition.Common {
		if pair.Local.IsDir() {
			descend = append(descend, frame{
				localDir:   pair.Local.Path,
				remoteDir:  pair.Remote,
				remotePath: platform.ChildRemote(f.remotePath, pair.Remote.Name),
			})
			continue
		}

		cmp := d.comparator.Compare(pair.Local, pair.Remote)
		if cmp.Result == compare.Different {
			mismatch := cmp.Mismatch(d.rel(pair.Local.Path))
			d.logger.Debug(ctx, "Size mismatch", logging.Fields{
				"path":        mismatch.Path,
				"local_size":  mismatch.LocalSize,
				"remote_size": mismatch.RemoteSize,
			})
			result.SizeMismatches = append(result.SizeMismatches, mismatch)
		}
	}

	for _, obj := range partition.RemoteOnly {
		result.RemoteOnly = append(result.RemoteOnly, models.RemoteOnlyEntry{
			Path:   platform.ChildRemote(f.remotePath, obj.Name),
			Object: obj,
		})
	}

	return descend, nil
}

// flatten queues every regular file under a local-only directory against
// parent. A subtree without regular files queues the directory itself.
func (d *Differ) flatten(ctx context.Context, dir models.LocalEntry, parent models.RemoteRef, result *DiffResult) error {
	found := 0
	err := d.local.Walk(ctx, dir.Path, func(entry models.LocalEntry) error {
		if d.excluded(entry) {
			if entry.IsDir() {
				return storage.SkipDir
			}
			return nil
		}
		result.LocalEntriesScanned++
		if entry.IsDir() {
			return nil
		}
		result.Candidates = append(result.Candidates, Candidate{Entry: entry, Kind: models.KindFile, Parent: parent})
		found++
		return nil
	})
	if err != nil {
		return err
	}

	if found == 0 {
		result.Candidates = append(result.Candidates, Candidate{Entry: dir, Kind: models.KindFolder, Parent: parent})
	}
	return nil
}

// listLocal lists a local directory, dropping excluded and irregular entries
func (d *Differ) listLocal(ctx context.Context, dir string) ([]models.LocalEntry, error) {
	listing, err := d.local.ListDirectory(ctx, dir)
	if err != nil {
		return nil, err
	}

	for _, path := range listing.Irregular {
		d.logger.Debug(ctx, "Skipping non-regular file", logging.Fields{"path": path})
	}

	if d.excluder.Empty() {
		return listing.Entries, nil
	}

	entries := make([]models.LocalEntry, 0, len(listing.Entries))
	for _, entry := range listing.Entries {
		if d.excluded(entry) {
			d.logger.Debug(ctx, "Excluded", logging.Fields{"path": entry.Path})
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (d *Differ) excluded(entry models.LocalEntry) bool {
	if d.excluder.Empty() {
		return false
	}
	return d.excluder.Excluded(d.rel(entry.Path), entry.IsDir())
}

func (d *Differ) rel(path string) string {
	rel, err := d.local.Rel(path)
	if err != nil {
		return path
	}
	return rel
}
