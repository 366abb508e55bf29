package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"time"

	"github.com/sdejongh/drivemirror/pkg/models"
)

// ErrNotDirectory is returned when a directory operation targets something else
var ErrNotDirectory = errors.New("not a directory")

// SkipDir can be returned from a WalkFunc to skip the directory being visited
var SkipDir = fs.SkipDir

// FileInfo represents metadata about a local file
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
	IsDir   bool
	Regular bool
}

// Listing is the content of one directory. Entries holds directories and
// regular files in name order; anything else (symlinks, devices, sockets)
// is reported in Irregular.
type Listing struct {
	Entries   []models.LocalEntry
	Irregular []string
}

// WalkFunc is called for every directory and regular file found by Walk
type WalkFunc func(entry models.LocalEntry) error

// Backend defines the read-only operations the mirror needs from a local tree
type Backend interface {
	// Root returns the absolute path the backend was opened on
	Root() string

	// Rel returns path relative to the root, slash separated
	Rel(path string) (string, error)

	// ListDirectory returns the direct children of a directory
	ListDirectory(ctx context.Context, path string) (*Listing, error)

	// Walk visits the tree under path depth first in name order, path itself excluded
	Walk(ctx context.Context, path string, fn WalkFunc) error

	// Open opens a regular file for reading
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Stat returns file metadata without following symlinks
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// Exists checks if a file or directory exists
	Exists(ctx context.Context, path string) (bool, error)
}
