package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/sdejongh/drivemirror/internal/platform"
	"github.com/sdejongh/drivemirror/pkg/models"
)

// Local is a filesystem-based storage backend
type Local struct {
	fs       afero.Fs
	rootPath string
}

// NewLocal opens rootPath on fs. The root must exist and be a directory.
func NewLocal(fs afero.Fs, rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := fs.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", absPath, ErrNotDirectory)
	}

	return &Local{fs: fs, rootPath: absPath}, nil
}

// NewOSLocal opens rootPath on the real filesystem
func NewOSLocal(rootPath string) (*Local, error) {
	return NewLocal(afero.NewOsFs(), rootPath)
}

// Root returns the absolute root path
func (l *Local) Root() string {
	return l.rootPath
}

// Rel returns path relative to the root in slash form ("." for the root itself)
func (l *Local) Rel(path string) (string, error) {
	return platform.RelSlash(l.rootPath, path)
}

// ListDirectory returns the direct children of path in name order
func (l *Local) ListDirectory(ctx context.Context, path string) (*Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := l.lstat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to list directory: %s: %w", path, ErrNotDirectory)
	}

	// afero.ReadDir lstats children and sorts them by name
	infos, err := afero.ReadDir(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	listing := &Listing{Entries: make([]models.LocalEntry, 0, len(infos))}
	for _, child := range infos {
		childPath := filepath.Join(path, child.Name())
		entry, ok := toEntry(childPath, child)
		if !ok {
			listing.Irregular = append(listing.Irregular, childPath)
			continue
		}
		listing.Entries = append(listing.Entries, entry)
	}

	return listing, nil
}

// Walk visits every directory and regular file under path
func (l *Local) Walk(ctx context.Context, path string, fn WalkFunc) error {
	start := path
	if l.isRoot(path) {
		// a trailing "." makes afero.Walk descend into a symlinked root
		start = strings.TrimSuffix(path, string(filepath.Separator)) + string(filepath.Separator) + "."
	}

	err := afero.Walk(l.fs, start, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Check context cancellation
		if err := ctx.Err(); err != nil {
			return err
		}

		if p == start {
			return nil
		}

		entry, ok := toEntry(p, info)
		if !ok {
			return nil
		}
		return fn(entry)
	})

	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", path, err)
	}
	return nil
}

// Open opens a file for reading
func (l *Local) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := l.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Stat returns file metadata
func (l *Local) Stat(ctx context.Context, path string) (*FileInfo, error) {
	info, err := l.lstat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &FileInfo{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
		Regular: info.Mode().IsRegular(),
	}, nil
}

// Exists checks if a file or directory exists
func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	_, err := l.lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check existence: %w", err)
}

// lstat does not follow symlinks, except for the root itself
func (l *Local) lstat(path string) (os.FileInfo, error) {
	if l.isRoot(path) {
		return l.fs.Stat(path)
	}
	if lstater, ok := l.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		return info, err
	}
	return l.fs.Stat(path)
}

func (l *Local) isRoot(path string) bool {
	return filepath.Clean(path) == l.rootPath
}

// toEntry converts directories and regular files; ok is false for anything else
func toEntry(path string, info os.FileInfo) (models.LocalEntry, bool) {
	switch {
	case info.IsDir():
		return models.LocalEntry{Path: path, Name: info.Name(), Kind: models.KindFolder}, true
	case info.Mode().IsRegular():
		return models.LocalEntry{Path: path, Name: info.Name(), Kind: models.KindFile, Size: info.Size()}, true
	default:
		return models.LocalEntry{}, false
	}
}

var _ Backend = (*Local)(nil)
