package models

import (
	"fmt"
)

// Kind identifies what an entry is on either side of a sync
type Kind string

const (
	// KindFile is a regular file
	KindFile Kind = "file"
	// KindFolder is a remote folder or a local directory
	KindFolder Kind = "folder"
)

// KindOf maps a directory flag to a Kind
func KindOf(isDir bool) Kind {
	if isDir {
		return KindFolder
	}
	return KindFile
}

// RemoteObject is a read-only projection of an object in the remote store.
// Identity is the ID; names are only unique within the parent, and not even
// that on stores that allow duplicate titles.
type RemoteObject struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
	Kind     Kind   `json:"kind"`

	// Size is only meaningful for files
	Size int64 `json:"size,omitempty"`
}

// IsFolder reports whether the object can have children
func (o *RemoteObject) IsFolder() bool {
	return o != nil && o.Kind == KindFolder
}

// Key returns the comparison key of the object
func (o *RemoteObject) Key() ComparisonKey {
	return ComparisonKey{Name: o.Name, Kind: o.Kind}
}

// Ref returns a lightweight reference to the object, suitable for persisting
func (o *RemoteObject) Ref() RemoteRef {
	return RemoteRef{ID: o.ID, Name: o.Name}
}

func (o *RemoteObject) String() string {
	return fmt.Sprintf("%s(%s %s)", o.Kind, o.Name, o.ID)
}

// RemoteRef points at a remote object without carrying its metadata
type RemoteRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LocalEntry is a file or directory on the local filesystem.
// Identity is the absolute path.
type LocalEntry struct {
	// Path is the absolute filesystem path
	Path string `json:"path"`

	// Name is the last path element
	Name string `json:"name"`

	Kind Kind `json:"kind"`

	// Size in bytes, files only
	Size int64 `json:"size,omitempty"`
}

// IsDir reports whether the entry is a directory
func (e *LocalEntry) IsDir() bool {
	return e.Kind == KindFolder
}

// Key returns the comparison key of the entry
func (e *LocalEntry) Key() ComparisonKey {
	return ComparisonKey{Name: e.Name, Kind: e.Kind}
}
