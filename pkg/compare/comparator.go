// Package compare holds the informational checks run on entries present
// both locally and remotely. Their results never cause an upload.
package compare

import (
	"github.com/sdejongh/drivemirror/pkg/models"
)

// Result represents the outcome of comparing a local file with its remote counterpart
type Result string

const (
	// Same indicates no difference was detected
	Same Result = "same"
	// Different indicates the files differ
	Different Result = "different"
)

// Comparison holds the result of comparing two files
type Comparison struct {
	LocalPath string
	RemoteID  string
	Result    Result
	Reason    string

	LocalSize  int64
	RemoteSize int64
}

// Mismatch converts a Different comparison into a size mismatch record
// for the file at relPath
func (c *Comparison) Mismatch(relPath string) models.SizeMismatch {
	return models.SizeMismatch{
		Path:       relPath,
		LocalSize:  c.LocalSize,
		RemoteSize: c.RemoteSize,
		RemoteID:   c.RemoteID,
	}
}

// Comparator defines the interface for file comparison algorithms
type Comparator interface {
	// Compare compares a local file with the remote object sharing its key
	Compare(local models.LocalEntry, remote models.RemoteObject) *Comparison

	// Name returns the name of the comparison method
	Name() string
}
