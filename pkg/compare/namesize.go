package compare

import (
	"github.com/sdejongh/drivemirror/pkg/models"
)

// NameSizeComparator compares files by name and size only
type NameSizeComparator struct{}

// NewNameSizeComparator creates a new name/size comparator
func NewNameSizeComparator() *NameSizeComparator {
	return &NameSizeComparator{}
}

// Compare compares two files by name and size
func (c *NameSizeComparator) Compare(local models.LocalEntry, remote models.RemoteObject) *Comparison {
	cmp := &Comparison{
		LocalPath:  local.Path,
		RemoteID:   remote.ID,
		LocalSize:  local.Size,
		RemoteSize: remote.Size,
	}

	switch {
	case local.Name != remote.Name:
		cmp.Result = Different
		cmp.Reason = "file names differ"
	case local.Size != remote.Size:
		cmp.Result = Different
		cmp.Reason = "file sizes differ"
	default:
		cmp.Result = Same
		cmp.Reason = "name and size match"
	}

	return cmp
}

// Name returns the comparator name
func (c *NameSizeComparator) Name() string {
	return "namesize"
}
