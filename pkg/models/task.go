package models

// UploadTask is one unit of work produced by the planner.
// It is created once and never mutated afterwards.
type UploadTask struct {
	// Seq is the position of the task in the plan, starting at 1
	Seq int `json:"seq"`

	// Source is the absolute local path to upload
	Source string `json:"source"`

	// Name is the name the object takes remotely
	Name string `json:"name"`

	// Kind is what to create: a file with content or an empty folder
	Kind Kind `json:"kind"`

	// Parent is the remote folder the object is created in
	Parent RemoteRef `json:"parent"`

	// Size of the source file in bytes, zero for folders
	Size int64 `json:"size,omitempty"`
}

// IsFolder reports whether the task creates a folder
func (t UploadTask) IsFolder() bool {
	return t.Kind == KindFolder
}
