package models

// ComparisonKey is the (name, kind) pair used to decide whether a local entry
// and a remote object are the same thing. Content is never part of it.
// It is comparable and therefore usable as a map key or set element.
type ComparisonKey struct {
	Name string
	Kind Kind
}

func (k ComparisonKey) String() string {
	if k.Kind == KindFolder {
		return k.Name + "/"
	}
	return k.Name
}

// SizeMismatch records a file present on both sides with different sizes.
// It is informational and never triggers an upload.
type SizeMismatch struct {
	Path       string `json:"path"`
	LocalSize  int64  `json:"local_size"`
	RemoteSize int64  `json:"remote_size"`
	RemoteID   string `json:"remote_id"`
}

// RemoteOnlyEntry is a remote object with no local counterpart.
// Deletion is never performed for these.
type RemoteOnlyEntry struct {
	// Path is the remote path of the object
	Path   string       `json:"path"`
	Object RemoteObject `json:"object"`
}
