package platform

import (
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

// RemoteSeparator separates segments of a remote path
const RemoteSeparator = "/"

// NormalizePath normalizes a local path for the current platform
func NormalizePath(p string) string {
	// Convert to platform-specific separators
	normalized := filepath.Clean(p)

	// On Windows, ensure UNC paths are preserved
	if runtime.GOOS == "windows" {
		if strings.HasPrefix(p, "\\\\") && !strings.HasPrefix(normalized, "\\\\") {
			normalized = "\\\\" + normalized
		}
	}

	return normalized
}

// SplitRemote splits a remote path into its non-empty segments.
// "/", "" and "." all yield no segments and denote the store root.
func SplitRemote(p string) []string {
	p = filepath.ToSlash(p)
	parts := strings.Split(p, RemoteSeparator)
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		segments = append(segments, part)
	}
	return segments
}

// JoinRemote builds an absolute remote path from segments
func JoinRemote(segments ...string) string {
	return RemoteSeparator + strings.Join(segments, RemoteSeparator)
}

// NormalizeRemote returns the canonical absolute form of a remote path
func NormalizeRemote(p string) string {
	return JoinRemote(SplitRemote(p)...)
}

// ChildRemote appends a name to a remote path
func ChildRemote(parent, name string) string {
	return path.Join(NormalizeRemote(parent), name)
}

// RelSlash returns target relative to base using forward slashes,
// which is the form exclusion patterns are matched against
func RelSlash(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// ValidateRemotePath checks that a remote path can be resolved segment by segment
func ValidateRemotePath(p string) error {
	if strings.TrimSpace(p) == "" {
		return &PathError{Path: p, Message: "path is empty"}
	}
	for _, segment := range SplitRemote(p) {
		if segment == ".." {
			return &PathError{Path: p, Message: "parent references are not supported"}
		}
	}
	return nil
}

// ValidatePath checks if a local path is valid for the current platform
func ValidatePath(p string) error {
	if p == "" {
		return &PathError{Path: p, Message: "path is empty"}
	}

	// Check for invalid characters based on OS
	if runtime.GOOS == "windows" {
		invalidChars := []string{"<", ">", "\"", "|", "?", "*"}
		for _, char := range invalidChars {
			if strings.Contains(p, char) {
				return &PathError{Path: p, Message: "path contains invalid character: " + char}
			}
		}
	}

	return nil
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
