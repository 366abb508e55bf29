package sync

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/afero"
)

// Excluder decides which local entries are invisible to the differ.
// Patterns support:
//   - Basename globs: *.tmp, *.log
//   - Directory patterns: .git/, node_modules/
//   - Path globs matched against the whole relative path: build/*, **/cache/**
//
// Lines from a gitignore-style file in the local root are applied on top.
// That file is itself excluded.
type Excluder struct {
	patterns   []string
	ignore     *gitignore.GitIgnore
	ignoreFile string
}

// NewExcluder compiles glob patterns. Invalid patterns are rejected.
func NewExcluder(patterns []string) (*Excluder, error) {
	e := &Excluder{}
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		if !doublestar.ValidatePattern(strings.TrimSuffix(pattern, "/")) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
		e.patterns = append(e.patterns, pattern)
	}
	return e, nil
}

// LoadIgnoreFile adds the rules of the ignore file at root/name, if it exists
func (e *Excluder) LoadIgnoreFile(fs afero.Fs, root, name string) error {
	if name == "" {
		return nil
	}

	data, err := afero.ReadFile(fs, filepath.Join(root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read ignore file: %w", err)
	}

	e.ignore = gitignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
	e.ignoreFile = path.Clean(filepath.ToSlash(name))
	return nil
}

// Empty reports whether nothing can ever be excluded
func (e *Excluder) Empty() bool {
	return e == nil || (len(e.patterns) == 0 && e.ignore == nil)
}

// Excluded reports whether the entry at relPath (slash separated, relative
// to the local root) is excluded
func (e *Excluder) Excluded(relPath string, isDir bool) bool {
	if e.Empty() {
		return false
	}

	relPath = strings.TrimPrefix(filepath.ToSlash(relPath), "./")
	baseName := path.Base(relPath)

	if !isDir && relPath == e.ignoreFile {
		return true
	}

	for _, pattern := range e.patterns {
		if e.matchPattern(pattern, relPath, baseName, isDir) {
			return true
		}
	}

	if e.ignore != nil {
		candidate := relPath
		if isDir {
			candidate += "/"
		}
		if e.ignore.MatchesPath(candidate) {
			return true
		}
	}

	return false
}

func (e *Excluder) matchPattern(pattern, relPath, baseName string, isDir bool) bool {
	// Directory patterns only match directories
	if dirPattern, ok := strings.CutSuffix(pattern, "/"); ok {
		if !isDir {
			return false
		}
		if !strings.Contains(dirPattern, "/") {
			matched, _ := doublestar.Match(dirPattern, baseName)
			return matched
		}
		matched, _ := doublestar.Match(dirPattern, relPath)
		return matched
	}

	if !strings.Contains(pattern, "/") {
		matched, _ := doublestar.Match(pattern, baseName)
		return matched
	}

	matched, _ := doublestar.Match(pattern, relPath)
	return matched
}
