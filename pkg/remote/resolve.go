package remote

import (
	"context"
	"fmt"

	"github.com/sdejongh/drivemirror/internal/platform"
	"github.com/sdejongh/drivemirror/pkg/models"
)

// Resolve walks path one segment at a time from the store root.
// ok is false when a segment has no matching child; that is an ordinary
// result, not an error. err is reserved for failed store queries.
func Resolve(ctx context.Context, store Store, path string) (obj *models.RemoteObject, ok bool, err error) {
	current, err := store.Root(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("resolve %s: %w", path, err)
	}

	for _, segment := range platform.SplitRemote(path) {
		next, found, err := findChild(ctx, store, current.ID, segment)
		if err != nil {
			return nil, false, fmt.Errorf("resolve %s: %w", path, err)
		}
		if !found {
			return nil, false, nil
		}
		current = next
	}

	return current, true, nil
}

// Exists reports whether path resolves to an object
func Exists(ctx context.Context, store Store, path string) (bool, error) {
	_, ok, err := Resolve(ctx, store, path)
	return ok, err
}

// findChild returns the first child of parentID named name
func findChild(ctx context.Context, store Store, parentID, name string) (*models.RemoteObject, bool, error) {
	if finder, ok := store.(ChildFinder); ok {
		return finder.FindChild(ctx, parentID, name)
	}

	children, err := store.ListChildren(ctx, parentID)
	if err != nil {
		return nil, false, err
	}
	for i := range children {
		if children[i].Name == name {
			return &children[i], true, nil
		}
	}
	return nil, false, nil
}

// EnsurePath makes sure every folder on path exists and returns the deepest one.
//
// The longest existing prefix is found by checking existence of each prefix
// in turn, re-resolving from the root every time. That costs O(depth²) store
// queries and is only acceptable because mirrored paths are shallow.
// Folders from the first missing segment onward are created one at a time,
// each inside the previous one.
func EnsurePath(ctx context.Context, store Store, path string) (*models.RemoteObject, error) {
	segments := platform.SplitRemote(path)

	existing := 0
	for existing < len(segments) {
		ok, err := Exists(ctx, store, platform.JoinRemote(segments[:existing+1]...))
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		existing++
	}

	prefix := platform.JoinRemote(segments[:existing]...)
	parent, ok, err := Resolve(ctx, store, prefix)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("ensure path %s: prefix %s disappeared", path, prefix)
	}
	if !parent.IsFolder() {
		return nil, fmt.Errorf("ensure path %s: %s: %w", path, prefix, ErrNotFolder)
	}

	for _, name := range segments[existing:] {
		created, err := store.CreateFolder(ctx, name, parent.ID)
		if err != nil {
			return nil, fmt.Errorf("ensure path %s: create %s: %w", path, name, err)
		}
		parent = created
	}

	return parent, nil
}
