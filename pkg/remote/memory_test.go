package remote

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sdejongh/drivemirror/pkg/models"
)

func TestMemoryCreateFile(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	dir := store.MustMkdirAll("/docs")

	obj, err := store.CreateFile(ctx, "a.txt", dir.ID, strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}
	if obj.Size != 5 || obj.Kind != models.KindFile || obj.ParentID != dir.ID {
		t.Errorf("CreateFile() = %+v", obj)
	}

	data, ok := store.Content(obj.ID)
	if !ok || string(data) != "hello" {
		t.Errorf("Content() = %q, %v, want hello", data, ok)
	}

	children, err := store.ListChildren(ctx, dir.ID)
	if err != nil {
		t.Fatalf("ListChildren() error = %v", err)
	}
	if len(children) != 1 || children[0].Name != "a.txt" {
		t.Errorf("ListChildren() = %+v", children)
	}
}

func TestMemoryDuplicateNames(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	first, _ := store.CreateFolder(ctx, "dup", MemoryRootID)
	if _, err := store.CreateFolder(ctx, "dup", MemoryRootID); err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}

	// resolution picks the first match
	obj, ok, err := Resolve(ctx, store, "/dup")
	if err != nil || !ok {
		t.Fatalf("Resolve() = %v, %v", ok, err)
	}
	if obj.ID != first.ID {
		t.Errorf("Resolve() = %s, want first duplicate %s", obj.ID, first.ID)
	}
}

func TestMemoryErrors(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	file := store.MustAddFile("/", "f", nil)

	if _, err := store.GetObject(ctx, "missing"); !errors.Is(err, ErrNoSuchObject) {
		t.Errorf("GetObject() error = %v, want ErrNoSuchObject", err)
	}
	if _, err := store.CreateFolder(ctx, "x", file.ID); !errors.Is(err, ErrNotFolder) {
		t.Errorf("CreateFolder() in file error = %v, want ErrNotFolder", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.Root(cancelled); !errors.Is(err, context.Canceled) {
		t.Errorf("Root() error = %v, want context.Canceled", err)
	}
}
