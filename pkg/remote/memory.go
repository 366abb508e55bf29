package remote

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/sdejongh/drivemirror/internal/platform"
	"github.com/sdejongh/drivemirror/pkg/models"
)

// MemoryRootID is the ID of the root folder of a Memory store
const MemoryRootID = "root"

// Operation names reported to a Memory hook and counted by Calls
const (
	OpRoot         = "root"
	OpList         = "list"
	OpGet          = "get"
	OpCreateFolder = "create_folder"
	OpCreateFile   = "create_file"
)

// Hook is called before every Memory operation. arg is the object ID for
// lookups and the new object name for creations. A non-nil error fails the call.
type Hook func(op, arg string) error

// Memory is an in-memory Store. It allows duplicate names within a folder,
// like Drive does, and records every call so tests can assert on query counts.
type Memory struct {
	mu       sync.Mutex
	objects  map[string]*models.RemoteObject
	children map[string][]string
	content  map[string][]byte
	created  []models.RemoteObject
	calls    map[string]int
	nextID   int
	hook     Hook
}

// NewMemory creates an empty store holding only the root folder
func NewMemory() *Memory {
	m := &Memory{
		objects:  make(map[string]*models.RemoteObject),
		children: make(map[string][]string),
		content:  make(map[string][]byte),
		calls:    make(map[string]int),
	}
	m.objects[MemoryRootID] = &models.RemoteObject{ID: MemoryRootID, Name: "", Kind: models.KindFolder}
	return m
}

// SetHook installs a hook run before each operation
func (m *Memory) SetHook(hook Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = hook
}

// Calls returns how many times op was invoked
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// ResetCalls clears the call counters
func (m *Memory) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string]int)
}

// Created returns the objects created through the Store interface, in order
func (m *Memory) Created() []models.RemoteObject {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.RemoteObject, len(m.created))
	copy(out, m.created)
	return out
}

// Content returns the bytes stored for a file
func (m *Memory) Content(id string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.content[id]
	return data, ok
}

// Root returns the root folder
func (m *Memory) Root(ctx context.Context) (*models.RemoteObject, error) {
	if err := m.enter(ctx, OpRoot, MemoryRootID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	root := *m.objects[MemoryRootID]
	return &root, nil
}

// ListChildren returns the children of id in creation order
func (m *Memory) ListChildren(ctx context.Context, id string) ([]models.RemoteObject, error) {
	if err := m.enter(ctx, OpList, id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[id]; !ok {
		return nil, fmt.Errorf("list %s: %w", id, ErrNoSuchObject)
	}
	ids := m.children[id]
	out := make([]models.RemoteObject, 0, len(ids))
	for _, childID := range ids {
		out = append(out, *m.objects[childID])
	}
	return out, nil
}

// GetObject returns the object with the given ID
func (m *Memory) GetObject(ctx context.Context, id string) (*models.RemoteObject, error) {
	if err := m.enter(ctx, OpGet, id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, ErrNoSuchObject)
	}
	copied := *obj
	return &copied, nil
}

// CreateFolder creates a folder inside parentID
func (m *Memory) CreateFolder(ctx context.Context, name, parentID string) (*models.RemoteObject, error) {
	if err := m.enter(ctx, OpCreateFolder, name); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, err := m.add(parentID, name, models.KindFolder, nil)
	if err != nil {
		return nil, err
	}
	m.created = append(m.created, *obj)
	return obj, nil
}

// CreateFile creates a file inside parentID, reading content to the end
func (m *Memory) CreateFile(ctx context.Context, name, parentID string, content io.Reader) (*models.RemoteObject, error) {
	if err := m.enter(ctx, OpCreateFile, name); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("read content of %s: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	obj, err := m.add(parentID, name, models.KindFile, data)
	if err != nil {
		return nil, err
	}
	m.created = append(m.created, *obj)
	return obj, nil
}

// MustMkdirAll seeds the folders on path without counting calls and returns the deepest one.
// Existing folders are reused.
func (m *Memory) MustMkdirAll(path string) *models.RemoteObject {
	m.mu.Lock()
	defer m.mu.Unlock()

	parent := m.objects[MemoryRootID]
	for _, segment := range platform.SplitRemote(path) {
		var next *models.RemoteObject
		for _, childID := range m.children[parent.ID] {
			if child := m.objects[childID]; child.Name == segment && child.IsFolder() {
				next = child
				break
			}
		}
		if next == nil {
			obj, err := m.add(parent.ID, segment, models.KindFolder, nil)
			if err != nil {
				panic(err)
			}
			next = m.objects[obj.ID]
		}
		parent = next
	}
	copied := *parent
	return &copied
}

// MustAddFile seeds a file inside the folder at dirPath without counting calls
func (m *Memory) MustAddFile(dirPath, name string, content []byte) *models.RemoteObject {
	dir := m.MustMkdirAll(dirPath)

	m.mu.Lock()
	defer m.mu.Unlock()
	obj, err := m.add(dir.ID, name, models.KindFile, content)
	if err != nil {
		panic(err)
	}
	return obj
}

// enter counts the call and runs the hook
func (m *Memory) enter(ctx context.Context, op, arg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.calls[op]++
	hook := m.hook
	m.mu.Unlock()

	if hook != nil {
		return hook(op, arg)
	}
	return nil
}

// add inserts a new object; the caller holds the lock
func (m *Memory) add(parentID, name string, kind models.Kind, data []byte) (*models.RemoteObject, error) {
	parent, ok := m.objects[parentID]
	if !ok {
		return nil, fmt.Errorf("create %s in %s: %w", name, parentID, ErrNoSuchObject)
	}
	if !parent.IsFolder() {
		return nil, fmt.Errorf("create %s in %s: %w", name, parentID, ErrNotFolder)
	}

	m.nextID++
	obj := &models.RemoteObject{
		ID:       "obj-" + strconv.Itoa(m.nextID),
		Name:     name,
		ParentID: parentID,
		Kind:     kind,
	}
	if kind == models.KindFile {
		obj.Size = int64(len(data))
		m.content[obj.ID] = data
	}

	m.objects[obj.ID] = obj
	m.children[parentID] = append(m.children[parentID], obj.ID)

	copied := *obj
	return &copied, nil
}

var _ Store = (*Memory)(nil)
