// Package remote defines the capability interface of a hierarchical object
// store and the path operations built on top of it.
package remote

import (
	"context"
	"io"

	"github.com/sdejongh/drivemirror/pkg/models"
)

// Store defines the operations a remote hierarchical store must provide.
// Objects are addressed by ID; names are scoped to a parent.
type Store interface {
	// Root returns the implicit root folder of the store
	Root(ctx context.Context) (*models.RemoteObject, error)

	// ListChildren returns the direct children of a folder
	ListChildren(ctx context.Context, id string) ([]models.RemoteObject, error)

	// GetObject returns the object with the given ID
	GetObject(ctx context.Context, id string) (*models.RemoteObject, error)

	// CreateFolder creates an empty folder inside parentID
	CreateFolder(ctx context.Context, name, parentID string) (*models.RemoteObject, error)

	// CreateFile creates a file inside parentID with the given content
	CreateFile(ctx context.Context, name, parentID string, content io.Reader) (*models.RemoteObject, error)
}

// ChildFinder is implemented by stores that can look up a single child by
// name with one filtered query instead of listing the whole folder.
type ChildFinder interface {
	FindChild(ctx context.Context, parentID, name string) (*models.RemoteObject, bool, error)
}

// Connector establishes authenticated sessions against a store.
// Each call returns a new session; callers replace the previous one wholesale.
type Connector interface {
	Connect(ctx context.Context) (Store, error)
}

// ConnectorFunc adapts a function to the Connector interface
type ConnectorFunc func(ctx context.Context) (Store, error)

// Connect calls f(ctx)
func (f ConnectorFunc) Connect(ctx context.Context) (Store, error) {
	return f(ctx)
}
