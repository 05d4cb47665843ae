// Package handle provides the handle directory: publishing identities that
// own scenes, and the capability predicate consulted by authorization.
package handle

import (
	"context"
	"errors"
	"sync"
)

// ErrHandleNotFound is returned when a handle name does not resolve.
var ErrHandleNotFound = errors.New("handle not found")

// Action names a per-handle capability.
type Action string

// Handle capabilities.
const (
	ActionAddScenes     Action = "addScenes"
	ActionEditScenes    Action = "editScenes"
	ActionViewDashboard Action = "viewDashboard"
)

// Handle is a publishing identity. The scene core treats handles as
// read-only; account management lives elsewhere.
type Handle struct {
	Name        string `json:"handle"`
	DisplayName string `json:"display_name"`
	OwnerID     string `json:"-"`
}

// Directory resolves handle names and answers capability questions.
type Directory interface {
	// GetByName retrieves a handle. Returns ErrHandleNotFound if absent.
	GetByName(ctx context.Context, name string) (*Handle, error)

	// IsAllowed reports whether the account may perform action on the
	// handle. The owning account holds every capability; other accounts
	// hold only explicit grants. An unknown handle is not an error here;
	// it simply grants nothing.
	IsAllowed(ctx context.Context, accountID, name string, action Action) (bool, error)
}

// InMemoryDirectory is an in-memory Directory used by tests and local
// development.
type InMemoryDirectory struct {
	mu      sync.RWMutex
	handles map[string]*Handle
	grants  map[string]map[Action]bool // "account/handle" -> actions
}

// NewInMemoryDirectory creates an empty in-memory directory.
func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{
		handles: make(map[string]*Handle),
		grants:  make(map[string]map[Action]bool),
	}
}

// Add registers a handle.
func (d *InMemoryDirectory) Add(h *Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dup := *h
	d.handles[h.Name] = &dup
}

// Grant gives an account a capability on a handle.
func (d *InMemoryDirectory) Grant(accountID, name string, action Action) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := accountID + "/" + name
	if d.grants[key] == nil {
		d.grants[key] = make(map[Action]bool)
	}
	d.grants[key][action] = true
}

// GetByName retrieves a handle by name.
func (d *InMemoryDirectory) GetByName(ctx context.Context, name string) (*Handle, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handles[name]
	if !ok {
		return nil, ErrHandleNotFound
	}
	dup := *h
	return &dup, nil
}

// IsAllowed reports whether the account may perform action on the handle.
func (d *InMemoryDirectory) IsAllowed(ctx context.Context, accountID, name string, action Action) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if h, ok := d.handles[name]; ok && h.OwnerID == accountID {
		return true, nil
	}
	return d.grants[accountID+"/"+name][action], nil
}
