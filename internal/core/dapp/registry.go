// Package dapp keeps the registry of applications created by dapp
// registration transactions.
package dapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/LeJamon/goLSKd/internal/storage/database"
)

// KeyPrefix prefixes application records in the state database.
const KeyPrefix = "dapp/"

var (
	ErrDuplicateID   = errors.New("application id already registered")
	ErrDuplicateName = errors.New("application name already registered")
	ErrDuplicateLink = errors.New("application link already registered")
)

// Application is a registered application. It is created once by the
// transaction whose id it carries and never changes afterwards.
type Application struct {
	ID          string `json:"id"`
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Tags        string `json:"tags,omitempty"`
	Link        string `json:"link"`
	Icon        string `json:"icon,omitempty"`
	Category    uint32 `json:"category"`
	Type        uint32 `json:"type"`
}

// PoolAddress returns the ledger address holding funds moved into the
// application.
func PoolAddress(id string) string {
	return id + "D"
}

// Key returns the state database key of an application record.
func Key(id string) string {
	return KeyPrefix + id
}

// EncodeRecord serializes an application for storage.
func EncodeRecord(app Application) ([]byte, error) {
	return json.Marshal(app)
}

// Registry indexes applications by id, name and link.
type Registry struct {
	db database.DB

	mu     sync.RWMutex
	byID   map[string]Application
	byName map[string]string
	byLink map[string]string
}

// NewRegistry creates an empty registry. db may be nil.
func NewRegistry(db database.DB) *Registry {
	return &Registry{
		db:     db,
		byID:   make(map[string]Application),
		byName: make(map[string]string),
		byLink: make(map[string]string),
	}
}

// Load reads persisted applications.
func (r *Registry) Load(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return database.ScanPrefix(ctx, r.db, []byte(KeyPrefix), func(key, value []byte) error {
		var app Application
		if err := json.Unmarshal(value, &app); err != nil {
			return fmt.Errorf("decode application %s: %w", key, err)
		}
		return r.Register(app)
	})
}

// Register adds an application to the in-memory indexes.
func (r *Registry) Register(app Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[app.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, app.ID)
	}
	if _, ok := r.byName[app.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, app.Name)
	}
	if _, ok := r.byLink[app.Link]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateLink, app.Link)
	}
	r.byID[app.ID] = app
	r.byName[app.Name] = app.ID
	r.byLink[app.Link] = app.ID
	return nil
}

// Exists reports whether id names a registered application.
func (r *Registry) Exists(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// Get returns the application with the given id.
func (r *Registry) Get(id string) (Application, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.byID[id]
	return app, ok
}

// ByName returns the application registered under name.
func (r *Registry) ByName(name string) (Application, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return Application{}, false
	}
	return r.byID[id], true
}

// ByLink returns the application registered with link.
func (r *Registry) ByLink(link string) (Application, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byLink[link]
	if !ok {
		return Application{}, false
	}
	return r.byID[id], true
}

// IsOwner reports whether address registered the application.
func (r *Registry) IsOwner(id, address string) bool {
	app, ok := r.Get(id)
	return ok && app.Owner == address
}

// Len returns the number of registered applications.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
