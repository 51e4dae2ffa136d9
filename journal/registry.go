package journal

import (
	"fmt"
	"sort"
	"sync"
)

// BackendType names a journal implementation
type BackendType string

const (
	// MemoryBackend keeps entries in process memory
	MemoryBackend BackendType = "memory"
	// DBBackend keeps entries in a SQLite database
	DBBackend BackendType = "db"
)

// Constructor creates a Journal from backend specific params
type Constructor func(params map[string]any) (Journal, error)

// Registry defines the interface for managing Journal implementations
type Registry interface {
	// Register adds a new Journal implementation to the registry
	Register(bt BackendType, constructor Constructor) error
	// SetDefault sets the default backend type
	SetDefault(bt BackendType) error
	// Get returns a new instance of the specified backend type
	Get(bt BackendType, params map[string]any) (Journal, error)
	// DefaultBackendType returns the current default backend type
	DefaultBackendType() BackendType
	// ListRegistered returns all registered backend types
	ListRegistered() []BackendType
}

type registry struct {
	mu        sync.RWMutex
	backends  map[BackendType]Constructor
	defaultBt BackendType
}

var defaultRegistry Registry = NewRegistry()

// NewRegistry creates an empty registry
func NewRegistry() Registry {
	return &registry{
		backends: make(map[BackendType]Constructor),
	}
}

// GetRegistry returns the global Registry instance
func GetRegistry() Registry {
	return defaultRegistry
}

func (r *registry) Register(bt BackendType, constructor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[bt]; exists {
		return fmt.Errorf("journal backend %s already registered", bt)
	}
	r.backends[bt] = constructor
	return nil
}

func (r *registry) SetDefault(bt BackendType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[bt]; !exists {
		return fmt.Errorf("journal backend %s not registered", bt)
	}
	r.defaultBt = bt
	return nil
}

func (r *registry) Get(bt BackendType, params map[string]any) (Journal, error) {
	if bt == "" {
		bt = r.DefaultBackendType()
	}

	r.mu.RLock()
	constructor, exists := r.backends[bt]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("journal backend %s not found", bt)
	}
	return constructor(params)
}

func (r *registry) DefaultBackendType() BackendType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defaultBt == "" {
		return MemoryBackend
	}
	return r.defaultBt
}

func (r *registry) ListRegistered() []BackendType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]BackendType, 0, len(r.backends))
	for bt := range r.backends {
		types = append(types, bt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Package level functions that delegate to defaultRegistry

// Register adds a new Journal implementation to the registry
func Register(bt BackendType, constructor Constructor) error {
	return GetRegistry().Register(bt, constructor)
}

// SetDefault sets the default backend type
func SetDefault(bt BackendType) error {
	return GetRegistry().SetDefault(bt)
}

// Get returns a new instance of the specified backend type; an empty type
// selects the default
func Get(bt BackendType, params map[string]any) (Journal, error) {
	return GetRegistry().Get(bt, params)
}

// DefaultBackendType returns the current default backend type
func DefaultBackendType() BackendType {
	return GetRegistry().DefaultBackendType()
}

// ListRegistered returns all registered backend types
func ListRegistered() []BackendType {
	return GetRegistry().ListRegistered()
}
