// Package contract maps endpoint names to their handlers.
package contract

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/govm-net/harness/core"
)

var (
	// ErrInvalidEndpoint signals a registration with an empty name or a nil handler
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	// ErrDuplicateEndpoint signals that the name is already taken
	ErrDuplicateEndpoint = errors.New("endpoint already registered")
)

// Contract is a dispatch table of named endpoints
type Contract struct {
	name      string
	mu        sync.RWMutex
	endpoints map[string]core.Endpoint
}

// New creates an empty contract
func New(name string) *Contract {
	return &Contract{
		name:      name,
		endpoints: make(map[string]core.Endpoint),
	}
}

// Name returns the contract name
func (c *Contract) Name() string {
	return c.name
}

// Register adds an endpoint under function
func (c *Contract) Register(function string, endpoint core.Endpoint) error {
	if function == "" || endpoint == nil {
		return fmt.Errorf("%w: %q", ErrInvalidEndpoint, function)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.endpoints[function]; exists {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateEndpoint, c.name, function)
	}
	c.endpoints[function] = endpoint
	return nil
}

// MustRegister is Register for static tables; it panics on error
func (c *Contract) MustRegister(function string, endpoint core.Endpoint) *Contract {
	if err := c.Register(function, endpoint); err != nil {
		panic(err)
	}
	return c
}

// Endpoint looks up the handler registered under function
func (c *Contract) Endpoint(function string) (core.Endpoint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	endpoint, ok := c.endpoints[function]
	return endpoint, ok
}

// Functions returns the registered endpoint names in sorted order
func (c *Contract) Functions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	functions := make([]string, 0, len(c.endpoints))
	for function := range c.endpoints {
		functions = append(functions, function)
	}
	sort.Strings(functions)
	return functions
}
