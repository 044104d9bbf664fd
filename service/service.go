package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/flanksource/commons/logger"
	"gorm.io/gorm"
)

// Service is a unit of business logic under test: input in, output or error out.
type Service interface {
	Run(ctx context.Context, input map[string]any) (map[string]any, error)
}

// Func adapts a function to Service
type Func func(ctx context.Context, input map[string]any) (map[string]any, error)

func (f Func) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	return f(ctx, input)
}

// Context is what a service is constructed with.
type Context struct {
	// DB is the connection the service must use. Under test it is the case transaction.
	DB     *gorm.DB
	Logger logger.Logger
	Values map[string]any
}

// Factory builds a service for one call
type Factory func(Context) Service

// Registry maps service names to their factories.
// It provides thread-safe access to registered services.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new service registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a service factory under name
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("service '%s' already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Get retrieves a service factory by name
func (r *Registry) Get(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.factories[name]
	return f, ok
}

// MustGet retrieves a service factory or returns a descriptive error
func (r *Registry) MustGet(name string) (Factory, error) {
	f, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("service '%s' not registered (have %v)", name, r.List())
	}
	return f, nil
}

// List returns all registered service names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global service registry
var DefaultRegistry = NewRegistry()

// Register adds a service factory to the default registry
func Register(name string, factory Factory) error {
	return DefaultRegistry.Register(name, factory)
}

// Get retrieves a service factory from the default registry
func Get(name string) (Factory, bool) {
	return DefaultRegistry.Get(name)
}
