package process

import (
	"sort"
	"sync"

	"github.com/kbukum/flowkit/errors"
)

// Factory builds a process instance of one type.
type Factory func(name string, cfg Config) (*Process, error)

// Registry maps process type names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Registering a type twice fails.
func (r *Registry) Register(typ string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if typ == "" || f == nil {
		return errors.InvalidDeclaration(typ, "factory", "type name and factory are required")
	}
	if _, ok := r.factories[typ]; ok {
		return errors.InvalidDeclaration(typ, "factory", "type already registered")
	}
	r.factories[typ] = f
	return nil
}

// Get retrieves a factory by type name.
func (r *Registry) Get(typ string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[typ]
	return f, ok
}

// Create builds a process of the given type.
func (r *Registry) Create(typ, name string, cfg Config) (*Process, error) {
	f, ok := r.Get(typ)
	if !ok {
		return nil, errors.UnknownProcessType(typ)
	}
	return f(name, cfg)
}

// Types returns the sorted registered type names.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
