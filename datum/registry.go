package datum

import (
	"reflect"
	"sort"
	"sync"

	"github.com/kbukum/flowkit/errors"
)

var (
	typesMu sync.RWMutex
	types   = make(map[string]reflect.Type)
)

// RegisterType binds a port type name to the Go type T. Registering the same
// name again replaces the binding.
func RegisterType[T any](name string) {
	typesMu.Lock()
	defer typesMu.Unlock()
	types[name] = reflect.TypeFor[T]()
}

// LookupType returns the Go type bound to a port type name.
func LookupType(name string) (reflect.Type, bool) {
	typesMu.RLock()
	defer typesMu.RUnlock()
	t, ok := types[name]
	return t, ok
}

// RegisteredTypes returns the sorted registered port type names.
func RegisteredTypes() []string {
	typesMu.RLock()
	defer typesMu.RUnlock()
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckType verifies that T can hold values of the port type name.
// Unregistered names are accepted; the payload is still checked by As.
func CheckType[T any](name string) error {
	bound, ok := LookupType(name)
	if !ok {
		return nil
	}
	want := reflect.TypeFor[T]()
	if bound == want || (want.Kind() == reflect.Interface && bound.Implements(want)) {
		return nil
	}
	return errors.TypeMismatch(name+" ("+bound.String()+")", want.String()).
		WithDetail("port_type", name)
}
