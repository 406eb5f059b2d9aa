package llm

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a provider from its own environment settings.
type Factory func() (Provider, error)

var (
	registryMu sync.RWMutex
	factories  = map[string]Factory{}
)

// Register makes a backend selectable by name. Backends call it from init.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

func unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Registered lists the selectable backend names in order.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the backend registered under name.
func New(name string) (Provider, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown AI provider %q (available: %v)", name, Registered())
	}
	return factory()
}
