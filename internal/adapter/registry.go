package adapter

import (
	"fmt"
	"sort"
	"sync"
)

var (
	mu       sync.RWMutex
	adapters = make(map[string]Adapter)
)

// Register adds an adapter to the global registry, replacing any adapter
// with the same name.
func Register(a Adapter) {
	mu.Lock()
	defer mu.Unlock()
	adapters[a.Name()] = a
}

// Get returns an adapter by provider name.
func Get(name string) (Adapter, error) {
	mu.RLock()
	defer mu.RUnlock()
	a, ok := adapters[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return a, nil
}

// List returns all registered adapter names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profiles returns the profile of every registered adapter, keyed by name.
func Profiles() map[string]Profile {
	mu.RLock()
	defer mu.RUnlock()
	out := make(map[string]Profile, len(adapters))
	for name, a := range adapters {
		out[name] = a.Profile()
	}
	return out
}

// ApplyProfiles loads profile overrides from path and registers an
// HTTPAdapter for each entry.
func ApplyProfiles(path string) error {
	profiles, err := LoadProfiles(path, Profiles())
	if err != nil {
		return err
	}
	for _, p := range profiles {
		Register(New(p))
	}
	return nil
}
