package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// Catalog holds all loaded models grouped by provider.
type Catalog struct {
	BasePath  string
	Providers map[string]*ProviderCatalog

	// ParseErrors lists records that could not be decoded. They are
	// absent from Providers.
	ParseErrors []*ParseError
}

// ProviderCatalog holds models for a single provider.
type ProviderCatalog struct {
	Name   string
	Models map[string]*Model // keyed by model id
}

// Load reads the entire catalog from disk.
func Load(basePath string) (*Catalog, error) {
	store := NewStore(basePath)
	cat := &Catalog{
		BasePath:  basePath,
		Providers: make(map[string]*ProviderCatalog),
	}

	providers, err := store.Providers()
	if err != nil {
		return nil, err
	}

	for _, name := range providers {
		pc, err := cat.loadProvider(store, name)
		if err != nil {
			return nil, fmt.Errorf("loading provider %s: %w", name, err)
		}
		cat.Providers[name] = pc
	}

	return cat, nil
}

func (c *Catalog) loadProvider(store *Store, name string) (*ProviderCatalog, error) {
	pc := &ProviderCatalog{
		Name:   name,
		Models: make(map[string]*Model),
	}

	ids, err := store.List(name)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		m, err := store.Read(name, id)
		var perr *ParseError
		if errors.As(err, &perr) {
			c.ParseErrors = append(c.ParseErrors, perr)
			continue
		}
		if err != nil {
			return nil, err
		}
		pc.Models[id] = m
	}

	return pc, nil
}

// ModelIDs returns sorted model ids for a provider.
func (c *Catalog) ModelIDs(provider string) []string {
	pc, ok := c.Providers[provider]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(pc.Models))
	for id := range pc.Models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ProviderNames returns sorted provider names.
func (c *Catalog) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
