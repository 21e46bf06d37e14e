package pipeline

import (
	"log/slog"

	"github.com/everstacklabs/modelsync/internal/catalog"
)

// Store is the persisted catalog as the driver sees it. *catalog.Store
// implements it.
type Store interface {
	List(provider string) ([]string, error)
	Read(provider, id string) (*catalog.Model, error)
	Write(m *catalog.Model) error
	Delete(provider, id string) error
}

var _ Store = (*catalog.Store)(nil)

// dryRunStore reads through to the wrapped store and logs writes and
// deletes instead of performing them.
type dryRunStore struct {
	Store
	quiet bool
}

func (s dryRunStore) Write(m *catalog.Model) error {
	if !s.quiet {
		slog.Info("dry run: would write", "provider", m.Provider, "id", m.ID)
	}
	return nil
}

func (s dryRunStore) Delete(provider, id string) error {
	if !s.quiet {
		slog.Info("dry run: would delete", "provider", provider, "id", id)
	}
	return nil
}
