package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Store reads and writes record files under
// <base>/providers/<provider>/models/<id segments>.toml.
type Store struct {
	basePath string
}

// NewStore creates a Store rooted at basePath.
func NewStore(basePath string) *Store {
	return &Store{basePath: basePath}
}

// BasePath returns the catalog root.
func (s *Store) BasePath() string { return s.basePath }

// ModelsDir returns the directory holding a provider's records.
func (s *Store) ModelsDir(provider string) string {
	return filepath.Join(s.basePath, "providers", provider, "models")
}

// Path returns the file path for a record. Slash-separated id segments become
// nested directories.
func (s *Store) Path(provider, id string) string {
	return filepath.Join(s.ModelsDir(provider), filepath.FromSlash(id)+FileExt)
}

// Providers lists provider directories in the store, sorted.
func (s *Store) Providers() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.basePath, "providers"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading providers dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// List returns the ids of every record persisted for provider, sorted.
func (s *Store) List(provider string) ([]string, error) {
	dir := s.ModelsDir(provider)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var ids []string
	err := doublestar.GlobWalk(os.DirFS(dir), "**/*"+FileExt, func(p string, d fs.DirEntry) error {
		if !d.IsDir() {
			ids = append(ids, strings.TrimSuffix(path.Clean(p), FileExt))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Read loads one record. A missing file yields (nil, nil); an undecodable
// file yields a *ParseError.
func (s *Store) Read(provider, id string) (*Model, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	p := s.Path(provider, id)
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}

	m, err := Unmarshal(data, p)
	if err != nil {
		return nil, err
	}
	m.Provider = provider
	m.ID = id
	return m, nil
}

// Write persists m atomically, creating parent directories as needed.
func (s *Store) Write(m *Model) error {
	if m.Provider == "" {
		return fmt.Errorf("writing %q: provider is empty", m.ID)
	}
	if err := ValidateID(m.ID); err != nil {
		return err
	}

	data, err := Marshal(m)
	if err != nil {
		return err
	}

	p := s.Path(m.Provider, m.ID)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating models dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", p, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}
	return nil
}

// Delete removes a record and prunes directories it leaves empty.
func (s *Store) Delete(provider, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	p := s.Path(provider, id)
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", p, err)
	}

	root := s.ModelsDir(provider)
	for dir := filepath.Dir(p); dir != root && strings.HasPrefix(dir, root); dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			break // not empty
		}
	}
	return nil
}

// ValidateID reports whether id can be stored: non-empty, relative, with
// no empty, "." or ".." segments.
func ValidateID(id string) error {
	if id == "" {
		return errors.New("model id is empty")
	}
	if strings.HasPrefix(id, "/") {
		return fmt.Errorf("model id %q is absolute", id)
	}
	for _, seg := range strings.Split(id, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("model id %q has an invalid path segment", id)
		}
	}
	return nil
}
