// Package cache stores provider list responses on disk between runs so an
// unchanged payload can be revalidated with ETag/If-Modified-Since.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Entry represents a cached HTTP response.
type Entry struct {
	URL        string    `json:"url"`
	Body       []byte    `json:"body"`
	ETag       string    `json:"etag,omitempty"`
	LastMod    string    `json:"last_modified,omitempty"`
	StatusCode int       `json:"status_code"`
	CachedAt   time.Time `json:"cached_at"`
}

// FileCache provides TTL-based file caching for HTTP responses.
type FileCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// New creates a new file cache.
func New(dir string, ttl time.Duration) (*FileCache, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &FileCache{dir: dir, ttl: ttl, now: time.Now}, nil
}

// Key derives a cache key from a URL and its request headers. Header values
// are hashed with the URL, so credentials never reach the disk in clear.
func Key(url string, headers map[string]string) string {
	names := make([]string, 0, len(headers))
	for k := range headers {
		names = append(names, k)
	}
	sort.Strings(names)

	h := sha256.New()
	h.Write([]byte(url))
	for _, k := range names {
		fmt.Fprintf(h, "\n%s: %s", k, headers[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached entry. fresh is false when the entry exists but has
// outlived the TTL; it is still returned for conditional fetch.
func (c *FileCache) Get(key string) (entry *Entry, fresh bool) {
	path := c.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		os.Remove(path)
		return nil, false
	}

	return &e, c.now().Sub(e.CachedAt) <= c.ttl
}

// Set stores an entry in the cache, replacing any previous one atomically.
func (c *FileCache) Set(key string, entry *Entry) error {
	entry.CachedAt = c.now()
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path(key))
}

// Purge removes entries older than maxAge and returns how many were removed.
func (c *FileCache) Purge(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("reading cache dir: %w", err)
	}

	removed := 0
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		if c.now().Sub(info.ModTime()) > maxAge {
			if err := os.Remove(filepath.Join(c.dir, de.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}
