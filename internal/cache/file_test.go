package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	url := "https://openrouter.ai/api/v1/models"
	a := Key(url, map[string]string{"Accept": "application/json", "Authorization": "Bearer one"})
	b := Key(url, map[string]string{"Authorization": "Bearer one", "Accept": "application/json"})
	c := Key(url, map[string]string{"Accept": "application/json", "Authorization": "Bearer two"})

	assert.Equal(t, a, b, "header order does not matter")
	assert.NotEqual(t, a, c)
	assert.NotContains(t, a, "Bearer")
}

func TestGetSet(t *testing.T) {
	fc, err := New(t.TempDir(), time.Hour)
	require.NoError(t, err)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fc.now = func() time.Time { return now }

	_, fresh := fc.Get("missing")
	assert.False(t, fresh)

	require.NoError(t, fc.Set("k", &Entry{URL: "u", Body: []byte(`{"data":[]}`), ETag: `"abc"`, StatusCode: 200}))

	e, fresh := fc.Get("k")
	require.NotNil(t, e)
	assert.True(t, fresh)
	assert.Equal(t, `{"data":[]}`, string(e.Body))
	assert.Equal(t, `"abc"`, e.ETag)

	now = now.Add(2 * time.Hour)
	e, fresh = fc.Get("k")
	require.NotNil(t, e, "stale entries are returned for revalidation")
	assert.False(t, fresh)
}

func TestGetCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	fc, err := New(dir, time.Hour)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(fc.path("bad"), []byte("{"), 0o644))
	e, _ := fc.Get("bad")
	assert.Nil(t, e)
	assert.NoFileExists(t, fc.path("bad"))
}

func TestPurge(t *testing.T) {
	dir := t.TempDir()
	fc, err := New(dir, time.Hour)
	require.NoError(t, err)

	require.NoError(t, fc.Set("old", &Entry{}))
	require.NoError(t, fc.Set("new", &Entry{}))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.json"), past, past))

	n, err := fc.Purge(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.FileExists(t, filepath.Join(dir, "new.json"))
}

func TestNewRejectsZeroTTL(t *testing.T) {
	_, err := New(t.TempDir(), 0)
	assert.Error(t, err)
}
