package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everstacklabs/modelsync/internal/cache"
)

func TestGetHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	resp, err := New().Get(context.Background(), srv.URL, map[string]string{"Authorization": "Bearer k"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"data":[]}`, string(resp.Body))
	assert.False(t, resp.FromCache)
}

func TestGetStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, strings.Repeat("x", 2000), http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New().Get(context.Background(), srv.URL, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.True(t, strings.HasSuffix(se.Body, "..."))
	assert.Less(t, len(se.Body), 600)
}

func TestGetCacheRevalidates(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(`{"data":[1]}`))
	}))
	defer srv.Close()

	fc, err := cache.New(t.TempDir(), time.Nanosecond)
	require.NoError(t, err)
	c := New(WithCache(fc))

	first, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	time.Sleep(time.Millisecond)

	second, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, `{"data":[1]}`, string(second.Body))
	assert.Equal(t, int32(2), hits.Load())
}

func TestGetNoCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	fc, err := cache.New(t.TempDir(), time.Hour)
	require.NoError(t, err)
	c := New(WithCache(fc), WithNoCache())

	for range 2 {
		_, err := c.Get(context.Background(), srv.URL, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), hits.Load())
}

func TestGetTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := New(WithTimeout(20*time.Millisecond)).Get(context.Background(), srv.URL, nil)
	assert.Error(t, err)
}

func TestGetCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(WithRateLimit(1)).Get(ctx, "http://127.0.0.1:1", nil)
	assert.Error(t, err)
}
