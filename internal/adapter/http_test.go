package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everstacklabs/modelsync/internal/httpclient"
)

func serve(t *testing.T, status int, body string, gotAuth *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotAuth != nil {
			*gotAuth = r.Header.Get("Authorization")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPAdapterDiscover(t *testing.T) {
	var auth string
	srv := serve(t, http.StatusOK, `{"result":[{"id":"workers-ai/@cf/meta/llama"},{"id":"openai/gpt-4o"}]}`, &auth)
	t.Setenv("GATEWAY_TOKEN", "secret")

	p := gatewayProfile()
	p.Endpoint = srv.URL
	p.AuthEnv = "GATEWAY_TOKEN"

	a := New(p)
	a.Configure(httpclient.New())
	recs, err := a.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "workers-ai/@cf/meta/llama", recs[0].ID)
}

func TestHTTPAdapterExpandsEndpoint(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"result":[]}`, nil)
	t.Setenv("GATEWAY_BASE", srv.URL)

	p := gatewayProfile()
	p.Endpoint = "${GATEWAY_BASE}/models"
	recs, err := New(p).Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestHTTPAdapterTransportError(t *testing.T) {
	srv := serve(t, http.StatusUnauthorized, `{"error":"bad token"}`, nil)

	p := gatewayProfile()
	p.Endpoint = srv.URL
	_, err := New(p).Discover(context.Background())

	var terr *TransportError
	require.True(t, errors.As(err, &terr), "got %v", err)
	assert.Equal(t, http.StatusUnauthorized, terr.StatusCode)
	assert.Equal(t, "gateway", terr.Provider)
	assert.Contains(t, err.Error(), "bad token")
}

func TestHTTPAdapterNetworkError(t *testing.T) {
	srv := serve(t, http.StatusOK, `[]`, nil)
	url := srv.URL
	srv.Close()

	p := gatewayProfile()
	p.Endpoint = url
	_, err := New(p).Discover(context.Background())

	var terr *TransportError
	require.True(t, errors.As(err, &terr), "got %v", err)
	assert.Zero(t, terr.StatusCode)
}

func TestHTTPAdapterMinExpectedModels(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"result":[{"id":"a"}]}`, nil)

	p := gatewayProfile()
	p.Endpoint = srv.URL
	p.MinExpectedModels = 2
	_, err := New(p).Discover(context.Background())

	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, -1, verr.Index)
	assert.Contains(t, verr.Reason, "at least 2")
}

func TestHTTPAdapterValidationError(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"result":[{"id":"a"},{"name":"no id"}]}`, nil)

	p := gatewayProfile()
	p.Endpoint = srv.URL
	_, err := New(p).Discover(context.Background())

	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, 1, verr.Index)
	assert.JSONEq(t, `{"name":"no id"}`, verr.Payload)
}

func TestNewClonesProfile(t *testing.T) {
	p := gatewayProfile()
	a := New(p)
	p.CrossReference.Aliases["x"] = "y"
	assert.NotContains(t, a.Profile().CrossReference.Aliases, "x")
}

func TestApplyProfilesRegisters(t *testing.T) {
	Register(New(gatewayProfile()))

	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers:\n  gateway:\n    min_expected_models: 7\n"), 0o644))
	require.NoError(t, ApplyProfiles(path))

	a, err := Get("gateway")
	require.NoError(t, err)
	assert.Equal(t, 7, a.Profile().MinExpectedModels)
	assert.Equal(t, OrphanDelete, a.Profile().OrphanPolicy)
	assert.Contains(t, List(), "gateway")

	_, err = Get("missing")
	assert.Error(t, err)
}
