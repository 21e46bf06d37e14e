package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/everstacklabs/modelsync/internal/httpclient"
)

// HTTPAdapter fetches a provider's model list with one GET and decodes it
// with the profile's shape.
type HTTPAdapter struct {
	profile Profile
	client  *httpclient.Client
}

// New creates an adapter for p.
func New(p Profile) *HTTPAdapter {
	return &HTTPAdapter{profile: p.Clone()}
}

func (a *HTTPAdapter) Name() string { return a.profile.Name }

func (a *HTTPAdapter) Profile() Profile { return a.profile }

// Configure sets the HTTP client used by Discover.
func (a *HTTPAdapter) Configure(client *httpclient.Client) {
	a.client = client
}

// Discover fetches the payload and validates it. Network and HTTP failures
// return *TransportError; shape mismatches and short payloads return
// *ValidationError.
func (a *HTTPAdapter) Discover(ctx context.Context) ([]SourceRecord, error) {
	if a.client == nil {
		a.client = httpclient.New()
	}

	url := os.ExpandEnv(a.profile.Endpoint)
	headers := map[string]string{"Accept": "application/json"}
	for k, v := range a.profile.Headers {
		headers[k] = os.ExpandEnv(v)
	}
	if a.profile.AuthEnv != "" {
		if token := os.Getenv(a.profile.AuthEnv); token != "" {
			headers["Authorization"] = "Bearer " + token
		} else {
			slog.Warn("auth token not set, fetching anonymously", "provider", a.Name(), "env", a.profile.AuthEnv)
		}
	}

	resp, err := a.client.Get(ctx, url, headers)
	if err != nil {
		terr := &TransportError{Provider: a.Name(), URL: url, Err: err}
		var serr *httpclient.StatusError
		if errors.As(err, &serr) {
			terr.StatusCode = serr.StatusCode
		}
		return nil, terr
	}

	records, err := a.profile.Shape.Decode(a.Name(), resp.Body)
	if err != nil {
		return nil, err
	}

	if want := a.profile.MinExpectedModels; want > 0 && len(records) < want {
		return nil, &ValidationError{
			Provider: a.Name(),
			Index:    -1,
			Path:     a.profile.Shape.ListPath,
			Reason:   fmt.Sprintf("expected at least %d models, got %d", want, len(records)),
		}
	}

	slog.Info("fetched provider models", "provider", a.Name(), "records", len(records), "from_cache", resp.FromCache)
	return records, nil
}
