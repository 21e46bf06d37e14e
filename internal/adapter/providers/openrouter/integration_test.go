//go:build integration

package openrouter

import (
	"context"
	"testing"
	"time"

	"github.com/everstacklabs/modelsync/internal/adapter"
	"github.com/everstacklabs/modelsync/internal/filter"
	"github.com/everstacklabs/modelsync/internal/httpclient"
)

func TestOpenRouterAPIIntegration(t *testing.T) {
	a := adapter.New(Profile())
	a.Configure(httpclient.New())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, err := a.Discover(ctx)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	f := filter.New(Profile().Filter)
	included := 0
	for _, r := range records {
		if f.Included(r.ID) {
			included++
		}
		if r.Pricing != nil && (r.Pricing.Input < 0 || r.Pricing.Output < 0) {
			t.Errorf("%s: negative price", r.ID)
		}
	}

	if included == 0 {
		t.Fatal("expected the filter to include some OpenRouter models")
	}
	t.Logf("discovered %d models, %d included", len(records), included)
}
