package cloudflare

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everstacklabs/modelsync/internal/adapter"
	"github.com/everstacklabs/modelsync/internal/catalog"
	"github.com/everstacklabs/modelsync/internal/filter"
)

const payload = `{"success":true,"result":[
  {"id":"workers-ai/@cf/meta/llama-3.3-70b-instruct-fp8-fast","name":"Llama 3.3 70B Instruct (fp8 fast)",
   "created_at":"2024-12-06 17:09:18","pricing":{"input":0.29,"output":2.25},
   "properties":{"context_window":24000,"function_calling":true,"open_weights":true,
                 "input_modalities":["text"],"output_modalities":["text"]}},
  {"id":"workers-ai/@cf/openai/whisper-large-v3-turbo","name":"Whisper","pricing":{"input":0.0005,"output":0}},
  {"id":"workers-ai/meta/llama-2-7b","name":"Legacy"},
  {"id":"openai/gpt-4o","name":"GPT-4o"}
]}`

func TestProfileValid(t *testing.T) {
	p := Profile()
	assert.NoError(t, p.Validate())
	assert.Equal(t, adapter.OrphanDelete, p.EffectiveOrphanPolicy())
}

func TestDiscoverAndFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	p := Profile()
	p.Endpoint = srv.URL
	p.MinExpectedModels = 0

	recs, err := adapter.New(p).Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 4)

	llama := recs[0]
	assert.Equal(t, "2024-12-06", llama.SourceDate())
	assert.Equal(t, int64(24000), llama.Limits.Context)
	assert.Equal(t, 0.29, llama.Pricing.Input)
	assert.Equal(t, catalog.Bool(true), llama.ToolCall)
	assert.Equal(t, catalog.Bool(false), llama.Reasoning)
	assert.Equal(t, catalog.Bool(true), llama.OpenWeights)
	assert.Nil(t, recs[3].Pricing)

	f := filter.New(p.Filter)
	var kept []string
	for _, r := range recs {
		if f.Included(r.ID) {
			kept = append(kept, r.ID)
		}
	}
	assert.Equal(t, []string{"workers-ai/@cf/meta/llama-3.3-70b-instruct-fp8-fast", "openai/gpt-4o"}, kept)
}

func TestCrossReference(t *testing.T) {
	cr := Profile().CrossReference

	got, ok := cr.Resolve("openai/gpt-4.1")
	require.True(t, ok)
	assert.Equal(t, "openai", got.Provider)
	assert.Equal(t, "gpt-4.1", got.IDs[0])

	got, ok = cr.Resolve("google-ai-studio/gemini-2.5-flash")
	require.True(t, ok)
	assert.Equal(t, adapter.Lookup{Provider: "google", IDs: []string{"gemini-2.5-flash"}}, got)

	_, ok = cr.Resolve("workers-ai/@cf/meta/llama")
	assert.False(t, ok)
}
