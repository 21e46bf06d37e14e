// Package vercel registers the Vercel AI Gateway model list.
package vercel

import (
	"github.com/everstacklabs/modelsync/internal/adapter"
	"github.com/everstacklabs/modelsync/internal/catalog"
	"github.com/everstacklabs/modelsync/internal/filter"
)

func init() {
	adapter.Register(adapter.New(Profile()))
}

// Profile returns the built-in Vercel profile. Capabilities come from the
// "tags" array; attachment is curated by hand because the gateway does not
// distinguish image from file input.
func Profile() adapter.Profile {
	return adapter.Profile{
		Name:     "vercel",
		Endpoint: "https://ai-gateway.vercel.sh/v1/models",
		AuthEnv:  "AI_GATEWAY_API_KEY",
		Shape: adapter.Shape{
			ListPath:     "data",
			ID:           "id",
			Name:         "name",
			Created:      "created",
			ReleaseDate:  "released",
			ContextLimit: "context_window",
			OutputLimit:  "max_tokens",
			Price: adapter.PriceShape{
				Input:      "pricing.input",
				Output:     "pricing.output",
				CacheRead:  "pricing.input_cache_read",
				CacheWrite: "pricing.input_cache_write",
				Scale:      1_000_000,
			},
			Attachment:  adapter.Signal{Path: "tags", Contains: []string{"vision", "file-input"}},
			Reasoning:   adapter.Signal{Path: "tags", Contains: []string{"reasoning"}},
			ToolCall:    adapter.Signal{Path: "tags", Contains: []string{"tool-use"}},
			Temperature: adapter.Signal{Default: catalog.Bool(true)},
			Modalities: adapter.ModalityShape{
				InputSignals: map[string]adapter.Signal{
					"text":  {Default: catalog.Bool(true)},
					"image": {Path: "tags", Contains: []string{"vision"}},
					"pdf":   {Path: "tags", Contains: []string{"file-input"}},
				},
			},
		},
		Filter: filter.Rules{
			SkipSubstrings: []string{"embedding", "whisper", "tts", "image-gen"},
			IncludeAll: []filter.IncludeAll{
				{Segment: "anthropic"},
				{Segment: "openai"},
				{Segment: "google"},
				{Segment: "xai"},
				{Segment: "mistral"},
				{Segment: "deepseek"},
				{Segment: "alibaba"},
				{Segment: "moonshotai"},
				{Segment: "zai"},
				{Segment: "meta"},
			},
			Allow: []string{"perplexity/sonar*", "amazon/nova*", "cohere/command*"},
		},
		NonAuthoritative:  []string{adapter.FlagAttachment},
		OrphanPolicy:      adapter.OrphanWarn,
		MinExpectedModels: 20,
	}
}
