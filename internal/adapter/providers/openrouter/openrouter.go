// Package openrouter registers the OpenRouter model list.
package openrouter

import (
	"github.com/everstacklabs/modelsync/internal/adapter"
	"github.com/everstacklabs/modelsync/internal/catalog"
	"github.com/everstacklabs/modelsync/internal/filter"
)

func init() {
	adapter.Register(adapter.New(Profile()))
}

// Profile returns the built-in OpenRouter profile. Prices are per token and
// arrive as strings.
func Profile() adapter.Profile {
	return adapter.Profile{
		Name:     "openrouter",
		Endpoint: "https://openrouter.ai/api/v1/models",
		AuthEnv:  "OPENROUTER_API_KEY",
		Shape: adapter.Shape{
			ListPath:     "data",
			ID:           "id",
			Name:         "name",
			Created:      "created",
			ContextLimit: "context_length",
			OutputLimit:  "top_provider.max_completion_tokens",
			Price: adapter.PriceShape{
				Input:      "pricing.prompt",
				Output:     "pricing.completion",
				Reasoning:  "pricing.internal_reasoning",
				CacheRead:  "pricing.input_cache_read",
				CacheWrite: "pricing.input_cache_write",
				InputAudio: "pricing.audio",
				Scale:      1_000_000,
			},
			Attachment:       adapter.Signal{Path: "architecture.input_modalities", Contains: []string{"image", "file"}},
			Reasoning:        adapter.Signal{Path: "supported_parameters", Contains: []string{"reasoning", "include_reasoning"}},
			ToolCall:         adapter.Signal{Path: "supported_parameters", Contains: []string{"tools"}},
			StructuredOutput: adapter.Signal{Path: "supported_parameters", Contains: []string{"structured_outputs"}},
			Temperature:      adapter.Signal{Path: "supported_parameters", Contains: []string{"temperature"}},
			OpenWeights:      adapter.Signal{Path: "hugging_face_id", Present: true, Default: catalog.Bool(false)},
			Modalities: adapter.ModalityShape{
				Input:  "architecture.input_modalities",
				Output: "architecture.output_modalities",
			},
		},
		Filter: filter.Rules{
			SkipSubstrings: []string{":free", ":extended", ":beta", "embedding", "whisper"},
			SkipNamespaces: []string{"openrouter"},
			IncludeAll: []filter.IncludeAll{
				{Segment: "anthropic"},
				{Segment: "openai"},
				{Segment: "google"},
				{Segment: "x-ai"},
				{Segment: "mistralai"},
				{Segment: "deepseek"},
				{Segment: "qwen"},
				{Segment: "moonshotai"},
				{Segment: "z-ai"},
				{Segment: "meta-llama"},
			},
			Allow: []string{"minimax/*", "nousresearch/hermes*", "perplexity/sonar*"},
		},
		Families:          []string{"hermes"},
		OrphanPolicy:      adapter.OrphanWarn,
		MinExpectedModels: 50,
	}
}
