// Package cloudflare registers the Cloudflare AI Gateway model list.
package cloudflare

import (
	"github.com/everstacklabs/modelsync/internal/adapter"
	"github.com/everstacklabs/modelsync/internal/catalog"
	"github.com/everstacklabs/modelsync/internal/filter"
)

func init() {
	adapter.Register(adapter.New(Profile()))
}

// Profile returns the built-in Cloudflare AI Gateway profile.
//
// Workers AI models live under "workers-ai/@cf/..." and are reconciled
// normally. Models proxied from other providers ("openai/gpt-4o") reuse the
// canonical provider's record. The gateway list is authoritative, so
// orphans are deleted.
func Profile() adapter.Profile {
	return adapter.Profile{
		Name:     "cloudflare-ai-gateway",
		Endpoint: "https://api.cloudflare.com/client/v4/accounts/${CLOUDFLARE_ACCOUNT_ID}/ai-gateway/models",
		AuthEnv:  "CLOUDFLARE_API_TOKEN",
		Shape: adapter.Shape{
			ListPath:     "result",
			ID:           "id",
			Name:         "name",
			Created:      "created_at",
			ContextLimit: "properties.context_window",
			OutputLimit:  "properties.max_output_tokens",
			Price: adapter.PriceShape{
				Input:  "pricing.input",
				Output: "pricing.output",
			},
			Attachment:  adapter.Signal{Path: "properties.vision", Default: catalog.Bool(false)},
			Reasoning:   adapter.Signal{Path: "properties.reasoning", Default: catalog.Bool(false)},
			ToolCall:    adapter.Signal{Path: "properties.function_calling", Default: catalog.Bool(false)},
			Temperature: adapter.Signal{Default: catalog.Bool(true)},
			OpenWeights: adapter.Signal{Path: "properties.open_weights", Default: catalog.Bool(false)},
			Modalities: adapter.ModalityShape{
				Input:  "properties.input_modalities",
				Output: "properties.output_modalities",
			},
		},
		Filter: filter.Rules{
			SkipSubstrings: []string{"whisper", "embedding", "bge-", "tts", "stable-diffusion", "flux", "melotts", "resnet", "detr"},
			IncludeAll: []filter.IncludeAll{
				{Segment: "workers-ai", RequireSegment: "@cf"},
			},
			Allow: []string{"openai/*", "anthropic/*", "google-ai-studio/*", "mistral/*", "groq/*", "deepseek/*", "grok/*"},
		},
		CrossReference: adapter.CrossReference{
			Namespaces: map[string]string{
				"openai":           "openai",
				"anthropic":        "anthropic",
				"google-ai-studio": "google",
				"mistral":          "mistral",
				"groq":             "groq",
				"deepseek":         "deepseek",
				"grok":             "xai",
			},
			Aliases: map[string]string{
				"gpt-4-1":           "gpt-4.1",
				"gpt-4-1-mini":      "gpt-4.1-mini",
				"gpt-4-1-nano":      "gpt-4.1-nano",
				"gemini-2-5-pro":    "gemini-2.5-pro",
				"gemini-2-5-flash":  "gemini-2.5-flash",
				"claude-3-5-sonnet": "claude-3-5-sonnet-20241022",
			},
		},
		OrphanPolicy:      adapter.OrphanDelete,
		MinExpectedModels: 10,
	}
}
