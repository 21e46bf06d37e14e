package adapter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everstacklabs/modelsync/internal/catalog"
)

func testShape() Shape {
	return Shape{
		ListPath:     "data",
		ID:           "id",
		Name:         "name",
		Created:      "created",
		ContextLimit: "context_length",
		OutputLimit:  "top.max_output",
		Price: PriceShape{
			Input:     "pricing.prompt",
			Output:    "pricing.completion",
			Reasoning: "pricing.reasoning",
			CacheRead: "pricing.cache_read",
			Scale:     1_000_000,
		},
		Reasoning:   Signal{Path: "params", Contains: []string{"reasoning"}},
		ToolCall:    Signal{Path: "params", Contains: []string{"tools"}},
		Temperature: Signal{Path: "temperature"},
		OpenWeights: Signal{Path: "hf_id", Present: true, Default: catalog.Bool(false)},
		Modalities: ModalityShape{
			Input:  "arch.input",
			Output: "arch.output",
		},
	}
}

func TestDecode(t *testing.T) {
	body := `{"data":[
		{"id":"openai/gpt-4o","name":"GPT-4o","created":1715558400,"context_length":128000,
		 "top":{"max_output":16384},
		 "pricing":{"prompt":"0.0000025","completion":"0.00001","reasoning":"0","cache_read":"0.00000125"},
		 "params":["tools","temperature"],"temperature":true,
		 "arch":{"input":["text","image","file"],"output":["text"]}},
		{"id":"meta/llama","hf_id":"meta-llama/Llama-3","params":["Reasoning"],
		 "arch":{"input":"text+image","output":"text"}}
	]}`

	recs, err := testShape().Decode("test", []byte(body))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	gpt := recs[0]
	assert.Equal(t, "openai/gpt-4o", gpt.ID)
	assert.Equal(t, "GPT-4o", gpt.Name)
	assert.Equal(t, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC), gpt.Created)
	assert.Equal(t, "2024-05-13", gpt.SourceDate())
	assert.Equal(t, Limits{Context: 128000, Output: 16384}, gpt.Limits)
	require.NotNil(t, gpt.Pricing)
	assert.Equal(t, 2.5, gpt.Pricing.Input)
	assert.Equal(t, 10.0, gpt.Pricing.Output)
	assert.Nil(t, gpt.Pricing.Reasoning, "zero optional price is absent")
	assert.Equal(t, catalog.Price(1.25), gpt.Pricing.CacheRead)
	assert.Equal(t, catalog.Bool(false), gpt.Reasoning)
	assert.Equal(t, catalog.Bool(true), gpt.ToolCall)
	assert.Equal(t, catalog.Bool(true), gpt.Temperature)
	assert.Equal(t, catalog.Bool(false), gpt.OpenWeights)
	assert.Nil(t, gpt.Attachment)
	assert.Equal(t, []string{"text", "image", "pdf"}, gpt.InputModalities)
	assert.Equal(t, []string{"text"}, gpt.OutputModalities)
	assert.JSONEq(t, `{"id":"openai/gpt-4o","name":"GPT-4o","created":1715558400,"context_length":128000,
		 "top":{"max_output":16384},
		 "pricing":{"prompt":"0.0000025","completion":"0.00001","reasoning":"0","cache_read":"0.00000125"},
		 "params":["tools","temperature"],"temperature":true,
		 "arch":{"input":["text","image","file"],"output":["text"]}}`, string(gpt.Raw))

	llama := recs[1]
	assert.Nil(t, llama.Pricing)
	assert.Equal(t, catalog.Bool(true), llama.Reasoning)
	assert.Nil(t, llama.Temperature)
	assert.Equal(t, catalog.Bool(true), llama.OpenWeights)
	assert.Equal(t, []string{"text", "image"}, llama.InputModalities)
	assert.Empty(t, llama.SourceDate())
}

func TestDecodeTopLevelArray(t *testing.T) {
	s := Shape{ID: "slug", ReleaseDate: "released"}
	recs, err := s.Decode("test", []byte(`[{"slug":"a","released":"2025-02-03T10:00:00Z"},{"slug":"b"}]`))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "2025-02-03", recs[0].ReleaseDate)
	assert.Equal(t, "b", recs[1].ID)
}

func TestDecodeNegativePriceDropsPricing(t *testing.T) {
	recs, err := testShape().Decode("test", []byte(`{"data":[{"id":"router/auto","pricing":{"prompt":"-1","completion":"-1"}}]}`))
	require.NoError(t, err)
	assert.Nil(t, recs[0].Pricing)
}

func TestDecodeOver200KTier(t *testing.T) {
	s := Shape{
		ID: "id",
		Price: PriceShape{
			Input: "in", Output: "out", Scale: 1000,
			Over200K: &PriceShape{Input: "long.in", Output: "long.out"},
		},
	}
	recs, err := s.Decode("test", []byte(`[{"id":"g","in":0.00125,"out":0.01,"long":{"in":0.0025,"out":0.015}}]`))
	require.NoError(t, err)
	require.NotNil(t, recs[0].Pricing)
	assert.Equal(t, 1.25, recs[0].Pricing.Input)
	require.NotNil(t, recs[0].Pricing.ContextOver200K)
	assert.Equal(t, 2.5, recs[0].Pricing.ContextOver200K.Input)
	assert.Equal(t, 15.0, recs[0].Pricing.ContextOver200K.Output)
}

func TestDecodeSignalDefault(t *testing.T) {
	s := Shape{ID: "id", Temperature: Signal{Default: catalog.Bool(true)}, Reasoning: Signal{Path: "r", Default: catalog.Bool(false)}}
	recs, err := s.Decode("test", []byte(`[{"id":"a"},{"id":"b","r":true}]`))
	require.NoError(t, err)
	assert.Equal(t, catalog.Bool(true), recs[0].Temperature)
	assert.Equal(t, catalog.Bool(false), recs[0].Reasoning)
	assert.Equal(t, catalog.Bool(true), recs[1].Reasoning)
}

func TestDecodeValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		index int
		path  string
	}{
		{"not json", `{"data":[`, -1, "$"},
		{"list missing", `{"models":[]}`, -1, "data"},
		{"list not array", `{"data":{"id":"x"}}`, -1, "data"},
		{"element not object", `{"data":[{"id":"a"},"b"]}`, 1, "data[1]"},
		{"missing id", `{"data":[{"name":"x"}]}`, 0, "data[0].id"},
		{"numeric id", `{"data":[{"id":7}]}`, 0, "data[0].id"},
		{"empty id segment", `{"data":[{"id":"acme-a"},{"id":"acme//b"}]}`, 1, "data[1].id"},
		{"trailing slash id", `{"data":[{"id":"acme/"}]}`, 0, "data[0].id"},
		{"dot-dot id segment", `{"data":[{"id":"acme/../b"}]}`, 0, "data[0].id"},
		{"bad name", `{"data":[{"id":"a","name":["x"]}]}`, 0, "data[0].name"},
		{"bad price", `{"data":[{"id":"a","pricing":{"prompt":"cheap","completion":"1"}}]}`, 0, "data[0].pricing.prompt"},
		{"negative limit", `{"data":[{"id":"a","context_length":-5}]}`, 0, "data[0].context_length"},
		{"limit as object", `{"data":[{"id":"a","context_length":{}}]}`, 0, "data[0].context_length"},
		{"bad boolean", `{"data":[{"id":"a","temperature":"sometimes"}]}`, 0, "data[0].temperature"},
		{"bad signal list", `{"data":[{"id":"a","params":[1,2]}]}`, 0, "data[0].params"},
		{"bad created", `{"data":[{"id":"a","created":"yesterday"}]}`, 0, "data[0].created"},
		{"bad modalities", `{"data":[{"id":"a","arch":{"input":5}}]}`, 0, "data[0].arch.input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testShape().Decode("test", []byte(tt.body))
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %T", err)
			assert.Equal(t, "test", verr.Provider)
			assert.Equal(t, tt.index, verr.Index)
			assert.Equal(t, tt.path, verr.Path)
			if tt.index >= 0 {
				assert.NotEmpty(t, verr.Payload)
			}
		})
	}
}
