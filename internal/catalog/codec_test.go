package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModel() *Model {
	return &Model{
		Provider:         "openai",
		ID:               "gpt-4o",
		Name:             "GPT-4o",
		Family:           "gpt-4o",
		Attachment:       true,
		Reasoning:        false,
		ToolCall:         true,
		StructuredOutput: true,
		Temperature:      Bool(true),
		Knowledge:        "2023-09",
		ReleaseDate:      "2024-05-13",
		LastUpdated:      "2024-08-06",
		OpenWeights:      false,
		Cost: &Cost{
			Input:     2.5,
			Output:    10,
			CacheRead: Price(1.25),
			ContextOver200K: &Cost{
				Input:  5,
				Output: 20,
			},
		},
		Limit:      Limit{Context: 128000, Output: 16384},
		Modalities: Modalities{Input: []string{"text", "image"}, Output: []string{"text"}},
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	m := sampleModel()
	m.Interleaved = &Interleaved{Field: InterleavedReasoningContent}
	m.Status = "beta"

	data, err := Marshal(m)
	require.NoError(t, err)

	got, err := Unmarshal(data, "gpt-4o.toml")
	require.NoError(t, err)

	// identity comes from the path, not the document
	got.Provider, got.ID = m.Provider, m.ID
	assert.Equal(t, m, got)
}

func TestMarshalDeterministic(t *testing.T) {
	a, err := Marshal(sampleModel())
	require.NoError(t, err)
	b, err := Marshal(sampleModel())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	again, err := Unmarshal(a, "x.toml")
	require.NoError(t, err)
	c, err := Marshal(again)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(c))
}

func TestMarshalSectionOrder(t *testing.T) {
	data, err := Marshal(sampleModel())
	require.NoError(t, err)
	out := string(data)

	order := []string{"name =", "family =", "attachment =", "reasoning =", "tool_call =",
		"structured_output =", "temperature =", "knowledge =", "release_date =",
		"last_updated =", "open_weights =", "[cost]", "[cost.context_over_200k]",
		"[limit]", "[modalities]"}
	last := -1
	for _, key := range order {
		idx := strings.Index(out, key)
		require.NotEqual(t, -1, idx, "missing %q in:\n%s", key, out)
		assert.Greater(t, idx, last, "%q out of order in:\n%s", key, out)
		last = idx
	}
}

func TestMarshalOmitsEmptySections(t *testing.T) {
	m := sampleModel()
	m.Cost = nil
	m.StructuredOutput = false
	m.Knowledge = ""
	m.Family = ""

	data, err := Marshal(m)
	require.NoError(t, err)
	out := string(data)

	assert.NotContains(t, out, "[cost")
	assert.NotContains(t, out, "structured_output")
	assert.NotContains(t, out, "knowledge")
	assert.NotContains(t, out, "family")
	assert.NotContains(t, out, "interleaved")
	assert.NotContains(t, out, "status")
	assert.Contains(t, out, "[limit]")
	assert.Contains(t, out, "[modalities]")
}

func TestMarshalEmptyModalitiesAsArrays(t *testing.T) {
	m := sampleModel()
	m.Modalities = Modalities{}

	data, err := Marshal(m)
	require.NoError(t, err)

	got, err := Unmarshal(data, "x.toml")
	require.NoError(t, err)
	assert.Empty(t, got.Modalities.Input)
	assert.Empty(t, got.Modalities.Output)
}

func TestUnmarshalInterleaved(t *testing.T) {
	base := "name = \"M\"\nrelease_date = \"2025-01-01\"\nlast_updated = \"2025-01-01\"\n"

	tests := []struct {
		name string
		body string
		want *Interleaved
	}{
		{"absent", "", nil},
		{"boolean true", "interleaved = true\n", &Interleaved{}},
		{"boolean false", "interleaved = false\n", nil},
		{"inline table", "interleaved = { field = \"reasoning_details\" }\n", &Interleaved{Field: InterleavedReasoningDetails}},
		{"table", "[interleaved]\nfield = \"reasoning_content\"\n", &Interleaved{Field: InterleavedReasoningContent}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Unmarshal([]byte(base+tt.body), "m.toml")
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Interleaved)
		})
	}
}

func TestMarshalInterleavedBoolean(t *testing.T) {
	m := sampleModel()
	m.Interleaved = &Interleaved{}

	data, err := Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), "interleaved = true")
}

func TestUnmarshalParseError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "name = \n"},
		{"wrong type", "name = 5\n"},
		{"bad interleaved", "interleaved = \"yes\"\n"},
		{"interleaved table without field", "[interleaved]\nother = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.body), "broken.toml")
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "broken.toml", perr.Path)
			assert.Contains(t, err.Error(), "broken.toml")
		})
	}
}
