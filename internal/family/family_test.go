package family

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferPrefersLongerCandidate(t *testing.T) {
	in := New("claude", "claude-opus")

	got, ok := in.Infer("claude-opus-4-6", "Claude Opus 4.6")
	assert.True(t, ok)
	assert.Equal(t, "claude-opus", got)
}

func TestInferTiers(t *testing.T) {
	tests := []struct {
		name        string
		candidates  []string
		id          string
		displayName string
		want        string
		ok          bool
	}{
		{"substring of id", []string{"gpt", "gpt-4.1"}, "gpt-4-1-mini", "", "gpt", true},
		{"substring of display name", []string{"sonar"}, "pplx-70b", "Perplexity sonar Large", "sonar", true},
		{"id substring beats name substring", []string{"llama", "sonar"}, "llama-3-70b", "sonar", "llama", true},
		{"subsequence of id", []string{"qwen3-coder"}, "Qwen3-30B-Coder", "", "qwen3-coder", true},
		{"subsequence of display name", []string{"sonar-pro"}, "pplx-1", "Sonar-Large Pro", "sonar-pro", true},
		{"name substring beats id subsequence", []string{"qwen3-coder", "kimi"}, "qwen3-30b-coder", "kimi", "kimi", true},
		{"no match", []string{"claude"}, "gpt-5", "GPT-5", "", false},
		{"empty display name ignored", []string{"x"}, "abc", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := New(tt.candidates...).Infer(tt.id, tt.displayName)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCandidatesOrdering(t *testing.T) {
	in := New("a", "ccc", "bb", "dd", "bb", "")
	assert.Equal(t, []string{"ccc", "bb", "dd", "a"}, in.Candidates())
}

func TestDefaultCandidates(t *testing.T) {
	in := Default("acme-ultra")

	tests := []struct {
		id, name, want string
	}{
		{"claude-opus-4-6", "Claude Opus 4.6", "claude-opus"},
		{"gpt-4o-mini", "GPT-4o mini", "gpt-4o"},
		{"o3-mini", "o3-mini", "o3"},
		{"acme-ultra-2", "", "acme-ultra"},
	}
	for _, tt := range tests {
		got, ok := in.Infer(tt.id, tt.name)
		assert.True(t, ok, tt.id)
		assert.Equal(t, tt.want, got, tt.id)
	}
}

func TestIsSubsequence(t *testing.T) {
	assert.True(t, isSubsequence("gpt4", "GPT-4"))
	assert.True(t, isSubsequence("abc", "a-b-c"))
	assert.False(t, isSubsequence("abc", "acb"))
	assert.False(t, isSubsequence("", "abc"))
}
