// Package family infers a coarse grouping tag for a model from its id and
// display name.
package family

import (
	"sort"
	"strings"
)

// DefaultCandidates is the built-in list of family tags.
var DefaultCandidates = []string{
	"claude", "claude-opus", "claude-sonnet", "claude-haiku",
	"gpt", "gpt-4", "gpt-4o", "gpt-4.1", "gpt-5", "gpt-oss", "gpt-codex",
	"o1", "o3", "o4",
	"gemini", "gemini-pro", "gemini-flash", "gemini-flash-lite", "gemma",
	"llama", "llama-3", "llama-4",
	"mistral", "mistral-large", "mistral-medium", "mistral-small", "ministral",
	"codestral", "devstral", "magistral", "pixtral", "mixtral",
	"qwen", "qwen3", "qwen3-coder", "qwq",
	"deepseek", "deepseek-thinking",
	"grok", "grok-code",
	"kimi", "kimi-k2", "glm", "minimax", "nova", "command", "command-r",
	"sonar", "sonar-pro", "sonar-reasoning", "phi", "granite", "nemotron",
	"whisper", "text-embedding", "dall-e",
}

// Inferencer matches ids against an ordered candidate list.
type Inferencer struct {
	candidates []string
}

// New builds an Inferencer. Candidates are deduplicated and ordered by
// descending length so specific tags are tested before the generic prefixes
// they contain; equal lengths are ordered lexicographically.
func New(candidates ...string) *Inferencer {
	seen := make(map[string]bool, len(candidates))
	var cs []string
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		cs = append(cs, c)
	}
	sort.Slice(cs, func(i, j int) bool {
		if len(cs[i]) != len(cs[j]) {
			return len(cs[i]) > len(cs[j])
		}
		return cs[i] < cs[j]
	})
	return &Inferencer{candidates: cs}
}

// Default returns an Inferencer over DefaultCandidates plus extra.
func Default(extra ...string) *Inferencer {
	all := make([]string, 0, len(DefaultCandidates)+len(extra))
	all = append(all, DefaultCandidates...)
	all = append(all, extra...)
	return New(all...)
}

// Candidates returns the ordered candidate list.
func (in *Inferencer) Candidates() []string {
	out := make([]string, len(in.candidates))
	copy(out, in.candidates)
	return out
}

// Infer returns the family for a model. Every candidate is tried against a
// tier before any candidate is tried against the next one:
//
//  1. substring of id
//  2. substring of displayName
//  3. case-insensitive subsequence of id
//  4. case-insensitive subsequence of displayName
func (in *Inferencer) Infer(id, displayName string) (string, bool) {
	tiers := []func(candidate string) bool{
		func(c string) bool { return strings.Contains(id, c) },
		func(c string) bool { return displayName != "" && strings.Contains(displayName, c) },
		func(c string) bool { return isSubsequence(c, id) },
		func(c string) bool { return displayName != "" && isSubsequence(c, displayName) },
	}

	for _, match := range tiers {
		for _, c := range in.candidates {
			if match(c) {
				return c, true
			}
		}
	}
	return "", false
}

// isSubsequence reports whether every character of needle appears in
// haystack in order, ignoring case.
func isSubsequence(needle, haystack string) bool {
	n := []rune(strings.ToLower(needle))
	if len(n) == 0 {
		return false
	}
	i := 0
	for _, r := range strings.ToLower(haystack) {
		if r == n[i] {
			i++
			if i == len(n) {
				return true
			}
		}
	}
	return false
}
