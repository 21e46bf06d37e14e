// Package filter decides which provider model ids belong in the catalog.
package filter

import (
	"strings"
)

// Decision is the outcome of classifying a model id.
type Decision int

const (
	Excluded Decision = iota
	Included
)

func (d Decision) String() string {
	if d == Included {
		return "included"
	}
	return "excluded"
}

// Reason names the rule that produced a Decision.
type Reason string

const (
	ReasonSkipSubstring Reason = "skip_substring"
	ReasonSkipNamespace Reason = "skip_namespace"
	ReasonIncludeAll    Reason = "include_all"
	ReasonAllowPattern  Reason = "allow_pattern"
	ReasonNoMatch       Reason = "no_match"
)

// IncludeAll admits every id whose leading segment equals Segment.
// When RequireSegment is set, the id must also contain that segment
// somewhere after the leading one (e.g. "workers-ai" requiring "@cf").
type IncludeAll struct {
	Segment        string `yaml:"segment"`
	RequireSegment string `yaml:"require_segment,omitempty"`
}

// Rules holds a provider's inclusion configuration.
type Rules struct {
	SkipSubstrings []string     `yaml:"skip_substrings,omitempty"`
	SkipNamespaces []string     `yaml:"skip_namespaces,omitempty"`
	IncludeAll     []IncludeAll `yaml:"include_all,omitempty"`
	Allow          []string     `yaml:"allow,omitempty"`
}

// Result is a classification with the rule that decided it.
type Result struct {
	Decision Decision
	Reason   Reason
	Rule     string
}

// Filter classifies model ids. It is immutable after New and safe to share.
type Filter struct {
	skipSubstrings []string
	skipNamespaces []string
	includeAll     []IncludeAll
	allow          []string
}

// New builds a Filter from rules. All entries are lowercased once here.
func New(r Rules) *Filter {
	f := &Filter{
		skipSubstrings: lowerAll(r.SkipSubstrings),
		skipNamespaces: lowerAll(r.SkipNamespaces),
		allow:          lowerAll(r.Allow),
	}
	for _, ia := range r.IncludeAll {
		f.includeAll = append(f.includeAll, IncludeAll{
			Segment:        strings.ToLower(strings.Trim(ia.Segment, "/")),
			RequireSegment: strings.ToLower(strings.Trim(ia.RequireSegment, "/")),
		})
	}
	return f
}

// Classify reports whether id is represented in the catalog.
// Skip rules are evaluated before any allow rule.
func (f *Filter) Classify(id string) Result {
	lid := strings.ToLower(id)

	for _, s := range f.skipSubstrings {
		if s != "" && strings.Contains(lid, s) {
			return Result{Excluded, ReasonSkipSubstring, s}
		}
	}

	for _, ns := range f.skipNamespaces {
		if underNamespace(lid, ns) {
			return Result{Excluded, ReasonSkipNamespace, ns}
		}
	}

	segments := strings.Split(lid, "/")
	for _, ia := range f.includeAll {
		if segments[0] != ia.Segment {
			continue
		}
		if ia.RequireSegment == "" || containsSegment(segments[1:], ia.RequireSegment) {
			return Result{Included, ReasonIncludeAll, ia.Segment}
		}
	}

	for _, p := range f.allow {
		if matchAllow(lid, segments, p) {
			return Result{Included, ReasonAllowPattern, p}
		}
	}

	return Result{Excluded, ReasonNoMatch, ""}
}

// Included is shorthand for Classify(id).Decision == Included.
func (f *Filter) Included(id string) bool {
	return f.Classify(id).Decision == Included
}

func underNamespace(id, ns string) bool {
	ns = strings.TrimSuffix(ns, "/")
	if ns == "" {
		return false
	}
	return id == ns || strings.HasPrefix(id, ns+"/")
}

func containsSegment(segments []string, want string) bool {
	for _, s := range segments {
		if s == want {
			return true
		}
	}
	return false
}

// matchAllow implements the three allow-pattern forms:
//
//	"x/*"   first segment is exactly x and something follows
//	"foo*"  prefix of the whole id or of the final segment
//	"foo"   the whole id or the final segment equals foo
func matchAllow(id string, segments []string, pattern string) bool {
	last := segments[len(segments)-1]

	if head, ok := strings.CutSuffix(pattern, "/*"); ok {
		return len(segments) > 1 && segments[0] == head && len(id) > len(head)+1
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(id, prefix) || strings.HasPrefix(last, prefix)
	}
	return id == pattern || last == pattern
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}
