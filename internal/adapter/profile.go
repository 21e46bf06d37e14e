package adapter

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/modelsync/internal/filter"
)

// OrphanPolicy decides what happens to persisted records the provider no
// longer lists.
type OrphanPolicy string

const (
	OrphanWarn   OrphanPolicy = "warn"
	OrphanDelete OrphanPolicy = "delete"
)

// Flags that a profile may mark as non-authoritative.
const (
	FlagAttachment = "attachment"
	FlagReasoning  = "reasoning"
	FlagToolCall   = "tool_call"
)

// Profile holds everything that varies per provider. It is built once and
// shared read-only.
type Profile struct {
	Name     string            `yaml:"name"`
	Endpoint string            `yaml:"endpoint"` // $VARS are expanded from the environment
	AuthEnv  string            `yaml:"auth_env"`
	Headers  map[string]string `yaml:"headers"`

	Shape  Shape        `yaml:"shape"`
	Filter filter.Rules `yaml:"filter"`

	// Families extends the default family candidates.
	Families []string `yaml:"families"`
	// NonAuthoritative lists capability flags whose persisted value wins
	// over the source signal.
	NonAuthoritative []string `yaml:"non_authoritative"`

	OrphanPolicy   OrphanPolicy   `yaml:"orphan_policy"`
	CrossReference CrossReference `yaml:"cross_reference"`

	// MinExpectedModels rejects payloads with fewer records. A result below
	// this threshold signals a partial upstream response.
	MinExpectedModels int `yaml:"min_expected_models"`
}

// CrossReference maps leading id namespaces to canonical providers whose
// persisted records are reused verbatim.
type CrossReference struct {
	Namespaces map[string]string `yaml:"namespaces"` // leading segment -> provider
	Aliases    map[string]string `yaml:"aliases"`    // normalized id -> canonical id
}

// Lookup is a candidate canonical record for a cross-referenced id.
type Lookup struct {
	Provider string
	IDs      []string // tried in order
}

// Resolve maps a source id to the canonical provider and the ids to try in
// its store. ok is false when the leading namespace is not cross-referenced.
func (c CrossReference) Resolve(id string) (Lookup, bool) {
	ns, rest, found := strings.Cut(id, "/")
	if !found || rest == "" {
		return Lookup{}, false
	}
	provider, ok := c.Namespaces[strings.ToLower(ns)]
	if !ok {
		return Lookup{}, false
	}

	norm := NormalizeID(rest)
	primary := norm
	if alias, ok := c.Aliases[norm]; ok {
		primary = alias
	}

	ids := []string{primary}
	if raw := strings.ToLower(rest); raw != primary {
		ids = append(ids, raw)
	}
	return Lookup{Provider: provider, IDs: ids}, true
}

// NormalizeID lowercases id and folds '.', '_' and spaces to '-'.
func NormalizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '_', ' ':
			return '-'
		}
		return r
	}, strings.ToLower(strings.TrimSpace(id)))
}

// EffectiveOrphanPolicy returns the policy, defaulting to warn.
func (p Profile) EffectiveOrphanPolicy() OrphanPolicy {
	if p.OrphanPolicy == "" {
		return OrphanWarn
	}
	return p.OrphanPolicy
}

// IsNonAuthoritative reports whether flag is listed as non-authoritative.
func (p Profile) IsNonAuthoritative(flag string) bool {
	return slices.Contains(p.NonAuthoritative, flag)
}

// Validate checks that the profile can drive a fetch.
func (p Profile) Validate() error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, errors.New("name is empty"))
	}
	if p.Endpoint == "" {
		errs = append(errs, errors.New("endpoint is empty"))
	}
	if p.Shape.ID == "" {
		errs = append(errs, errors.New("shape.id is empty"))
	}
	switch p.OrphanPolicy {
	case "", OrphanWarn, OrphanDelete:
	default:
		errs = append(errs, fmt.Errorf("unknown orphan_policy %q", p.OrphanPolicy))
	}
	for _, f := range p.NonAuthoritative {
		switch f {
		case FlagAttachment, FlagReasoning, FlagToolCall:
		default:
			errs = append(errs, fmt.Errorf("non_authoritative: unknown flag %q", f))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return nil
}

// Clone returns a deep copy of p so overrides cannot leak into a shared
// profile.
func (p Profile) Clone() Profile {
	c := p
	c.Headers = maps.Clone(p.Headers)
	c.Families = slices.Clone(p.Families)
	c.NonAuthoritative = slices.Clone(p.NonAuthoritative)
	c.CrossReference = CrossReference{
		Namespaces: maps.Clone(p.CrossReference.Namespaces),
		Aliases:    maps.Clone(p.CrossReference.Aliases),
	}
	c.Filter = filter.Rules{
		SkipSubstrings: slices.Clone(p.Filter.SkipSubstrings),
		SkipNamespaces: slices.Clone(p.Filter.SkipNamespaces),
		IncludeAll:     slices.Clone(p.Filter.IncludeAll),
		Allow:          slices.Clone(p.Filter.Allow),
	}
	for _, sig := range []*Signal{
		&c.Shape.Attachment, &c.Shape.Reasoning, &c.Shape.ToolCall,
		&c.Shape.StructuredOutput, &c.Shape.Temperature, &c.Shape.OpenWeights,
	} {
		*sig = sig.clone()
	}
	if p.Shape.Modalities.InputSignals != nil {
		c.Shape.Modalities.InputSignals = make(map[string]Signal, len(p.Shape.Modalities.InputSignals))
		for k, sig := range p.Shape.Modalities.InputSignals {
			c.Shape.Modalities.InputSignals[k] = sig.clone()
		}
	}
	if p.Shape.Price.Over200K != nil {
		tier := *p.Shape.Price.Over200K
		c.Shape.Price.Over200K = &tier
	}
	return c
}

func (sig Signal) clone() Signal {
	sig.Contains = slices.Clone(sig.Contains)
	if sig.Default != nil {
		v := *sig.Default
		sig.Default = &v
	}
	return sig
}

// profilesFile is the layout of the profile overrides file.
type profilesFile struct {
	Providers map[string]yaml.Node `yaml:"providers"`
}

// LoadProfiles reads provider profile overrides from a YAML file. Entries
// naming a provider in base are decoded on top of a copy of its profile, so
// only the keys present in the file change; other entries declare new
// providers and must be complete.
func LoadProfiles(path string, base map[string]Profile) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profiles: %w", err)
	}

	var file profilesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing profiles %s: %w", path, err)
	}

	names := slices.Sorted(maps.Keys(file.Providers))
	profiles := make([]Profile, 0, len(names))
	for _, name := range names {
		node := file.Providers[name]

		p := Profile{Name: name}
		if b, ok := base[name]; ok {
			p = b.Clone()
		}
		if err := node.Decode(&p); err != nil {
			return nil, fmt.Errorf("parsing profile %s: %w", name, err)
		}
		p.Name = name

		if err := p.Validate(); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
