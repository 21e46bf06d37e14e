package reconcile

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/everstacklabs/modelsync/internal/adapter"
	"github.com/everstacklabs/modelsync/internal/catalog"
	"github.com/everstacklabs/modelsync/internal/family"
)

// Options are the per-provider reconciliation parameters.
type Options struct {
	Provider string
	// NonAuthoritative lists capability flags (attachment, reasoning,
	// tool_call) whose persisted value wins over the source signal.
	NonAuthoritative []string
	Families         *family.Inferencer
}

// OptionsFor derives Options from a provider profile.
func OptionsFor(p adapter.Profile) Options {
	return Options{
		Provider:         p.Name,
		NonAuthoritative: slices.Clone(p.NonAuthoritative),
		Families:         family.Default(p.Families...),
	}
}

// Reconciler merges source and persisted records. It holds no state
// between calls.
type Reconciler struct {
	opts Options
}

// New creates a Reconciler.
func New(opts Options) *Reconciler {
	if opts.Families == nil {
		opts.Families = family.Default()
	}
	return &Reconciler{opts: opts}
}

// RuleFor returns the rule applied to field under these options.
func (r *Reconciler) RuleFor(field string) Rule {
	if slices.Contains(r.opts.NonAuthoritative, field) {
		return PreserveIfPresent
	}
	return Provenance[field]
}

// Reconcile builds the merged record for src. existing may be nil. Neither
// argument is modified and the result shares no memory with them.
func (r *Reconciler) Reconcile(src *adapter.SourceRecord, existing *catalog.Model, runDate time.Time) *catalog.Model {
	day := runDate.UTC().Format(time.DateOnly)

	m := &catalog.Model{
		Provider:         r.opts.Provider,
		ID:               src.ID,
		StructuredOutput: flag(src.StructuredOutput),
		Cost:             src.Pricing.Clone(),
		LastUpdated:      day,
	}

	m.Name = src.Name
	if m.Name == "" && existing != nil {
		m.Name = existing.Name
	}
	if m.Name == "" {
		m.Name = defaultName(src.ID)
	}

	m.Attachment = r.capability("attachment", src.Attachment, existing, func(e *catalog.Model) bool { return e.Attachment })
	m.Reasoning = r.capability("reasoning", src.Reasoning, existing, func(e *catalog.Model) bool { return e.Reasoning })
	m.ToolCall = r.capability("tool_call", src.ToolCall, existing, func(e *catalog.Model) bool { return e.ToolCall })

	switch {
	case src.Temperature != nil:
		m.Temperature = catalog.Bool(*src.Temperature)
	case existing != nil && existing.Temperature != nil:
		m.Temperature = catalog.Bool(*existing.Temperature)
	}

	switch {
	case src.OpenWeights != nil:
		m.OpenWeights = *src.OpenWeights
	case existing != nil:
		m.OpenWeights = existing.OpenWeights
	}

	if existing != nil && existing.Family != "" {
		m.Family = existing.Family
	} else if fam, ok := r.opts.Families.Infer(src.ID, m.Name); ok {
		m.Family = fam
	}

	if existing != nil {
		m.Knowledge = existing.Knowledge
		m.Status = existing.Status
		if existing.Interleaved != nil {
			v := *existing.Interleaved
			m.Interleaved = &v
		}
	}

	m.Limit = limit(src.Limits, existing)
	m.Modalities = modalities(src, existing)

	m.ReleaseDate = src.SourceDate()
	if m.ReleaseDate == "" && existing != nil {
		m.ReleaseDate = existing.ReleaseDate
	}
	if m.ReleaseDate == "" {
		m.ReleaseDate = day
	}

	return m
}

// capability applies AlwaysFromSource, or PreserveIfPresent for flags the
// provider marks non-authoritative.
func (r *Reconciler) capability(field string, signal *bool, existing *catalog.Model, get func(*catalog.Model) bool) bool {
	if existing != nil && r.RuleFor(field) == PreserveIfPresent {
		return get(existing)
	}
	return flag(signal)
}

// limit keeps the tighter of the persisted and source output limits: a
// persisted output limit wins when it is non-zero and smaller, or when the
// source reports none. A zero context or input from the source keeps the
// persisted value.
func limit(src adapter.Limits, existing *catalog.Model) catalog.Limit {
	l := catalog.Limit{
		Context: src.Context,
		Input:   src.Input,
		Output:  src.Output,
	}
	if existing == nil {
		return l
	}
	if l.Context == 0 {
		l.Context = existing.Limit.Context
	}
	if l.Input == 0 {
		l.Input = existing.Limit.Input
	}
	if prev := existing.Limit.Output; prev != 0 && (l.Output == 0 || prev < l.Output) {
		l.Output = prev
	}
	return l
}

func modalities(src *adapter.SourceRecord, existing *catalog.Model) catalog.Modalities {
	pick := func(source, persisted []string) []string {
		switch {
		case len(source) > 0:
			return slices.Clone(source)
		case len(persisted) > 0:
			return slices.Clone(persisted)
		}
		return []string{"text"}
	}

	var in, out []string
	if existing != nil {
		in, out = existing.Modalities.Input, existing.Modalities.Output
	}
	return catalog.Modalities{
		Input:  pick(src.InputModalities, in),
		Output: pick(src.OutputModalities, out),
	}
}

// defaultName title-cases the final id segment: "meta/llama-3-8b" becomes
// "Llama 3 8b".
func defaultName(id string) string {
	last := id[strings.LastIndex(id, "/")+1:]
	words := strings.FieldsFunc(last, func(c rune) bool { return c == '-' || c == '_' })
	return cases.Title(language.English).String(strings.Join(words, " "))
}

func flag(b *bool) bool {
	return b != nil && *b
}
