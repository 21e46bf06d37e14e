// Package reconcile merges a freshly fetched source record with the
// persisted record for the same model.
package reconcile

// Rule says where a merged field's value comes from.
type Rule int

const (
	// AlwaysFromSource recomputes the field from the source every run.
	AlwaysFromSource Rule = iota
	// PreserveIfPresent keeps the persisted value whenever a persisted
	// record exists.
	PreserveIfPresent
	// SourceWithExistingFallback takes the source value, or the persisted
	// one when the source has none. Fields with a computed default (name,
	// release_date, modalities) use it when neither side has a value.
	SourceWithExistingFallback
	// InferredWithOverride keeps a persisted value, else infers one.
	InferredWithOverride
	// ComputedDefault derives the value when neither side has one.
	ComputedDefault
	// KeepTighter takes the smaller non-zero of the source and persisted
	// values.
	KeepTighter
)

func (r Rule) String() string {
	switch r {
	case AlwaysFromSource:
		return "always_from_source"
	case PreserveIfPresent:
		return "preserve_if_present"
	case SourceWithExistingFallback:
		return "source_with_existing_fallback"
	case InferredWithOverride:
		return "inferred_with_override"
	case ComputedDefault:
		return "computed_default"
	case KeepTighter:
		return "keep_tighter"
	}
	return "unknown"
}

// Fields lists record fields in serialized order.
var Fields = []string{
	"name", "family", "attachment", "reasoning", "tool_call",
	"structured_output", "temperature", "knowledge", "release_date",
	"last_updated", "open_weights", "status", "interleaved",
	"cost", "limit.context", "limit.input", "limit.output", "modalities",
}

// Provenance is the default rule for every field. Capability flags listed
// as non-authoritative in Options switch to PreserveIfPresent.
var Provenance = map[string]Rule{
	"name":              SourceWithExistingFallback,
	"family":            InferredWithOverride,
	"attachment":        AlwaysFromSource,
	"reasoning":         AlwaysFromSource,
	"tool_call":         AlwaysFromSource,
	"structured_output": AlwaysFromSource,
	"temperature":       SourceWithExistingFallback,
	"knowledge":         PreserveIfPresent,
	"release_date":      SourceWithExistingFallback,
	"last_updated":      ComputedDefault,
	"open_weights":      SourceWithExistingFallback,
	"status":            PreserveIfPresent,
	"interleaved":       PreserveIfPresent,
	"cost":              AlwaysFromSource,
	"limit.context":     SourceWithExistingFallback,
	"limit.input":       SourceWithExistingFallback,
	"limit.output":      KeepTighter,
	"modalities":        SourceWithExistingFallback,
}
