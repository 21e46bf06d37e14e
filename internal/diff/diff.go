package diff

import (
	"math"
	"slices"
	"sort"

	"github.com/everstacklabs/modelsync/internal/catalog"
)

// CostEpsilon is the tolerance for price comparisons.
const CostEpsilon = 1e-9

// Compare lists the fields that differ between a persisted record and its
// merged replacement, in serialized field order. A nil existing record
// yields no changes: the record is new.
//
// last_updated is never reported, nor is any limit transition to or from
// zero. Prices compare within CostEpsilon.
func Compare(existing, merged *catalog.Model) []catalog.FieldChange {
	if existing == nil || merged == nil {
		return nil
	}

	var changes []catalog.FieldChange
	add := func(field string, old, new any) {
		changes = append(changes, catalog.FieldChange{Field: field, OldValue: old, NewValue: new})
	}

	if existing.Name != merged.Name {
		add("name", existing.Name, merged.Name)
	}
	if existing.Family != merged.Family {
		add("family", existing.Family, merged.Family)
	}
	if existing.Attachment != merged.Attachment {
		add("attachment", existing.Attachment, merged.Attachment)
	}
	if existing.Reasoning != merged.Reasoning {
		add("reasoning", existing.Reasoning, merged.Reasoning)
	}
	if existing.ToolCall != merged.ToolCall {
		add("tool_call", existing.ToolCall, merged.ToolCall)
	}
	if existing.StructuredOutput != merged.StructuredOutput {
		add("structured_output", existing.StructuredOutput, merged.StructuredOutput)
	}
	if !equalBoolPtr(existing.Temperature, merged.Temperature) {
		add("temperature", boolValue(existing.Temperature), boolValue(merged.Temperature))
	}
	if existing.Knowledge != merged.Knowledge {
		add("knowledge", existing.Knowledge, merged.Knowledge)
	}
	if existing.ReleaseDate != merged.ReleaseDate {
		add("release_date", existing.ReleaseDate, merged.ReleaseDate)
	}
	if existing.OpenWeights != merged.OpenWeights {
		add("open_weights", existing.OpenWeights, merged.OpenWeights)
	}
	if existing.Status != merged.Status {
		add("status", existing.Status, merged.Status)
	}
	if !equalInterleaved(existing.Interleaved, merged.Interleaved) {
		add("interleaved", interleavedValue(existing.Interleaved), interleavedValue(merged.Interleaved))
	}

	changes = compareCost("cost", existing.Cost, merged.Cost, changes)

	for _, l := range []struct {
		field    string
		old, new int64
	}{
		{"limit.context", existing.Limit.Context, merged.Limit.Context},
		{"limit.input", existing.Limit.Input, merged.Limit.Input},
		{"limit.output", existing.Limit.Output, merged.Limit.Output},
	} {
		if l.old != l.new && l.old != 0 && l.new != 0 {
			add(l.field, l.old, l.new)
		}
	}

	if !equalStrings(existing.Modalities.Input, merged.Modalities.Input) {
		add("modalities.input", existing.Modalities.Input, merged.Modalities.Input)
	}
	if !equalStrings(existing.Modalities.Output, merged.Modalities.Output) {
		add("modalities.output", existing.Modalities.Output, merged.Modalities.Output)
	}

	return changes
}

func compareCost(prefix string, old, new *catalog.Cost, changes []catalog.FieldChange) []catalog.FieldChange {
	switch {
	case old == nil && new == nil:
		return changes
	case old == nil || new == nil:
		return append(changes, catalog.FieldChange{Field: prefix, OldValue: costValue(old), NewValue: costValue(new)})
	}

	if !equalPrice(old.Input, new.Input) {
		changes = append(changes, catalog.FieldChange{Field: prefix + ".input", OldValue: old.Input, NewValue: new.Input})
	}
	if !equalPrice(old.Output, new.Output) {
		changes = append(changes, catalog.FieldChange{Field: prefix + ".output", OldValue: old.Output, NewValue: new.Output})
	}
	for _, p := range []struct {
		field    string
		old, new *float64
	}{
		{"reasoning", old.Reasoning, new.Reasoning},
		{"cache_read", old.CacheRead, new.CacheRead},
		{"cache_write", old.CacheWrite, new.CacheWrite},
		{"input_audio", old.InputAudio, new.InputAudio},
		{"output_audio", old.OutputAudio, new.OutputAudio},
	} {
		if !equalOptionalPrice(p.old, p.new) {
			changes = append(changes, catalog.FieldChange{Field: prefix + "." + p.field, OldValue: priceValue(p.old), NewValue: priceValue(p.new)})
		}
	}
	return compareCost(prefix+".context_over_200k", old.ContextOver200K, new.ContextOver200K, changes)
}

// Orphans returns the persisted ids absent from processed, sorted.
func Orphans(existingIDs []string, processed map[string]bool) []string {
	var orphans []string
	for _, id := range existingIDs {
		if !processed[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)
	return orphans
}

// DetectRenames pairs orphaned records with newly created ones that share a
// family and have a context window within 10% of each other.
func DetectRenames(created, orphaned []*catalog.Model) []RenamePair {
	var renames []RenamePair

	for _, newM := range created {
		for _, oldM := range orphaned {
			if newM.Family != oldM.Family || newM.Family == "" {
				continue
			}

			if oldM.Limit.Context > 0 && newM.Limit.Context > 0 {
				ratio := float64(newM.Limit.Context) / float64(oldM.Limit.Context)
				if math.Abs(ratio-1.0) > 0.1 {
					continue
				}
			}

			if oldM.Cost != nil && newM.Cost != nil && oldM.Cost.Input > 0 {
				ratio := newM.Cost.Input / oldM.Cost.Input
				if math.Abs(ratio-1.0) > 0.2 {
					continue
				}
			}

			renames = append(renames, RenamePair{
				OldID:  oldM.ID,
				NewID:  newM.ID,
				Reason: "same family, similar context/cost",
			})
		}
	}

	return renames
}

func equalPrice(a, b float64) bool {
	return math.Abs(a-b) <= CostEpsilon
}

func equalOptionalPrice(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return equalPrice(*a, *b)
}

func equalBoolPtr(a, b *bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalInterleaved(a, b *catalog.Interleaved) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// equalStrings treats nil and empty as equal; order matters because it is
// serialized.
func equalStrings(a, b []string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return slices.Equal(a, b)
}

func boolValue(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

func priceValue(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func costValue(c *catalog.Cost) any {
	if c == nil {
		return nil
	}
	return *c
}

func interleavedValue(i *catalog.Interleaved) any {
	switch {
	case i == nil:
		return nil
	case i.Field == "":
		return true
	}
	return i.Field
}
