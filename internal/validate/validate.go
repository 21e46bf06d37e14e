package validate

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/everstacklabs/modelsync/internal/catalog"
)

// Severity classifies validation issues.
type Severity int

const (
	SeverityError   Severity = iota // Fails the validate command
	SeverityWarning                 // Reported but doesn't fail
)

// Issue represents a single validation problem.
type Issue struct {
	Severity Severity
	Model    string
	Field    string
	Message  string
}

func (i Issue) String() string {
	sev := "ERROR"
	if i.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s: %s", sev, i.Model, i.Field, i.Message)
}

// Result holds all validation issues.
type Result struct {
	Issues []Issue
}

// HasErrors returns true if there are any blocking errors.
func (r *Result) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only error-severity issues.
func (r *Result) Errors() []Issue {
	var errs []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			errs = append(errs, i)
		}
	}
	return errs
}

// Warnings returns only warning-severity issues.
func (r *Result) Warnings() []Issue {
	var warns []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityWarning {
			warns = append(warns, i)
		}
	}
	return warns
}

func (r *Result) add(sev Severity, model, field, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{sev, model, field, fmt.Sprintf(format, args...)})
}

// ValidateModel checks a single record against the catalog schema. ref
// names the record in issues, usually provider/id.
func ValidateModel(m *catalog.Model, ref string) *Result {
	r := &Result{}

	// Required fields
	if m.Name == "" {
		r.add(SeverityError, ref, "name", "required field is empty")
	}
	if len(m.Modalities.Input) == 0 {
		r.add(SeverityError, ref, "modalities.input", "at least one input modality required")
	}
	if len(m.Modalities.Output) == 0 {
		r.add(SeverityError, ref, "modalities.output", "at least one output modality required")
	}

	// Dates
	checkDate(r, ref, "release_date", m.ReleaseDate, true)
	checkDate(r, ref, "last_updated", m.LastUpdated, true)
	if m.Knowledge != "" {
		if _, err := time.Parse("2006-01", m.Knowledge); err != nil {
			checkDate(r, ref, "knowledge", m.Knowledge, false)
		}
	}
	if m.ReleaseDate != "" && m.LastUpdated != "" && m.LastUpdated < m.ReleaseDate {
		r.add(SeverityWarning, ref, "last_updated", "%s is before release_date %s", m.LastUpdated, m.ReleaseDate)
	}

	// Status values
	if m.Status != "" && !slices.Contains(catalog.KnownStatuses, m.Status) {
		r.add(SeverityError, ref, "status", "unknown status %q, expected one of: %s", m.Status, strings.Join(catalog.KnownStatuses, ", "))
	}

	// Interleaved
	if i := m.Interleaved; i != nil && i.Field != "" &&
		i.Field != catalog.InterleavedReasoningContent && i.Field != catalog.InterleavedReasoningDetails {
		r.add(SeverityError, ref, "interleaved.field", "unknown field %q", i.Field)
	}
	if m.Interleaved != nil && !m.Reasoning {
		r.add(SeverityWarning, ref, "interleaved", "set on a model without reasoning")
	}

	// Pricing
	if m.Cost != nil {
		checkCost(r, ref, "cost", m.Cost)
		if !m.Reasoning && m.Cost.Reasoning != nil {
			r.add(SeverityError, ref, "cost.reasoning", "reasoning price set but reasoning is false")
		}
	}

	// Limits
	l := m.Limit
	if l.Context < 0 || l.Input < 0 || l.Output < 0 {
		r.add(SeverityError, ref, "limit", "negative limit")
	}
	if l.Context > 0 && l.Output > l.Context {
		r.add(SeverityWarning, ref, "limit.output", "%d exceeds context %d", l.Output, l.Context)
	}
	if l.Context > 0 && l.Input > l.Context {
		r.add(SeverityWarning, ref, "limit.input", "%d exceeds context %d", l.Input, l.Context)
	}

	// Modality taxonomy
	checkModalities(r, ref, "modalities.input", m.Modalities.Input)
	checkModalities(r, ref, "modalities.output", m.Modalities.Output)

	return r
}

func checkDate(r *Result, ref, field, value string, required bool) {
	if value == "" {
		if required {
			r.add(SeverityError, ref, field, "required field is empty")
		}
		return
	}
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		r.add(SeverityError, ref, field, "%q is not a YYYY-MM-DD date", value)
	}
}

func checkCost(r *Result, ref, prefix string, c *catalog.Cost) {
	prices := []struct {
		field string
		v     *float64
	}{
		{"input", &c.Input},
		{"output", &c.Output},
		{"reasoning", c.Reasoning},
		{"cache_read", c.CacheRead},
		{"cache_write", c.CacheWrite},
		{"input_audio", c.InputAudio},
		{"output_audio", c.OutputAudio},
	}
	for _, p := range prices {
		if p.v != nil && *p.v < 0 {
			r.add(SeverityError, ref, prefix+"."+p.field, "negative price %g", *p.v)
		}
	}
	if c.ContextOver200K != nil {
		checkCost(r, ref, prefix+".context_over_200k", c.ContextOver200K)
	}
}

func checkModalities(r *Result, ref, field string, mods []string) {
	seen := make(map[string]bool, len(mods))
	for _, mod := range mods {
		if !slices.Contains(catalog.KnownModalities, mod) {
			r.add(SeverityError, ref, field, "unknown modality %q", mod)
		}
		if seen[mod] {
			r.add(SeverityWarning, ref, field, "duplicate modality %q", mod)
		}
		seen[mod] = true
	}
}

// ValidateCatalog validates every record in a catalog. Unreadable records
// are reported as errors.
func ValidateCatalog(cat *catalog.Catalog) *Result {
	r := &Result{}
	for _, pe := range cat.ParseErrors {
		r.add(SeverityError, pe.Path, "file", "%v", pe.Err)
	}
	for _, provider := range cat.ProviderNames() {
		for _, id := range cat.ModelIDs(provider) {
			modelResult := ValidateModel(cat.Providers[provider].Models[id], provider+"/"+id)
			r.Issues = append(r.Issues, modelResult.Issues...)
		}
	}
	return r
}

// FormatResult formats validation results for display.
func FormatResult(r *Result) string {
	if len(r.Issues) == 0 {
		return "Validation passed: no issues found."
	}

	var b strings.Builder
	errors := r.Errors()
	warnings := r.Warnings()

	if len(errors) > 0 {
		fmt.Fprintf(&b, "Errors (%d):\n", len(errors))
		for _, e := range errors {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}

	if len(warnings) > 0 {
		fmt.Fprintf(&b, "Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Fprintf(&b, "  %s\n", w)
		}
	}

	return b.String()
}
