package adapter

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/everstacklabs/modelsync/internal/catalog"
)

// Shape maps a provider's JSON payload onto SourceRecord. Every path is a
// gjson path relative to one list element, except ListPath which is relative
// to the payload root. Empty paths are skipped.
type Shape struct {
	ListPath    string `yaml:"list_path"` // empty for a top-level array
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Created     string `yaml:"created"`
	ReleaseDate string `yaml:"release_date"`

	ContextLimit string `yaml:"context_limit"`
	InputLimit   string `yaml:"input_limit"`
	OutputLimit  string `yaml:"output_limit"`

	Price PriceShape `yaml:"price"`

	Attachment       Signal `yaml:"attachment"`
	Reasoning        Signal `yaml:"reasoning"`
	ToolCall         Signal `yaml:"tool_call"`
	StructuredOutput Signal `yaml:"structured_output"`
	Temperature      Signal `yaml:"temperature"`
	OpenWeights      Signal `yaml:"open_weights"`

	Modalities ModalityShape `yaml:"modalities"`
}

// PriceShape locates prices. Raw values are multiplied by Scale to get USD
// per million tokens; a zero Scale means the values already are.
type PriceShape struct {
	Input       string  `yaml:"input"`
	Output      string  `yaml:"output"`
	Reasoning   string  `yaml:"reasoning"`
	CacheRead   string  `yaml:"cache_read"`
	CacheWrite  string  `yaml:"cache_write"`
	InputAudio  string  `yaml:"input_audio"`
	OutputAudio string  `yaml:"output_audio"`
	Scale       float64 `yaml:"scale"`

	// Over200K prices the long-context tier. Its Scale defaults to the
	// parent's.
	Over200K *PriceShape `yaml:"context_over_200k"`
}

// Signal derives a tri-state capability flag.
//
// With Contains set, the value at Path (a string or an array of strings) is
// true when any entry equals one of Contains, ignoring case. With Present
// set, any non-empty value is true. Otherwise the value must be a boolean.
// Default applies when Path is empty or missing from the element.
type Signal struct {
	Path     string   `yaml:"path"`
	Contains []string `yaml:"contains"`
	Present  bool     `yaml:"present"`
	Default  *bool    `yaml:"default"`
}

// ModalityShape locates input/output modality lists. InputSignals add a
// modality to the input list when their signal is true.
type ModalityShape struct {
	Input        string            `yaml:"input"`
	Output       string            `yaml:"output"`
	InputSignals map[string]Signal `yaml:"input_signals"`
}

// priceRound is the precision prices are rounded to after scaling.
const priceRound = 1e8

// fieldError is a shape mismatch inside one element.
type fieldError struct {
	path   string
	reason string
}

// Decode validates body element by element and projects it onto source
// records. The first mismatch aborts with a *ValidationError.
func (s Shape) Decode(provider string, body []byte) ([]SourceRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, &ValidationError{Provider: provider, Index: -1, Path: "$", Reason: "payload is not valid JSON", Payload: truncate(string(body))}
	}
	if s.ID == "" {
		return nil, &ValidationError{Provider: provider, Index: -1, Path: "$", Reason: "shape has no id path"}
	}

	list := gjson.ParseBytes(body)
	listPath := "$"
	if s.ListPath != "" {
		list = list.Get(s.ListPath)
		listPath = s.ListPath
	}
	if !list.IsArray() {
		return nil, &ValidationError{Provider: provider, Index: -1, Path: listPath, Reason: "expected an array of models", Payload: truncate(list.Raw)}
	}

	elems := list.Array()
	records := make([]SourceRecord, 0, len(elems))
	for i, elem := range elems {
		rec, ferr := s.record(elem)
		if ferr != nil {
			p := fmt.Sprintf("%s[%d]", listPath, i)
			if ferr.path != "" {
				p += "." + ferr.path
			}
			return nil, &ValidationError{Provider: provider, Index: i, Path: p, Reason: ferr.reason, Payload: elem.Raw}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s Shape) record(elem gjson.Result) (SourceRecord, *fieldError) {
	var rec SourceRecord
	if !elem.IsObject() {
		return rec, &fieldError{reason: "element is not an object"}
	}
	rec.Raw = []byte(elem.Raw)

	id := elem.Get(s.ID)
	if id.Type != gjson.String || strings.TrimSpace(id.Str) == "" {
		return rec, &fieldError{path: s.ID, reason: "id must be a non-empty string"}
	}
	rec.ID = strings.TrimSpace(id.Str)
	if err := catalog.ValidateID(rec.ID); err != nil {
		return rec, &fieldError{path: s.ID, reason: "id has an invalid path segment"}
	}

	if s.Name != "" {
		name := elem.Get(s.Name)
		switch name.Type {
		case gjson.Null:
		case gjson.String:
			rec.Name = strings.TrimSpace(name.Str)
		default:
			return rec, &fieldError{path: s.Name, reason: "name must be a string"}
		}
	}

	var ferr *fieldError
	if rec.Created, ferr = timestamp(elem, s.Created); ferr != nil {
		return rec, ferr
	}
	if s.ReleaseDate != "" {
		t, ferr := timestamp(elem, s.ReleaseDate)
		if ferr != nil {
			return rec, ferr
		}
		if !t.IsZero() {
			rec.ReleaseDate = t.Format(time.DateOnly)
		}
	}

	for _, l := range []struct {
		path string
		dst  *int64
	}{
		{s.ContextLimit, &rec.Limits.Context},
		{s.InputLimit, &rec.Limits.Input},
		{s.OutputLimit, &rec.Limits.Output},
	} {
		v, ok, ferr := number(elem, l.path)
		if ferr != nil {
			return rec, ferr
		}
		if !ok {
			continue
		}
		if v < 0 || v > math.MaxInt64 {
			return rec, &fieldError{path: l.path, reason: "limit out of range"}
		}
		*l.dst = int64(v)
	}

	if rec.Pricing, ferr = s.Price.decode(elem, 0); ferr != nil {
		return rec, ferr
	}

	for _, sig := range []struct {
		signal Signal
		dst    **bool
	}{
		{s.Attachment, &rec.Attachment},
		{s.Reasoning, &rec.Reasoning},
		{s.ToolCall, &rec.ToolCall},
		{s.StructuredOutput, &rec.StructuredOutput},
		{s.Temperature, &rec.Temperature},
		{s.OpenWeights, &rec.OpenWeights},
	} {
		v, ferr := sig.signal.eval(elem)
		if ferr != nil {
			return rec, ferr
		}
		*sig.dst = v
	}

	if rec.InputModalities, ferr = modalities(elem, s.Modalities.Input); ferr != nil {
		return rec, ferr
	}
	if rec.OutputModalities, ferr = modalities(elem, s.Modalities.Output); ferr != nil {
		return rec, ferr
	}
	for _, m := range catalog.KnownModalities {
		sig, ok := s.Modalities.InputSignals[m]
		if !ok {
			continue
		}
		v, ferr := sig.eval(elem)
		if ferr != nil {
			return rec, ferr
		}
		if v != nil && *v && !slices.Contains(rec.InputModalities, m) {
			rec.InputModalities = append(rec.InputModalities, m)
		}
	}
	rec.InputModalities = sortModalities(rec.InputModalities)

	return rec, nil
}

// decode returns nil when input or output price is missing, or when any
// price is negative (providers use -1 for "varies"). Optional prices of zero
// are treated as absent.
func (ps PriceShape) decode(elem gjson.Result, parentScale float64) (*catalog.Cost, *fieldError) {
	if ps.Input == "" || ps.Output == "" {
		return nil, nil
	}
	scale := ps.Scale
	if scale == 0 {
		scale = parentScale
	}
	if scale == 0 {
		scale = 1
	}

	in, inOK, ferr := number(elem, ps.Input)
	if ferr != nil {
		return nil, ferr
	}
	out, outOK, ferr := number(elem, ps.Output)
	if ferr != nil {
		return nil, ferr
	}
	if !inOK || !outOK || in < 0 || out < 0 {
		return nil, nil
	}

	cost := &catalog.Cost{
		Input:  roundPrice(in * scale),
		Output: roundPrice(out * scale),
	}

	for _, opt := range []struct {
		path string
		dst  **float64
	}{
		{ps.Reasoning, &cost.Reasoning},
		{ps.CacheRead, &cost.CacheRead},
		{ps.CacheWrite, &cost.CacheWrite},
		{ps.InputAudio, &cost.InputAudio},
		{ps.OutputAudio, &cost.OutputAudio},
	} {
		v, ok, ferr := number(elem, opt.path)
		if ferr != nil {
			return nil, ferr
		}
		if !ok || v == 0 {
			continue
		}
		if v < 0 {
			return nil, nil
		}
		*opt.dst = catalog.Price(roundPrice(v * scale))
	}

	if ps.Over200K != nil {
		tier, ferr := ps.Over200K.decode(elem, scale)
		if ferr != nil {
			return nil, ferr
		}
		cost.ContextOver200K = tier
	}

	return cost, nil
}

func (sig Signal) eval(elem gjson.Result) (*bool, *fieldError) {
	if sig.Path == "" {
		return sig.Default, nil
	}
	r := elem.Get(sig.Path)
	if !r.Exists() || r.Type == gjson.Null {
		return sig.Default, nil
	}

	switch {
	case len(sig.Contains) > 0:
		var values []string
		switch {
		case r.IsArray():
			for _, v := range r.Array() {
				if v.Type != gjson.String {
					return nil, &fieldError{path: sig.Path, reason: "expected an array of strings"}
				}
				values = append(values, v.Str)
			}
		case r.Type == gjson.String:
			values = []string{r.Str}
		default:
			return nil, &fieldError{path: sig.Path, reason: "expected a string or an array of strings"}
		}
		for _, v := range values {
			for _, want := range sig.Contains {
				if strings.EqualFold(strings.TrimSpace(v), want) {
					return catalog.Bool(true), nil
				}
			}
		}
		return catalog.Bool(false), nil

	case sig.Present:
		switch {
		case r.IsArray():
			return catalog.Bool(len(r.Array()) > 0), nil
		case r.Type == gjson.String:
			return catalog.Bool(strings.TrimSpace(r.Str) != ""), nil
		case r.Type == gjson.False:
			return catalog.Bool(false), nil
		default:
			return catalog.Bool(true), nil
		}

	default:
		switch r.Type {
		case gjson.True:
			return catalog.Bool(true), nil
		case gjson.False:
			return catalog.Bool(false), nil
		case gjson.String:
			b, err := strconv.ParseBool(strings.TrimSpace(r.Str))
			if err != nil {
				return nil, &fieldError{path: sig.Path, reason: "expected a boolean"}
			}
			return catalog.Bool(b), nil
		default:
			return nil, &fieldError{path: sig.Path, reason: "expected a boolean"}
		}
	}
}

// number reads a JSON number or numeric string. ok is false when the path is
// empty, missing or null.
func number(elem gjson.Result, path string) (v float64, ok bool, ferr *fieldError) {
	if path == "" {
		return 0, false, nil
	}
	r := elem.Get(path)
	switch r.Type {
	case gjson.Null:
		return 0, false, nil
	case gjson.Number:
		return r.Num, true, nil
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false, &fieldError{path: path, reason: fmt.Sprintf("%q is not a number", s)}
		}
		return f, true, nil
	default:
		return 0, false, &fieldError{path: path, reason: "expected a number"}
	}
}

var dateLayouts = []string{time.RFC3339, time.DateTime, time.DateOnly}

// timestamp reads unix seconds or a date string.
func timestamp(elem gjson.Result, path string) (time.Time, *fieldError) {
	if path == "" {
		return time.Time{}, nil
	}
	r := elem.Get(path)
	switch r.Type {
	case gjson.Null:
		return time.Time{}, nil
	case gjson.Number:
		if r.Num <= 0 {
			return time.Time{}, nil
		}
		return time.Unix(r.Int(), 0).UTC(), nil
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		if s == "" {
			return time.Time{}, nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, &fieldError{path: path, reason: fmt.Sprintf("%q is not a date", s)}
	default:
		return time.Time{}, &fieldError{path: path, reason: "expected a timestamp"}
	}
}

var modalityAliases = map[string]string{
	"file":     "pdf",
	"document": "pdf",
	"images":   "image",
	"speech":   "audio",
}

// modalities reads an array of strings, or a single string separated by
// "+" or ",". Unknown values are dropped.
func modalities(elem gjson.Result, path string) ([]string, *fieldError) {
	if path == "" {
		return nil, nil
	}
	r := elem.Get(path)
	var raw []string
	switch {
	case r.Type == gjson.Null:
		return nil, nil
	case r.IsArray():
		for _, v := range r.Array() {
			if v.Type != gjson.String {
				return nil, &fieldError{path: path, reason: "expected an array of strings"}
			}
			raw = append(raw, v.Str)
		}
	case r.Type == gjson.String:
		raw = strings.FieldsFunc(r.Str, func(c rune) bool { return c == '+' || c == ',' })
	default:
		return nil, &fieldError{path: path, reason: "expected modalities"}
	}

	var out []string
	for _, m := range raw {
		m = strings.ToLower(strings.TrimSpace(m))
		if alias, ok := modalityAliases[m]; ok {
			m = alias
		}
		if slices.Contains(catalog.KnownModalities, m) && !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return sortModalities(out), nil
}

// sortModalities orders values as catalog.KnownModalities does.
func sortModalities(ms []string) []string {
	slices.SortFunc(ms, func(a, b string) int {
		return slices.Index(catalog.KnownModalities, a) - slices.Index(catalog.KnownModalities, b)
	})
	return ms
}

func roundPrice(v float64) float64 {
	return math.Round(v*priceRound) / priceRound
}

func truncate(s string) string {
	const limit = 512
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
