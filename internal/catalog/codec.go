package catalog

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// FileExt is the extension of every record file.
const FileExt = ".toml"

// ParseError reports an on-disk record that could not be decoded.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parsing %s at %d:%d: %v", e.Path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// document is the on-disk layout. Field order here is the serialized order:
// scalars first, then [interleaved], [cost], [cost.context_over_200k],
// [limit] and [modalities].
type document struct {
	Name             string        `toml:"name"`
	Family           string        `toml:"family,omitempty"`
	Attachment       bool          `toml:"attachment"`
	Reasoning        bool          `toml:"reasoning"`
	ToolCall         bool          `toml:"tool_call"`
	StructuredOutput *bool         `toml:"structured_output,omitempty"`
	Temperature      *bool         `toml:"temperature,omitempty"`
	Knowledge        string        `toml:"knowledge,omitempty"`
	ReleaseDate      string        `toml:"release_date"`
	LastUpdated      string        `toml:"last_updated"`
	OpenWeights      bool          `toml:"open_weights"`
	Status           string        `toml:"status,omitempty"`
	Interleaved      any           `toml:"interleaved,omitempty"`
	Cost             *costDoc      `toml:"cost,omitempty"`
	Limit            limitDoc      `toml:"limit"`
	Modalities       modalitiesDoc `toml:"modalities"`
}

type interleavedDoc struct {
	Field string `toml:"field"`
}

type costDoc struct {
	Input           float64  `toml:"input"`
	Output          float64  `toml:"output"`
	Reasoning       *float64 `toml:"reasoning,omitempty"`
	CacheRead       *float64 `toml:"cache_read,omitempty"`
	CacheWrite      *float64 `toml:"cache_write,omitempty"`
	InputAudio      *float64 `toml:"input_audio,omitempty"`
	OutputAudio     *float64 `toml:"output_audio,omitempty"`
	ContextOver200K *costDoc `toml:"context_over_200k,omitempty"`
}

type limitDoc struct {
	Context int64 `toml:"context"`
	Input   int64 `toml:"input,omitempty"`
	Output  int64 `toml:"output"`
}

type modalitiesDoc struct {
	Input  []string `toml:"input"`
	Output []string `toml:"output"`
}

// Marshal encodes m in the canonical record layout. Equal models always
// produce identical bytes.
func Marshal(m *Model) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(false)
	if err := enc.Encode(toDocument(m)); err != nil {
		return nil, fmt.Errorf("encoding %s/%s: %w", m.Provider, m.ID, err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a record. path is used only for error reporting.
func Unmarshal(data []byte, path string) (*Model, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		pe := &ParseError{Path: path, Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			pe.Line, pe.Column = derr.Position()
		}
		return nil, pe
	}

	m, err := fromDocument(&doc)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return m, nil
}

func toDocument(m *Model) *document {
	doc := &document{
		Name:        m.Name,
		Family:      m.Family,
		Attachment:  m.Attachment,
		Reasoning:   m.Reasoning,
		ToolCall:    m.ToolCall,
		Temperature: m.Temperature,
		Knowledge:   m.Knowledge,
		ReleaseDate: m.ReleaseDate,
		LastUpdated: m.LastUpdated,
		OpenWeights: m.OpenWeights,
		Status:      m.Status,
		Cost:        toCostDoc(m.Cost),
		Limit: limitDoc{
			Context: m.Limit.Context,
			Input:   m.Limit.Input,
			Output:  m.Limit.Output,
		},
		Modalities: modalitiesDoc{
			Input:  nonNil(m.Modalities.Input),
			Output: nonNil(m.Modalities.Output),
		},
	}
	if m.StructuredOutput {
		doc.StructuredOutput = Bool(true)
	}
	if m.Interleaved != nil {
		if m.Interleaved.Field == "" {
			doc.Interleaved = true
		} else {
			doc.Interleaved = interleavedDoc{Field: m.Interleaved.Field}
		}
	}
	return doc
}

func fromDocument(doc *document) (*Model, error) {
	m := &Model{
		Name:        doc.Name,
		Family:      doc.Family,
		Attachment:  doc.Attachment,
		Reasoning:   doc.Reasoning,
		ToolCall:    doc.ToolCall,
		Temperature: doc.Temperature,
		Knowledge:   doc.Knowledge,
		ReleaseDate: doc.ReleaseDate,
		LastUpdated: doc.LastUpdated,
		OpenWeights: doc.OpenWeights,
		Status:      doc.Status,
		Cost:        fromCostDoc(doc.Cost),
		Limit: Limit{
			Context: doc.Limit.Context,
			Input:   doc.Limit.Input,
			Output:  doc.Limit.Output,
		},
		Modalities: Modalities{
			Input:  doc.Modalities.Input,
			Output: doc.Modalities.Output,
		},
	}
	if doc.StructuredOutput != nil {
		m.StructuredOutput = *doc.StructuredOutput
	}

	switch v := doc.Interleaved.(type) {
	case nil:
	case bool:
		if v {
			m.Interleaved = &Interleaved{}
		}
	case map[string]any:
		field, _ := v["field"].(string)
		if field == "" {
			return nil, fmt.Errorf("interleaved: table requires a string \"field\"")
		}
		m.Interleaved = &Interleaved{Field: field}
	default:
		return nil, fmt.Errorf("interleaved: unsupported value %v", v)
	}

	return m, nil
}

func toCostDoc(c *Cost) *costDoc {
	if c == nil {
		return nil
	}
	return &costDoc{
		Input:           c.Input,
		Output:          c.Output,
		Reasoning:       c.Reasoning,
		CacheRead:       c.CacheRead,
		CacheWrite:      c.CacheWrite,
		InputAudio:      c.InputAudio,
		OutputAudio:     c.OutputAudio,
		ContextOver200K: toCostDoc(c.ContextOver200K),
	}
}

func fromCostDoc(d *costDoc) *Cost {
	if d == nil {
		return nil
	}
	return &Cost{
		Input:           d.Input,
		Output:          d.Output,
		Reasoning:       d.Reasoning,
		CacheRead:       d.CacheRead,
		CacheWrite:      d.CacheWrite,
		InputAudio:      d.InputAudio,
		OutputAudio:     d.OutputAudio,
		ContextOver200K: fromCostDoc(d.ContextOver200K),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
