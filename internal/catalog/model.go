package catalog

// Model is one catalog record. Provider and ID come from the store path and
// are never serialized.
type Model struct {
	Provider string
	ID       string

	Name             string
	Family           string
	Attachment       bool
	Reasoning        bool
	ToolCall         bool
	StructuredOutput bool
	Temperature      *bool
	Knowledge        string
	ReleaseDate      string
	LastUpdated      string
	OpenWeights      bool
	Interleaved      *Interleaved
	Status           string
	Cost             *Cost
	Limit            Limit
	Modalities       Modalities
}

// Interleaved describes interleaved reasoning output. Field is empty when
// the record only says `interleaved = true`.
type Interleaved struct {
	Field string
}

// Interleaved field values.
const (
	InterleavedReasoningContent = "reasoning_content"
	InterleavedReasoningDetails = "reasoning_details"
)

// Cost is pricing in USD per million tokens.
type Cost struct {
	Input           float64
	Output          float64
	Reasoning       *float64
	CacheRead       *float64
	CacheWrite      *float64
	InputAudio      *float64
	OutputAudio     *float64
	ContextOver200K *Cost
}

// Limit holds token limits. Input is zero when not known.
type Limit struct {
	Context int64
	Input   int64
	Output  int64
}

// Modalities lists accepted and produced content kinds.
type Modalities struct {
	Input  []string
	Output []string
}

// Known modality values.
var KnownModalities = []string{"text", "audio", "image", "video", "pdf"}

// Known status values.
var KnownStatuses = []string{"alpha", "beta", "deprecated"}

// FieldChange records a single field change for diff reporting.
type FieldChange struct {
	Field    string
	OldValue any
	NewValue any
}

// Clone returns a deep copy of m.
func (m *Model) Clone() *Model {
	if m == nil {
		return nil
	}
	c := *m
	if m.Temperature != nil {
		v := *m.Temperature
		c.Temperature = &v
	}
	if m.Interleaved != nil {
		v := *m.Interleaved
		c.Interleaved = &v
	}
	c.Cost = m.Cost.Clone()
	c.Modalities = Modalities{
		Input:  append([]string(nil), m.Modalities.Input...),
		Output: append([]string(nil), m.Modalities.Output...),
	}
	return &c
}

// Clone returns a deep copy of c.
func (c *Cost) Clone() *Cost {
	if c == nil {
		return nil
	}
	out := *c
	out.Reasoning = clonePrice(c.Reasoning)
	out.CacheRead = clonePrice(c.CacheRead)
	out.CacheWrite = clonePrice(c.CacheWrite)
	out.InputAudio = clonePrice(c.InputAudio)
	out.OutputAudio = clonePrice(c.OutputAudio)
	out.ContextOver200K = c.ContextOver200K.Clone()
	return &out
}

func clonePrice(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Price returns a pointer to v.
func Price(v float64) *float64 { return &v }
