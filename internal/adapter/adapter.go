package adapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/everstacklabs/modelsync/internal/catalog"
)

// Adapter fetches a provider's model list.
type Adapter interface {
	// Name returns the provider name (e.g., "openrouter").
	Name() string
	// Profile returns the provider's parameters. Callers must not mutate it.
	Profile() Profile
	// Discover fetches and validates the provider's payload.
	Discover(ctx context.Context) ([]SourceRecord, error)
}

// SourceRecord is one validated element of a provider payload.
type SourceRecord struct {
	ID          string
	Name        string
	Created     time.Time
	ReleaseDate string // YYYY-MM-DD, empty when the payload has none

	// Pricing is nil when the payload carries no usable prices.
	// Values are USD per million tokens.
	Pricing *catalog.Cost

	Limits Limits

	// Tri-state capability signals. nil means the payload says nothing.
	Attachment       *bool
	Reasoning        *bool
	ToolCall         *bool
	StructuredOutput *bool
	Temperature      *bool
	OpenWeights      *bool

	InputModalities  []string
	OutputModalities []string

	Raw json.RawMessage
}

// Limits are source token limits. Zero means not reported.
type Limits struct {
	Context int64
	Input   int64
	Output  int64
}

// SourceDate returns the record's release date, falling back to the
// creation timestamp. Empty when neither is known.
func (r *SourceRecord) SourceDate() string {
	if r.ReleaseDate != "" {
		return r.ReleaseDate
	}
	if !r.Created.IsZero() {
		return r.Created.UTC().Format(time.DateOnly)
	}
	return ""
}
