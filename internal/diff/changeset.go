package diff

import "github.com/everstacklabs/modelsync/internal/catalog"

// ChangeSet is the outcome of reconciling one provider.
type ChangeSet struct {
	Provider string

	Created []ModelChange
	Updated []ModelUpdate
	// Skipped holds existing records left untouched in new-only mode.
	Skipped   []ModelUpdate
	Unchanged int
	// Excluded counts source records rejected by the inclusion filter.
	Excluded int
	// CrossReferenced counts records copied from a canonical provider.
	CrossReferenced int

	Orphans         []ModelChange
	Deleted         []string
	PossibleRenames []RenamePair
}

// ModelChange is a created or orphaned record.
type ModelChange struct {
	ID    string
	Model *catalog.Model
}

// ModelUpdate is an existing record with field changes.
type ModelUpdate struct {
	ID      string
	Model   *catalog.Model
	Changes []catalog.FieldChange
}

// RenamePair is a possible rename: an orphan and a created record that look
// alike.
type RenamePair struct {
	OldID  string
	NewID  string
	Reason string
}

// Counts are the summary figures for a run.
type Counts struct {
	Created   int
	Updated   int
	Unchanged int
	Skipped   int
	Orphaned  int
	Deleted   int
}

// HasChanges reports whether the changeset would modify the store or
// reports orphans.
func (cs *ChangeSet) HasChanges() bool {
	return len(cs.Created) > 0 || len(cs.Updated) > 0 || len(cs.Orphans) > 0
}

// TotalChanged returns the count of created + updated records.
func (cs *ChangeSet) TotalChanged() int {
	return len(cs.Created) + len(cs.Updated)
}

// OrphanIDs returns the orphaned ids in order.
func (cs *ChangeSet) OrphanIDs() []string {
	ids := make([]string, 0, len(cs.Orphans))
	for _, o := range cs.Orphans {
		ids = append(ids, o.ID)
	}
	return ids
}

// Counts returns the summary figures.
func (cs *ChangeSet) Counts() Counts {
	return Counts{
		Created:   len(cs.Created),
		Updated:   len(cs.Updated),
		Unchanged: cs.Unchanged,
		Skipped:   len(cs.Skipped),
		Orphaned:  len(cs.Orphans),
		Deleted:   len(cs.Deleted),
	}
}

// Add accumulates other into c.
func (c *Counts) Add(other Counts) {
	c.Created += other.Created
	c.Updated += other.Updated
	c.Unchanged += other.Unchanged
	c.Skipped += other.Skipped
	c.Orphaned += other.Orphaned
	c.Deleted += other.Deleted
}
