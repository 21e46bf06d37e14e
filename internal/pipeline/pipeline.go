package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/everstacklabs/modelsync/internal/adapter"
	"github.com/everstacklabs/modelsync/internal/catalog"
	"github.com/everstacklabs/modelsync/internal/config"
	"github.com/everstacklabs/modelsync/internal/diff"
	"github.com/everstacklabs/modelsync/internal/filter"
	"github.com/everstacklabs/modelsync/internal/reconcile"
	"github.com/everstacklabs/modelsync/internal/validate"
)

// ExitCode constants for CLI.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitChanges      = 2 // Changes detected (diff mode)
	ExitSourceHealth = 4 // Fetch or payload validation failure
)

// Pipeline orchestrates the sync workflow.
type Pipeline struct {
	cfg     *config.Config
	store   Store
	lookup  func(name string) (adapter.Adapter, error)
	runDate time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStore replaces the on-disk catalog store.
func WithStore(s Store) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithRunDate fixes the date stamped on merged records.
func WithRunDate(t time.Time) Option {
	return func(p *Pipeline) { p.runDate = t.UTC() }
}

// WithAdapterLookup replaces the global adapter registry.
func WithAdapterLookup(fn func(name string) (adapter.Adapter, error)) Option {
	return func(p *Pipeline) { p.lookup = fn }
}

// New creates a new Pipeline.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		store:   catalog.NewStore(cfg.CatalogPath),
		lookup:  adapter.Get,
		runDate: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SyncResult holds the outcome of a sync for one provider.
type SyncResult struct {
	Provider  string
	ChangeSet *diff.ChangeSet
	Error     error
}

// Report is the outcome of a full run.
type Report struct {
	Results  []SyncResult
	PRNumber int
	PRURL    string
	PRDraft  bool
}

// Counts sums the counts of every successful provider.
func (r *Report) Counts() diff.Counts {
	var c diff.Counts
	for _, res := range r.Results {
		if res.ChangeSet != nil {
			c.Add(res.ChangeSet.Counts())
		}
	}
	return c
}

// Err joins the per-provider errors.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Error != nil {
			errs = append(errs, res.Error)
		}
	}
	return errors.Join(errs...)
}

// ExitCodeFor maps a run error to a process exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var te *adapter.TransportError
	var ve *adapter.ValidationError
	if errors.As(err, &te) || errors.As(err, &ve) {
		return ExitSourceHealth
	}
	return ExitFailure
}

// Sync runs every configured provider, writing to the store unless the run
// is a dry run, then optionally opens a pull request with the result.
func (p *Pipeline) Sync(ctx context.Context) (*Report, error) {
	report := &Report{}
	store := p.writeStore()

	for _, name := range p.providers() {
		cs, err := p.syncProvider(ctx, name, store, p.cfg.NewOnly)
		if err != nil {
			slog.Error("sync failed", "provider", name, "error", err)
		}
		report.Results = append(report.Results, SyncResult{Provider: name, ChangeSet: cs, Error: err})
	}

	if p.cfg.OpenPR && !p.cfg.DryRun {
		if err := p.openPR(ctx, report); err != nil {
			return report, fmt.Errorf("opening pull request: %w", err)
		}
	}

	return report, nil
}

// SyncProvider runs one provider against the store.
func (p *Pipeline) SyncProvider(ctx context.Context, provider string) (*diff.ChangeSet, error) {
	return p.syncProvider(ctx, provider, p.writeStore(), p.cfg.NewOnly)
}

// Diff runs discovery and reconciliation without writing. Changesets are
// returned for the providers that succeeded; failures are joined in err.
func (p *Pipeline) Diff(ctx context.Context) ([]diff.ChangeSet, error) {
	store := dryRunStore{Store: p.store, quiet: true}

	var changesets []diff.ChangeSet
	var errs []error
	for _, name := range p.providers() {
		cs, err := p.syncProvider(ctx, name, store, p.cfg.NewOnly)
		if err != nil {
			slog.Error("diff failed", "provider", name, "error", err)
			errs = append(errs, err)
			continue
		}
		changesets = append(changesets, *cs)
	}

	return changesets, errors.Join(errs...)
}

// Orphans lists, per provider, the persisted ids the source no longer
// reports. Nothing is written or deleted.
func (p *Pipeline) Orphans(ctx context.Context) (map[string][]string, error) {
	changesets, err := p.Diff(ctx)
	out := make(map[string][]string, len(changesets))
	for _, cs := range changesets {
		out[cs.Provider] = cs.OrphanIDs()
	}
	return out, err
}

func (p *Pipeline) writeStore() Store {
	if p.cfg.DryRun {
		return dryRunStore{Store: p.store}
	}
	return p.store
}

func (p *Pipeline) providers() []string {
	if len(p.cfg.Providers) > 0 {
		return p.cfg.Providers
	}
	return adapter.List()
}

func (p *Pipeline) syncProvider(ctx context.Context, name string, store Store, newOnly bool) (*diff.ChangeSet, error) {
	a, err := p.lookup(name)
	if err != nil {
		return nil, err
	}
	prof := a.Profile()

	// 1. Fetch + validate. Any failure aborts before a write.
	records, err := a.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovering %s models: %w", name, err)
	}
	slog.Info("discovery complete", "provider", name, "models", len(records))
	for i, r := range records {
		if err := catalog.ValidateID(r.ID); err != nil {
			return nil, &adapter.ValidationError{Provider: name, Index: i, Path: "id", Reason: err.Error(), Payload: r.ID}
		}
	}

	existingIDs, err := store.List(name)
	if err != nil {
		return nil, fmt.Errorf("listing %s catalog: %w", name, err)
	}

	f := filter.New(prof.Filter)
	rec := reconcile.New(reconcile.OptionsFor(prof))

	cs := &diff.ChangeSet{Provider: name}
	seen := make(map[string]bool, len(records))
	processed := make(map[string]bool, len(records))
	var created []*catalog.Model

	// 2. Reconcile in source order.
	for i := range records {
		src := &records[i]
		if seen[src.ID] {
			slog.Debug("duplicate id ignored", "provider", name, "id", src.ID)
			continue
		}
		seen[src.ID] = true

		res := f.Classify(src.ID)
		if res.Decision == filter.Excluded {
			cs.Excluded++
			slog.Debug("model excluded", "provider", name, "id", src.ID, "reason", res.Reason, "rule", res.Rule)
			continue
		}
		processed[src.ID] = true

		prev, err := p.read(store, name, src.ID)
		if err != nil {
			return nil, err
		}

		merged, err := p.crossReference(store, prof, src.ID)
		if err != nil {
			return nil, err
		}
		if merged != nil {
			cs.CrossReferenced++
		} else {
			merged = rec.Reconcile(src, prev, p.runDate)
		}

		switch {
		case prev == nil:
			checkRecord(merged)
			if err := store.Write(merged); err != nil {
				return nil, fmt.Errorf("writing %s/%s: %w", name, src.ID, err)
			}
			cs.Created = append(cs.Created, diff.ModelChange{ID: src.ID, Model: merged})
			created = append(created, merged)
		case newOnly:
			cs.Skipped = append(cs.Skipped, diff.ModelUpdate{ID: src.ID, Model: merged, Changes: diff.Compare(prev, merged)})
		case sameRecord(prev, merged):
			cs.Unchanged++
		default:
			checkRecord(merged)
			if err := store.Write(merged); err != nil {
				return nil, fmt.Errorf("writing %s/%s: %w", name, src.ID, err)
			}
			cs.Updated = append(cs.Updated, diff.ModelUpdate{ID: src.ID, Model: merged, Changes: diff.Compare(prev, merged)})
		}
	}

	// 3. Orphans.
	policy := prof.EffectiveOrphanPolicy()
	var orphaned []*catalog.Model
	for _, id := range diff.Orphans(existingIDs, processed) {
		m, err := p.read(store, name, id)
		if err != nil {
			slog.Warn("reading orphan", "provider", name, "id", id, "error", err)
		}
		if m != nil {
			orphaned = append(orphaned, m)
		}
		cs.Orphans = append(cs.Orphans, diff.ModelChange{ID: id, Model: m})

		if policy == adapter.OrphanDelete && !newOnly {
			if err := store.Delete(name, id); err != nil {
				return nil, fmt.Errorf("deleting orphan %s/%s: %w", name, id, err)
			}
			cs.Deleted = append(cs.Deleted, id)
			slog.Info("orphan deleted", "provider", name, "id", id)
			continue
		}
		slog.Warn("orphaned model", "provider", name, "id", id)
	}

	cs.PossibleRenames = diff.DetectRenames(created, orphaned)
	for _, r := range cs.PossibleRenames {
		slog.Info("possible rename", "provider", name, "old", r.OldID, "new", r.NewID)
	}

	c := cs.Counts()
	slog.Info("sync summary",
		"provider", name,
		"created", c.Created,
		"updated", c.Updated,
		"unchanged", c.Unchanged,
		"skipped", c.Skipped,
		"orphaned", c.Orphaned,
		"deleted", c.Deleted,
		"excluded", cs.Excluded,
		"cross_referenced", cs.CrossReferenced)

	return cs, nil
}

// read loads a persisted record. Unreadable records are logged and treated
// as absent.
func (p *Pipeline) read(store Store, provider, id string) (*catalog.Model, error) {
	m, err := store.Read(provider, id)
	var pe *catalog.ParseError
	if errors.As(err, &pe) {
		slog.Warn("unreadable record treated as absent", "provider", provider, "id", id, "path", pe.Path, "error", pe.Err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", provider, id, err)
	}
	return m, nil
}

// crossReference returns the canonical provider's record for id, copied
// with this provider's identity, or nil when there is none.
func (p *Pipeline) crossReference(store Store, prof adapter.Profile, id string) (*catalog.Model, error) {
	lookup, ok := prof.CrossReference.Resolve(id)
	if !ok {
		return nil, nil
	}

	for _, cid := range lookup.IDs {
		m, err := p.read(store, lookup.Provider, cid)
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		c := m.Clone()
		c.Provider = prof.Name
		c.ID = id
		slog.Debug("cross-referenced", "provider", prof.Name, "id", id, "canonical", lookup.Provider+"/"+cid)
		return c, nil
	}

	slog.Debug("no canonical record", "provider", prof.Name, "id", id, "canonical_provider", lookup.Provider)
	return nil, nil
}

// checkRecord logs schema violations in a record about to be written.
// They do not block the write.
func checkRecord(m *catalog.Model) {
	r := validate.ValidateModel(m, m.Provider+"/"+m.ID)
	for _, issue := range r.Errors() {
		slog.Warn("record fails validation", "provider", m.Provider, "id", m.ID, "field", issue.Field, "issue", issue.Message)
	}
}

// sameRecord reports whether merged would serialize identically to prev,
// ignoring last_updated.
func sameRecord(prev, merged *catalog.Model) bool {
	m := merged.Clone()
	m.LastUpdated = prev.LastUpdated

	a, err := catalog.Marshal(prev)
	if err != nil {
		return false
	}
	b, err := catalog.Marshal(m)
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// assessRisk decides whether a pull request should open as a draft.
func assessRisk(results []SyncResult) (bool, []string) {
	var reasons []string

	changed, orphans := 0, 0
	for _, r := range results {
		if r.ChangeSet == nil {
			continue
		}
		changed += r.ChangeSet.TotalChanged()
		orphans += len(r.ChangeSet.Orphans)
	}

	// Changed models > 25 → draft PR
	if changed > 25 {
		reasons = append(reasons, fmt.Sprintf("%d models changed", changed))
	}

	// Orphans > 3 → draft PR
	if orphans > 3 {
		reasons = append(reasons, fmt.Sprintf("%d orphaned models", orphans))
	}

	// Check for large price deltas
	for _, r := range results {
		if r.ChangeSet == nil {
			continue
		}
		for _, u := range r.ChangeSet.Updated {
			for _, c := range u.Changes {
				if c.Field != "cost.input" && c.Field != "cost.output" {
					continue
				}
				oldVal, okOld := c.OldValue.(float64)
				newVal, okNew := c.NewValue.(float64)
				if okOld && okNew && oldVal > 0 {
					delta := (newVal - oldVal) / oldVal
					if delta > 0.35 || delta < -0.35 {
						reasons = append(reasons, fmt.Sprintf("%s/%s %s moved %+.0f%%", r.Provider, u.ID, c.Field, delta*100))
					}
				}
			}
		}
	}

	return len(reasons) > 0, reasons
}
