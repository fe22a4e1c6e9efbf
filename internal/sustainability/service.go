// Package sustainability computes impact reports for a selection of
// completed items and persists them as manifests.
package sustainability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
	"github.com/MrJamesThe3rd/reclaim/internal/factor"
	"github.com/MrJamesThe3rd/reclaim/internal/impact"
	"github.com/MrJamesThe3rd/reclaim/internal/inventory"
	"github.com/MrJamesThe3rd/reclaim/internal/manifest"
	"github.com/MrJamesThe3rd/reclaim/internal/selection"
)

type ItemLister interface {
	ListItems(ctx context.Context, filter inventory.ListFilter) ([]*inventory.Item, error)
}

type FactorSource interface {
	Snapshot(ctx context.Context) (factor.Snapshot, error)
}

type ManifestBuilder interface {
	Build(ctx context.Context, actor string, sel selection.Selection, snap impact.Snapshot) (*manifest.Record, error)
}

// Observer is told about every aggregation run and manifest write.
type Observer interface {
	Aggregated(processed, skipped int)
	ManifestBuilt(versions int)
}

type nopObserver struct{}

func (nopObserver) Aggregated(int, int) {}
func (nopObserver) ManifestBuilt(int)   {}

type Service struct {
	items     ItemLister
	factors   FactorSource
	manifests ManifestBuilder
	policy    impact.Policy
	orgScope  string
	observer  Observer
}

type Option func(*Service)

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

func NewService(items ItemLister, factors FactorSource, manifests ManifestBuilder, policy impact.Policy, orgScope string, opts ...Option) *Service {
	s := &Service{
		items:     items,
		factors:   factors,
		manifests: manifests,
		policy:    policy,
		orgScope:  orgScope,
		observer:  nopObserver{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ResolveProductType resolves raw against the active factor table, aliases
// included.
func (s *Service) ResolveProductType(ctx context.Context, raw string) (string, error) {
	snap, err := s.factors.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("loading factors: %w", err)
	}

	id, ok := impact.ResolveProductType(raw, snap)
	if !ok {
		return "", apperr.InvalidArgument("unknown product type %q", raw)
	}

	return id, nil
}

type Result struct {
	Manifest *manifest.Record
	Snapshot impact.Snapshot
}

// Normalize fills the org scope and validates the factor policy and period.
func (s *Service) Normalize(sel selection.Selection) (selection.Selection, error) {
	if sel.OrgScope == "" {
		sel.OrgScope = s.orgScope
	}

	c := selection.Canonicalize(sel)
	if c.FactorPolicy != selection.PolicyLatest {
		return selection.Selection{}, apperr.InvalidArgument("unsupported factor policy %q", c.FactorPolicy)
	}

	if c.SchemaVersion < 0 {
		return selection.Selection{}, apperr.InvalidArgument("schemaVersion must not be negative")
	}

	if _, _, err := c.Period(); err != nil {
		return selection.Selection{}, err
	}

	return c, nil
}

// Hash returns the selection hash after normalization.
func (s *Service) Hash(sel selection.Selection) (string, error) {
	c, err := s.Normalize(sel)
	if err != nil {
		return "", err
	}

	return selection.Hash(c)
}

// Aggregate runs the engine over caller-supplied records against a fresh
// factor snapshot.
func (s *Service) Aggregate(ctx context.Context, records []impact.Record, policy *impact.Policy) (impact.Snapshot, error) {
	snap, err := s.factors.Snapshot(ctx)
	if err != nil {
		return impact.Snapshot{}, fmt.Errorf("loading factors: %w", err)
	}

	p := s.policy
	if policy != nil {
		p = *policy
	}

	out := impact.Aggregate(records, snap, p)
	s.observer.Aggregated(out.Processed, out.Skipped)

	return out, nil
}

// Compute selects completed items matching sel, aggregates them and builds
// the manifest.
func (s *Service) Compute(ctx context.Context, actor string, sel selection.Selection) (*Result, error) {
	c, err := s.Normalize(sel)
	if err != nil {
		return nil, err
	}

	from, to, _ := c.Period()

	items, err := s.items.ListItems(ctx, inventory.ListFilter{
		IDs:            c.ItemIDs,
		Customers:      c.CustomerIDs,
		ProductTypeIDs: c.ProductTypeIDs,
		Completed:      new(true),
		CompletedFrom:  from,
		CompletedTo:    to,
	})
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	records := make([]impact.Record, 0, len(items))
	for _, it := range items {
		records = append(records, impact.FromItem(it))
	}

	snap, err := s.Aggregate(ctx, records, nil)
	if err != nil {
		return nil, err
	}

	rec, err := s.manifests.Build(ctx, actor, c, snap)
	if err != nil {
		return nil, err
	}

	s.observer.ManifestBuilt(rec.Versions)

	slog.InfoContext(ctx, "sustainability report computed",
		"manifest_id", rec.ManifestID, "items", len(items), "processed", snap.Processed, "skipped", snap.Skipped)

	return &Result{Manifest: rec, Snapshot: snap}, nil
}
