package factor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
)

type Repository interface {
	ListEntries(ctx context.Context) ([]*Entry, error)
	// GetEntry returns an apperr NotFound error when id does not exist.
	GetEntry(ctx context.Context, id string) (*Entry, error)
	// SaveEntry writes e only if the stored entry is still at schema version
	// expected, or does not exist when expected is 0. Otherwise it returns an
	// apperr Conflict.
	SaveEntry(ctx context.Context, e *Entry, expected int) error
	DeleteEntry(ctx context.Context, id string) error
	// CountItemsByProductType returns how many items reference the product type.
	CountItemsByProductType(ctx context.Context, id string) (int, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

type UpsertParams struct {
	ID             string
	Label          string
	MedianWeightKg float64
	CO2PerUnitKg   float64
	Active         *bool
}

func (s *Service) List(ctx context.Context) ([]*Entry, error) {
	return s.repo.ListEntries(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Entry, error) {
	return s.repo.GetEntry(ctx, id)
}

// Upsert creates or edits an entry. A change to the weight or CO₂ value bumps
// SchemaVersion; label or active changes do not.
func (s *Service) Upsert(ctx context.Context, params UpsertParams) (*Entry, error) {
	id := strings.ToLower(strings.TrimSpace(params.ID))
	if id == "" {
		return nil, apperr.InvalidArgument("factor id is required")
	}

	if invalidQuantity(params.MedianWeightKg) || invalidQuantity(params.CO2PerUnitKg) {
		return nil, apperr.InvalidArgument("weight and CO2 values must be finite and non-negative")
	}

	existing, err := s.repo.GetEntry(ctx, id)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, fmt.Errorf("loading factor: %w", err)
	}

	e := &Entry{
		ID:             id,
		Label:          strings.TrimSpace(params.Label),
		MedianWeightKg: params.MedianWeightKg,
		CO2PerUnitKg:   params.CO2PerUnitKg,
		SchemaVersion:  1,
		Active:         true,
		UpdatedAt:      s.now().UTC(),
	}

	expected := 0

	if existing != nil {
		expected = existing.SchemaVersion
		e.SchemaVersion = existing.SchemaVersion
		e.Active = existing.Active

		if existing.MedianWeightKg != e.MedianWeightKg || existing.CO2PerUnitKg != e.CO2PerUnitKg {
			e.SchemaVersion++
		}

		if e.Label == "" {
			e.Label = existing.Label
		}
	}

	if params.Active != nil {
		e.Active = *params.Active
	}

	if e.Label == "" {
		e.Label = id
	}

	if err := s.repo.SaveEntry(ctx, e, expected); err != nil {
		return nil, fmt.Errorf("saving factor: %w", err)
	}

	slog.InfoContext(ctx, "factor saved", "factor_id", id, "schema_version", e.SchemaVersion)

	return e, nil
}

// Delete removes an entry no item references. Referenced entries can only be deactivated.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetEntry(ctx, id); err != nil {
		return err
	}

	n, err := s.repo.CountItemsByProductType(ctx, id)
	if err != nil {
		return fmt.Errorf("counting factor usage: %w", err)
	}

	if n > 0 {
		return apperr.FailedPrecondition("factor %s is referenced by %d items, deactivate it instead", id, n)
	}

	return s.repo.DeleteEntry(ctx, id)
}

// EnsureDefaults seeds the default table when the store holds no entries.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return fmt.Errorf("listing factors: %w", err)
	}

	if len(entries) > 0 {
		return nil
	}

	for _, d := range Defaults() {
		d.UpdatedAt = s.now().UTC()
		if err := s.repo.SaveEntry(ctx, &d, 0); err != nil {
			return fmt.Errorf("seeding factor %s: %w", d.ID, err)
		}
	}

	return nil
}

// Snapshot reads the table once and returns a detached copy of the active entries.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("listing factors: %w", err)
	}

	return NewSnapshot(entries, s.now().UTC()), nil
}

func invalidQuantity(v float64) bool {
	return v < 0 || math.IsNaN(v) || math.IsInf(v, 0)
}
