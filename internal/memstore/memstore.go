// Package memstore is an in-process document store with optimistic,
// conflict-detecting transactions. It backs every repository port and is
// used for local runs and tests.
package memstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
	"github.com/MrJamesThe3rd/reclaim/internal/factor"
	"github.com/MrJamesThe3rd/reclaim/internal/inventory"
	"github.com/MrJamesThe3rd/reclaim/internal/invoice"
	"github.com/MrJamesThe3rd/reclaim/internal/manifest"
)

type versioned[T any] struct {
	value   T
	version uint64
}

type Store struct {
	mu        sync.RWMutex
	seq       uint64
	items     map[string]versioned[*inventory.Item]
	reports   map[string]versioned[*invoice.Report]
	factors   map[string]*factor.Entry
	manifests map[string]*manifest.Record
}

func New() *Store {
	return &Store{
		items:     make(map[string]versioned[*inventory.Item]),
		reports:   make(map[string]versioned[*invoice.Report]),
		factors:   make(map[string]*factor.Entry),
		manifests: make(map[string]*manifest.Record),
	}
}

// next must be called with mu held for writing.
func (s *Store) next() uint64 {
	s.seq++
	return s.seq
}

func (s *Store) CreateItem(_ context.Context, it *inventory.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[it.ID]; ok {
		return apperr.FailedPrecondition("item %s already exists", it.ID)
	}

	s.items[it.ID] = versioned[*inventory.Item]{value: it.Clone(), version: s.next()}

	return nil
}

func (s *Store) GetItem(_ context.Context, id string) (*inventory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[id]
	if !ok {
		return nil, apperr.NotFound("item %s not found", id)
	}

	return v.value.Clone(), nil
}

func (s *Store) GetItems(_ context.Context, ids []string) ([]*inventory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*inventory.Item, 0, len(ids))

	for _, id := range ids {
		if v, ok := s.items[id]; ok {
			out = append(out, v.value.Clone())
		}
	}

	return out, nil
}

func (s *Store) UpdateItem(_ context.Context, it *inventory.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[it.ID]; !ok {
		return apperr.NotFound("item %s not found", it.ID)
	}

	s.items[it.ID] = versioned[*inventory.Item]{value: it.Clone(), version: s.next()}

	return nil
}

func (s *Store) ListItems(_ context.Context, filter inventory.ListFilter) ([]*inventory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*inventory.Item

	for _, v := range s.items {
		if filter.Matches(v.value) {
			out = append(out, v.value.Clone())
		}
	}

	slices.SortFunc(out, func(a, b *inventory.Item) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})

	return out, nil
}

func (s *Store) CountItemsByProductType(_ context.Context, id string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0

	for _, v := range s.items {
		if v.value.ProductTypeID == id {
			n++
		}
	}

	return n, nil
}

func (s *Store) GetReport(_ context.Context, id string) (*invoice.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.reports[id]
	if !ok {
		return nil, apperr.NotFound("report %s not found", id)
	}

	return v.value.Clone(), nil
}

func (s *Store) ListReports(_ context.Context, filter invoice.ListFilter) ([]*invoice.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*invoice.Report

	for _, v := range s.reports {
		r := v.value
		if !filter.IncludeDeleted && r.Deleted() {
			continue
		}

		if filter.Customer != nil && r.Customer != *filter.Customer {
			continue
		}

		out = append(out, r.Clone())
	}

	slices.SortFunc(out, func(a, b *invoice.Report) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})

	return out, nil
}

func (s *Store) ListEntries(_ context.Context) ([]*factor.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*factor.Entry, 0, len(s.factors))
	for _, e := range s.factors {
		c := *e
		out = append(out, &c)
	}

	slices.SortFunc(out, func(a, b *factor.Entry) int { return cmp.Compare(a.ID, b.ID) })

	return out, nil
}

func (s *Store) GetEntry(_ context.Context, id string) (*factor.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.factors[id]
	if !ok {
		return nil, apperr.NotFound("factor %s not found", id)
	}

	c := *e

	return &c, nil
}

func (s *Store) SaveEntry(_ context.Context, e *factor.Entry, expected int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := 0
	if cur, ok := s.factors[e.ID]; ok {
		current = cur.SchemaVersion
	}

	if current != expected {
		return apperr.Conflict(fmt.Errorf("factor %s is at schema version %d, expected %d", e.ID, current, expected))
	}

	c := *e
	s.factors[e.ID] = &c

	return nil
}

func (s *Store) DeleteEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.factors[id]; !ok {
		return apperr.NotFound("factor %s not found", id)
	}

	delete(s.factors, id)

	return nil
}

func (s *Store) MergeRecord(_ context.Context, rec *manifest.Record) (*manifest.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := *rec
	merged.Versions = 1

	if old, ok := s.manifests[rec.ManifestID]; ok {
		merged.CreatedAt = old.CreatedAt
		merged.CreatedBy = old.CreatedBy
		merged.Versions = old.Versions + 1
	}

	s.manifests[rec.ManifestID] = &merged
	out := merged

	return &out, nil
}

func (s *Store) GetRecord(_ context.Context, id string) (*manifest.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.manifests[id]
	if !ok {
		return nil, apperr.NotFound("manifest %s not found", id)
	}

	out := *rec

	return &out, nil
}

// ErrReadAfterWrite is returned when a transaction reads after its first write.
var ErrReadAfterWrite = errors.New("read after write in transaction")
