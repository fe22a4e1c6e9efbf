package factor

import (
	"slices"
	"time"
)

// Entry is the impact reference data for one product type.
// SchemaVersion increases whenever MedianWeightKg or CO2PerUnitKg changes.
type Entry struct {
	ID             string
	Label          string
	MedianWeightKg float64
	CO2PerUnitKg   float64
	SchemaVersion  int
	Active         bool
	UpdatedAt      time.Time
}

// Snapshot is a point-in-time copy of the active factor table. It shares no
// memory with the store, so later edits to the table never reach it.
type Snapshot struct {
	entries map[string]Entry
	takenAt time.Time
}

// NewSnapshot copies the active entries.
func NewSnapshot(entries []*Entry, takenAt time.Time) Snapshot {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if e == nil || !e.Active {
			continue
		}

		m[e.ID] = *e
	}

	return Snapshot{entries: m, takenAt: takenAt}
}

func (s Snapshot) Lookup(id string) (Entry, bool) {
	e, ok := s.entries[id]
	return e, ok
}

// IDs returns the product type ids in sorted order.
func (s Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

func (s Snapshot) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, id := range s.IDs() {
		out = append(out, s.entries[id])
	}

	return out
}

func (s Snapshot) TakenAt() time.Time {
	return s.takenAt
}

// Defaults is the table seeded into an empty store.
func Defaults() []Entry {
	return []Entry{
		{ID: "laptop", Label: "Laptop", MedianWeightKg: 1.54, CO2PerUnitKg: 194, SchemaVersion: 1, Active: true},
		{ID: "desktop", Label: "Desktop", MedianWeightKg: 7.7, CO2PerUnitKg: 322, SchemaVersion: 1, Active: true},
		{ID: "monitor", Label: "Monitor", MedianWeightKg: 4.5, CO2PerUnitKg: 260, SchemaVersion: 1, Active: true},
		{ID: "phone", Label: "Phone", MedianWeightKg: 0.18, CO2PerUnitKg: 55, SchemaVersion: 1, Active: true},
		{ID: "tablet", Label: "Tablet", MedianWeightKg: 0.47, CO2PerUnitKg: 87, SchemaVersion: 1, Active: true},
		{ID: "server", Label: "Server", MedianWeightKg: 18, CO2PerUnitKg: 1300, SchemaVersion: 1, Active: true},
	}
}
