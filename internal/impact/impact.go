// Package impact aggregates raw item records into per product type and
// grand-total environmental metrics against a frozen factor snapshot.
package impact

import (
	"math"
	"strings"

	"github.com/MrJamesThe3rd/reclaim/internal/factor"
	"github.com/MrJamesThe3rd/reclaim/internal/inventory"
)

// Policy selects which dispositions earn CO₂ credit.
type Policy struct {
	CO2ForReused   bool `json:"co2ForReused"`
	CO2ForResold   bool `json:"co2ForResold"`
	CO2ForScrapped bool `json:"co2ForScraped"`
}

func DefaultPolicy() Policy {
	return Policy{CO2ForResold: true}
}

// Tag is the stable string form used in manifest identities.
func (p Policy) Tag() string {
	var parts []string

	if p.CO2ForReused {
		parts = append(parts, "reused")
	}

	if p.CO2ForResold {
		parts = append(parts, "resold")
	}

	if p.CO2ForScrapped {
		parts = append(parts, "scrapped")
	}

	if len(parts) == 0 {
		return "co2:none"
	}

	return "co2:" + strings.Join(parts, ",")
}

func (p Policy) credits(d inventory.Disposition) bool {
	switch d {
	case inventory.DispositionReused:
		return p.CO2ForReused
	case inventory.DispositionResold:
		return p.CO2ForResold
	case inventory.DispositionScrapped:
		return p.CO2ForScrapped
	}

	return false
}

// FactorValue is a factor as read at computation time.
type FactorValue struct {
	MedianWeightKg float64 `json:"medianWeightKg"`
	CO2PerUnitKg   float64 `json:"co2PerUnitKg"`
	SchemaVersion  int     `json:"schemaVersion"`
}

// Bucket accumulates one product type, or the totals, at full precision.
type Bucket struct {
	A           int     `json:"A"`
	B           int     `json:"B"`
	C           int     `json:"C"`
	D           int     `json:"D"`
	E           int     `json:"E"`
	Total       int     `json:"total"`
	Refurbished int     `json:"refurbished"`
	Reused      int     `json:"reused"`
	Resold      int     `json:"resold"`
	Scrapped    int     `json:"scrapped"`
	EWasteKg    float64 `json:"eWasteKg"`
	RecycledKg  float64 `json:"recycledKg"`
	CO2Kg       float64 `json:"co2Kg"`
}

func (b *Bucket) countGrade(g inventory.Grade) {
	switch g {
	case inventory.GradeA:
		b.A++
	case inventory.GradeB:
		b.B++
	case inventory.GradeC:
		b.C++
	case inventory.GradeD:
		b.D++
	case inventory.GradeE:
		b.E++
	}
}

func (b *Bucket) add(o Bucket) {
	b.A += o.A
	b.B += o.B
	b.C += o.C
	b.D += o.D
	b.E += o.E
	b.Total += o.Total
	b.Refurbished += o.Refurbished
	b.Reused += o.Reused
	b.Resold += o.Resold
	b.Scrapped += o.Scrapped
	b.EWasteKg += o.EWasteKg
	b.RecycledKg += o.RecycledKg
	b.CO2Kg += o.CO2Kg
}

// Snapshot is the frozen output of one aggregation run.
type Snapshot struct {
	SchemaVersion int                    `json:"schemaVersion"`
	Policy        Policy                 `json:"policy"`
	FactorsUsed   map[string]FactorValue `json:"factorsUsed"`
	ByGroup       map[string]Bucket      `json:"byGroup"`
	Totals        Bucket                 `json:"totals"`
	Processed     int                    `json:"processed"`
	Skipped       int                    `json:"skipped"`
	Duplicates    int                    `json:"duplicates"`
}

// Aggregate deduplicates records by ID, normalizes and validates each one and
// accumulates the valid ones. Malformed records are counted in Skipped.
// Every product type in factors appears in ByGroup.
func Aggregate(records []Record, factors factor.Snapshot, policy Policy) Snapshot {
	ids := factors.IDs()

	out := Snapshot{
		Policy:      policy,
		FactorsUsed: make(map[string]FactorValue),
		ByGroup:     make(map[string]Bucket, len(ids)),
	}

	groups := make(map[string]*Bucket, len(ids))
	for _, id := range ids {
		groups[id] = &Bucket{}
	}

	seen := make(map[string]bool, len(records))

	for _, rec := range records {
		if rec.ID != "" {
			if seen[rec.ID] {
				out.Duplicates++
				continue
			}

			seen[rec.ID] = true
		}

		n, ok := normalize(rec, factors)
		if !ok {
			out.Skipped++
			continue
		}

		entry, _ := factors.Lookup(n.productType)
		accumulate(groups[n.productType], n, entry, policy)

		out.FactorsUsed[n.productType] = FactorValue{
			MedianWeightKg: entry.MedianWeightKg,
			CO2PerUnitKg:   entry.CO2PerUnitKg,
			SchemaVersion:  entry.SchemaVersion,
		}
		out.SchemaVersion = max(out.SchemaVersion, entry.SchemaVersion)
		out.Processed++
	}

	for _, id := range ids {
		b := *groups[id]
		out.ByGroup[id] = b
		out.Totals.add(b)
	}

	return out
}

type normalized struct {
	productType string
	grade       inventory.Grade
	disposition inventory.Disposition
}

func normalize(rec Record, factors factor.Snapshot) (normalized, bool) {
	if rec.malformed {
		return normalized{}, false
	}

	pt, ok := ResolveProductType(rec.ProductType, factors)
	if !ok {
		return normalized{}, false
	}

	g, ok := inventory.ParseGrade(rec.Grade)
	if !ok {
		return normalized{}, false
	}

	if rec.Disposition == nil {
		return normalized{}, false
	}

	d, ok := rec.Disposition.Resolve()
	if !ok {
		return normalized{}, false
	}

	if !inventory.Consistent(g, d) {
		return normalized{}, false
	}

	return normalized{productType: pt, grade: g, disposition: d}, true
}

func accumulate(b *Bucket, n normalized, entry factor.Entry, policy Policy) {
	b.countGrade(n.grade)
	b.Total++

	switch n.disposition {
	case inventory.DispositionReused:
		b.Reused++
	case inventory.DispositionResold:
		b.Resold++
	case inventory.DispositionScrapped:
		b.Scrapped++
	}

	if n.grade != inventory.GradeE {
		b.Refurbished++
		b.EWasteKg += entry.MedianWeightKg
	}

	if n.disposition == inventory.DispositionScrapped {
		b.RecycledKg += entry.MedianWeightKg
	}

	if policy.credits(n.disposition) {
		b.CO2Kg += entry.CO2PerUnitKg
	}
}

var productAliases = map[string]string{
	"laptops":          "laptop",
	"notebook":         "laptop",
	"notebooks":        "laptop",
	"desktops":         "desktop",
	"pc":               "desktop",
	"computer":         "desktop",
	"desktop computer": "desktop",
	"workstation":      "desktop",
	"monitors":         "monitor",
	"screen":           "monitor",
	"display":          "monitor",
	"phones":           "phone",
	"mobile":           "phone",
	"mobile phone":     "phone",
	"smartphone":       "phone",
	"cellphone":        "phone",
	"tablets":          "tablet",
	"ipad":             "tablet",
	"servers":          "server",
}

// ResolveProductType maps a free-form product type to a factor id. It tries
// the id itself, the built-in aliases, and finally ids and labels compared
// case-insensitively.
func ResolveProductType(raw string, factors factor.Snapshot) (string, bool) {
	key := normalizeKey(raw)
	if key == "" {
		return "", false
	}

	if _, ok := factors.Lookup(key); ok {
		return key, true
	}

	if id, ok := productAliases[key]; ok {
		if _, ok := factors.Lookup(id); ok {
			return id, true
		}
	}

	for _, e := range factors.Entries() {
		if normalizeKey(e.ID) == key || normalizeKey(e.Label) == key {
			return e.ID, true
		}
	}

	return "", false
}

func normalizeKey(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)

	return strings.Join(strings.Fields(s), " ")
}

// BucketView is a Bucket rounded for presentation.
type BucketView struct {
	A                  int `json:"A"`
	B                  int `json:"B"`
	C                  int `json:"C"`
	D                  int `json:"D"`
	E                  int `json:"E"`
	Total              int `json:"total"`
	Refurbished        int `json:"refurbished"`
	PercentRefurbished int `json:"percentRefurbished"`
	Reused             int `json:"reused"`
	Resold             int `json:"resold"`
	Scrapped           int `json:"scrapped"`
	EWasteKg           int `json:"eWasteKg"`
	RecycledKg         int `json:"recycledKg"`
	CO2Kg              int `json:"co2Kg"`
}

func (b Bucket) Present() BucketView {
	return BucketView{
		A:                  b.A,
		B:                  b.B,
		C:                  b.C,
		D:                  b.D,
		E:                  b.E,
		Total:              b.Total,
		Refurbished:        b.Refurbished,
		PercentRefurbished: percent(b.Refurbished, b.Total),
		Reused:             b.Reused,
		Resold:             b.Resold,
		Scrapped:           b.Scrapped,
		EWasteKg:           roundKg(b.EWasteKg),
		RecycledKg:         roundKg(b.RecycledKg),
		CO2Kg:              roundKg(b.CO2Kg),
	}
}

// View is the presentation form of a Snapshot.
type View struct {
	SchemaVersion int                    `json:"schemaVersion"`
	FactorsUsed   map[string]FactorValue `json:"factorsUsed"`
	ByGroup       map[string]BucketView  `json:"byGroup"`
	Totals        BucketView             `json:"totals"`
	Processed     int                    `json:"processed"`
	Skipped       int                    `json:"skipped"`
}

// Present rounds every group. Rounded totals are the sum of the rounded
// groups so the table always adds up; the percentage uses the raw counts.
func (s Snapshot) Present() View {
	v := View{
		SchemaVersion: s.SchemaVersion,
		FactorsUsed:   s.FactorsUsed,
		ByGroup:       make(map[string]BucketView, len(s.ByGroup)),
		Totals:        s.Totals.Present(),
		Processed:     s.Processed,
		Skipped:       s.Skipped,
	}

	v.Totals.EWasteKg, v.Totals.RecycledKg, v.Totals.CO2Kg = 0, 0, 0

	for id, b := range s.ByGroup {
		bv := b.Present()
		v.ByGroup[id] = bv
		v.Totals.EWasteKg += bv.EWasteKg
		v.Totals.RecycledKg += bv.RecycledKg
		v.Totals.CO2Kg += bv.CO2Kg
	}

	return v
}

func roundKg(v float64) int {
	return int(math.Round(v))
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}

	return int(math.Round(float64(part) / float64(total) * 100))
}
