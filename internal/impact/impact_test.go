package impact_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/reclaim/internal/factor"
	"github.com/MrJamesThe3rd/reclaim/internal/impact"
	"github.com/MrJamesThe3rd/reclaim/internal/inventory"
)

func snapshot(entries ...factor.Entry) factor.Snapshot {
	ptrs := make([]*factor.Entry, 0, len(entries))
	for i := range entries {
		entries[i].Active = true
		ptrs = append(ptrs, &entries[i])
	}

	return factor.NewSnapshot(ptrs, time.Now())
}

func laptops() factor.Snapshot {
	return snapshot(
		factor.Entry{ID: "laptop", Label: "Laptop", MedianWeightKg: 1.54, CO2PerUnitKg: 194, SchemaVersion: 3},
		factor.Entry{ID: "monitor", Label: "Monitor", MedianWeightKg: 4.5, CO2PerUnitKg: 260, SchemaVersion: 1},
	)
}

func TestAggregate_LaptopScenario(t *testing.T) {
	records := []impact.Record{
		{ID: "A", ProductType: "laptop", Grade: "B", Disposition: impact.Flags{Resold: true}},
		{ID: "B", ProductType: "laptop", Grade: "E", Disposition: impact.Flags{Scrapped: true}},
	}

	got := impact.Aggregate(records, laptops(), impact.DefaultPolicy())
	view := got.Present()

	assert.Equal(t, 2, got.Processed)
	assert.Equal(t, 0, got.Skipped)

	laptop := view.ByGroup["laptop"]
	assert.Equal(t, 1, laptop.B)
	assert.Equal(t, 1, laptop.E)
	assert.Equal(t, 2, laptop.Total)
	assert.Equal(t, 2, laptop.EWasteKg)
	assert.Equal(t, 2, laptop.RecycledKg)
	assert.Equal(t, 194, laptop.CO2Kg)
	assert.Equal(t, 50, laptop.PercentRefurbished)

	assert.InDelta(t, 1.54, got.ByGroup["laptop"].EWasteKg, 1e-9)
	assert.Equal(t, impact.FactorValue{MedianWeightKg: 1.54, CO2PerUnitKg: 194, SchemaVersion: 3}, got.FactorsUsed["laptop"])
	assert.Equal(t, 3, got.SchemaVersion)
}

func TestAggregate_AllKnownTypesPresent(t *testing.T) {
	got := impact.Aggregate(nil, laptops(), impact.DefaultPolicy())

	require.Contains(t, got.ByGroup, "monitor")
	require.Contains(t, got.ByGroup, "laptop")
	assert.Empty(t, got.FactorsUsed)
	assert.Equal(t, 0, got.SchemaVersion)
	assert.Equal(t, 0, got.Present().Totals.PercentRefurbished)
}

func TestAggregate_Skipped(t *testing.T) {
	tests := []struct {
		name   string
		record impact.Record
	}{
		{name: "ScrappedNotE", record: impact.Record{ProductType: "laptop", Grade: "C", Disposition: impact.Flags{Scrapped: true}}},
		{name: "EButResold", record: impact.Record{ProductType: "laptop", Grade: "E", Disposition: impact.Status("resold")}},
		{name: "TwoFlags", record: impact.Record{ProductType: "laptop", Grade: "A", Disposition: impact.Flags{Reused: true, Resold: true}}},
		{name: "NoFlags", record: impact.Record{ProductType: "laptop", Grade: "A", Disposition: impact.Flags{}}},
		{name: "NilDisposition", record: impact.Record{ProductType: "laptop", Grade: "A"}},
		{name: "UnknownStatus", record: impact.Record{ProductType: "laptop", Grade: "A", Disposition: impact.Status("lost")}},
		{name: "UnknownGrade", record: impact.Record{ProductType: "laptop", Grade: "F", Disposition: impact.Status("reused")}},
		{name: "UnknownProductType", record: impact.Record{ProductType: "toaster", Grade: "A", Disposition: impact.Status("reused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := impact.Aggregate([]impact.Record{tt.record}, laptops(), impact.DefaultPolicy())

			assert.Equal(t, 0, got.Processed)
			assert.Equal(t, 1, got.Skipped)
			assert.Equal(t, 0, got.Totals.Total)
		})
	}
}

func TestAggregate_Normalization(t *testing.T) {
	records := []impact.Record{
		{ProductType: "Notebook", Grade: "a", Disposition: impact.Status("Reuse")},
		{ProductType: " LAPTOP ", Grade: "b", Disposition: impact.Status("sold")},
		{ProductType: "screen", Grade: "e", Disposition: impact.Status("scrap")},
	}

	got := impact.Aggregate(records, laptops(), impact.DefaultPolicy())

	assert.Equal(t, 3, got.Processed)
	assert.Equal(t, 2, got.ByGroup["laptop"].Total)
	assert.Equal(t, 1, got.ByGroup["laptop"].Reused)
	assert.Equal(t, 1, got.ByGroup["monitor"].Scrapped)
}

func TestAggregate_Dedup(t *testing.T) {
	rec := impact.Record{ID: "X", ProductType: "laptop", Grade: "B", Disposition: impact.Status("resold")}
	anon := impact.Record{ProductType: "laptop", Grade: "B", Disposition: impact.Status("resold")}

	got := impact.Aggregate([]impact.Record{rec, rec, anon, anon}, laptops(), impact.DefaultPolicy())

	assert.Equal(t, 3, got.Processed)
	assert.Equal(t, 1, got.Duplicates)
}

func TestAggregate_PolicyMatrix(t *testing.T) {
	records := []impact.Record{
		{ID: "1", ProductType: "laptop", Grade: "A", Disposition: impact.Status("reused")},
		{ID: "2", ProductType: "laptop", Grade: "B", Disposition: impact.Status("resold")},
		{ID: "3", ProductType: "laptop", Grade: "E", Disposition: impact.Status("scrapped")},
	}

	tests := []struct {
		name    string
		policy  impact.Policy
		wantCO2 float64
		wantTag string
	}{
		{name: "Default", policy: impact.DefaultPolicy(), wantCO2: 194, wantTag: "co2:resold"},
		{name: "All", policy: impact.Policy{CO2ForReused: true, CO2ForResold: true, CO2ForScrapped: true}, wantCO2: 582, wantTag: "co2:reused,resold,scrapped"},
		{name: "None", policy: impact.Policy{}, wantCO2: 0, wantTag: "co2:none"},
		{name: "ReusedOnly", policy: impact.Policy{CO2ForReused: true}, wantCO2: 194, wantTag: "co2:reused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := impact.Aggregate(records, laptops(), tt.policy)

			assert.InDelta(t, tt.wantCO2, got.Totals.CO2Kg, 1e-9)
			assert.Equal(t, tt.wantTag, tt.policy.Tag())
		})
	}
}

func TestAggregate_TotalsAddUp(t *testing.T) {
	var records []impact.Record

	for i, pt := range []string{"laptop", "monitor", "laptop", "display", "notebook"} {
		records = append(records, impact.Record{
			ID:          string(rune('a' + i)),
			ProductType: pt,
			Grade:       string(inventory.Grades[i%4]),
			Disposition: impact.Status("resold"),
		})
	}

	got := impact.Aggregate(records, laptops(), impact.DefaultPolicy())
	view := got.Present()

	var total, co2 int
	var rawCO2 float64

	for id, b := range view.ByGroup {
		total += b.Total
		co2 += b.CO2Kg
		rawCO2 += got.ByGroup[id].CO2Kg
	}

	assert.Equal(t, view.Totals.Total, total)
	assert.Equal(t, view.Totals.CO2Kg, co2)
	assert.InDelta(t, got.Totals.CO2Kg, rawCO2, 1e-9)
}

func TestAggregate_FactorsFrozen(t *testing.T) {
	entries := []*factor.Entry{{ID: "laptop", MedianWeightKg: 1.54, CO2PerUnitKg: 194, SchemaVersion: 1, Active: true}}
	snap := factor.NewSnapshot(entries, time.Now())

	entries[0].CO2PerUnitKg = 999

	got := impact.Aggregate([]impact.Record{{ProductType: "laptop", Grade: "B", Disposition: impact.Status("resold")}}, snap, impact.DefaultPolicy())

	assert.InDelta(t, 194, got.FactorsUsed["laptop"].CO2PerUnitKg, 1e-9)
}

func TestRecord_UnmarshalJSON(t *testing.T) {
	var recs []impact.Record
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":"1","productType":"laptop","grade":"B","status":"resold"},
		{"id":"2","productTypeId":"laptop","grade":"E","scraped":true},
		{"id":"3","productType":"laptop","grade":"A","reused":true,"resold":true}
	]`), &recs))

	require.Len(t, recs, 3)
	assert.Equal(t, impact.Status("resold"), recs[0].Disposition)
	assert.Equal(t, impact.Flags{Scrapped: true}, recs[1].Disposition)
	assert.Equal(t, "laptop", recs[1].ProductType)

	got := impact.Aggregate(recs, laptops(), impact.DefaultPolicy())
	assert.Equal(t, 2, got.Processed)
	assert.Equal(t, 1, got.Skipped)
}

func TestRecord_UnmarshalJSON_Tolerant(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		wantMalformed bool
		wantID        string
		wantGrade     string
	}{
		{name: "NumericID", body: `{"id":7,"productType":"laptop","grade":"B","resold":true}`, wantID: "7", wantGrade: "B"},
		{name: "NumericGrade", body: `{"id":"a","productType":"laptop","grade":5,"scrapped":true}`, wantID: "a", wantGrade: "5"},
		{name: "StringFlag", body: `{"id":"b","productType":"laptop","grade":"B","resold":"true"}`, wantID: "b", wantGrade: "B"},
		{name: "UnreadableFlag", body: `{"id":"c","productType":"laptop","grade":"B","reused":"yes"}`, wantMalformed: true, wantID: "c", wantGrade: "B"},
		{name: "ObjectGrade", body: `{"id":"d","productType":"laptop","grade":{"v":"B"},"resold":true}`, wantMalformed: true, wantID: "d"},
		{name: "NotAnObject", body: `42`, wantMalformed: true},
		{name: "Null", body: `null`, wantMalformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec impact.Record
			require.NoError(t, json.Unmarshal([]byte(tt.body), &rec))

			assert.Equal(t, tt.wantMalformed, rec.Malformed())
			assert.Equal(t, tt.wantID, rec.ID)
			assert.Equal(t, tt.wantGrade, rec.Grade)
		})
	}
}

func TestAggregate_MalformedRecordsSkipped(t *testing.T) {
	var recs []impact.Record
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":"A","productType":"laptop","grade":"B","resold":true},
		{"id":"B","productType":"laptop","grade":5,"scrapped":true},
		{"id":7,"productType":"laptop","grade":"C","reused":"yes"},
		"garbage"
	]`), &recs))

	got := impact.Aggregate(recs, laptops(), impact.DefaultPolicy())
	assert.Equal(t, 1, got.Processed)
	assert.Equal(t, 3, got.Skipped)
	assert.Equal(t, 1, got.ByGroup["laptop"].B)
}
