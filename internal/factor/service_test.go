package factor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
	"github.com/MrJamesThe3rd/reclaim/internal/factor"
	"github.com/MrJamesThe3rd/reclaim/internal/inventory"
	"github.com/MrJamesThe3rd/reclaim/internal/memstore"
)

func TestService_Upsert_VersionBump(t *testing.T) {
	ctx := context.Background()
	svc := factor.NewService(memstore.New())

	created, err := svc.Upsert(ctx, factor.UpsertParams{ID: "Laptop", MedianWeightKg: 1.54, CO2PerUnitKg: 194})
	require.NoError(t, err)
	assert.Equal(t, "laptop", created.ID)
	assert.Equal(t, 1, created.SchemaVersion)
	assert.True(t, created.Active)

	relabeled, err := svc.Upsert(ctx, factor.UpsertParams{ID: "laptop", Label: "Notebook", MedianWeightKg: 1.54, CO2PerUnitKg: 194})
	require.NoError(t, err)
	assert.Equal(t, 1, relabeled.SchemaVersion)
	assert.Equal(t, "Notebook", relabeled.Label)

	reweighed, err := svc.Upsert(ctx, factor.UpsertParams{ID: "laptop", MedianWeightKg: 1.6, CO2PerUnitKg: 194})
	require.NoError(t, err)
	assert.Equal(t, 2, reweighed.SchemaVersion)
	assert.Equal(t, "Notebook", reweighed.Label)

	deactivated, err := svc.Upsert(ctx, factor.UpsertParams{ID: "laptop", MedianWeightKg: 1.6, CO2PerUnitKg: 194, Active: new(false)})
	require.NoError(t, err)
	assert.False(t, deactivated.Active)
	assert.Equal(t, 2, deactivated.SchemaVersion)
}

// readBarrier holds every GetEntry until n readers have arrived, so the
// writers that follow all start from the same version.
type readBarrier struct {
	factor.Repository
	wg sync.WaitGroup
}

func newReadBarrier(repo factor.Repository, n int) *readBarrier {
	b := &readBarrier{Repository: repo}
	b.wg.Add(n)

	return b
}

func (b *readBarrier) GetEntry(ctx context.Context, id string) (*factor.Entry, error) {
	e, err := b.Repository.GetEntry(ctx, id)
	b.wg.Done()
	b.wg.Wait()

	return e, err
}

func TestService_Upsert_ConcurrentEditsConflict(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()

	_, err := factor.NewService(mem).Upsert(ctx, factor.UpsertParams{ID: "laptop", MedianWeightKg: 1, CO2PerUnitKg: 194})
	require.NoError(t, err)

	svc := factor.NewService(newReadBarrier(mem, 2))

	weights := []float64{2, 3}
	errs := make([]error, len(weights))

	var wg sync.WaitGroup
	for i, w := range weights {
		wg.Go(func() {
			_, errs[i] = svc.Upsert(ctx, factor.UpsertParams{ID: "laptop", MedianWeightKg: w, CO2PerUnitKg: 194})
		})
	}
	wg.Wait()

	var winner float64

	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			assert.True(t, apperr.IsRetryable(err), err)
			continue
		}

		winner = weights[i]
	}
	require.Equal(t, 1, failed)

	got, err := mem.GetEntry(ctx, "laptop")
	require.NoError(t, err)
	assert.Equal(t, 2, got.SchemaVersion)
	assert.Equal(t, winner, got.MedianWeightKg)
}

func TestService_Upsert_Invalid(t *testing.T) {
	svc := factor.NewService(memstore.New())

	tests := []struct {
		name   string
		params factor.UpsertParams
	}{
		{name: "MissingID", params: factor.UpsertParams{MedianWeightKg: 1}},
		{name: "NegativeWeight", params: factor.UpsertParams{ID: "x", MedianWeightKg: -1}},
		{name: "NegativeCO2", params: factor.UpsertParams{ID: "x", CO2PerUnitKg: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upsert(context.Background(), tt.params)
			assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))
		})
	}
}

func TestService_Delete_RefusesReferenced(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := factor.NewService(store)
	require.NoError(t, svc.EnsureDefaults(ctx))

	require.NoError(t, store.CreateItem(ctx, &inventory.Item{ID: "i1", Customer: "X", ProductTypeID: "laptop", CreatedAt: time.Now()}))

	err := svc.Delete(ctx, "laptop")
	assert.True(t, apperr.Is(err, apperr.KindFailedPrecondition))

	require.NoError(t, svc.Delete(ctx, "server"))

	_, err = svc.Get(ctx, "server")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	err = svc.Delete(ctx, "server")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestService_EnsureDefaults(t *testing.T) {
	ctx := context.Background()
	svc := factor.NewService(memstore.New())

	require.NoError(t, svc.EnsureDefaults(ctx))

	_, err := svc.Upsert(ctx, factor.UpsertParams{ID: "laptop", MedianWeightKg: 2, CO2PerUnitKg: 200})
	require.NoError(t, err)

	require.NoError(t, svc.EnsureDefaults(ctx))

	laptop, err := svc.Get(ctx, "laptop")
	require.NoError(t, err)
	assert.InDelta(t, 2, laptop.MedianWeightKg, 1e-9)

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, len(factor.Defaults()))
}

func TestService_Snapshot_DetachedAndActiveOnly(t *testing.T) {
	ctx := context.Background()
	svc := factor.NewService(memstore.New())
	require.NoError(t, svc.EnsureDefaults(ctx))

	_, err := svc.Upsert(ctx, factor.UpsertParams{ID: "server", MedianWeightKg: 18, CO2PerUnitKg: 1300, Active: new(false)})
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	_, ok := snap.Lookup("server")
	assert.False(t, ok)

	_, err = svc.Upsert(ctx, factor.UpsertParams{ID: "laptop", MedianWeightKg: 9, CO2PerUnitKg: 9})
	require.NoError(t, err)

	laptop, ok := snap.Lookup("laptop")
	require.True(t, ok)
	assert.InDelta(t, 1.54, laptop.MedianWeightKg, 1e-9)
	assert.Equal(t, []string{"desktop", "laptop", "monitor", "phone", "tablet"}, snap.IDs())
}
