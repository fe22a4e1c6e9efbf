//go:build integration

package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
	"github.com/MrJamesThe3rd/reclaim/internal/database"
	"github.com/MrJamesThe3rd/reclaim/internal/inventory"
	itemStore "github.com/MrJamesThe3rd/reclaim/internal/inventory/store"
	"github.com/MrJamesThe3rd/reclaim/internal/invoice"
	"github.com/MrJamesThe3rd/reclaim/internal/invoice/store"
)

// openDB connects to RECLAIM_TEST_DATABASE_URL and applies the schema.
func openDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("RECLAIM_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("RECLAIM_TEST_DATABASE_URL not set")
	}

	db, err := database.New(url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))

	return db
}

// seedItems creates n completed, invoiceable items for a fresh customer.
func seedItems(t *testing.T, db *sql.DB, n int) (string, []string) {
	t.Helper()

	ctx := context.Background()
	items := itemStore.New(db)
	customer := "it-" + uuid.NewString()
	at := time.Now().UTC()

	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%02d", customer, i)

		require.NoError(t, items.CreateItem(ctx, &inventory.Item{
			ID:               ids[i],
			Customer:         customer,
			ProductTypeID:    "laptop",
			Grade:            inventory.GradeB,
			Disposition:      inventory.DispositionResold,
			Completed:        true,
			MarkedForInvoice: true,
			CompletedAt:      &at,
			CreatedAt:        at,
		}))
	}

	t.Cleanup(func() {
		db.Exec(`DELETE FROM items WHERE customer = $1`, customer)
		db.Exec(`DELETE FROM invoice_reports WHERE customer = $1`, customer)
	})

	return customer, ids
}

func TestStore_LockUnlockMoreThanOneChunk(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	_, ids := seedItems(t, db, 3*database.MaxInValues+3)

	svc := invoice.NewService(store.New(db))

	created, err := svc.Create(ctx, "tester", ids)
	require.NoError(t, err)
	assert.Equal(t, len(ids), created.Count)

	locked, err := itemStore.New(db).ListItems(ctx, inventory.ListFilter{ReportID: &created.ReportID})
	require.NoError(t, err)
	assert.Len(t, locked, len(ids))

	deleted, err := svc.Delete(ctx, "admin", created.ReportID)
	require.NoError(t, err)
	assert.Equal(t, len(ids), deleted.Unlocked)
	assert.Empty(t, deleted.Missing)

	pending, err := itemStore.New(db).ListItems(ctx, inventory.ListFilter{IDs: ids, PendingInvoice: new(true)})
	require.NoError(t, err)
	assert.Len(t, pending, len(ids))
}

func TestStore_MarkReportDeletedOnce(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	_, ids := seedItems(t, db, 2)

	s := store.New(db)

	created, err := invoice.NewService(s).Create(ctx, "tester", ids)
	require.NoError(t, err)

	mark := func() error {
		tx, err := s.BeginReportTx(ctx)
		require.NoError(t, err)
		defer tx.Rollback()

		if err := tx.MarkReportDeleted(ctx, created.ReportID, "admin", time.Now().UTC()); err != nil {
			return err
		}

		return tx.Commit()
	}

	require.NoError(t, mark())
	assert.True(t, apperr.Is(mark(), apperr.KindFailedPrecondition))

	got, err := s.GetReport(ctx, created.ReportID)
	require.NoError(t, err)
	assert.True(t, got.Deleted())
	assert.Equal(t, "admin", *got.DeletedBy)
}

func TestStore_ConcurrentUpdateIsRetryable(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	_, ids := seedItems(t, db, 1)

	s := store.New(db)

	first, err := s.BeginReportTx(ctx)
	require.NoError(t, err)
	defer first.Rollback()

	second, err := s.BeginReportTx(ctx)
	require.NoError(t, err)
	defer second.Rollback()

	_, err = first.GetItems(ctx, ids)
	require.NoError(t, err)

	_, err = second.GetItems(ctx, ids)
	require.NoError(t, err)

	require.NoError(t, first.LockItems(ctx, "r-first", ids, time.Now().UTC()))

	done := make(chan error, 1)
	go func() {
		if err := second.LockItems(ctx, "r-second", ids, time.Now().UTC()); err != nil {
			done <- err
			return
		}

		done <- second.Commit()
	}()

	require.NoError(t, first.Commit())

	err = <-done
	require.Error(t, err)
	assert.True(t, apperr.IsRetryable(err), err)
}
