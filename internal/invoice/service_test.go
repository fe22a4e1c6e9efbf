package invoice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
	"github.com/MrJamesThe3rd/reclaim/internal/inventory"
	"github.com/MrJamesThe3rd/reclaim/internal/invoice"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func completedItem(id, customer string, d inventory.Disposition, amount int64) *inventory.Item {
	g := inventory.GradeB
	if d == inventory.DispositionScrapped {
		g = inventory.GradeE
	}

	return &inventory.Item{
		ID:               id,
		Customer:         customer,
		ProductTypeID:    "laptop",
		Grade:            g,
		Disposition:      d,
		Completed:        true,
		MarkedForInvoice: true,
		Amounts:          inventory.Amounts{Price: decimal.NewNullDecimal(decimal.NewFromInt(amount))},
	}
}

func lockedItem(it *inventory.Item, reportID string) *inventory.Item {
	c := it.Clone()
	c.InvoiceReportID = new(reportID)
	c.InvoicedAt = new(fixedNow)

	return c
}

func TestService_Create(t *testing.T) {
	type testCase struct {
		name      string
		itemIDs   []string
		setupMock func(repo *invoice.MockRepository, tx *invoice.MockReportTx, rec *invoice.MockRecorder)
		wantKind  apperr.Kind
		wantErr   bool
		check     func(t *testing.T, got *invoice.CreateResult)
	}

	a1 := completedItem("a1", "acme", inventory.DispositionResold, 100)
	a2 := completedItem("a2", "acme", inventory.DispositionScrapped, 50)
	b1 := completedItem("b1", "globex", inventory.DispositionReused, 10)

	tests := []testCase{
		{
			name:    "Success",
			itemIDs: []string{"a1", "a2", "a1"},
			setupMock: func(repo *invoice.MockRepository, tx *invoice.MockReportTx, rec *invoice.MockRecorder) {
				repo.EXPECT().GetItems(gomock.Any(), []string{"a1", "a2"}).Return([]*inventory.Item{a1, a2}, nil)
				repo.EXPECT().BeginReportTx(gomock.Any()).Return(tx, nil)
				tx.EXPECT().GetItems(gomock.Any(), []string{"a1", "a2"}).Return([]*inventory.Item{a1, a2}, nil)
				tx.EXPECT().CreateReport(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, r *invoice.Report) error {
						assert.Equal(t, "acme", r.Customer)
						assert.Equal(t, []string{"a1", "a2"}, r.ItemIDs)
						assert.Equal(t, "tester", r.CreatedBy)
						return nil
					})
				tx.EXPECT().LockItems(gomock.Any(), gomock.Any(), []string{"a1", "a2"}, fixedNow).Return(nil)
				tx.EXPECT().Commit().Return(nil)
				rec.EXPECT().ReportCreated(2)
			},
			check: func(t *testing.T, got *invoice.CreateResult) {
				assert.Equal(t, "acme", got.Customer)
				assert.Equal(t, "acme 2024-03-15 10:30:00", got.Name)
				assert.Equal(t, 2, got.Count)
				assert.Equal(t, 1, got.Summary.Resold)
				assert.Equal(t, 1, got.Summary.Scrapped)
				assert.True(t, decimal.NewFromInt(150).Equal(got.Summary.TotalAmount))
				assert.NotEmpty(t, got.ReportID)
			},
		},
		{
			name:     "EmptyIDs",
			itemIDs:  nil,
			wantKind: apperr.KindInvalidArgument,
			wantErr:  true,
		},
		{
			name:    "MissingItem",
			itemIDs: []string{"a1", "ghost"},
			setupMock: func(repo *invoice.MockRepository, _ *invoice.MockReportTx, _ *invoice.MockRecorder) {
				repo.EXPECT().GetItems(gomock.Any(), gomock.Any()).Return([]*inventory.Item{a1}, nil)
			},
			wantKind: apperr.KindNotFound,
			wantErr:  true,
		},
		{
			name:    "MixedCustomersRejectedBeforeAnyWrite",
			itemIDs: []string{"a1", "b1"},
			setupMock: func(repo *invoice.MockRepository, _ *invoice.MockReportTx, _ *invoice.MockRecorder) {
				repo.EXPECT().GetItems(gomock.Any(), gomock.Any()).Return([]*inventory.Item{a1, b1}, nil)
			},
			wantKind: apperr.KindFailedPrecondition,
			wantErr:  true,
		},
		{
			name:    "AlreadyLocked",
			itemIDs: []string{"a1"},
			setupMock: func(repo *invoice.MockRepository, _ *invoice.MockReportTx, _ *invoice.MockRecorder) {
				repo.EXPECT().GetItems(gomock.Any(), gomock.Any()).Return([]*inventory.Item{lockedItem(a1, "r0")}, nil)
			},
			wantKind: apperr.KindFailedPrecondition,
			wantErr:  true,
		},
		{
			name:    "NotCompleted",
			itemIDs: []string{"open"},
			setupMock: func(repo *invoice.MockRepository, _ *invoice.MockReportTx, _ *invoice.MockRecorder) {
				repo.EXPECT().GetItems(gomock.Any(), gomock.Any()).
					Return([]*inventory.Item{{ID: "open", Customer: "acme"}}, nil)
			},
			wantKind: apperr.KindFailedPrecondition,
			wantErr:  true,
		},
		{
			name:    "LockedBetweenPrecheckAndTx",
			itemIDs: []string{"a1", "a2"},
			setupMock: func(repo *invoice.MockRepository, tx *invoice.MockReportTx, _ *invoice.MockRecorder) {
				repo.EXPECT().GetItems(gomock.Any(), gomock.Any()).Return([]*inventory.Item{a1, a2}, nil)
				repo.EXPECT().BeginReportTx(gomock.Any()).Return(tx, nil)
				tx.EXPECT().GetItems(gomock.Any(), gomock.Any()).
					Return([]*inventory.Item{a1, lockedItem(a2, "other")}, nil)
			},
			wantKind: apperr.KindFailedPrecondition,
			wantErr:  true,
		},
		{
			name:    "CommitConflict",
			itemIDs: []string{"a1"},
			setupMock: func(repo *invoice.MockRepository, tx *invoice.MockReportTx, rec *invoice.MockRecorder) {
				repo.EXPECT().GetItems(gomock.Any(), gomock.Any()).Return([]*inventory.Item{a1}, nil)
				repo.EXPECT().BeginReportTx(gomock.Any()).Return(tx, nil)
				tx.EXPECT().GetItems(gomock.Any(), gomock.Any()).Return([]*inventory.Item{a1}, nil)
				tx.EXPECT().CreateReport(gomock.Any(), gomock.Any()).Return(nil)
				tx.EXPECT().LockItems(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				tx.EXPECT().Commit().Return(apperr.Conflict(errors.New("item a1 changed")))
				rec.EXPECT().TxConflict("create_report")
			},
			wantKind: apperr.KindInternal,
			wantErr:  true,
		},
		{
			name:    "RepoError",
			itemIDs: []string{"a1"},
			setupMock: func(repo *invoice.MockRepository, _ *invoice.MockReportTx, _ *invoice.MockRecorder) {
				repo.EXPECT().GetItems(gomock.Any(), gomock.Any()).Return(nil, errors.New("db error"))
			},
			wantKind: apperr.KindInternal,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := invoice.NewMockRepository(ctrl)
			tx := invoice.NewMockReportTx(ctrl)
			rec := invoice.NewMockRecorder(ctrl)
			tx.EXPECT().Rollback().Return(nil).AnyTimes()

			if tt.setupMock != nil {
				tt.setupMock(repo, tx, rec)
			}

			svc := invoice.NewService(repo,
				invoice.WithRecorder(rec),
				invoice.WithClock(func() time.Time { return fixedNow }))

			got, err := svc.Create(context.Background(), "tester", tt.itemIDs)

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, got)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))

				return
			}

			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestService_Create_ConflictIsRetryable(t *testing.T) {
	ctrl := gomock.NewController(t)

	a1 := completedItem("a1", "acme", inventory.DispositionReused, 1)
	repo := invoice.NewMockRepository(ctrl)
	tx := invoice.NewMockReportTx(ctrl)

	repo.EXPECT().GetItems(gomock.Any(), gomock.Any()).Return([]*inventory.Item{a1}, nil)
	repo.EXPECT().BeginReportTx(gomock.Any()).Return(tx, nil)
	tx.EXPECT().GetItems(gomock.Any(), gomock.Any()).Return([]*inventory.Item{a1}, nil)
	tx.EXPECT().CreateReport(gomock.Any(), gomock.Any()).Return(nil)
	tx.EXPECT().LockItems(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	tx.EXPECT().Commit().Return(apperr.Conflict(errors.New("stale")))
	tx.EXPECT().Rollback().Return(nil)

	_, err := invoice.NewService(repo).Create(context.Background(), "tester", []string{"a1"})

	require.Error(t, err)
	assert.True(t, apperr.IsRetryable(err))
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestService_Delete(t *testing.T) {
	type testCase struct {
		name      string
		reportID  string
		setupMock func(repo *invoice.MockRepository, tx *invoice.MockReportTx, rec *invoice.MockRecorder)
		wantKind  apperr.Kind
		wantErr   bool
		want      *invoice.DeleteResult
	}

	a1 := completedItem("a1", "acme", inventory.DispositionResold, 100)
	a2 := completedItem("a2", "acme", inventory.DispositionReused, 100)

	report := &invoice.Report{ID: "r1", Customer: "acme", ItemIDs: []string{"a1", "a2", "a3"}}

	tests := []testCase{
		{
			name:     "UnlocksOwnItemsAndSkipsMissing",
			reportID: "r1",
			setupMock: func(repo *invoice.MockRepository, tx *invoice.MockReportTx, rec *invoice.MockRecorder) {
				repo.EXPECT().BeginReportTx(gomock.Any()).Return(tx, nil)
				tx.EXPECT().GetReport(gomock.Any(), "r1").Return(report.Clone(), nil)
				tx.EXPECT().GetItems(gomock.Any(), []string{"a1", "a2", "a3"}).
					Return([]*inventory.Item{lockedItem(a1, "r1"), lockedItem(a2, "r9")}, nil)
				tx.EXPECT().MarkReportDeleted(gomock.Any(), "r1", "admin", fixedNow).Return(nil)
				tx.EXPECT().UnlockItems(gomock.Any(), []string{"a1"}).Return(nil)
				tx.EXPECT().Commit().Return(nil)
				rec.EXPECT().ReportDeleted(1)
			},
			want: &invoice.DeleteResult{ReportID: "r1", Unlocked: 1, Missing: []string{"a3"}},
		},
		{
			name:     "AlreadyDeleted",
			reportID: "r1",
			setupMock: func(repo *invoice.MockRepository, tx *invoice.MockReportTx, _ *invoice.MockRecorder) {
				deleted := report.Clone()
				deleted.DeletedAt = new(fixedNow)

				repo.EXPECT().BeginReportTx(gomock.Any()).Return(tx, nil)
				tx.EXPECT().GetReport(gomock.Any(), "r1").Return(deleted, nil)
			},
			wantKind: apperr.KindFailedPrecondition,
			wantErr:  true,
		},
		{
			name:     "NotFound",
			reportID: "nope",
			setupMock: func(repo *invoice.MockRepository, tx *invoice.MockReportTx, _ *invoice.MockRecorder) {
				repo.EXPECT().BeginReportTx(gomock.Any()).Return(tx, nil)
				tx.EXPECT().GetReport(gomock.Any(), "nope").Return(nil, apperr.NotFound("report nope not found"))
			},
			wantKind: apperr.KindNotFound,
			wantErr:  true,
		},
		{
			name:     "BlankID",
			reportID: " ",
			wantKind: apperr.KindInvalidArgument,
			wantErr:  true,
		},
		{
			name:     "CommitConflict",
			reportID: "r1",
			setupMock: func(repo *invoice.MockRepository, tx *invoice.MockReportTx, rec *invoice.MockRecorder) {
				repo.EXPECT().BeginReportTx(gomock.Any()).Return(tx, nil)
				tx.EXPECT().GetReport(gomock.Any(), "r1").Return(report.Clone(), nil)
				tx.EXPECT().GetItems(gomock.Any(), gomock.Any()).Return([]*inventory.Item{lockedItem(a1, "r1")}, nil)
				tx.EXPECT().MarkReportDeleted(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				tx.EXPECT().UnlockItems(gomock.Any(), gomock.Any()).Return(nil)
				tx.EXPECT().Commit().Return(apperr.Conflict(errors.New("stale")))
				rec.EXPECT().TxConflict("delete_report")
			},
			wantKind: apperr.KindInternal,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := invoice.NewMockRepository(ctrl)
			tx := invoice.NewMockReportTx(ctrl)
			rec := invoice.NewMockRecorder(ctrl)
			tx.EXPECT().Rollback().Return(nil).AnyTimes()

			if tt.setupMock != nil {
				tt.setupMock(repo, tx, rec)
			}

			svc := invoice.NewService(repo,
				invoice.WithRecorder(rec),
				invoice.WithClock(func() time.Time { return fixedNow }))

			got, err := svc.Delete(context.Background(), "admin", tt.reportID)

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, got)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_List(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := invoice.NewMockRepository(ctrl)
	filter := invoice.ListFilter{Customer: new("acme")}
	repo.EXPECT().ListReports(gomock.Any(), filter).Return([]*invoice.Report{{ID: "r1"}, {ID: "r2"}}, nil)

	got, err := invoice.NewService(repo).List(context.Background(), filter)

	require.NoError(t, err)
	assert.Len(t, got, 2)
}
