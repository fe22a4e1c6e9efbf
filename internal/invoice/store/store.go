package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
	"github.com/MrJamesThe3rd/reclaim/internal/database"
	"github.com/MrJamesThe3rd/reclaim/internal/inventory"
	itemStore "github.com/MrJamesThe3rd/reclaim/internal/inventory/store"
	"github.com/MrJamesThe3rd/reclaim/internal/invoice"
)

var errReadAfterWrite = errors.New("read after write in report transaction")

type Store struct {
	db    *sql.DB
	types *pgtype.Map
}

func New(db *sql.DB) *Store {
	return &Store{db: db, types: pgtype.NewMap()}
}

const selectReportColumns = `
	id, name, customer, item_ids, total_items, reused, resold, scrapped, total_amount,
	created_at, created_by, deleted_at, deleted_by
`

const selectItemsByID = `SELECT ` + itemStore.SelectColumns + ` FROM items WHERE id = ANY($1)`

func (s *Store) scanReport(sc itemStore.Scanner) (*invoice.Report, error) {
	var (
		r         invoice.Report
		deletedAt sql.NullTime
		deletedBy sql.NullString
	)

	if err := sc.Scan(
		&r.ID, &r.Name, &r.Customer, s.types.SQLScanner(&r.ItemIDs),
		&r.Summary.TotalItems, &r.Summary.Reused, &r.Summary.Resold, &r.Summary.Scrapped, &r.Summary.TotalAmount,
		&r.CreatedAt, &r.CreatedBy, &deletedAt, &deletedBy,
	); err != nil {
		return nil, err
	}

	if deletedAt.Valid {
		r.DeletedAt = new(deletedAt.Time)
	}

	if deletedBy.Valid {
		r.DeletedBy = new(deletedBy.String)
	}

	return &r, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) getReport(ctx context.Context, q queryRower, id string) (*invoice.Report, error) {
	query := `SELECT ` + selectReportColumns + ` FROM invoice_reports WHERE id = $1`

	r, err := s.scanReport(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("report %s not found", id)
		}

		return nil, fmt.Errorf("getting report: %w", database.MapError(err))
	}

	return r, nil
}

func (s *Store) GetItems(ctx context.Context, ids []string) ([]*inventory.Item, error) {
	return itemStore.QueryItems(ctx, s.db, selectItemsByID, ids)
}

func (s *Store) GetReport(ctx context.Context, id string) (*invoice.Report, error) {
	return s.getReport(ctx, s.db, id)
}

func (s *Store) ListReports(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Report, error) {
	query := `SELECT ` + selectReportColumns + ` FROM invoice_reports WHERE TRUE`

	var args []any

	if !filter.IncludeDeleted {
		query += " AND deleted_at IS NULL"
	}

	if filter.Customer != nil {
		query += " AND customer = $1"

		args = append(args, *filter.Customer)
	}

	query += " ORDER BY created_at DESC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var reports []*invoice.Report

	for rows.Next() {
		r, err := s.scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}

		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating report rows: %w", err)
	}

	return reports, nil
}

// BeginReportTx opens a SERIALIZABLE transaction. Postgres aborts it with a
// serialization failure when a concurrent transaction touched what it read;
// those failures surface as retryable apperr conflicts.
func (s *Store) BeginReportTx(ctx context.Context) (invoice.ReportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("beginning report tx: %w", err)
	}

	return &reportTx{s: s, tx: dbTx}, nil
}

type reportTx struct {
	s     *Store
	tx    *sql.Tx
	wrote bool
}

func (rtx *reportTx) Commit() error {
	if err := rtx.tx.Commit(); err != nil {
		return fmt.Errorf("committing report tx: %w", database.MapError(err))
	}

	return nil
}

func (rtx *reportTx) Rollback() error {
	err := rtx.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}

	return err
}

func (rtx *reportTx) GetItems(ctx context.Context, ids []string) ([]*inventory.Item, error) {
	if rtx.wrote {
		return nil, apperr.Internal(errReadAfterWrite, "report transaction")
	}

	return itemStore.QueryItems(ctx, rtx.tx, selectItemsByID, ids)
}

func (rtx *reportTx) GetReport(ctx context.Context, id string) (*invoice.Report, error) {
	if rtx.wrote {
		return nil, apperr.Internal(errReadAfterWrite, "report transaction")
	}

	return rtx.s.getReport(ctx, rtx.tx, id)
}

func (rtx *reportTx) CreateReport(ctx context.Context, r *invoice.Report) error {
	rtx.wrote = true

	query := `
		INSERT INTO invoice_reports (id, name, customer, item_ids, total_items, reused, resold, scrapped,
			total_amount, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := rtx.tx.ExecContext(ctx, query,
		r.ID, r.Name, r.Customer, r.ItemIDs,
		r.Summary.TotalItems, r.Summary.Reused, r.Summary.Resold, r.Summary.Scrapped, r.Summary.TotalAmount,
		r.CreatedAt, r.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("inserting report: %w", database.MapError(err))
	}

	return nil
}

func (rtx *reportTx) LockItems(ctx context.Context, reportID string, itemIDs []string, at time.Time) error {
	rtx.wrote = true

	query := `
		UPDATE items
		SET invoice_report_id = $1, marked_for_invoice = FALSE, invoiced_at = $2, updated_at = $2
		WHERE id = ANY($3)
	`

	return rtx.execChunked(ctx, query, itemIDs, reportID, at)
}

func (rtx *reportTx) UnlockItems(ctx context.Context, itemIDs []string) error {
	rtx.wrote = true

	query := `
		UPDATE items
		SET invoice_report_id = NULL, marked_for_invoice = TRUE, invoiced_at = NULL, updated_at = NOW()
		WHERE id = ANY($1)
	`

	return rtx.execChunked(ctx, query, itemIDs)
}

// execChunked binds each chunk of ids as the argument after args.
func (rtx *reportTx) execChunked(ctx context.Context, query string, ids []string, args ...any) error {
	for start := 0; start < len(ids); start += database.MaxInValues {
		chunk := ids[start:min(start+database.MaxInValues, len(ids))]

		if _, err := rtx.tx.ExecContext(ctx, query, append(args, chunk)...); err != nil {
			return fmt.Errorf("updating items: %w", database.MapError(err))
		}
	}

	return nil
}

func (rtx *reportTx) MarkReportDeleted(ctx context.Context, id, by string, at time.Time) error {
	rtx.wrote = true

	query := `UPDATE invoice_reports SET deleted_at = $1, deleted_by = $2 WHERE id = $3 AND deleted_at IS NULL`

	res, err := rtx.tx.ExecContext(ctx, query, at, by, id)
	if err != nil {
		return fmt.Errorf("marking report deleted: %w", database.MapError(err))
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.FailedPrecondition("report %s is already deleted", id)
	}

	return nil
}
