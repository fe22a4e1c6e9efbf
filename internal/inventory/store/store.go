package store

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
	"github.com/MrJamesThe3rd/reclaim/internal/database"
	"github.com/MrJamesThe3rd/reclaim/internal/inventory"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Scanner is satisfied by both *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// SelectColumns is the column order ScanItem expects.
const SelectColumns = `
	id, customer, product_type_id, grade, disposition, completed, marked_for_invoice,
	invoice_report_id, invoiced_at, billing_total, total_amount, amount, price,
	completed_at, created_at, updated_at
`

// ScanItem reads an item row in SelectColumns order.
func ScanItem(s Scanner) (*inventory.Item, error) {
	var (
		it                 inventory.Item
		grade, disposition string
		reportID           sql.NullString
		invoicedAt         sql.NullTime
		completedAt        sql.NullTime
		updatedAt          sql.NullTime
	)

	if err := s.Scan(
		&it.ID, &it.Customer, &it.ProductTypeID, &grade, &disposition, &it.Completed, &it.MarkedForInvoice,
		&reportID, &invoicedAt,
		&it.Amounts.BillingTotal, &it.Amounts.TotalAmount, &it.Amounts.Amount, &it.Amounts.Price,
		&completedAt, &it.CreatedAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	it.Grade = inventory.Grade(grade)
	it.Disposition = inventory.Disposition(disposition)

	if reportID.Valid {
		it.InvoiceReportID = new(reportID.String)
	}

	if invoicedAt.Valid {
		it.InvoicedAt = new(invoicedAt.Time)
	}

	if completedAt.Valid {
		it.CompletedAt = new(completedAt.Time)
	}

	if updatedAt.Valid {
		it.UpdatedAt = new(updatedAt.Time)
	}

	return &it, nil
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// QueryItems runs query once per chunk of ids, binding the chunk as $1, and
// concatenates the results.
func QueryItems(ctx context.Context, q Querier, query string, ids []string) ([]*inventory.Item, error) {
	var out []*inventory.Item

	for chunk := range slices.Chunk(ids, database.MaxInValues) {
		rows, err := q.QueryContext(ctx, query, chunk)
		if err != nil {
			return nil, database.MapError(err)
		}

		items, err := collect(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, items...)
	}

	return out, nil
}

func collect(rows *sql.Rows) ([]*inventory.Item, error) {
	defer rows.Close()

	var items []*inventory.Item

	for rows.Next() {
		it, err := ScanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}

		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, database.MapError(err)
	}

	return items, nil
}

func (s *Store) CreateItem(ctx context.Context, it *inventory.Item) error {
	query := `
		INSERT INTO items (id, customer, product_type_id, grade, disposition, completed, marked_for_invoice,
			invoice_report_id, invoiced_at, billing_total, total_amount, amount, price, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING
	`

	res, err := s.db.ExecContext(ctx, query,
		it.ID, it.Customer, it.ProductTypeID, string(it.Grade), string(it.Disposition), it.Completed, it.MarkedForInvoice,
		it.InvoiceReportID, it.InvoicedAt,
		it.Amounts.BillingTotal, it.Amounts.TotalAmount, it.Amounts.Amount, it.Amounts.Price,
		it.CompletedAt, it.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating item: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.FailedPrecondition("item %s already exists", it.ID)
	}

	return nil
}

func (s *Store) GetItem(ctx context.Context, id string) (*inventory.Item, error) {
	query := `SELECT ` + SelectColumns + ` FROM items WHERE id = $1`

	it, err := ScanItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("item %s not found", id)
		}

		return nil, fmt.Errorf("getting item: %w", err)
	}

	return it, nil
}

func (s *Store) GetItems(ctx context.Context, ids []string) ([]*inventory.Item, error) {
	query := `SELECT ` + SelectColumns + ` FROM items WHERE id = ANY($1)`

	items, err := QueryItems(ctx, s.db, query, ids)
	if err != nil {
		return nil, fmt.Errorf("getting items: %w", err)
	}

	return items, nil
}

func (s *Store) UpdateItem(ctx context.Context, it *inventory.Item) error {
	query := `
		UPDATE items
		SET customer = $1, product_type_id = $2, grade = $3, disposition = $4, completed = $5,
			marked_for_invoice = $6, invoice_report_id = $7, invoiced_at = $8,
			billing_total = $9, total_amount = $10, amount = $11, price = $12,
			completed_at = $13, updated_at = NOW()
		WHERE id = $14
	`

	res, err := s.db.ExecContext(ctx, query,
		it.Customer, it.ProductTypeID, string(it.Grade), string(it.Disposition), it.Completed,
		it.MarkedForInvoice, it.InvoiceReportID, it.InvoicedAt,
		it.Amounts.BillingTotal, it.Amounts.TotalAmount, it.Amounts.Amount, it.Amounts.Price,
		it.CompletedAt, it.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("item %s not found", it.ID)
	}

	return nil
}

func (s *Store) ListItems(ctx context.Context, filter inventory.ListFilter) ([]*inventory.Item, error) {
	query := `SELECT ` + SelectColumns + ` FROM items WHERE TRUE`

	var args []any

	argIdx := 1

	add := func(clause string, v any) {
		query += fmt.Sprintf(clause, argIdx)

		args = append(args, v)
		argIdx++
	}

	if len(filter.Customers) > 0 {
		add(" AND customer = ANY($%d)", filter.Customers)
	}

	if len(filter.ProductTypeIDs) > 0 {
		add(" AND product_type_id = ANY($%d)", filter.ProductTypeIDs)
	}

	if filter.Completed != nil {
		add(" AND completed = $%d", *filter.Completed)
	}

	if filter.PendingInvoice != nil {
		if *filter.PendingInvoice {
			query += " AND marked_for_invoice AND invoice_report_id IS NULL"
		} else {
			query += " AND NOT (marked_for_invoice AND invoice_report_id IS NULL)"
		}
	}

	if filter.ReportID != nil {
		add(" AND invoice_report_id = $%d", *filter.ReportID)
	}

	if filter.CompletedFrom != nil {
		add(" AND completed_at >= $%d", *filter.CompletedFrom)
	}

	if filter.CompletedTo != nil {
		add(" AND completed_at <= $%d", *filter.CompletedTo)
	}

	const order = " ORDER BY created_at ASC, id ASC"

	if len(filter.IDs) == 0 {
		rows, err := s.db.QueryContext(ctx, query+order, args...)
		if err != nil {
			return nil, fmt.Errorf("listing items: %w", err)
		}

		return collect(rows)
	}

	query += fmt.Sprintf(" AND id = ANY($%d)", argIdx) + order

	var out []*inventory.Item

	for chunk := range slices.Chunk(filter.IDs, database.MaxInValues) {
		rows, err := s.db.QueryContext(ctx, query, append(slices.Clone(args), chunk)...)
		if err != nil {
			return nil, fmt.Errorf("listing items: %w", err)
		}

		items, err := collect(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, items...)
	}

	slices.SortFunc(out, func(a, b *inventory.Item) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})

	return out, nil
}

func (s *Store) CountItemsByProductType(ctx context.Context, id string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE product_type_id = $1`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}

	return n, nil
}
