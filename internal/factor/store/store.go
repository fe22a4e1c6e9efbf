package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
	"github.com/MrJamesThe3rd/reclaim/internal/database"
	"github.com/MrJamesThe3rd/reclaim/internal/factor"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectColumns = `id, label, median_weight_kg, co2_per_unit_kg, schema_version, active, updated_at`

func scanEntry(s scanner) (*factor.Entry, error) {
	var e factor.Entry
	if err := s.Scan(&e.ID, &e.Label, &e.MedianWeightKg, &e.CO2PerUnitKg, &e.SchemaVersion, &e.Active, &e.UpdatedAt); err != nil {
		return nil, err
	}

	return &e, nil
}

func (s *Store) ListEntries(ctx context.Context) ([]*factor.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM impact_factors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing factors: %w", err)
	}
	defer rows.Close()

	var entries []*factor.Entry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning factor: %w", err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating factor rows: %w", err)
	}

	return entries, nil
}

func (s *Store) GetEntry(ctx context.Context, id string) (*factor.Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM impact_factors WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("factor %s not found", id)
		}

		return nil, fmt.Errorf("getting factor: %w", err)
	}

	return e, nil
}

// SaveEntry inserts e when expected is 0 and updates it otherwise. Both
// statements match no row when another writer got there first.
func (s *Store) SaveEntry(ctx context.Context, e *factor.Entry, expected int) error {
	var (
		res sql.Result
		err error
	)

	if expected == 0 {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO impact_factors (id, label, median_weight_kg, co2_per_unit_kg, schema_version, active, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING
		`, e.ID, e.Label, e.MedianWeightKg, e.CO2PerUnitKg, e.SchemaVersion, e.Active, e.UpdatedAt)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE impact_factors SET
				label = $2,
				median_weight_kg = $3,
				co2_per_unit_kg = $4,
				schema_version = $5,
				active = $6,
				updated_at = $7
			WHERE id = $1 AND schema_version = $8
		`, e.ID, e.Label, e.MedianWeightKg, e.CO2PerUnitKg, e.SchemaVersion, e.Active, e.UpdatedAt, expected)
	}

	if err != nil {
		return fmt.Errorf("saving factor: %w", database.MapError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("saving factor: %w", err)
	}

	if n == 0 {
		return apperr.Conflict(fmt.Errorf("factor %s changed since schema version %d", e.ID, expected))
	}

	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM impact_factors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting factor: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("factor %s not found", id)
	}

	return nil
}

func (s *Store) CountItemsByProductType(ctx context.Context, id string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE product_type_id = $1`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}

	return n, nil
}
