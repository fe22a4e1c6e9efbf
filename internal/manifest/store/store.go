package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
	"github.com/MrJamesThe3rd/reclaim/internal/manifest"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectColumns = `
	manifest_id, org_scope, policy, selection_hash, storage_path, storage_version_path, versions,
	created_at, created_by, updated_at, updated_by
`

func scanRecord(row *sql.Row) (*manifest.Record, error) {
	var r manifest.Record
	if err := row.Scan(
		&r.ManifestID, &r.OrgScope, &r.Policy, &r.SelectionHash, &r.StoragePath, &r.StorageVersionPath, &r.Versions,
		&r.CreatedAt, &r.CreatedBy, &r.UpdatedAt, &r.UpdatedBy,
	); err != nil {
		return nil, err
	}

	return &r, nil
}

// MergeRecord keeps created_at and created_by of an existing row and
// increments its version count.
func (s *Store) MergeRecord(ctx context.Context, rec *manifest.Record) (*manifest.Record, error) {
	query := `
		INSERT INTO manifests (manifest_id, org_scope, policy, selection_hash, storage_path, storage_version_path,
			versions, created_at, created_by, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8, $9, $10)
		ON CONFLICT (manifest_id) DO UPDATE SET
			storage_path = EXCLUDED.storage_path,
			storage_version_path = EXCLUDED.storage_version_path,
			versions = manifests.versions + 1,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by
		RETURNING ` + selectColumns

	out, err := scanRecord(s.db.QueryRowContext(ctx, query,
		rec.ManifestID, rec.OrgScope, rec.Policy, rec.SelectionHash, rec.StoragePath, rec.StorageVersionPath,
		rec.CreatedAt, rec.CreatedBy, rec.UpdatedAt, rec.UpdatedBy,
	))
	if err != nil {
		return nil, fmt.Errorf("merging manifest record: %w", err)
	}

	return out, nil
}

func (s *Store) GetRecord(ctx context.Context, id string) (*manifest.Record, error) {
	out, err := scanRecord(s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM manifests WHERE manifest_id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("manifest %s not found", id)
		}

		return nil, fmt.Errorf("getting manifest record: %w", err)
	}

	return out, nil
}
