package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
	"github.com/MrJamesThe3rd/reclaim/internal/impact"
	"github.com/MrJamesThe3rd/reclaim/internal/selection"
)

// BlobStore writes bytes at a caller-chosen path, replacing any existing object.
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string, metadata map[string]string) error
	// Get returns an apperr NotFound error when nothing is stored at path.
	Get(ctx context.Context, path string) ([]byte, error)
}

type IndexRepository interface {
	// MergeRecord inserts rec or, when its ManifestID exists, keeps the
	// creation fields and refreshes the rest. It returns the stored record.
	MergeRecord(ctx context.Context, rec *Record) (*Record, error)
	// GetRecord returns an apperr NotFound error when id does not exist.
	GetRecord(ctx context.Context, id string) (*Record, error)
}

type Service struct {
	blobs BlobStore
	index IndexRepository
	now   func() time.Time
}

func NewService(blobs BlobStore, index IndexRepository) *Service {
	return &Service{blobs: blobs, index: index, now: time.Now}
}

// Build persists snap as a new immutable version and as the latest copy for
// the selection, then merges the index entry.
func (s *Service) Build(ctx context.Context, actor string, sel selection.Selection, snap impact.Snapshot) (*Record, error) {
	canonical := selection.Canonicalize(sel)
	if canonical.OrgScope == "" {
		return nil, apperr.InvalidArgument("orgScope is required")
	}

	hash, err := selection.Hash(canonical)
	if err != nil {
		return nil, apperr.InvalidArgument("invalid selection: %v", err)
	}

	policy := snap.Policy.Tag()
	id := selection.ManifestID(canonical.OrgScope, policy, hash)
	now := s.now().UTC()

	body, err := json.Marshal(Document{
		ManifestID:    id,
		SelectionHash: hash,
		Selection:     canonical,
		OrgScope:      canonical.OrgScope,
		Policy:        policy,
		CreatedBy:     actor,
		CreatedAt:     now,
		Snapshot:      snap,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}

	if len(body) > MaxBodyBytes {
		return nil, apperr.InvalidArgument("manifest is %d bytes, limit is %d", len(body), MaxBodyBytes)
	}

	meta := map[string]string{
		"manifestId":    id,
		"orgScope":      canonical.OrgScope,
		"policy":        policy,
		"selectionHash": hash,
		"createdBy":     actor,
	}

	rec := &Record{
		ManifestID:         id,
		OrgScope:           canonical.OrgScope,
		Policy:             policy,
		SelectionHash:      hash,
		StoragePath:        latestPath(canonical.OrgScope, id),
		StorageVersionPath: versionPath(canonical.OrgScope, id, now),
		CreatedAt:          now,
		CreatedBy:          actor,
		UpdatedAt:          now,
		UpdatedBy:          actor,
	}

	if err := s.blobs.Put(ctx, rec.StorageVersionPath, body, contentType, meta); err != nil {
		return nil, apperr.Internal(err, "writing manifest version")
	}

	if err := s.blobs.Put(ctx, rec.StoragePath, body, contentType, meta); err != nil {
		return nil, apperr.Internal(err, "writing latest manifest")
	}

	stored, err := s.index.MergeRecord(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("indexing manifest: %w", err)
	}

	slog.InfoContext(ctx, "manifest built",
		"manifest_id", id, "selection_hash", hash, "policy", policy, "bytes", len(body), "versions", stored.Versions)

	return stored, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.InvalidArgument("manifest id is required")
	}

	return s.index.GetRecord(ctx, id)
}

// Latest returns the body stored at the manifest's latest path.
func (s *Service) Latest(ctx context.Context, id string) ([]byte, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.blobs.Get(ctx, rec.StoragePath)
}
