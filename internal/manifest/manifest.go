package manifest

import (
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/reclaim/internal/impact"
	"github.com/MrJamesThe3rd/reclaim/internal/selection"
)

// MaxBodyBytes caps the serialized manifest body.
const MaxBodyBytes = 2 << 20

const contentType = "application/json"

// Record is the index entry for a manifest, keyed by ManifestID.
type Record struct {
	ManifestID         string
	OrgScope           string
	Policy             string
	SelectionHash      string
	StoragePath        string
	StorageVersionPath string
	Versions           int
	CreatedAt          time.Time
	CreatedBy          string
	UpdatedAt          time.Time
	UpdatedBy          string
}

// Document is the persisted manifest body.
type Document struct {
	ManifestID    string              `json:"manifestId"`
	SelectionHash string              `json:"selectionHash"`
	Selection     selection.Selection `json:"selection"`
	OrgScope      string              `json:"orgScope"`
	Policy        string              `json:"policy"`
	CreatedBy     string              `json:"createdBy"`
	CreatedAt     time.Time           `json:"createdAt"`
	Snapshot      impact.Snapshot     `json:"snapshot"`
}

func latestPath(orgScope, manifestID string) string {
	return fmt.Sprintf("manifests/%s/%s/latest.json", orgScope, manifestID)
}

func versionPath(orgScope, manifestID string, at time.Time) string {
	return fmt.Sprintf("manifests/%s/%s/versions/%s.json", orgScope, manifestID, at.UTC().Format("20060102T150405.000000000Z"))
}
