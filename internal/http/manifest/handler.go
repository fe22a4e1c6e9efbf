package manifest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/reclaim/internal/auth"
	"github.com/MrJamesThe3rd/reclaim/internal/http/httpio"
	"github.com/MrJamesThe3rd/reclaim/internal/impact"
	"github.com/MrJamesThe3rd/reclaim/internal/manifest"
	"github.com/MrJamesThe3rd/reclaim/internal/selection"
	"github.com/MrJamesThe3rd/reclaim/internal/sustainability"
)

type Handler struct {
	reports   *sustainability.Service
	manifests *manifest.Service
}

func NewHandler(reports *sustainability.Service, manifests *manifest.Service) *Handler {
	return &Handler{reports: reports, manifests: manifests}
}

func (h *Handler) Routes(r chi.Router) {
	r.With(auth.RequireRole(auth.RoleOperator, auth.RoleAdmin)).Post("/", h.build)
	r.Get("/{id}", h.get)
	r.Get("/{id}/latest", h.latest)
}

type recordResponse struct {
	ManifestID         string    `json:"manifestId"`
	OrgScope           string    `json:"orgScope"`
	Policy             string    `json:"policy"`
	SelectionHash      string    `json:"selectionHash"`
	StoragePath        string    `json:"storagePath"`
	StorageVersionPath string    `json:"storageVersionPath"`
	Versions           int       `json:"versions"`
	CreatedAt          time.Time `json:"createdAt"`
	CreatedBy          string    `json:"createdBy"`
	UpdatedAt          time.Time `json:"updatedAt"`
	UpdatedBy          string    `json:"updatedBy"`
}

func toResponse(rec *manifest.Record) recordResponse {
	return recordResponse{
		ManifestID:         rec.ManifestID,
		OrgScope:           rec.OrgScope,
		Policy:             rec.Policy,
		SelectionHash:      rec.SelectionHash,
		StoragePath:        rec.StoragePath,
		StorageVersionPath: rec.StorageVersionPath,
		Versions:           rec.Versions,
		CreatedAt:          rec.CreatedAt,
		CreatedBy:          rec.CreatedBy,
		UpdatedAt:          rec.UpdatedAt,
		UpdatedBy:          rec.UpdatedBy,
	}
}

type buildResponse struct {
	Manifest recordResponse `json:"manifest"`
	Impact   impact.View    `json:"impact"`
}

func (h *Handler) build(w http.ResponseWriter, r *http.Request) {
	var sel selection.Selection
	if err := httpio.Decode(r, &sel); err != nil {
		httpio.Error(w, r, err)
		return
	}

	res, err := h.reports.Compute(r.Context(), auth.Actor(r.Context()), sel)
	if err != nil {
		httpio.Error(w, r, err)
		return
	}

	httpio.JSON(w, http.StatusCreated, buildResponse{
		Manifest: toResponse(res.Manifest),
		Impact:   res.Snapshot.Present(),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.manifests.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpio.Error(w, r, err)
		return
	}

	httpio.JSON(w, http.StatusOK, toResponse(rec))
}

// latest streams the stored body as-is, full precision included.
func (h *Handler) latest(w http.ResponseWriter, r *http.Request) {
	body, err := h.manifests.Latest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpio.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write(body); err != nil {
		slog.Error("failed to write manifest body", "error", err)
	}
}
