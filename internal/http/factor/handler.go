package factor

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/reclaim/internal/auth"
	"github.com/MrJamesThe3rd/reclaim/internal/factor"
	"github.com/MrJamesThe3rd/reclaim/internal/http/httpio"
)

type Handler struct {
	svc *factor.Service
}

func NewHandler(svc *factor.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	admin := r.With(auth.RequireRole(auth.RoleAdmin))

	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	admin.Put("/{id}", h.upsert)
	admin.Delete("/{id}", h.delete)
}

type factorResponse struct {
	ID             string    `json:"id"`
	Label          string    `json:"label"`
	MedianWeightKg float64   `json:"medianWeightKg"`
	CO2PerUnitKg   float64   `json:"co2PerUnitKg"`
	SchemaVersion  int       `json:"schemaVersion"`
	Active         bool      `json:"active"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toResponse(e *factor.Entry) factorResponse {
	return factorResponse{
		ID:             e.ID,
		Label:          e.Label,
		MedianWeightKg: e.MedianWeightKg,
		CO2PerUnitKg:   e.CO2PerUnitKg,
		SchemaVersion:  e.SchemaVersion,
		Active:         e.Active,
		UpdatedAt:      e.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context())
	if err != nil {
		httpio.Error(w, r, err)
		return
	}

	resp := make([]factorResponse, len(entries))
	for i, e := range entries {
		resp[i] = toResponse(e)
	}

	httpio.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpio.Error(w, r, err)
		return
	}

	httpio.JSON(w, http.StatusOK, toResponse(e))
}

type upsertRequest struct {
	Label          string   `json:"label"`
	MedianWeightKg *float64 `json:"medianWeightKg" validate:"required,gte=0"`
	CO2PerUnitKg   *float64 `json:"co2PerUnitKg" validate:"required,gte=0"`
	Active         *bool    `json:"active"`
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := httpio.Decode(r, &req); err != nil {
		httpio.Error(w, r, err)
		return
	}

	e, err := h.svc.Upsert(r.Context(), factor.UpsertParams{
		ID:             chi.URLParam(r, "id"),
		Label:          req.Label,
		MedianWeightKg: *req.MedianWeightKg,
		CO2PerUnitKg:   *req.CO2PerUnitKg,
		Active:         req.Active,
	})
	if err != nil {
		httpio.Error(w, r, err)
		return
	}

	httpio.JSON(w, http.StatusOK, toResponse(e))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpio.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
