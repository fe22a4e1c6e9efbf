package report

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
	"github.com/MrJamesThe3rd/reclaim/internal/auth"
	"github.com/MrJamesThe3rd/reclaim/internal/http/httpio"
	"github.com/MrJamesThe3rd/reclaim/internal/invoice"
)

type Handler struct {
	svc *invoice.Service
}

func NewHandler(svc *invoice.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.With(auth.RequireRole(auth.RoleOperator, auth.RoleAdmin)).Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.With(auth.RequireRole(auth.RoleAdmin)).Delete("/{id}", h.delete)
}

type createRequest struct {
	ItemIDs []string `json:"itemIds" validate:"required,min=1"`
}

type summaryResponse struct {
	TotalItems  int             `json:"totalItems"`
	Reused      int             `json:"reused"`
	Resold      int             `json:"resold"`
	Scrapped    int             `json:"scrapped"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type createResponse struct {
	ReportID string          `json:"reportId"`
	Name     string          `json:"name"`
	Customer string          `json:"customer"`
	Count    int             `json:"count"`
	Summary  summaryResponse `json:"summary"`
}

type deleteResponse struct {
	ReportID string   `json:"reportId"`
	Unlocked int      `json:"unlocked"`
	Missing  []string `json:"missing"`
}

type reportResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Customer  string          `json:"customer"`
	ItemIDs   []string        `json:"itemIds"`
	Summary   summaryResponse `json:"summary"`
	CreatedAt time.Time       `json:"createdAt"`
	CreatedBy string          `json:"createdBy"`
	DeletedAt *time.Time      `json:"deletedAt,omitempty"`
	DeletedBy *string         `json:"deletedBy,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpio.Decode(r, &req); err != nil {
		httpio.Error(w, r, err)
		return
	}

	res, err := h.svc.Create(r.Context(), auth.Actor(r.Context()), req.ItemIDs)
	if err != nil {
		httpio.Error(w, r, err)
		return
	}

	httpio.JSON(w, http.StatusCreated, createResponse{
		ReportID: res.ReportID,
		Name:     res.Name,
		Customer: res.Customer,
		Count:    res.Count,
		Summary:  toSummary(res.Summary),
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var filter invoice.ListFilter

	if s := r.URL.Query().Get("customer"); s != "" {
		filter.Customer = new(s)
	}

	if s := r.URL.Query().Get("includeDeleted"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			httpio.Error(w, r, apperr.InvalidArgument("includeDeleted must be a boolean"))
			return
		}

		filter.IncludeDeleted = v
	}

	reports, err := h.svc.List(r.Context(), filter)
	if err != nil {
		httpio.Error(w, r, err)
		return
	}

	resp := make([]reportResponse, len(reports))
	for i, rep := range reports {
		resp[i] = toResponse(rep)
	}

	httpio.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpio.Error(w, r, err)
		return
	}

	httpio.JSON(w, http.StatusOK, toResponse(rep))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Delete(r.Context(), auth.Actor(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpio.Error(w, r, err)
		return
	}

	missing := res.Missing
	if missing == nil {
		missing = []string{}
	}

	httpio.JSON(w, http.StatusOK, deleteResponse{ReportID: res.ReportID, Unlocked: res.Unlocked, Missing: missing})
}

func toSummary(s invoice.Summary) summaryResponse {
	return summaryResponse{
		TotalItems:  s.TotalItems,
		Reused:      s.Reused,
		Resold:      s.Resold,
		Scrapped:    s.Scrapped,
		TotalAmount: s.TotalAmount,
	}
}

func toResponse(r *invoice.Report) reportResponse {
	return reportResponse{
		ID:        r.ID,
		Name:      r.Name,
		Customer:  r.Customer,
		ItemIDs:   r.ItemIDs,
		Summary:   toSummary(r.Summary),
		CreatedAt: r.CreatedAt,
		CreatedBy: r.CreatedBy,
		DeletedAt: r.DeletedAt,
		DeletedBy: r.DeletedBy,
	}
}
