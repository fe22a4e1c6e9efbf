package item

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
	"github.com/MrJamesThe3rd/reclaim/internal/auth"
	"github.com/MrJamesThe3rd/reclaim/internal/http/httpio"
	"github.com/MrJamesThe3rd/reclaim/internal/inventory"
)

type Handler struct {
	svc *inventory.Service
}

func NewHandler(svc *inventory.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	write := r.With(auth.RequireRole(auth.RoleOperator, auth.RoleAdmin))

	write.Post("/", h.intake)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	write.Patch("/{id}/grade", h.grade)
	write.Post("/{id}/complete", h.complete)
}

type intakeRequest struct {
	ID            string              `json:"id"`
	Customer      string              `json:"customer" validate:"required"`
	ProductTypeID string              `json:"productTypeId" validate:"required"`
	BillingTotal  decimal.NullDecimal `json:"billingTotal"`
	TotalAmount   decimal.NullDecimal `json:"totalAmount"`
	Amount        decimal.NullDecimal `json:"amount"`
	Price         decimal.NullDecimal `json:"price"`
}

func (h *Handler) intake(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if err := httpio.Decode(r, &req); err != nil {
		httpio.Error(w, r, err)
		return
	}

	it, err := h.svc.Intake(r.Context(), inventory.IntakeParams{
		ID:            strings.TrimSpace(req.ID),
		Customer:      req.Customer,
		ProductTypeID: req.ProductTypeID,
		Amounts: inventory.Amounts{
			BillingTotal: req.BillingTotal,
			TotalAmount:  req.TotalAmount,
			Amount:       req.Amount,
			Price:        req.Price,
		},
	})
	if err != nil {
		httpio.Error(w, r, err)
		return
	}

	httpio.JSON(w, http.StatusCreated, toResponse(it))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := inventory.ListFilter{
		Customers:      q["customer"],
		ProductTypeIDs: q["productTypeId"],
	}

	for name, dst := range map[string]**bool{"completed": &filter.Completed, "pendingInvoice": &filter.PendingInvoice} {
		s := q.Get(name)
		if s == "" {
			continue
		}

		v, err := strconv.ParseBool(s)
		if err != nil {
			httpio.Error(w, r, apperr.InvalidArgument("%s must be a boolean", name))
			return
		}

		*dst = new(v)
	}

	if s := q.Get("reportId"); s != "" {
		filter.ReportID = new(s)
	}

	items, err := h.svc.List(r.Context(), filter)
	if err != nil {
		httpio.Error(w, r, err)
		return
	}

	httpio.JSON(w, http.StatusOK, toResponseList(items))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	it, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpio.Error(w, r, err)
		return
	}

	httpio.JSON(w, http.StatusOK, toResponse(it))
}

type gradeRequest struct {
	Grade       string `json:"grade" validate:"required,oneof=A B C D E a b c d e"`
	Disposition string `json:"disposition" validate:"required,oneof=reused resold scrapped"`
}

func (h *Handler) grade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := httpio.Decode(r, &req); err != nil {
		httpio.Error(w, r, err)
		return
	}

	g, _ := inventory.ParseGrade(req.Grade)

	it, err := h.svc.Grade(r.Context(), chi.URLParam(r, "id"), g, inventory.Disposition(req.Disposition))
	if err != nil {
		httpio.Error(w, r, err)
		return
	}

	httpio.JSON(w, http.StatusOK, toResponse(it))
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	it, err := h.svc.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpio.Error(w, r, err)
		return
	}

	httpio.JSON(w, http.StatusOK, toResponse(it))
}
