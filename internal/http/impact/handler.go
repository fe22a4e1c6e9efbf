package impact

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
	enc "github.com/MrJamesThe3rd/reclaim/internal/encoding"
	"github.com/MrJamesThe3rd/reclaim/internal/http/httpio"
	"github.com/MrJamesThe3rd/reclaim/internal/impact"
	"github.com/MrJamesThe3rd/reclaim/internal/importer"
	"github.com/MrJamesThe3rd/reclaim/internal/selection"
	"github.com/MrJamesThe3rd/reclaim/internal/sustainability"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	svc    *sustainability.Service
	parser *importer.Parser
}

func NewHandler(svc *sustainability.Service, parser *importer.Parser) *Handler {
	return &Handler{svc: svc, parser: parser}
}

// Routes registers paths relative to the API root; they span the
// /selections and /impact prefixes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/selections/hash", h.hash)
	r.Post("/impact/aggregate", h.aggregate)
	r.Post("/impact/import", h.importCSV)
}

type hashResponse struct {
	SelectionHash string              `json:"selectionHash"`
	Selection     selection.Selection `json:"selection"`
}

func (h *Handler) hash(w http.ResponseWriter, r *http.Request) {
	var sel selection.Selection
	if err := httpio.Decode(r, &sel); err != nil {
		httpio.Error(w, r, err)
		return
	}

	canonical, err := h.svc.Normalize(sel)
	if err != nil {
		httpio.Error(w, r, err)
		return
	}

	sum, err := selection.Hash(canonical)
	if err != nil {
		httpio.Error(w, r, apperr.InvalidArgument("invalid selection: %v", err))
		return
	}

	httpio.JSON(w, http.StatusOK, hashResponse{SelectionHash: sum, Selection: canonical})
}

type aggregateRequest struct {
	Items  []impact.Record `json:"items"`
	Policy *impact.Policy  `json:"policy"`
}

func (h *Handler) aggregate(w http.ResponseWriter, r *http.Request) {
	var req aggregateRequest
	if err := httpio.Decode(r, &req); err != nil {
		httpio.Error(w, r, err)
		return
	}

	snap, err := h.svc.Aggregate(r.Context(), req.Items, req.Policy)
	if err != nil {
		httpio.Error(w, r, err)
		return
	}

	httpio.JSON(w, http.StatusOK, snap.Present())
}

type importResponse struct {
	Profile string      `json:"profile"`
	Charset enc.Charset `json:"charset"`
	Records int         `json:"records"`
	Impact  impact.View `json:"impact"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpio.Error(w, r, apperr.InvalidArgument("upload exceeds %d bytes", maxUploadBytes))
			return
		}

		httpio.Error(w, r, apperr.InvalidArgument("failed to parse form: %v", err))

		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		httpio.Error(w, r, apperr.InvalidArgument("file is required"))
		return
	}
	defer file.Close()

	res, err := h.parser.Parse(file)
	if err != nil {
		httpio.Error(w, r, apperr.InvalidArgument("%v", err))
		return
	}

	snap, err := h.svc.Aggregate(r.Context(), res.Records, nil)
	if err != nil {
		httpio.Error(w, r, err)
		return
	}

	httpio.JSON(w, http.StatusOK, importResponse{
		Profile: res.Profile,
		Charset: res.Charset,
		Records: len(res.Records),
		Impact:  snap.Present(),
	})
}
