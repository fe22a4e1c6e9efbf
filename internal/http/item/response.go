package item

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/reclaim/internal/inventory"
)

type itemResponse struct {
	ID               string                `json:"id"`
	Customer         string                `json:"customer"`
	ProductTypeID    string                `json:"productTypeId"`
	Grade            inventory.Grade       `json:"grade,omitempty"`
	Disposition      inventory.Disposition `json:"disposition,omitempty"`
	Completed        bool                  `json:"completed"`
	MarkedForInvoice bool                  `json:"markedForInvoice"`
	InvoiceReportID  *string               `json:"invoiceReportId,omitempty"`
	InvoicedAt       *time.Time            `json:"invoicedAt,omitempty"`
	Amount           decimal.Decimal       `json:"amount"`
	CompletedAt      *time.Time            `json:"completedAt,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        *time.Time            `json:"updatedAt,omitempty"`
}

func toResponse(it *inventory.Item) itemResponse {
	return itemResponse{
		ID:               it.ID,
		Customer:         it.Customer,
		ProductTypeID:    it.ProductTypeID,
		Grade:            it.Grade,
		Disposition:      it.Disposition,
		Completed:        it.Completed,
		MarkedForInvoice: it.MarkedForInvoice,
		InvoiceReportID:  it.InvoiceReportID,
		InvoicedAt:       it.InvoicedAt,
		Amount:           it.Amounts.Value(),
		CompletedAt:      it.CompletedAt,
		CreatedAt:        it.CreatedAt,
		UpdatedAt:        it.UpdatedAt,
	}
}

func toResponseList(items []*inventory.Item) []itemResponse {
	resp := make([]itemResponse, len(items))
	for i, it := range items {
		resp[i] = toResponse(it)
	}

	return resp
}
