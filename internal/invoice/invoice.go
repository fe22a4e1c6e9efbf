package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/reclaim/internal/inventory"
)

// Summary is frozen when the report is created and never recomputed.
type Summary struct {
	TotalItems  int
	Reused      int
	Resold      int
	Scrapped    int
	TotalAmount decimal.Decimal
}

// Report bundles completed items of a single customer for invoicing.
type Report struct {
	ID        string
	Name      string
	Customer  string
	ItemIDs   []string
	Summary   Summary
	CreatedAt time.Time
	CreatedBy string
	DeletedAt *time.Time
	DeletedBy *string
}

// Deleted reports whether the report was soft-deleted. Deleted is terminal.
func (r *Report) Deleted() bool {
	return r.DeletedAt != nil
}

// Clone returns a deep copy of the report.
func (r *Report) Clone() *Report {
	c := *r
	c.ItemIDs = append([]string(nil), r.ItemIDs...)

	if r.DeletedAt != nil {
		c.DeletedAt = new(*r.DeletedAt)
	}

	if r.DeletedBy != nil {
		c.DeletedBy = new(*r.DeletedBy)
	}

	return &c
}

type ListFilter struct {
	Customer       *string
	IncludeDeleted bool
}

// CreateResult is returned by Service.Create.
type CreateResult struct {
	ReportID string
	Name     string
	Customer string
	Count    int
	Summary  Summary
}

// DeleteResult is returned by Service.Delete. Missing lists member items
// that no longer existed when the report was deleted.
type DeleteResult struct {
	ReportID string
	Unlocked int
	Missing  []string
}

func summarize(items []*inventory.Item) Summary {
	s := Summary{TotalItems: len(items), TotalAmount: decimal.Zero}

	for _, it := range items {
		switch it.Disposition {
		case inventory.DispositionReused:
			s.Reused++
		case inventory.DispositionResold:
			s.Resold++
		case inventory.DispositionScrapped:
			s.Scrapped++
		}

		s.TotalAmount = s.TotalAmount.Add(it.Amounts.Value())
	}

	return s
}
