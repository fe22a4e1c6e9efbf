package inventory

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Grade is the quality bucket of a device. E is reserved for scrapped devices.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
)

// Grades lists every grade in presentation order.
var Grades = []Grade{GradeA, GradeB, GradeC, GradeD, GradeE}

// ParseGrade maps a free-form grade string to a Grade, case-insensitively.
func ParseGrade(s string) (Grade, bool) {
	g := Grade(strings.ToUpper(strings.TrimSpace(s)))
	switch g {
	case GradeA, GradeB, GradeC, GradeD, GradeE:
		return g, true
	}

	return "", false
}

// Disposition is the terminal outcome of a device.
type Disposition string

const (
	DispositionNone     Disposition = ""
	DispositionReused   Disposition = "reused"
	DispositionResold   Disposition = "resold"
	DispositionScrapped Disposition = "scrapped"
)

var statusAliases = map[string]Disposition{
	"reused":   DispositionReused,
	"reuse":    DispositionReused,
	"resold":   DispositionResold,
	"resale":   DispositionResold,
	"sold":     DispositionResold,
	"scrapped": DispositionScrapped,
	"scraped":  DispositionScrapped,
	"scrap":    DispositionScrapped,
	"recycled": DispositionScrapped,
}

// DispositionFromStatus reads a disposition from a single status string.
func DispositionFromStatus(status string) (Disposition, bool) {
	d, ok := statusAliases[strings.ToLower(strings.TrimSpace(status))]
	return d, ok
}

// DispositionFromFlags reads a disposition from the three boolean flags.
// Exactly one flag must be set.
func DispositionFromFlags(reused, resold, scrapped bool) (Disposition, bool) {
	var (
		d     Disposition
		count int
	)

	if reused {
		d = DispositionReused
		count++
	}

	if resold {
		d = DispositionResold
		count++
	}

	if scrapped {
		d = DispositionScrapped
		count++
	}

	if count != 1 {
		return DispositionNone, false
	}

	return d, true
}

// Flags returns the boolean flag rendering of d.
func (d Disposition) Flags() (reused, resold, scrapped bool) {
	return d == DispositionReused, d == DispositionResold, d == DispositionScrapped
}

// Consistent reports whether a grade and disposition satisfy scrapped ⇔ E.
func Consistent(g Grade, d Disposition) bool {
	return (d == DispositionScrapped) == (g == GradeE)
}

// Amounts holds the legacy monetary fields an item may carry.
// Only the first present one in Value's fallback order counts.
type Amounts struct {
	BillingTotal decimal.NullDecimal
	TotalAmount  decimal.NullDecimal
	Amount       decimal.NullDecimal
	Price        decimal.NullDecimal
}

// Value resolves the item's monetary amount: billingTotal, then totalAmount,
// then amount, then price. Zero when none is set.
func (a Amounts) Value() decimal.Decimal {
	for _, v := range []decimal.NullDecimal{a.BillingTotal, a.TotalAmount, a.Amount, a.Price} {
		if v.Valid {
			return v.Decimal
		}
	}

	return decimal.Zero
}

// Item is one physical asset returned by a customer.
type Item struct {
	ID               string
	Customer         string
	ProductTypeID    string
	Grade            Grade
	Disposition      Disposition
	Completed        bool
	MarkedForInvoice bool
	InvoiceReportID  *string
	InvoicedAt       *time.Time
	Amounts          Amounts
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}

// Locked reports whether the item belongs to an invoice report.
func (i *Item) Locked() bool {
	return i.InvoiceReportID != nil && *i.InvoiceReportID != ""
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	c := *i
	if i.InvoiceReportID != nil {
		c.InvoiceReportID = new(*i.InvoiceReportID)
	}

	if i.InvoicedAt != nil {
		c.InvoicedAt = new(*i.InvoicedAt)
	}

	if i.CompletedAt != nil {
		c.CompletedAt = new(*i.CompletedAt)
	}

	if i.UpdatedAt != nil {
		c.UpdatedAt = new(*i.UpdatedAt)
	}

	return &c
}

// ListFilter narrows ListItems. Nil and empty fields do not filter.
type ListFilter struct {
	IDs            []string
	Customers      []string
	ProductTypeIDs []string
	Completed      *bool
	PendingInvoice *bool
	ReportID       *string
	CompletedFrom  *time.Time
	CompletedTo    *time.Time
}

// Matches applies the filter to a single item.
func (f ListFilter) Matches(it *Item) bool {
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, it.ID) {
		return false
	}

	if len(f.Customers) > 0 && !slices.Contains(f.Customers, it.Customer) {
		return false
	}

	if len(f.ProductTypeIDs) > 0 && !slices.Contains(f.ProductTypeIDs, it.ProductTypeID) {
		return false
	}

	if f.Completed != nil && it.Completed != *f.Completed {
		return false
	}

	if f.PendingInvoice != nil && (it.MarkedForInvoice && !it.Locked()) != *f.PendingInvoice {
		return false
	}

	if f.ReportID != nil && (it.InvoiceReportID == nil || *it.InvoiceReportID != *f.ReportID) {
		return false
	}

	if f.CompletedFrom != nil && (it.CompletedAt == nil || it.CompletedAt.Before(*f.CompletedFrom)) {
		return false
	}

	if f.CompletedTo != nil && (it.CompletedAt == nil || it.CompletedAt.After(*f.CompletedTo)) {
		return false
	}

	return true
}
