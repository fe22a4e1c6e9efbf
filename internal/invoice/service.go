package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
	"github.com/MrJamesThe3rd/reclaim/internal/inventory"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=invoice
type Repository interface {
	// GetItems returns the existing items among ids; missing ids are omitted.
	GetItems(ctx context.Context, ids []string) ([]*inventory.Item, error)
	// GetReport returns an apperr NotFound error when id does not exist.
	GetReport(ctx context.Context, id string) (*Report, error)
	ListReports(ctx context.Context, filter ListFilter) ([]*Report, error)

	BeginReportTx(ctx context.Context) (ReportTx, error)
}

// ReportTx is an optimistic atomic region. All reads must happen before the
// first write; Commit fails with a retryable apperr conflict when anything
// read was modified concurrently.
type ReportTx interface {
	GetItems(ctx context.Context, ids []string) ([]*inventory.Item, error)
	GetReport(ctx context.Context, id string) (*Report, error)

	CreateReport(ctx context.Context, r *Report) error
	LockItems(ctx context.Context, reportID string, itemIDs []string, at time.Time) error
	UnlockItems(ctx context.Context, itemIDs []string) error
	MarkReportDeleted(ctx context.Context, id, by string, at time.Time) error

	Commit() error
	Rollback() error
}

// Recorder receives lifecycle events, typically for metrics.
type Recorder interface {
	ReportCreated(items int)
	ReportDeleted(items int)
	TxConflict(op string)
}

type nopRecorder struct{}

func (nopRecorder) ReportCreated(int) {}
func (nopRecorder) ReportDeleted(int) {}
func (nopRecorder) TxConflict(string) {}

type Service struct {
	repo     Repository
	recorder Recorder
	now      func() time.Time
}

type Option func(*Service)

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, recorder: nopRecorder{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create bundles completed, unlocked items of one customer into a new report
// and locks them atomically.
//
// Preconditions are checked twice: once against a plain read for fast
// feedback, and again inside the transaction against the authoritative read.
func (s *Service) Create(ctx context.Context, actor string, itemIDs []string) (*CreateResult, error) {
	ids, err := normalizeIDs(itemIDs)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}

	customer, err := checkInvoiceable(ids, items)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	report := &Report{
		ID:        uuid.NewString(),
		Name:      reportName(customer, now),
		Customer:  customer,
		ItemIDs:   ids,
		CreatedAt: now,
		CreatedBy: actor,
	}

	tx, err := s.repo.BeginReportTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin report tx: %w", err)
	}
	defer tx.Rollback()

	txItems, err := tx.GetItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("reloading items: %w", err)
	}

	txCustomer, err := checkInvoiceable(ids, txItems)
	if err != nil {
		return nil, err
	}

	if txCustomer != customer {
		return nil, apperr.FailedPrecondition("items changed customer from %q to %q", customer, txCustomer)
	}

	report.Summary = summarize(txItems)

	if err := tx.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("creating report: %w", err)
	}

	if err := tx.LockItems(ctx, report.ID, ids, now); err != nil {
		return nil, fmt.Errorf("locking items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if apperr.IsRetryable(err) {
			s.recorder.TxConflict("create_report")
		}

		return nil, fmt.Errorf("commit report: %w", err)
	}

	s.recorder.ReportCreated(len(ids))
	slog.InfoContext(ctx, "invoice report created",
		"report_id", report.ID, "customer", customer, "items", len(ids), "actor", actor)

	return &CreateResult{
		ReportID: report.ID,
		Name:     report.Name,
		Customer: customer,
		Count:    len(ids),
		Summary:  report.Summary,
	}, nil
}

// Delete soft-deletes a report and returns its items to the invoicing pool.
// Member items that no longer exist are skipped and reported in Missing.
func (s *Service) Delete(ctx context.Context, actor, reportID string) (*DeleteResult, error) {
	reportID = strings.TrimSpace(reportID)
	if reportID == "" {
		return nil, apperr.InvalidArgument("report id is required")
	}

	tx, err := s.repo.BeginReportTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin report tx: %w", err)
	}
	defer tx.Rollback()

	report, err := tx.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if report.Deleted() {
		return nil, apperr.FailedPrecondition("report %s is already deleted", reportID)
	}

	items, err := tx.GetItems(ctx, report.ItemIDs)
	if err != nil {
		return nil, fmt.Errorf("loading report items: %w", err)
	}

	found := make(map[string]bool, len(items))
	unlock := make([]string, 0, len(items))

	for _, it := range items {
		found[it.ID] = true

		if it.InvoiceReportID == nil || *it.InvoiceReportID != reportID {
			slog.WarnContext(ctx, "report member not locked to report",
				"report_id", reportID, "item_id", it.ID)

			continue
		}

		unlock = append(unlock, it.ID)
	}

	var missing []string

	for _, id := range report.ItemIDs {
		if !found[id] {
			missing = append(missing, id)
		}
	}

	if err := tx.MarkReportDeleted(ctx, reportID, actor, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("marking report deleted: %w", err)
	}

	if len(unlock) > 0 {
		if err := tx.UnlockItems(ctx, unlock); err != nil {
			return nil, fmt.Errorf("unlocking items: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if apperr.IsRetryable(err) {
			s.recorder.TxConflict("delete_report")
		}

		return nil, fmt.Errorf("commit report deletion: %w", err)
	}

	if len(missing) > 0 {
		slog.WarnContext(ctx, "deleted report referenced missing items",
			"report_id", reportID, "missing", len(missing))
	}

	s.recorder.ReportDeleted(len(unlock))
	slog.InfoContext(ctx, "invoice report deleted",
		"report_id", reportID, "unlocked", len(unlock), "actor", actor)

	return &DeleteResult{ReportID: reportID, Unlocked: len(unlock), Missing: missing}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Report, error) {
	return s.repo.GetReport(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Report, error) {
	return s.repo.ListReports(ctx, filter)
}

// normalizeIDs trims and de-duplicates ids, preserving first-seen order.
func normalizeIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, apperr.InvalidArgument("at least one item id is required")
	}

	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))

	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, apperr.InvalidArgument("item ids must not be empty")
		}

		if seen[id] {
			continue
		}

		seen[id] = true
		out = append(out, id)
	}

	return out, nil
}

// checkInvoiceable validates that every id resolved to a completed, unlocked
// item and that all items share one customer, which it returns.
func checkInvoiceable(ids []string, items []*inventory.Item) (string, error) {
	byID := make(map[string]*inventory.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	var missing []string

	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		return "", apperr.NotFound("items not found: %s", strings.Join(missing, ", "))
	}

	customers := make([]string, 0, 1)

	for _, id := range ids {
		it := byID[id]

		switch {
		case !it.Completed:
			return "", apperr.FailedPrecondition("item %s is not completed", id)
		case it.Locked():
			return "", apperr.FailedPrecondition("item %s is already in report %s", id, *it.InvoiceReportID)
		case strings.TrimSpace(it.Customer) == "":
			return "", apperr.FailedPrecondition("item %s has no customer", id)
		}

		if !slices.Contains(customers, it.Customer) {
			customers = append(customers, it.Customer)
		}
	}

	if len(customers) > 1 {
		slices.Sort(customers)
		return "", apperr.FailedPrecondition("items span multiple customers: %s", strings.Join(customers, ", "))
	}

	return customers[0], nil
}

func reportName(customer string, at time.Time) string {
	return fmt.Sprintf("%s %s", customer, at.Format("2006-01-02 15:04:05"))
}
