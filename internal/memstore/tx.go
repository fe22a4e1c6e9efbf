package memstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
	"github.com/MrJamesThe3rd/reclaim/internal/inventory"
	"github.com/MrJamesThe3rd/reclaim/internal/invoice"
)

var errTxDone = errors.New("transaction already finished")

type docKey struct {
	kind string
	id   string
}

// reportTx buffers writes and records the version of every document it read.
// Commit applies the writes only if none of those versions moved; a document
// read as absent must still be absent.
type reportTx struct {
	s *Store

	reads   map[docKey]uint64
	items   map[string]*inventory.Item
	reports map[string]*invoice.Report

	pendingItems   map[string]*inventory.Item
	pendingReports map[string]*invoice.Report

	wrote bool
	done  bool
}

func (s *Store) BeginReportTx(_ context.Context) (invoice.ReportTx, error) {
	return &reportTx{
		s:              s,
		reads:          make(map[docKey]uint64),
		items:          make(map[string]*inventory.Item),
		reports:        make(map[string]*invoice.Report),
		pendingItems:   make(map[string]*inventory.Item),
		pendingReports: make(map[string]*invoice.Report),
	}, nil
}

func (t *reportTx) checkRead() error {
	if t.done {
		return apperr.Internal(errTxDone, "report transaction")
	}

	if t.wrote {
		return apperr.Internal(ErrReadAfterWrite, "report transaction")
	}

	return nil
}

func (t *reportTx) checkWrite() error {
	if t.done {
		return apperr.Internal(errTxDone, "report transaction")
	}

	t.wrote = true

	return nil
}

func (t *reportTx) GetItems(_ context.Context, ids []string) ([]*inventory.Item, error) {
	if err := t.checkRead(); err != nil {
		return nil, err
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	out := make([]*inventory.Item, 0, len(ids))

	for _, id := range ids {
		v, ok := t.s.items[id]
		t.reads[docKey{"item", id}] = v.version

		if !ok {
			continue
		}

		t.items[id] = v.value.Clone()
		out = append(out, v.value.Clone())
	}

	return out, nil
}

func (t *reportTx) GetReport(_ context.Context, id string) (*invoice.Report, error) {
	if err := t.checkRead(); err != nil {
		return nil, err
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	v, ok := t.s.reports[id]
	t.reads[docKey{"report", id}] = v.version

	if !ok {
		return nil, apperr.NotFound("report %s not found", id)
	}

	t.reports[id] = v.value.Clone()

	return v.value.Clone(), nil
}

func (t *reportTx) CreateReport(_ context.Context, r *invoice.Report) error {
	if err := t.checkWrite(); err != nil {
		return err
	}

	key := docKey{"report", r.ID}
	if _, read := t.reads[key]; !read {
		// The report must still be absent at commit.
		t.reads[key] = 0
	}

	t.pendingReports[r.ID] = r.Clone()

	return nil
}

// readItem returns the buffered copy of an item read earlier in the transaction.
func (t *reportTx) readItem(id string) (*inventory.Item, error) {
	if it, ok := t.pendingItems[id]; ok {
		return it, nil
	}

	it, ok := t.items[id]
	if !ok {
		return nil, apperr.Internal(fmt.Errorf("item %s was not read in this transaction", id), "report transaction")
	}

	c := it.Clone()
	t.pendingItems[id] = c

	return c, nil
}

func (t *reportTx) LockItems(_ context.Context, reportID string, itemIDs []string, at time.Time) error {
	if err := t.checkWrite(); err != nil {
		return err
	}

	for _, id := range itemIDs {
		it, err := t.readItem(id)
		if err != nil {
			return err
		}

		it.InvoiceReportID = new(reportID)
		it.MarkedForInvoice = false
		it.InvoicedAt = new(at)
		it.UpdatedAt = new(at)
	}

	return nil
}

func (t *reportTx) UnlockItems(_ context.Context, itemIDs []string) error {
	if err := t.checkWrite(); err != nil {
		return err
	}

	for _, id := range itemIDs {
		it, err := t.readItem(id)
		if err != nil {
			return err
		}

		it.InvoiceReportID = nil
		it.MarkedForInvoice = true
		it.InvoicedAt = nil
	}

	return nil
}

func (t *reportTx) MarkReportDeleted(_ context.Context, id, by string, at time.Time) error {
	if err := t.checkWrite(); err != nil {
		return err
	}

	r, ok := t.reports[id]
	if !ok {
		return apperr.Internal(fmt.Errorf("report %s was not read in this transaction", id), "report transaction")
	}

	c := r.Clone()
	c.DeletedAt = new(at)
	c.DeletedBy = new(by)
	t.pendingReports[id] = c

	return nil
}

func (t *reportTx) Commit() error {
	if t.done {
		return apperr.Internal(errTxDone, "report transaction")
	}

	t.done = true

	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for key, seen := range t.reads {
		var current uint64

		switch key.kind {
		case "item":
			current = t.s.items[key.id].version
		case "report":
			current = t.s.reports[key.id].version
		}

		if current != seen {
			return apperr.Conflict(fmt.Errorf("%s %s modified concurrently", key.kind, key.id))
		}
	}

	for id, r := range t.pendingReports {
		t.s.reports[id] = versioned[*invoice.Report]{value: r, version: t.s.next()}
	}

	for id, it := range t.pendingItems {
		t.s.items[id] = versioned[*inventory.Item]{value: it, version: t.s.next()}
	}

	return nil
}

// Rollback discards buffered writes. It is a no-op after Commit.
func (t *reportTx) Rollback() error {
	t.done = true
	return nil
}
