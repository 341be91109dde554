package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jesses-code-adventures/invoicer/internal/apperr"
	"github.com/jesses-code-adventures/invoicer/internal/database"
	"github.com/jesses-code-adventures/invoicer/internal/events"
	"github.com/jesses-code-adventures/invoicer/internal/lifecycle"
	"github.com/jesses-code-adventures/invoicer/internal/models"
	"github.com/jesses-code-adventures/invoicer/internal/tenant"
)

// setStatus moves d to status to, stamping the paid date when it becomes
// paid. The write only lands if d still holds the status it was read with.
func setStatus(ctx context.Context, q database.Queries, d *models.Document, to models.Status, now time.Time, op string) error {
	if err := lifecycle.CanTransition(d.DocumentType, d.Status, to); err != nil {
		return err
	}
	var paidDate *time.Time
	if to == models.StatusPaid {
		paidDate = &now
	}
	if err := q.UpdateDocumentStatus(ctx, d.ID, d.Status, to, paidDate); err != nil {
		if errors.Is(err, database.ErrNoChange) {
			return apperr.Conflict(op, "%s %s changed status concurrently", d.DocumentType, d.DocumentNumber)
		}
		return apperr.Storage(op, err)
	}
	d.Status = to
	if paidDate != nil {
		d.PaidDate = paidDate
	}
	d.UpdatedAt = now
	return nil
}

// TransitionStatus moves a document to a new status if its type allows it.
func (s *InvoiceService) TransitionStatus(ctx context.Context, id string, to models.Status) (*models.Document, error) {
	const op = "service.transition_status"

	var doc *models.Document
	err := s.tenants.Do(ctx, func(h *tenant.Handle) error {
		now := s.clock()
		err := h.Store.WithTx(ctx, func(tx database.Queries) error {
			d, err := tx.GetDocumentByID(ctx, id)
			if err != nil {
				return lookup(op, "document", id, err)
			}
			if err := setStatus(ctx, tx, d, to, now, op); err != nil {
				return err
			}
			doc = d
			return nil
		})
		if err != nil {
			return apperr.Storage(op, err)
		}
		s.notify(h, events.CollectionDocuments, events.OpUpdate, id)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("number", doc.DocumentNumber).
		Str("status", string(doc.Status)).
		Msg("Changed document status")
	return doc, nil
}

func (s *InvoiceService) MarkSent(ctx context.Context, id string) (*models.Document, error) {
	return s.TransitionStatus(ctx, id, models.StatusSent)
}

// MarkPaid records payment of an invoice and stamps today's date.
func (s *InvoiceService) MarkPaid(ctx context.Context, id string) (*models.Document, error) {
	return s.TransitionStatus(ctx, id, models.StatusPaid)
}

func (s *InvoiceService) MarkOverdue(ctx context.Context, id string) (*models.Document, error) {
	return s.TransitionStatus(ctx, id, models.StatusOverdue)
}

func (s *InvoiceService) Cancel(ctx context.Context, id string) (*models.Document, error) {
	return s.TransitionStatus(ctx, id, models.StatusCancelled)
}

func (s *InvoiceService) AcceptQuote(ctx context.Context, id string) (*models.Document, error) {
	return s.TransitionStatus(ctx, id, models.StatusAccepted)
}

func (s *InvoiceService) DeclineQuote(ctx context.Context, id string) (*models.Document, error) {
	return s.TransitionStatus(ctx, id, models.StatusDeclined)
}

func (s *InvoiceService) ExpireQuote(ctx context.Context, id string) (*models.Document, error) {
	return s.TransitionStatus(ctx, id, models.StatusExpired)
}

// SweepOverdue marks every sent invoice whose due date has passed as
// overdue and returns the documents it changed.
func (s *InvoiceService) SweepOverdue(ctx context.Context) ([]*models.Document, error) {
	const op = "service.sweep_overdue"

	var changed []*models.Document
	err := s.tenants.Do(ctx, func(h *tenant.Handle) error {
		now := s.clock()
		err := h.Store.WithTx(ctx, func(tx database.Queries) error {
			sent, err := tx.ListDocuments(ctx, database.DocumentFilter{
				DocumentType: models.DocumentTypeInvoice,
				Status:       models.StatusSent,
			})
			if err != nil {
				return apperr.Storage(op, err)
			}
			for _, d := range sent {
				if !d.DueDate.Before(now) {
					continue
				}
				if err := setStatus(ctx, tx, d, models.StatusOverdue, now, op); err != nil {
					return err
				}
				changed = append(changed, d)
			}
			return nil
		})
		if err != nil {
			changed = nil
			return apperr.Storage(op, err)
		}
		for _, d := range changed {
			s.notify(h, events.CollectionDocuments, events.OpUpdate, d.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(changed) > 0 {
		s.logger.Info().Int("count", len(changed)).Msg("Marked invoices overdue")
	}
	return changed, nil
}

// Stats summarises the documents of the active company.
type Stats struct {
	Invoices map[models.Status]int
	Quotes   map[models.Status]int
	// Outstanding is the total of sent and overdue invoices per currency.
	Outstanding map[string]decimal.Decimal
	Paid        map[string]decimal.Decimal
}

func (s *InvoiceService) Stats(ctx context.Context) (*Stats, error) {
	docs, err := s.ListDocuments(ctx, database.DocumentFilter{})
	if err != nil {
		return nil, err
	}

	st := &Stats{
		Invoices:    make(map[models.Status]int),
		Quotes:      make(map[models.Status]int),
		Outstanding: make(map[string]decimal.Decimal),
		Paid:        make(map[string]decimal.Decimal),
	}
	for _, d := range docs {
		if d.IsQuote() {
			st.Quotes[d.Status]++
			continue
		}
		st.Invoices[d.Status]++
		switch d.Status {
		case models.StatusSent, models.StatusOverdue:
			st.Outstanding[d.Currency] = st.Outstanding[d.Currency].Add(d.Total)
		case models.StatusPaid:
			st.Paid[d.Currency] = st.Paid[d.Currency].Add(d.Total)
		}
	}
	return st, nil
}
