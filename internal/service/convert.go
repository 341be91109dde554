package service

import (
	"context"
	"errors"

	"github.com/jesses-code-adventures/invoicer/internal/apperr"
	"github.com/jesses-code-adventures/invoicer/internal/database"
	"github.com/jesses-code-adventures/invoicer/internal/events"
	"github.com/jesses-code-adventures/invoicer/internal/lifecycle"
	"github.com/jesses-code-adventures/invoicer/internal/models"
	"github.com/jesses-code-adventures/invoicer/internal/tenant"
	"github.com/jesses-code-adventures/invoicer/internal/totals"
)

// ConvertQuote turns an accepted quote into a draft invoice. Minting the
// invoice number, inserting the invoice and linking the quote to it commit
// together or not at all, so a quote converts at most once.
func (s *InvoiceService) ConvertQuote(ctx context.Context, quoteID string) (*models.Document, error) {
	const op = "service.convert_quote"

	var invoice *models.Document
	var quote *models.Document
	err := s.tenants.Do(ctx, func(h *tenant.Handle) error {
		now := s.clock()
		err := h.Store.WithTx(ctx, func(tx database.Queries) error {
			q, err := tx.GetDocumentByID(ctx, quoteID)
			if err != nil {
				return lookup(op, "quote", quoteID, err)
			}
			if err := lifecycle.CanConvert(q); err != nil {
				return err
			}
			settings, err := loadSettings(ctx, tx, op)
			if err != nil {
				return err
			}

			inv := &models.Document{
				DocumentType:         models.DocumentTypeInvoice,
				ClientID:             q.ClientID,
				Items:                q.Items.Clone(),
				Currency:             q.Currency,
				Status:               models.StatusDraft,
				IssueDate:            now,
				DueDate:              addDays(now, settings.DefaultPaymentTermsDays),
				ConvertedFromQuoteID: &q.ID,
				Notes:                q.Notes,
				Subtotal:             q.Subtotal,
				TaxTotal:             q.TaxTotal,
				Total:                q.Total,
				CreatedAt:            now,
				UpdatedAt:            now,
			}
			if err := mintInto(ctx, tx, inv, now.Year()); err != nil {
				return err
			}
			if err := tx.InsertDocument(ctx, inv); err != nil {
				return err
			}
			if err := tx.MarkQuoteConverted(ctx, q.ID, inv.ID); err != nil {
				if errors.Is(err, database.ErrNoChange) {
					return apperr.Conflict(op, "quote %s was converted concurrently", q.DocumentNumber)
				}
				return err
			}
			q.ConvertedToInvoiceID = &inv.ID
			invoice, quote = inv, q
			return nil
		})
		if err != nil {
			return apperr.Storage(op, err)
		}
		s.notify(h, events.CollectionDocuments, events.OpCreate, invoice.ID)
		s.notify(h, events.CollectionDocuments, events.OpUpdate, quote.ID)
		s.notify(h, events.CollectionLedgers, events.OpUpdate, invoice.LedgerID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("quote", quote.DocumentNumber).
		Str("invoice", invoice.DocumentNumber).
		Msg("Converted quote to invoice")
	return invoice, nil
}

// DuplicateDocument creates a new draft from an existing document of the
// same type. It gets a fresh number for the current year, new line item ids
// and dates starting today. Conversion links are not copied.
func (s *InvoiceService) DuplicateDocument(ctx context.Context, id string) (*models.Document, error) {
	const op = "service.duplicate_document"

	var doc *models.Document
	err := s.tenants.Do(ctx, func(h *tenant.Handle) error {
		now := s.clock()
		err := h.Store.WithTx(ctx, func(tx database.Queries) error {
			src, err := tx.GetDocumentByID(ctx, id)
			if err != nil {
				return lookup(op, "document", id, err)
			}
			settings, err := loadSettings(ctx, tx, op)
			if err != nil {
				return err
			}

			items := src.Items.Clone()
			for i := range items {
				items[i].ID = models.NewUUID()
			}
			d := &models.Document{
				DocumentType: src.DocumentType,
				ClientID:     src.ClientID,
				Items:        items,
				Currency:     src.Currency,
				Status:       models.StatusDraft,
				IssueDate:    now,
				DueDate:      addDays(now, defaultTerm(src.DocumentType, settings)),
				Notes:        src.Notes,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			totals.Apply(d)
			if err := mintInto(ctx, tx, d, now.Year()); err != nil {
				return err
			}
			if err := tx.InsertDocument(ctx, d); err != nil {
				return err
			}
			doc = d
			return nil
		})
		if err != nil {
			return apperr.Storage(op, err)
		}
		s.notify(h, events.CollectionDocuments, events.OpCreate, doc.ID)
		s.notify(h, events.CollectionLedgers, events.OpUpdate, doc.LedgerID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("source", id).Str("number", doc.DocumentNumber).Msg("Duplicated document")
	return doc, nil
}
