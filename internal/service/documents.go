package service

import (
	"context"
	"strings"
	"time"

	"github.com/jesses-code-adventures/invoicer/internal/apperr"
	"github.com/jesses-code-adventures/invoicer/internal/database"
	"github.com/jesses-code-adventures/invoicer/internal/events"
	"github.com/jesses-code-adventures/invoicer/internal/ledger"
	"github.com/jesses-code-adventures/invoicer/internal/models"
	"github.com/jesses-code-adventures/invoicer/internal/tenant"
	"github.com/jesses-code-adventures/invoicer/internal/totals"
)

// DocumentInput holds the editable content of an invoice or quote. Zero
// values are filled from the company settings.
type DocumentInput struct {
	DocumentType models.DocumentType
	ClientID     string
	Items        []models.LineItem
	Currency     string
	IssueDate    time.Time
	// DueDate is the valid-until date for quotes.
	DueDate time.Time
	Notes   *string
}

func (in *DocumentInput) validate(op string) error {
	if !in.DocumentType.Valid() {
		return apperr.Validation(op, "unknown document type %q", in.DocumentType)
	}
	if strings.TrimSpace(in.ClientID) == "" {
		return apperr.Validation(op, "a client is required")
	}
	if len(in.Items) == 0 {
		return apperr.Validation(op, "at least one line item is required")
	}
	for i, item := range in.Items {
		if strings.TrimSpace(item.Description) == "" {
			return apperr.Validation(op, "line item %d has no description", i+1)
		}
		if !item.Quantity.IsPositive() {
			return apperr.Validation(op, "line item %d must have a quantity above zero", i+1)
		}
		if item.UnitPrice.IsNegative() {
			return apperr.Validation(op, "line item %d has a negative unit price", i+1)
		}
		if item.TaxRate != nil && item.TaxRate.IsNegative() {
			return apperr.Validation(op, "line item %d has a negative tax rate", i+1)
		}
	}
	return nil
}

// defaultTerm is the number of days until a new document is due or expires.
func defaultTerm(t models.DocumentType, settings *models.Settings) int {
	if t == models.DocumentTypeQuote {
		return settings.DefaultQuoteValidityDays
	}
	return settings.DefaultPaymentTermsDays
}

func addDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// fill resolves the input against settings and writes it onto doc.
func (in *DocumentInput) fill(doc *models.Document, settings *models.Settings, now time.Time, op string) error {
	doc.ClientID = in.ClientID

	doc.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if doc.Currency == "" {
		doc.Currency = settings.DefaultCurrency
	}

	doc.IssueDate = in.IssueDate.UTC()
	if in.IssueDate.IsZero() {
		doc.IssueDate = now
	}
	doc.DueDate = in.DueDate.UTC()
	if in.DueDate.IsZero() {
		doc.DueDate = addDays(doc.IssueDate, defaultTerm(doc.DocumentType, settings))
	}
	if doc.DueDate.Before(doc.IssueDate) {
		return apperr.Validation(op, "due date %s is before issue date %s",
			doc.DueDate.Format("2006-01-02"), doc.IssueDate.Format("2006-01-02"))
	}

	doc.Notes = in.Notes
	if doc.Notes == nil {
		doc.Notes = settings.DefaultNotes
	}

	items := models.LineItems(in.Items).Clone()
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = models.NewUUID()
		}
		if items[i].TaxRate == nil {
			rate := settings.DefaultTaxRate
			items[i].TaxRate = &rate
		}
	}
	doc.Items = items
	totals.Apply(doc)
	doc.UpdatedAt = now
	return nil
}

func requireClient(ctx context.Context, q database.Queries, op, id string) error {
	if _, err := q.GetClientByID(ctx, id); err != nil {
		return lookup(op, "client", id, err)
	}
	return nil
}

func loadSettings(ctx context.Context, q database.Queries, op string) (*models.Settings, error) {
	settings, err := q.GetSettings(ctx)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	return settings, nil
}

// mintInto assigns the next number of doc's partition to doc.
func mintInto(ctx context.Context, q database.Queries, doc *models.Document, year int) error {
	ledgerID, number, err := ledger.Mint(ctx, q, ledger.Key{
		DocumentType: doc.DocumentType,
		Currency:     doc.Currency,
		Year:         year,
	})
	if err != nil {
		return err
	}
	doc.LedgerID = ledgerID
	doc.DocumentNumber = number
	return nil
}

// CreateDocument saves a new draft invoice or quote. Its number is minted
// from the ledger of the issue year in the same transaction as the insert.
func (s *InvoiceService) CreateDocument(ctx context.Context, in DocumentInput) (*models.Document, error) {
	const op = "service.create_document"
	if in.DocumentType == "" {
		in.DocumentType = models.DocumentTypeInvoice
	}
	if err := in.validate(op); err != nil {
		return nil, err
	}

	var doc *models.Document
	err := s.tenants.Do(ctx, func(h *tenant.Handle) error {
		now := s.clock()
		err := h.Store.WithTx(ctx, func(tx database.Queries) error {
			if err := requireClient(ctx, tx, op, in.ClientID); err != nil {
				return err
			}
			settings, err := loadSettings(ctx, tx, op)
			if err != nil {
				return err
			}

			d := &models.Document{
				DocumentType: in.DocumentType,
				Status:       models.StatusDraft,
				CreatedAt:    now,
			}
			if err := in.fill(d, settings, now, op); err != nil {
				return err
			}
			if err := mintInto(ctx, tx, d, d.IssueDate.Year()); err != nil {
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

	s.logger.Info().
		Str("document_id", doc.ID).
		Str("number", doc.DocumentNumber).
		Str("type", string(doc.DocumentType)).
		Msg("Created document")
	return doc, nil
}

// UpdateDocument replaces the content of a document. Its number, ledger,
// type and status are kept and totals are recomputed. A currency change
// does not re-mint.
func (s *InvoiceService) UpdateDocument(ctx context.Context, id string, in DocumentInput) (*models.Document, error) {
	const op = "service.update_document"

	var doc *models.Document
	err := s.tenants.Do(ctx, func(h *tenant.Handle) error {
		now := s.clock()
		err := h.Store.WithTx(ctx, func(tx database.Queries) error {
			d, err := tx.GetDocumentByID(ctx, id)
			if err != nil {
				return lookup(op, "document", id, err)
			}
			if in.DocumentType == "" {
				in.DocumentType = d.DocumentType
			}
			if in.DocumentType != d.DocumentType {
				return apperr.Validation(op, "cannot change %s %s into a %s", d.DocumentType, d.DocumentNumber, in.DocumentType)
			}
			if err := in.validate(op); err != nil {
				return err
			}
			if err := requireClient(ctx, tx, op, in.ClientID); err != nil {
				return err
			}
			settings, err := loadSettings(ctx, tx, op)
			if err != nil {
				return err
			}
			// Fields left empty keep their stored value.
			if in.Currency == "" {
				in.Currency = d.Currency
			}
			if in.IssueDate.IsZero() {
				in.IssueDate = d.IssueDate
			}
			if in.DueDate.IsZero() {
				in.DueDate = d.DueDate
			}
			if in.Notes == nil {
				in.Notes = d.Notes
			}
			if err := in.fill(d, settings, now, op); err != nil {
				return err
			}
			if err := tx.UpdateDocumentContent(ctx, d); err != nil {
				return lookup(op, "document", id, err)
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
	return doc, nil
}

func (s *InvoiceService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc *models.Document
	err := s.tenants.Do(ctx, func(h *tenant.Handle) error {
		var err error
		doc, err = h.Store.GetDocumentByID(ctx, id)
		if err != nil {
			return lookup("service.get_document", "document", id, err)
		}
		return nil
	})
	return doc, err
}

// FindDocument resolves a document by id or by its number.
func (s *InvoiceService) FindDocument(ctx context.Context, ref string) (*models.Document, error) {
	doc, err := s.GetDocument(ctx, ref)
	if err == nil || apperr.Kind(err) != apperr.ErrNotFound {
		return doc, err
	}
	docs, err := s.ListDocuments(ctx, database.DocumentFilter{Search: ref})
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if d.DocumentNumber == ref {
			return d, nil
		}
	}
	return nil, apperr.NotFound("service.find_document", "document", ref)
}

func (s *InvoiceService) ListDocuments(ctx context.Context, filter database.DocumentFilter) ([]*models.Document, error) {
	var docs []*models.Document
	err := s.tenants.Do(ctx, func(h *tenant.Handle) error {
		var err error
		docs, err = h.Store.ListDocuments(ctx, filter)
		return apperr.Storage("service.list_documents", err)
	})
	return docs, err
}

// DeleteDocument removes a document. Its number is never minted again.
func (s *InvoiceService) DeleteDocument(ctx context.Context, id string) error {
	return s.tenants.Do(ctx, func(h *tenant.Handle) error {
		if err := h.Store.DeleteDocument(ctx, id); err != nil {
			return lookup("service.delete_document", "document", id, err)
		}
		s.notify(h, events.CollectionDocuments, events.OpDelete, id)
		s.logger.Info().Str("document_id", id).Msg("Deleted document")
		return nil
	})
}
