// Package lifecycle holds the status rules for invoices and quotes.
package lifecycle

import (
	"slices"

	"github.com/jesses-code-adventures/invoicer/internal/apperr"
	"github.com/jesses-code-adventures/invoicer/internal/models"
)

var invoiceTransitions = map[models.Status][]models.Status{
	models.StatusDraft:   {models.StatusSent, models.StatusCancelled},
	models.StatusSent:    {models.StatusPaid, models.StatusOverdue, models.StatusCancelled},
	models.StatusOverdue: {models.StatusPaid, models.StatusCancelled},
	models.StatusPaid:    {models.StatusCancelled},
}

var quoteTransitions = map[models.Status][]models.Status{
	models.StatusDraft: {models.StatusSent},
	models.StatusSent:  {models.StatusAccepted, models.StatusDeclined, models.StatusExpired},
}

var invoiceStatuses = []models.Status{
	models.StatusDraft, models.StatusSent, models.StatusPaid, models.StatusOverdue, models.StatusCancelled,
}

var quoteStatuses = []models.Status{
	models.StatusDraft, models.StatusSent, models.StatusAccepted, models.StatusDeclined, models.StatusExpired,
}

// Statuses lists the statuses a document type can hold.
func Statuses(t models.DocumentType) []models.Status {
	if t == models.DocumentTypeQuote {
		return slices.Clone(quoteStatuses)
	}
	return slices.Clone(invoiceStatuses)
}

func Allowed(t models.DocumentType, s models.Status) bool {
	return slices.Contains(Statuses(t), s)
}

func transitions(t models.DocumentType) map[models.Status][]models.Status {
	if t == models.DocumentTypeQuote {
		return quoteTransitions
	}
	return invoiceTransitions
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(t models.DocumentType, s models.Status) bool {
	return len(transitions(t)[s]) == 0
}

// CanTransition returns a validation error unless a document of type t may
// move from one status to the other.
func CanTransition(t models.DocumentType, from, to models.Status) error {
	if !t.Valid() {
		return apperr.Validation("lifecycle.transition", "unknown document type %q", t)
	}
	if !Allowed(t, to) {
		return apperr.Validation("lifecycle.transition", "%q is not a valid %s status", to, t)
	}
	if !slices.Contains(transitions(t)[from], to) {
		return apperr.Validation("lifecycle.transition", "cannot move %s from %s to %s", t, from, to)
	}
	return nil
}

// CanConvert checks that a quote may become an invoice.
func CanConvert(doc *models.Document) error {
	if doc.DocumentType != models.DocumentTypeQuote {
		return apperr.Validation("lifecycle.convert", "document %s is not a quote", doc.DocumentNumber)
	}
	if doc.ConvertedToInvoiceID != nil {
		return apperr.Conflict("lifecycle.convert", "quote %s was already converted to invoice %s", doc.DocumentNumber, *doc.ConvertedToInvoiceID)
	}
	if doc.Status != models.StatusAccepted {
		return apperr.Validation("lifecycle.convert", "quote %s is %s, only accepted quotes can be converted", doc.DocumentNumber, doc.Status)
	}
	return nil
}
