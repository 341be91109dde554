package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DocumentType string

const (
	DocumentTypeInvoice DocumentType = "invoice"
	DocumentTypeQuote   DocumentType = "quote"
)

func (t DocumentType) Valid() bool {
	return t == DocumentTypeInvoice || t == DocumentTypeQuote
}

// Status holds both invoice and quote statuses; which values are legal
// depends on the document type.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusExpired   Status = "expired"
)

type Client struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Email      *string   `json:"email,omitempty" db:"email"`
	Phone      *string   `json:"phone,omitempty" db:"phone"`
	Street     *string   `json:"street,omitempty" db:"street"`
	City       *string   `json:"city,omitempty" db:"city"`
	State      *string   `json:"state,omitempty" db:"state"`
	PostalCode *string   `json:"postalCode,omitempty" db:"postal_code"`
	Country    *string   `json:"country,omitempty" db:"country"`
	VatNumber  *string   `json:"vatNumber,omitempty" db:"vat_number"`
	Notes      *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

type LineItem struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unitPrice"`
	TaxRate     *decimal.Decimal `json:"taxRate,omitempty"`
}

// LineItems is stored as a JSON array in a single column.
type LineItems []LineItem

func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *LineItems) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = LineItems{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into LineItems", src)
	}
	items := LineItems{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("failed to decode line items: %w", err)
	}
	*l = items
	return nil
}

// Clone returns a deep copy of the items.
func (l LineItems) Clone() LineItems {
	out := make(LineItems, len(l))
	for i, item := range l {
		out[i] = item
		if item.TaxRate != nil {
			rate := *item.TaxRate
			out[i].TaxRate = &rate
		}
	}
	return out
}

// Document is either an invoice or a quote. DueDate holds the due date of an
// invoice and the valid-until date of a quote.
type Document struct {
	ID                   string          `json:"id" db:"id"`
	DocumentType         DocumentType    `json:"documentType" db:"document_type"`
	DocumentNumber       string          `json:"documentNumber" db:"document_number"`
	LedgerID             string          `json:"ledgerId" db:"ledger_id"`
	ClientID             string          `json:"clientId" db:"client_id"`
	Items                LineItems       `json:"items" db:"items"`
	Currency             string          `json:"currency" db:"currency"`
	Status               Status          `json:"status" db:"status"`
	IssueDate            time.Time       `json:"issueDate" db:"issue_date"`
	DueDate              time.Time       `json:"dueDate" db:"due_date"`
	PaidDate             *time.Time      `json:"paidDate,omitempty" db:"paid_date"`
	ConvertedFromQuoteID *string         `json:"convertedFromQuoteId,omitempty" db:"converted_from_quote_id"`
	ConvertedToInvoiceID *string         `json:"convertedToInvoiceId,omitempty" db:"converted_to_invoice_id"`
	Notes                *string         `json:"notes,omitempty" db:"notes"`
	Subtotal             decimal.Decimal `json:"subtotal" db:"subtotal"`
	TaxTotal             decimal.Decimal `json:"taxTotal" db:"tax_total"`
	Total                decimal.Decimal `json:"total" db:"total"`
	CreatedAt            time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time       `json:"updatedAt" db:"updated_at"`
}

func (d *Document) IsQuote() bool {
	return d.DocumentType == DocumentTypeQuote
}

// ValidUntil is the expiry date of a quote.
func (d *Document) ValidUntil() time.Time {
	return d.DueDate
}

type Ledger struct {
	ID           string       `json:"id" db:"id"`
	DocumentType DocumentType `json:"documentType" db:"document_type"`
	Currency     string       `json:"currency" db:"currency"`
	Year         int          `json:"year" db:"year"`
	Prefix       string       `json:"prefix" db:"prefix"`
	NextValue    int64        `json:"nextValue" db:"next_value"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
}

type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}
