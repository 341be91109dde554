package database

import (
	"context"
	"time"

	"github.com/jesses-code-adventures/invoicer/internal/models"
)

// Queries is the set of operations available on a company namespace, either
// directly or inside a transaction.
type Queries interface {
	CreateClient(ctx context.Context, client *models.Client) error
	InsertClients(ctx context.Context, clients []*models.Client) error
	GetClientByID(ctx context.Context, id string) (*models.Client, error)
	ListClients(ctx context.Context) ([]*models.Client, error)
	UpdateClient(ctx context.Context, id string, updates *ClientUpdateDetails) (*models.Client, error)
	DeleteClient(ctx context.Context, id string) error
	DeleteAllClients(ctx context.Context) error

	InsertDocument(ctx context.Context, doc *models.Document) error
	InsertDocuments(ctx context.Context, docs []*models.Document) error
	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]*models.Document, error)
	ListDocumentsByPartition(ctx context.Context, docType models.DocumentType, currency string, year int) ([]*models.Document, error)
	UpdateDocumentContent(ctx context.Context, doc *models.Document) error
	UpdateDocumentStatus(ctx context.Context, id string, from, to models.Status, paidDate *time.Time) error
	MarkQuoteConverted(ctx context.Context, quoteID, invoiceID string) error
	DeleteDocument(ctx context.Context, id string) error
	DeleteAllDocuments(ctx context.Context) error

	GetLedger(ctx context.Context, docType models.DocumentType, currency string, year int) (*models.Ledger, error)
	InsertLedger(ctx context.Context, ledger *models.Ledger) error
	InsertLedgers(ctx context.Context, ledgers []*models.Ledger) error
	AdvanceLedger(ctx context.Context, id string, current int64) error
	ListLedgers(ctx context.Context) ([]*models.Ledger, error)
	DeleteAllLedgers(ctx context.Context) error

	GetSettings(ctx context.Context) (*models.Settings, error)
	ListSettings(ctx context.Context) ([]*models.Settings, error)
	SaveSettings(ctx context.Context, settings *models.Settings) error
	DeleteAllSettings(ctx context.Context) error
}

// Store is a single company namespace.
type Store interface {
	Queries
	// WithTx runs fn inside one write transaction. Nothing fn writes is
	// visible unless fn returns nil and the commit succeeds.
	WithTx(ctx context.Context, fn func(tx Queries) error) error
	Close() error
}

type ClientUpdateDetails struct {
	Name       *string
	Email      *string
	Phone      *string
	Street     *string
	City       *string
	State      *string
	PostalCode *string
	Country    *string
	VatNumber  *string
	Notes      *string
}

type DocumentFilter struct {
	DocumentType models.DocumentType
	Status       models.Status
	ClientID     string
	Search       string
	Limit        int
}
