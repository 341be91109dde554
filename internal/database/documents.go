package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jesses-code-adventures/invoicer/internal/models"
)

const documentColumns = `id, document_type, document_number, ledger_id, client_id, items, currency, status,
	issue_date, due_date, paid_date, converted_from_quote_id, converted_to_invoice_id, notes,
	subtotal, tax_total, total, created_at, updated_at`

const insertDocumentSQL = `INSERT INTO documents (` + documentColumns + `)
VALUES (:id, :document_type, :document_number, :ledger_id, :client_id, :items, :currency, :status,
	:issue_date, :due_date, :paid_date, :converted_from_quote_id, :converted_to_invoice_id, :notes,
	:subtotal, :tax_total, :total, :created_at, :updated_at)`

func (q *queries) InsertDocument(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = models.NewUUID()
	}
	if doc.Items == nil {
		doc.Items = models.LineItems{}
	}
	if _, err := sqlx.NamedExecContext(ctx, q.ext, insertDocumentSQL, doc); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (q *queries) InsertDocuments(ctx context.Context, docs []*models.Document) error {
	for _, doc := range docs {
		if err := q.InsertDocument(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

func (q *queries) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := sqlx.GetContext(ctx, q.ext, &doc, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get document by ID: %w", err)
	}
	return &doc, nil
}

func (q *queries) ListDocuments(ctx context.Context, filter DocumentFilter) ([]*models.Document, error) {
	var where []string
	var args []any

	if filter.DocumentType != "" {
		where = append(where, "document_type = ?")
		args = append(args, filter.DocumentType)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.ClientID != "" {
		where = append(where, "client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.Search != "" {
		where = append(where, "(document_number LIKE ? OR notes LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	query := `SELECT ` + documentColumns + ` FROM documents`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY issue_date DESC, document_number DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var docs []*models.Document
	if err := sqlx.SelectContext(ctx, q.ext, &docs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// ListDocumentsByPartition returns the documents minted from the ledger of a
// (type, currency, year) partition, in minting order.
func (q *queries) ListDocumentsByPartition(ctx context.Context, docType models.DocumentType, currency string, year int) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents
		WHERE ledger_id IN (
			SELECT id FROM ledgers WHERE document_type = ? AND currency = ? AND year = ?
		)
		ORDER BY document_number`

	var docs []*models.Document
	if err := sqlx.SelectContext(ctx, q.ext, &docs, query, docType, currency, year); err != nil {
		return nil, fmt.Errorf("failed to list documents by partition: %w", err)
	}
	return docs, nil
}

// UpdateDocumentContent rewrites the editable fields of a document. The
// number, ledger, type, status and conversion links are never touched here.
func (q *queries) UpdateDocumentContent(ctx context.Context, doc *models.Document) error {
	result, err := sqlx.NamedExecContext(ctx, q.ext, `UPDATE documents SET
		client_id = :client_id, items = :items, currency = :currency,
		issue_date = :issue_date, due_date = :due_date, notes = :notes,
		subtotal = :subtotal, tax_total = :tax_total, total = :total,
		updated_at = :updated_at
		WHERE id = :id`, doc)
	if err := rowsChanged(result, err, "document"); err != nil {
		if errors.Is(err, ErrNoChange) {
			return fmt.Errorf("failed to update document %s: %w", doc.ID, sql.ErrNoRows)
		}
		return err
	}
	return nil
}

// UpdateDocumentStatus moves a document from one status to another. It
// returns ErrNoChange when the document is no longer in the from status.
func (q *queries) UpdateDocumentStatus(ctx context.Context, id string, from, to models.Status, paidDate *time.Time) error {
	result, err := q.ext.ExecContext(ctx, `UPDATE documents
		SET status = ?, paid_date = COALESCE(?, paid_date), updated_at = ?
		WHERE id = ? AND status = ?`,
		to, paidDate, time.Now().UTC(), id, from)
	return rowsChanged(result, err, "document status")
}

// MarkQuoteConverted records the invoice a quote was converted into. It
// returns ErrNoChange when the quote already carries a conversion.
func (q *queries) MarkQuoteConverted(ctx context.Context, quoteID, invoiceID string) error {
	result, err := q.ext.ExecContext(ctx, `UPDATE documents
		SET converted_to_invoice_id = ?, updated_at = ?
		WHERE id = ? AND document_type = 'quote' AND converted_to_invoice_id IS NULL`,
		invoiceID, time.Now().UTC(), quoteID)
	return rowsChanged(result, err, "quote conversion")
}

func (q *queries) DeleteDocument(ctx context.Context, id string) error {
	result, err := q.ext.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err := rowsChanged(result, err, "documents"); err != nil {
		if errors.Is(err, ErrNoChange) {
			return fmt.Errorf("failed to delete document %s: %w", id, sql.ErrNoRows)
		}
		return err
	}
	return nil
}

func (q *queries) DeleteAllDocuments(ctx context.Context) error {
	if _, err := q.ext.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("failed to delete all documents: %w", err)
	}
	return nil
}
