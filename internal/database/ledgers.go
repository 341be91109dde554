package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jesses-code-adventures/invoicer/internal/models"
)

const ledgerColumns = `id, document_type, currency, year, prefix, next_value, created_at`

func (q *queries) GetLedger(ctx context.Context, docType models.DocumentType, currency string, year int) (*models.Ledger, error) {
	var ledger models.Ledger
	err := sqlx.GetContext(ctx, q.ext, &ledger, `SELECT `+ledgerColumns+` FROM ledgers
		WHERE document_type = ? AND currency = ? AND year = ?`, docType, currency, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	return &ledger, nil
}

func (q *queries) InsertLedger(ctx context.Context, ledger *models.Ledger) error {
	if ledger.ID == "" {
		ledger.ID = models.NewUUID()
	}
	_, err := sqlx.NamedExecContext(ctx, q.ext, `INSERT INTO ledgers (`+ledgerColumns+`)
		VALUES (:id, :document_type, :currency, :year, :prefix, :next_value, :created_at)`, ledger)
	if err != nil {
		return fmt.Errorf("failed to insert ledger: %w", err)
	}
	return nil
}

func (q *queries) InsertLedgers(ctx context.Context, ledgers []*models.Ledger) error {
	for _, ledger := range ledgers {
		if err := q.InsertLedger(ctx, ledger); err != nil {
			return err
		}
	}
	return nil
}

// AdvanceLedger moves a ledger from current to current+1. It returns
// ErrNoChange when another writer advanced it first.
func (q *queries) AdvanceLedger(ctx context.Context, id string, current int64) error {
	result, err := q.ext.ExecContext(ctx, `UPDATE ledgers SET next_value = next_value + 1
		WHERE id = ? AND next_value = ?`, id, current)
	return rowsChanged(result, err, "ledger")
}

func (q *queries) ListLedgers(ctx context.Context) ([]*models.Ledger, error) {
	var ledgers []*models.Ledger
	err := sqlx.SelectContext(ctx, q.ext, &ledgers, `SELECT `+ledgerColumns+` FROM ledgers
		ORDER BY document_type, currency, year`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledgers: %w", err)
	}
	return ledgers, nil
}

func (q *queries) DeleteAllLedgers(ctx context.Context) error {
	if _, err := q.ext.ExecContext(ctx, `DELETE FROM ledgers`); err != nil {
		return fmt.Errorf("failed to delete all ledgers: %w", err)
	}
	return nil
}
