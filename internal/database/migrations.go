package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migrations are applied in order, once, when a namespace is opened. The
// applied count is kept in PRAGMA user_version.
var migrations = [][]string{
	// 1: clients, invoices and settings.
	{
		`CREATE TABLE IF NOT EXISTS clients (
			id TEXT PRIMARY KEY NOT NULL,
			name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			street TEXT,
			city TEXT,
			state TEXT,
			postal_code TEXT,
			country TEXT,
			vat_number TEXT,
			notes TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_clients_name ON clients(name)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY NOT NULL,
			document_number TEXT NOT NULL,
			client_id TEXT NOT NULL,
			items TEXT NOT NULL DEFAULT '[]',
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			issue_date DATETIME NOT NULL,
			due_date DATETIME NOT NULL,
			paid_date DATETIME,
			notes TEXT,
			subtotal TEXT NOT NULL DEFAULT '0',
			tax_total TEXT NOT NULL DEFAULT '0',
			total TEXT NOT NULL DEFAULT '0',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_client_id ON documents(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_issue_date ON documents(issue_date)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id TEXT PRIMARY KEY NOT NULL,
			business_name TEXT,
			business_email TEXT,
			business_phone TEXT,
			business_street TEXT,
			business_city TEXT,
			business_state TEXT,
			business_postal_code TEXT,
			business_country TEXT,
			business_vat_number TEXT,
			business_logo TEXT,
			default_currency TEXT,
			default_tax_rate TEXT,
			invoice_number_prefix TEXT,
			invoice_number_next_value INTEGER,
			default_payment_terms_days INTEGER,
			default_notes TEXT,
			locale TEXT
		)`,
	},
	// 2: ledgers per currency and year.
	{
		`CREATE TABLE IF NOT EXISTS ledgers (
			id TEXT PRIMARY KEY NOT NULL,
			currency TEXT NOT NULL,
			year INTEGER NOT NULL,
			prefix TEXT NOT NULL,
			next_value INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledgers_currency_year ON ledgers(currency, year)`,
		`ALTER TABLE documents ADD COLUMN ledger_id TEXT NOT NULL DEFAULT ''`,
		`CREATE INDEX IF NOT EXISTS idx_documents_ledger_id ON documents(ledger_id)`,
	},
	// 3: quotes. Existing documents and ledgers become invoices.
	{
		`ALTER TABLE documents ADD COLUMN document_type TEXT NOT NULL DEFAULT 'invoice'`,
		`ALTER TABLE documents ADD COLUMN converted_from_quote_id TEXT`,
		`ALTER TABLE documents ADD COLUMN converted_to_invoice_id TEXT`,
		`UPDATE documents SET document_type = 'invoice' WHERE document_type IS NULL OR document_type = ''`,
		`CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(document_type)`,
		`ALTER TABLE ledgers ADD COLUMN document_type TEXT NOT NULL DEFAULT 'invoice'`,
		`DROP INDEX IF EXISTS idx_ledgers_currency_year`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_ledgers_partition ON ledgers(document_type, currency, year)`,
		`ALTER TABLE settings ADD COLUMN quote_number_prefix TEXT`,
		`ALTER TABLE settings ADD COLUMN quote_number_next_value INTEGER`,
		`ALTER TABLE settings ADD COLUMN default_quote_validity_days INTEGER`,
		`ALTER TABLE settings ADD COLUMN theme TEXT`,
	},
}

// SchemaVersion is the version a namespace has after opening.
var SchemaVersion = len(migrations)

func migrate(ctx context.Context, conn *sqlx.DB) error {
	var version int
	if err := conn.GetContext(ctx, &version, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for v := version; v < len(migrations); v++ {
		if err := applyMigration(ctx, conn, v+1, migrations[v]); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, conn *sqlx.DB, version int, statements []string) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", version, err)
	}
	defer tx.Rollback() // no-op after commit.

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", version, err)
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("failed to record schema version %d: %w", version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", version, err)
	}
	return nil
}
