package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DirectoryDB is the small key/value store that lives outside every company
// namespace. Values are opaque strings, usually JSON.
type DirectoryDB struct {
	conn *sqlx.DB
}

func NewDirectoryDB(ctx context.Context, driver, dsn string) (*DirectoryDB, error) {
	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to directory: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY NOT NULL,
		value TEXT NOT NULL
	)`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create directory table: %w", err)
	}
	return &DirectoryDB{conn: conn}, nil
}

func (d *DirectoryDB) Close() error {
	return d.conn.Close()
}

// Get returns the value of key and whether it was present.
func (d *DirectoryDB) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := d.conn.GetContext(ctx, &value, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read directory key %s: %w", key, err)
	}
	return value, true, nil
}

// Load returns every stored key.
func (d *DirectoryDB) Load(ctx context.Context) (map[string]string, error) {
	rows, err := d.conn.QueryxContext(ctx, `SELECT key, value FROM kv`)
	if err != nil {
		return nil, fmt.Errorf("failed to load directory: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan directory row: %w", err)
		}
		out[key] = value
	}
	return out, rows.Err()
}

// Update writes set and removes del in a single transaction.
func (d *DirectoryDB) Update(ctx context.Context, set map[string]string, del []string) error {
	tx, err := d.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin directory update: %w", err)
	}
	defer tx.Rollback() // no-op after commit.

	for key, value := range set {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kv (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return fmt.Errorf("failed to write directory key %s: %w", key, err)
		}
	}
	for _, key := range del {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("failed to delete directory key %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit directory update: %w", err)
	}
	return nil
}
