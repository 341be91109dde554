package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	"github.com/jesses-code-adventures/invoicer/internal/config"
)

// ErrNoChange is returned by conditional updates whose precondition no longer
// holds, for example a ledger that advanced since it was read.
var ErrNoChange = errors.New("no rows changed")

type queries struct {
	ext sqlx.ExtContext
}

type SQLiteDB struct {
	*queries
	conn *sqlx.DB
}

// NewDB opens a namespace database and brings its schema up to date.
func NewDB(ctx context.Context, driver, dsn string) (*SQLiteDB, error) {
	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection per namespace serialises every write, including the
	// read-increment-write of a ledger.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &SQLiteDB{
		queries: &queries{ext: conn},
		conn:    conn,
	}, nil
}

func (s *SQLiteDB) Close() error {
	return s.conn.Close()
}

func (s *SQLiteDB) GetConnection() *sqlx.DB {
	return s.conn
}

func (s *SQLiteDB) WithTx(ctx context.Context, fn func(tx Queries) error) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit.

	if err := fn(&queries{ext: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Factory opens and removes namespace databases for the configured driver.
type Factory struct {
	driver      string
	dataDir     string
	urlTemplate string
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		driver:      cfg.DatabaseDriver,
		dataDir:     cfg.DataDir,
		urlTemplate: cfg.DatabaseURL,
	}
}

func (f *Factory) Path(namespace string) string {
	return filepath.Join(f.dataDir, namespace+".db")
}

func (f *Factory) dsn(namespace string) (string, error) {
	switch f.driver {
	case "libsql":
		if !strings.Contains(f.urlTemplate, "{namespace}") {
			return "", fmt.Errorf("DATABASE_URL must contain {namespace} for the libsql driver")
		}
		return strings.ReplaceAll(f.urlTemplate, "{namespace}", namespace), nil
	default:
		if err := os.MkdirAll(f.dataDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create data directory: %w", err)
		}
		return fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL", f.Path(namespace)), nil
	}
}

func (f *Factory) Open(ctx context.Context, namespace string) (Store, error) {
	dsn, err := f.dsn(namespace)
	if err != nil {
		return nil, err
	}
	db, err := NewDB(ctx, f.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open namespace %q: %w", namespace, err)
	}
	return db, nil
}

// Remove discards a namespace. Local files are deleted; remote databases
// cannot be dropped by a client, so their contents are cleared instead.
func (f *Factory) Remove(ctx context.Context, namespace string) error {
	if f.driver == "libsql" {
		store, err := f.Open(ctx, namespace)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.WithTx(ctx, func(tx Queries) error {
			return ClearAll(ctx, tx)
		})
	}

	path := f.Path(namespace)
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete database file %s: %w", p, err)
		}
	}
	return nil
}

func (f *Factory) OpenDirectory(ctx context.Context, name string) (*DirectoryDB, error) {
	dsn, err := f.dsn(name)
	if err != nil {
		return nil, err
	}
	return NewDirectoryDB(ctx, f.driver, dsn)
}

// ClearAll empties every collection in a namespace.
func ClearAll(ctx context.Context, q Queries) error {
	if err := q.DeleteAllDocuments(ctx); err != nil {
		return err
	}
	if err := q.DeleteAllClients(ctx); err != nil {
		return err
	}
	if err := q.DeleteAllLedgers(ctx); err != nil {
		return err
	}
	return q.DeleteAllSettings(ctx)
}

func rowsChanged(result sql.Result, err error, what string) error {
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", what, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for %s: %w", what, err)
	}
	if n == 0 {
		return ErrNoChange
	}
	return nil
}
