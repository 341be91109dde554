// Package snapshot exports a company namespace to a portable JSON document
// and imports it back.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/jesses-code-adventures/invoicer/internal/apperr"
	"github.com/jesses-code-adventures/invoicer/internal/database"
	"github.com/jesses-code-adventures/invoicer/internal/ledger"
	"github.com/jesses-code-adventures/invoicer/internal/models"
)

const Version = "1.0"

type CompanyRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Snapshot is the full contents of one namespace. Documents of both types
// are kept under "invoices".
type Snapshot struct {
	Company    *CompanyRef        `json:"company"`
	Clients    []*models.Client   `json:"clients"`
	Invoices   []*models.Document `json:"invoices"`
	Ledgers    []*models.Ledger   `json:"ledgers,omitempty"`
	Settings   []*models.Settings `json:"settings"`
	ExportedAt time.Time          `json:"exportedAt"`
	Version    string             `json:"version"`
}

// OrphanRef is a document whose client is not part of the snapshot.
type OrphanRef struct {
	DocumentID     string `json:"documentId"`
	DocumentNumber string `json:"documentNumber"`
	ClientID       string `json:"clientId"`
}

type ImportResult struct {
	Clients            int
	Documents          int
	Ledgers            int
	Settings           int
	LedgersRebuilt     bool
	OrphanedClientRefs []OrphanRef
}

// Export reads every collection of q. company may be nil for the legacy
// namespace.
func Export(ctx context.Context, q database.Queries, company *models.Company, now time.Time) (*Snapshot, error) {
	clients, err := q.ListClients(ctx)
	if err != nil {
		return nil, apperr.Storage("snapshot.export", err)
	}
	docs, err := q.ListDocuments(ctx, database.DocumentFilter{})
	if err != nil {
		return nil, apperr.Storage("snapshot.export", err)
	}
	ledgers, err := q.ListLedgers(ctx)
	if err != nil {
		return nil, apperr.Storage("snapshot.export", err)
	}
	settings, err := q.ListSettings(ctx)
	if err != nil {
		return nil, apperr.Storage("snapshot.export", err)
	}

	snap := &Snapshot{
		Clients:    nonNil(clients),
		Invoices:   nonNil(docs),
		Ledgers:    ledgers,
		Settings:   nonNil(settings),
		ExportedAt: now.UTC(),
		Version:    Version,
	}
	if company != nil {
		snap.Company = &CompanyRef{ID: company.ID, Name: company.Name}
	}
	return snap, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func Write(w io.Writer, snap *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// Read decodes a snapshot and checks that its format version is supported.
func Read(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, apperr.Validation("snapshot.read", "invalid snapshot: %v", err)
	}
	major, _, _ := strings.Cut(snap.Version, ".")
	if major != "1" {
		return nil, apperr.Validation("snapshot.read", "unsupported snapshot version %q", snap.Version)
	}
	for _, d := range snap.Invoices {
		if d.DocumentType == "" {
			d.DocumentType = models.DocumentTypeInvoice
		}
		if !d.DocumentType.Valid() {
			return nil, apperr.Validation("snapshot.read", "document %s has unknown type %q", d.DocumentNumber, d.DocumentType)
		}
	}
	return &snap, nil
}

// Import replaces the contents of store with the snapshot in a single
// transaction. Ledgers missing from the snapshot are rebuilt from the
// document numbers so numbering continues after the highest imported one.
// Documents referring to clients outside the snapshot are kept and reported.
func Import(ctx context.Context, store database.Store, snap *Snapshot) (*ImportResult, error) {
	res := &ImportResult{
		Clients:   len(snap.Clients),
		Documents: len(snap.Invoices),
		Settings:  len(snap.Settings),
	}

	known := make(map[string]bool, len(snap.Clients))
	for _, c := range snap.Clients {
		known[c.ID] = true
	}
	for _, d := range snap.Invoices {
		if !known[d.ClientID] {
			res.OrphanedClientRefs = append(res.OrphanedClientRefs, OrphanRef{
				DocumentID:     d.ID,
				DocumentNumber: d.DocumentNumber,
				ClientID:       d.ClientID,
			})
		}
	}

	ledgers := snap.Ledgers
	if len(ledgers) == 0 {
		ledgers = ledger.Reconcile(snap.Invoices)
		res.LedgersRebuilt = true
	}
	res.Ledgers = len(ledgers)

	err := store.WithTx(ctx, func(tx database.Queries) error {
		if err := database.ClearAll(ctx, tx); err != nil {
			return err
		}
		if err := tx.InsertClients(ctx, snap.Clients); err != nil {
			return err
		}
		if err := tx.InsertLedgers(ctx, ledgers); err != nil {
			return err
		}
		if err := tx.InsertDocuments(ctx, snap.Invoices); err != nil {
			return err
		}
		for _, s := range snap.Settings {
			if err := tx.SaveSettings(ctx, s); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Storage("snapshot.import", err)
	}
	return res, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases name and joins its words with dashes.
func Slug(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// Filename is the suggested name of an export file.
func Filename(appName string, company *models.Company, now time.Time) string {
	slug := "default"
	if company != nil {
		if s := Slug(company.Name); s != "" {
			slug = s
		}
	}
	return fmt.Sprintf("%s-%s-%s.json", appName, slug, now.Format("2006-01-02"))
}
