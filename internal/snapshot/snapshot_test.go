package snapshot

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/jesses-code-adventures/invoicer/internal/apperr"
	"github.com/jesses-code-adventures/invoicer/internal/config"
	"github.com/jesses-code-adventures/invoicer/internal/database"
	"github.com/jesses-code-adventures/invoicer/internal/ledger"
	"github.com/jesses-code-adventures/invoicer/internal/models"
	"github.com/jesses-code-adventures/invoicer/internal/sandbox"
)

var seedTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func openStores(t *testing.T, names ...string) []database.Store {
	t.Helper()
	f := database.NewFactory(&config.Config{DataDir: t.TempDir(), DatabaseDriver: "sqlite3"})
	var stores []database.Store
	for _, n := range names {
		s, err := f.Open(context.Background(), n)
		if err != nil {
			t.Fatalf("Failed to open store %s: %v", n, err)
		}
		t.Cleanup(func() { s.Close() })
		stores = append(stores, s)
	}
	return stores
}

func seed(t *testing.T, store database.Store) {
	t.Helper()
	ctx := context.Background()
	if err := store.WithTx(ctx, func(tx database.Queries) error {
		return sandbox.Seed(ctx, tx, sandbox.FirstCompanyID, seedTime)
	}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	stores := openStores(t, "source", "target")
	source, target := stores[0], stores[1]
	ctx := context.Background()
	seed(t, source)

	// Existing data in the target is replaced, not merged.
	if err := target.CreateClient(ctx, &models.Client{Name: "Stale"}); err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	company := &models.Company{ID: "c1", Name: "Demo Freelancer"}
	snap, err := Export(ctx, source, company, seedTime)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, snap); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"version": "1.0"`) {
		t.Errorf("Expected version tag in output")
	}
	if !strings.Contains(buf.String(), `"exportedAt": "2025-06-15T12:00:00Z"`) {
		t.Errorf("Expected ISO-8601 exportedAt in output")
	}

	read, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	res, err := Import(ctx, target, read)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.LedgersRebuilt || len(res.OrphanedClientRefs) != 0 {
		t.Errorf("Unexpected import result %+v", res)
	}

	after, err := Export(ctx, target, company, seedTime)
	if err != nil {
		t.Fatalf("Export of target failed: %v", err)
	}
	if diff := cmp.Diff(snap, after); diff != "" {
		t.Errorf("Round trip mismatch (-source +target):\n%s", diff)
	}
}

func TestImportRebuildsMissingLedgers(t *testing.T) {
	stores := openStores(t, "source", "target")
	source, target := stores[0], stores[1]
	ctx := context.Background()
	seed(t, source)

	snap, err := Export(ctx, source, nil, seedTime)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	snap.Ledgers = nil

	res, err := Import(ctx, target, snap)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if !res.LedgersRebuilt {
		t.Error("Expected ledgers to be rebuilt")
	}

	var number string
	err = target.WithTx(ctx, func(tx database.Queries) error {
		var err error
		_, number, err = ledger.Mint(ctx, tx, ledger.Key{DocumentType: models.DocumentTypeInvoice, Currency: "EUR", Year: 2025})
		return err
	})
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if number != "INV-EUR-2025-0005" {
		t.Errorf("Expected numbering to continue at 0005, got %s", number)
	}

	docs, err := target.ListDocumentsByPartition(ctx, models.DocumentTypeInvoice, "EUR", 2025)
	if err != nil {
		t.Fatalf("ListDocumentsByPartition failed: %v", err)
	}
	if len(docs) != 4 {
		t.Errorf("Expected 4 EUR invoices linked to the rebuilt ledger, got %d", len(docs))
	}
}

func TestImportReportsOrphanedClients(t *testing.T) {
	target := openStores(t, "target")[0]
	ctx := context.Background()

	snap := &Snapshot{
		Clients: []*models.Client{{ID: "known", Name: "Known"}},
		Invoices: []*models.Document{
			{ID: "d1", DocumentType: models.DocumentTypeInvoice, DocumentNumber: "INV-EUR-2025-0001", ClientID: "known", Currency: "EUR", Status: models.StatusDraft, IssueDate: seedTime, DueDate: seedTime},
			{ID: "d2", DocumentType: models.DocumentTypeInvoice, DocumentNumber: "INV-EUR-2025-0002", ClientID: "gone", Currency: "EUR", Status: models.StatusDraft, IssueDate: seedTime, DueDate: seedTime},
		},
		Version: Version,
	}

	res, err := Import(ctx, target, snap)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	want := []OrphanRef{{DocumentID: "d2", DocumentNumber: "INV-EUR-2025-0002", ClientID: "gone"}}
	if diff := cmp.Diff(want, res.OrphanedClientRefs); diff != "" {
		t.Errorf("Orphans mismatch (-want +got):\n%s", diff)
	}

	doc, err := target.GetDocumentByID(ctx, "d2")
	if err != nil {
		t.Fatalf("Orphaned document was not imported: %v", err)
	}
	if doc.ClientID != "gone" {
		t.Errorf("Expected client reference to be kept, got %s", doc.ClientID)
	}
}

func TestReadRejectsUnknownVersion(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"future major", `{"version": "2.0", "clients": [], "invoices": [], "settings": []}`},
		{"missing version", `{"clients": []}`},
		{"not json", `invoices`},
		{"bad document type", `{"version": "1.0", "invoices": [{"documentType": "receipt"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestReadDefaultsDocumentType(t *testing.T) {
	snap, err := Read(strings.NewReader(`{"version": "1.1", "invoices": [{"id": "a", "documentNumber": "INV-EUR-2025-0001"}]}`))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got := snap.Invoices[0].DocumentType; got != models.DocumentTypeInvoice {
		t.Errorf("Expected invoice type, got %q", got)
	}
}

func TestImportPartialSettingsKeepsDefaults(t *testing.T) {
	store := openStores(t, "partial")[0]
	ctx := context.Background()

	snap, err := Read(strings.NewReader(`{"version": "1.0", "settings": [{"id": "s1", "defaultCurrency": "USD"}]}`))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if _, err := Import(ctx, store, snap); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	got, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	want := models.DefaultSettings()
	want.ID = "s1"
	want.DefaultCurrency = "USD"
	if diff := cmp.Diff(&want, got); diff != "" {
		t.Errorf("Settings mismatch (-want +got):\n%s", diff)
	}
}

func TestFilename(t *testing.T) {
	day := time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC)
	tests := []struct {
		company *models.Company
		want    string
	}{
		{nil, "invoicer-default-2025-03-09.json"},
		{&models.Company{Name: "My Test Company"}, "invoicer-my-test-company-2025-03-09.json"},
		{&models.Company{Name: "  Ünïcode & Co. "}, "invoicer-n-code-co-2025-03-09.json"},
		{&models.Company{Name: "!!!"}, "invoicer-default-2025-03-09.json"},
	}
	for _, tt := range tests {
		if got := Filename("invoicer", tt.company, day); got != tt.want {
			t.Errorf("Filename() = %q, want %q", got, tt.want)
		}
	}
}

func TestExportEmptyNamespace(t *testing.T) {
	store := openStores(t, "empty")[0]
	snap, err := Export(context.Background(), store, nil, seedTime)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	want := &Snapshot{
		Clients:    []*models.Client{},
		Invoices:   []*models.Document{},
		Settings:   []*models.Settings{},
		ExportedAt: seedTime,
		Version:    Version,
	}
	if diff := cmp.Diff(want, snap, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Empty export mismatch (-want +got):\n%s", diff)
	}
}
