package sandbox

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jesses-code-adventures/invoicer/internal/config"
	"github.com/jesses-code-adventures/invoicer/internal/database"
	"github.com/jesses-code-adventures/invoicer/internal/ledger"
	"github.com/jesses-code-adventures/invoicer/internal/models"
)

func seededStore(t *testing.T, companyID string, now time.Time) database.Store {
	t.Helper()
	ctx := context.Background()
	f := database.NewFactory(&config.Config{DataDir: t.TempDir(), DatabaseDriver: "sqlite3"})
	store, err := f.Open(ctx, "invoicer-test-"+companyID)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.WithTx(ctx, func(tx database.Queries) error {
		return Seed(ctx, tx, companyID, now)
	}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	return store
}

func TestSeedFirstCompany(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	store := seededStore(t, FirstCompanyID, now)
	ctx := context.Background()

	clients, err := store.ListClients(ctx)
	if err != nil {
		t.Fatalf("Failed to list clients: %v", err)
	}
	if len(clients) != 5 {
		t.Errorf("Expected 5 clients, got %d", len(clients))
	}

	docs, err := store.ListDocuments(ctx, database.DocumentFilter{})
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(docs) != 9 {
		t.Errorf("Expected 9 documents, got %d", len(docs))
	}
	for _, d := range docs {
		if !d.Total.Equal(d.Subtotal.Add(d.TaxTotal)) {
			t.Errorf("%s: total %s does not match subtotal+tax", d.DocumentNumber, d.Total)
		}
	}

	settings, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("Failed to get settings: %v", err)
	}
	if settings.BusinessName == nil || *settings.BusinessName != "Demo Freelancer" {
		t.Errorf("Unexpected business name %v", settings.BusinessName)
	}

	// Minting continues after the seeded numbers.
	var number string
	err = store.WithTx(ctx, func(tx database.Queries) error {
		var err error
		_, number, err = ledger.Mint(ctx, tx, ledger.Key{DocumentType: models.DocumentTypeInvoice, Currency: "EUR", Year: 2025})
		return err
	})
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if number != "INV-EUR-2025-0005" {
		t.Errorf("Expected INV-EUR-2025-0005, got %s", number)
	}
}

func TestSeedSecondCompanyIsDisjoint(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	store := seededStore(t, SecondCompanyID, now)
	ctx := context.Background()

	clients, err := store.ListClients(ctx)
	if err != nil {
		t.Fatalf("Failed to list clients: %v", err)
	}
	var names []string
	for _, c := range clients {
		names = append(names, c.Name)
	}
	if got := strings.Join(names, ","); got != "Alpha Industries,Beta Services" {
		t.Errorf("Unexpected clients %s", got)
	}

	docs, err := store.ListDocuments(ctx, database.DocumentFilter{})
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	for _, d := range docs {
		if !strings.HasPrefix(d.DocumentNumber, "SB-USD-2025-") {
			t.Errorf("Unexpected document number %s", d.DocumentNumber)
		}
	}

	l, err := store.GetLedger(ctx, models.DocumentTypeInvoice, "USD", 2025)
	if err != nil {
		t.Fatalf("Failed to get ledger: %v", err)
	}
	if l.Prefix != "SB-USD-2025-" || l.NextValue != int64(len(docs)+1) {
		t.Errorf("Unexpected ledger %+v", l)
	}
}

func TestSeedUnknownCompany(t *testing.T) {
	err := Seed(context.Background(), nil, "nope", time.Now())
	if err == nil || !strings.Contains(err.Error(), fmt.Sprintf("%q", "nope")) {
		t.Errorf("Expected unknown company error, got %v", err)
	}
}
