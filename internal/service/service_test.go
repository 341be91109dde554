package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jesses-code-adventures/invoicer/internal/apperr"
	"github.com/jesses-code-adventures/invoicer/internal/config"
	"github.com/jesses-code-adventures/invoicer/internal/database"
	"github.com/jesses-code-adventures/invoicer/internal/events"
	"github.com/jesses-code-adventures/invoicer/internal/models"
	"github.com/jesses-code-adventures/invoicer/internal/tenant"
	"github.com/jesses-code-adventures/invoicer/internal/utils"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(t *testing.T) (*InvoiceService, *events.Broadcaster) {
	t.Helper()
	ctx := context.Background()
	cfg := &config.Config{AppName: "invoicer", DataDir: t.TempDir(), DatabaseDriver: "sqlite3"}

	m, err := tenant.Open(ctx, cfg, tenant.WithLogger(zerolog.Nop()), tenant.WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("Failed to open tenants: %v", err)
	}
	t.Cleanup(func() { m.Close() })

	b := events.NewBroadcaster(256)
	svc := NewInvoiceService(m, cfg,
		WithNotifier(b),
		WithLogger(zerolog.Nop()),
		WithClock(func() time.Time { return testNow }),
	)
	return svc, b
}

func mustClient(t *testing.T, svc *InvoiceService, name string) *models.Client {
	t.Helper()
	c, err := svc.CreateClient(context.Background(), &models.Client{Name: name})
	if err != nil {
		t.Fatalf("Failed to create client %s: %v", name, err)
	}
	return c
}

func consulting(clientID string, docType models.DocumentType, issue time.Time) DocumentInput {
	return DocumentInput{
		DocumentType: docType,
		ClientID:     clientID,
		Currency:     "EUR",
		IssueDate:    issue,
		Items: []models.LineItem{
			{Description: "Consulting", Quantity: dec("10"), UnitPrice: dec("100")},
		},
	}
}

func mustCreate(t *testing.T, svc *InvoiceService, in DocumentInput) *models.Document {
	t.Helper()
	doc, err := svc.CreateDocument(context.Background(), in)
	if err != nil {
		t.Fatalf("Failed to create document: %v", err)
	}
	return doc
}

func TestCreateDocumentNumbering(t *testing.T) {
	svc, _ := newTestService(t)
	client := mustClient(t, svc, "Acme Corp")
	march := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	first := mustCreate(t, svc, consulting(client.ID, models.DocumentTypeInvoice, march))
	second := mustCreate(t, svc, consulting(client.ID, models.DocumentTypeInvoice, march))

	if first.DocumentNumber != "INV-EUR-2025-0001" {
		t.Errorf("Expected INV-EUR-2025-0001, got %s", first.DocumentNumber)
	}
	if second.DocumentNumber != "INV-EUR-2025-0002" {
		t.Errorf("Expected INV-EUR-2025-0002, got %s", second.DocumentNumber)
	}
	if !first.Total.Equal(dec("1000")) {
		t.Errorf("Expected total 1000, got %s", first.Total)
	}
	if first.Status != models.StatusDraft {
		t.Errorf("Expected draft, got %s", first.Status)
	}
	if first.LedgerID == "" || first.LedgerID != second.LedgerID {
		t.Errorf("Expected both invoices to share one ledger, got %q and %q", first.LedgerID, second.LedgerID)
	}

	tests := []struct {
		name string
		in   DocumentInput
		want string
	}{
		{"quote partition", consulting(client.ID, models.DocumentTypeQuote, march), "QUO-EUR-2025-0001"},
		{"previous year", consulting(client.ID, models.DocumentTypeInvoice, march.AddDate(-1, 0, 0)), "INV-EUR-2024-0001"},
		{"other currency", func() DocumentInput {
			in := consulting(client.ID, models.DocumentTypeInvoice, march)
			in.Currency = "usd"
			return in
		}(), "INV-USD-2025-0001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustCreate(t, svc, tt.in)
			if doc.DocumentNumber != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, doc.DocumentNumber)
			}
		})
	}
}

func TestCreateDocumentDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	client := mustClient(t, svc, "Acme Corp")

	_, err := svc.UpdateSettings(ctx, func(s *models.Settings) error {
		s.DefaultCurrency = "gbp"
		s.DefaultPaymentTermsDays = 14
		s.DefaultTaxRate = dec("20")
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	doc := mustCreate(t, svc, DocumentInput{
		ClientID: client.ID,
		Items:    []models.LineItem{{Description: "Design", Quantity: dec("2"), UnitPrice: dec("50")}},
	})

	if doc.DocumentType != models.DocumentTypeInvoice {
		t.Errorf("Expected invoice by default, got %s", doc.DocumentType)
	}
	if doc.DocumentNumber != "INV-GBP-2025-0001" {
		t.Errorf("Expected INV-GBP-2025-0001, got %s", doc.DocumentNumber)
	}
	if !doc.IssueDate.Equal(testNow) {
		t.Errorf("Expected issue date %v, got %v", testNow, doc.IssueDate)
	}
	if want := testNow.AddDate(0, 0, 14); !doc.DueDate.Equal(want) {
		t.Errorf("Expected due date %v, got %v", want, doc.DueDate)
	}
	if !doc.TaxTotal.Equal(dec("20")) || !doc.Total.Equal(dec("120")) {
		t.Errorf("Expected tax 20 and total 120, got %s and %s", doc.TaxTotal, doc.Total)
	}
	if doc.Items[0].ID == "" {
		t.Error("Expected line item id to be assigned")
	}
}

func TestCreateDocumentValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	client := mustClient(t, svc, "Acme Corp")

	noItems := consulting(client.ID, models.DocumentTypeInvoice, testNow)
	noItems.Items = nil
	badDue := consulting(client.ID, models.DocumentTypeInvoice, testNow)
	badDue.DueDate = testNow.AddDate(0, 0, -1)
	withItem := func(item models.LineItem) DocumentInput {
		in := consulting(client.ID, models.DocumentTypeInvoice, testNow)
		in.Items = append(in.Items, item)
		return in
	}
	negativeTax := dec("-5")

	tests := []struct {
		name string
		in   DocumentInput
		want error
	}{
		{"no items", noItems, apperr.ErrValidation},
		{"due before issue", badDue, apperr.ErrValidation},
		{"unknown type", consulting(client.ID, "receipt", testNow), apperr.ErrValidation},
		{"missing client", consulting("", models.DocumentTypeInvoice, testNow), apperr.ErrValidation},
		{"unknown client", consulting("nobody", models.DocumentTypeInvoice, testNow), apperr.ErrNotFound},
		{"zero quantity", withItem(models.LineItem{Description: "Setup", Quantity: dec("0"), UnitPrice: dec("50")}), apperr.ErrValidation},
		{"negative quantity", withItem(models.LineItem{Description: "Setup", Quantity: dec("-3"), UnitPrice: dec("100")}), apperr.ErrValidation},
		{"negative price", withItem(models.LineItem{Description: "Discount", Quantity: dec("1"), UnitPrice: dec("-50")}), apperr.ErrValidation},
		{"negative tax", withItem(models.LineItem{Description: "Setup", Quantity: dec("1"), UnitPrice: dec("50"), TaxRate: &negativeTax}), apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateDocument(ctx, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	// Rejected documents consume no numbers.
	doc := mustCreate(t, svc, consulting(client.ID, models.DocumentTypeInvoice, testNow))
	if doc.DocumentNumber != "INV-EUR-2025-0001" {
		t.Errorf("Expected INV-EUR-2025-0001 after rejected creates, got %s", doc.DocumentNumber)
	}
}

func TestConcurrentCreatesMintUniqueNumbers(t *testing.T) {
	svc, _ := newTestService(t)
	client := mustClient(t, svc, "Acme Corp")
	const n = 12

	var wg sync.WaitGroup
	numbers := make(chan string, n)
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := svc.CreateDocument(context.Background(), consulting(client.ID, models.DocumentTypeInvoice, testNow))
			if err != nil {
				errs <- err
				return
			}
			numbers <- doc.DocumentNumber
		}()
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent create failed: %v", err)
	}
	var got []string
	for num := range numbers {
		got = append(got, num)
	}
	sort.Strings(got)

	var want []string
	for i := 1; i <= n; i++ {
		want = append(want, fmt.Sprintf("INV-EUR-2025-%04d", i))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Minted numbers mismatch (-want +got):\n%s", diff)
	}
}

func TestQuoteConversion(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	client := mustClient(t, svc, "Acme Corp")

	quote := mustCreate(t, svc, consulting(client.ID, models.DocumentTypeQuote, time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)))
	if _, err := svc.ConvertQuote(ctx, quote.ID); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected validation error converting a draft quote, got %v", err)
	}
	if _, err := svc.MarkSent(ctx, quote.ID); err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}
	if _, err := svc.AcceptQuote(ctx, quote.ID); err != nil {
		t.Fatalf("AcceptQuote failed: %v", err)
	}

	invoice, err := svc.ConvertQuote(ctx, quote.ID)
	if err != nil {
		t.Fatalf("ConvertQuote failed: %v", err)
	}
	if invoice.DocumentType != models.DocumentTypeInvoice || invoice.Status != models.StatusDraft {
		t.Errorf("Expected draft invoice, got %s %s", invoice.Status, invoice.DocumentType)
	}
	if invoice.DocumentNumber != "INV-EUR-2025-0001" {
		t.Errorf("Expected INV-EUR-2025-0001, got %s", invoice.DocumentNumber)
	}
	if invoice.ConvertedFromQuoteID == nil || *invoice.ConvertedFromQuoteID != quote.ID {
		t.Errorf("Expected invoice to reference quote %s, got %v", quote.ID, invoice.ConvertedFromQuoteID)
	}
	if !invoice.Total.Equal(quote.Total) || invoice.ClientID != quote.ClientID {
		t.Errorf("Expected client and totals to be copied from the quote")
	}
	if want := testNow.AddDate(0, 0, 30); !invoice.DueDate.Equal(want) {
		t.Errorf("Expected due date %v, got %v", want, invoice.DueDate)
	}

	stored, err := svc.GetDocument(ctx, quote.ID)
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if stored.ConvertedToInvoiceID == nil || *stored.ConvertedToInvoiceID != invoice.ID {
		t.Errorf("Expected quote to reference invoice %s, got %v", invoice.ID, stored.ConvertedToInvoiceID)
	}
	if stored.Status != models.StatusAccepted {
		t.Errorf("Expected quote to stay accepted, got %s", stored.Status)
	}

	if _, err := svc.ConvertQuote(ctx, quote.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("Expected conflict on second conversion, got %v", err)
	}
	if _, err := svc.ConvertQuote(ctx, invoice.ID); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected validation error converting an invoice, got %v", err)
	}
	if _, err := svc.ConvertQuote(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}

	invoices, err := svc.ListDocuments(ctx, database.DocumentFilter{DocumentType: models.DocumentTypeInvoice})
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(invoices) != 1 {
		t.Errorf("Expected exactly one invoice after repeated conversion attempts, got %d", len(invoices))
	}
}

func TestStatusTransitions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	client := mustClient(t, svc, "Acme Corp")

	invoice := mustCreate(t, svc, consulting(client.ID, models.DocumentTypeInvoice, testNow))
	if _, err := svc.MarkPaid(ctx, invoice.ID); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected draft -> paid to be rejected, got %v", err)
	}
	if _, err := svc.MarkSent(ctx, invoice.ID); err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}
	paid, err := svc.MarkPaid(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}
	if paid.PaidDate == nil || !paid.PaidDate.Equal(testNow) {
		t.Errorf("Expected paid date %v, got %v", testNow, paid.PaidDate)
	}

	stored, err := svc.GetDocument(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if stored.Status != models.StatusPaid || stored.PaidDate == nil {
		t.Errorf("Expected stored invoice to be paid with a date, got %s %v", stored.Status, stored.PaidDate)
	}
	if stored.DocumentNumber != invoice.DocumentNumber {
		t.Errorf("Status change altered the number: %s -> %s", invoice.DocumentNumber, stored.DocumentNumber)
	}

	if _, err := svc.Cancel(ctx, invoice.ID); err != nil {
		t.Errorf("Expected paid invoice to be cancellable, got %v", err)
	}
	if _, err := svc.MarkSent(ctx, invoice.ID); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected cancelled invoice to be terminal, got %v", err)
	}

	quote := mustCreate(t, svc, consulting(client.ID, models.DocumentTypeQuote, testNow))
	if _, err := svc.ExpireQuote(ctx, quote.ID); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected draft quote -> expired to be rejected, got %v", err)
	}
	if _, err := svc.TransitionStatus(ctx, quote.ID, models.StatusPaid); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected invoice status on a quote to be rejected, got %v", err)
	}
	if _, err := svc.TransitionStatus(ctx, "missing", models.StatusSent); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestUpdateDocumentKeepsNumber(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	client := mustClient(t, svc, "Acme Corp")
	other := mustClient(t, svc, "Globex")

	doc := mustCreate(t, svc, consulting(client.ID, models.DocumentTypeInvoice, testNow))
	if _, err := svc.MarkSent(ctx, doc.ID); err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}

	edit := DocumentInput{
		ClientID: other.ID,
		Currency: "USD",
		Items: []models.LineItem{
			{Description: "Consulting", Quantity: dec("3"), UnitPrice: dec("100"), TaxRate: utils.ToPtr(dec("10"))},
		},
	}
	var updated *models.Document
	for range 2 {
		var err error
		updated, err = svc.UpdateDocument(ctx, doc.ID, edit)
		if err != nil {
			t.Fatalf("UpdateDocument failed: %v", err)
		}
	}

	if updated.DocumentNumber != doc.DocumentNumber || updated.LedgerID != doc.LedgerID {
		t.Errorf("Edit changed number or ledger: %s/%s -> %s/%s",
			doc.DocumentNumber, doc.LedgerID, updated.DocumentNumber, updated.LedgerID)
	}
	if updated.Status != models.StatusSent {
		t.Errorf("Edit changed status to %s", updated.Status)
	}
	if !updated.Total.Equal(dec("330")) {
		t.Errorf("Expected recomputed total 330, got %s", updated.Total)
	}
	if !updated.IssueDate.Equal(doc.IssueDate) || !updated.DueDate.Equal(doc.DueDate) {
		t.Errorf("Expected dates to be kept when not given")
	}

	next := mustCreate(t, svc, consulting(client.ID, models.DocumentTypeInvoice, testNow))
	if next.DocumentNumber != "INV-EUR-2025-0002" {
		t.Errorf("Edits must not advance the ledger, next number was %s", next.DocumentNumber)
	}

	edit.DocumentType = models.DocumentTypeQuote
	if _, err := svc.UpdateDocument(ctx, doc.ID, edit); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected type change to be rejected, got %v", err)
	}
}

func TestDuplicateDocument(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	client := mustClient(t, svc, "Acme Corp")

	notes := "Thanks for your business"
	in := consulting(client.ID, models.DocumentTypeInvoice, time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC))
	in.Notes = &notes
	in.Items = append(in.Items, models.LineItem{Description: "Travel", Quantity: dec("1"), UnitPrice: dec("80")})
	original := mustCreate(t, svc, in)
	if _, err := svc.MarkSent(ctx, original.ID); err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}

	dup, err := svc.DuplicateDocument(ctx, original.ID)
	if err != nil {
		t.Fatalf("DuplicateDocument failed: %v", err)
	}

	if dup.ID == original.ID || dup.DocumentNumber == original.DocumentNumber {
		t.Errorf("Expected a new id and number, got %s %s", dup.ID, dup.DocumentNumber)
	}
	if dup.DocumentNumber != "INV-EUR-2025-0001" {
		t.Errorf("Expected a number from the current year, got %s", dup.DocumentNumber)
	}
	if dup.Status != models.StatusDraft {
		t.Errorf("Expected draft, got %s", dup.Status)
	}
	if dup.ClientID != original.ClientID || dup.Notes == nil || *dup.Notes != notes {
		t.Errorf("Expected client and notes to be copied")
	}
	if !dup.IssueDate.Equal(testNow) || !dup.DueDate.Equal(testNow.AddDate(0, 0, 30)) {
		t.Errorf("Expected dates from today, got %v %v", dup.IssueDate, dup.DueDate)
	}
	if len(dup.Items) != len(original.Items) {
		t.Fatalf("Expected %d items, got %d", len(original.Items), len(dup.Items))
	}
	for i := range dup.Items {
		if dup.Items[i].ID == original.Items[i].ID {
			t.Errorf("Item %d kept its id", i)
		}
		if dup.Items[i].Description != original.Items[i].Description {
			t.Errorf("Item %d description changed", i)
		}
	}
	if !dup.Total.Equal(original.Total) {
		t.Errorf("Expected total %s, got %s", original.Total, dup.Total)
	}
}

func TestSweepOverdueAndStats(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	client := mustClient(t, svc, "Acme Corp")

	late := consulting(client.ID, models.DocumentTypeInvoice, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	late.DueDate = time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	current := consulting(client.ID, models.DocumentTypeInvoice, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	current.DueDate = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	draftLate := late

	lateDoc := mustCreate(t, svc, late)
	currentDoc := mustCreate(t, svc, current)
	mustCreate(t, svc, draftLate)
	for _, id := range []string{lateDoc.ID, currentDoc.ID} {
		if _, err := svc.MarkSent(ctx, id); err != nil {
			t.Fatalf("MarkSent failed: %v", err)
		}
	}

	changed, err := svc.SweepOverdue(ctx)
	if err != nil {
		t.Fatalf("SweepOverdue failed: %v", err)
	}
	if len(changed) != 1 || changed[0].ID != lateDoc.ID {
		t.Fatalf("Expected only %s to become overdue, got %v", lateDoc.DocumentNumber, changed)
	}
	if changed[0].Status != models.StatusOverdue {
		t.Errorf("Expected overdue, got %s", changed[0].Status)
	}

	again, err := svc.SweepOverdue(ctx)
	if err != nil {
		t.Fatalf("Second SweepOverdue failed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("Expected second sweep to change nothing, got %d", len(again))
	}

	if _, err := svc.MarkPaid(ctx, currentDoc.ID); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}
	mustCreate(t, svc, consulting(client.ID, models.DocumentTypeQuote, testNow))

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	wantInvoices := map[models.Status]int{models.StatusOverdue: 1, models.StatusPaid: 1, models.StatusDraft: 1}
	if diff := cmp.Diff(wantInvoices, stats.Invoices); diff != "" {
		t.Errorf("Invoice counts mismatch (-want +got):\n%s", diff)
	}
	if stats.Quotes[models.StatusDraft] != 1 {
		t.Errorf("Expected one draft quote, got %v", stats.Quotes)
	}
	if !stats.Outstanding["EUR"].Equal(dec("1000")) || !stats.Paid["EUR"].Equal(dec("1000")) {
		t.Errorf("Expected 1000 outstanding and 1000 paid, got %s and %s", stats.Outstanding["EUR"], stats.Paid["EUR"])
	}
}

func TestClients(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateClient(ctx, &models.Client{Name: "   "}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected validation error for blank name, got %v", err)
	}

	client := mustClient(t, svc, "  Acme Corp ")
	if client.Name != "Acme Corp" {
		t.Errorf("Expected trimmed name, got %q", client.Name)
	}

	email := "billing@acme.test"
	updated, err := svc.UpdateClient(ctx, client.ID, &database.ClientUpdateDetails{Email: &email})
	if err != nil {
		t.Fatalf("UpdateClient failed: %v", err)
	}
	if updated.Name != "Acme Corp" || updated.Email == nil || *updated.Email != email {
		t.Errorf("Unexpected client after update: %+v", updated)
	}
	blank := ""
	if _, err := svc.UpdateClient(ctx, client.ID, &database.ClientUpdateDetails{Name: &blank}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected validation error for blank rename, got %v", err)
	}

	doc := mustCreate(t, svc, consulting(client.ID, models.DocumentTypeInvoice, testNow))
	if err := svc.DeleteClient(ctx, client.ID); err != nil {
		t.Fatalf("DeleteClient failed: %v", err)
	}
	if _, err := svc.GetClient(ctx, client.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected deleted client to be gone, got %v", err)
	}
	if _, err := svc.GetDocument(ctx, doc.ID); err != nil {
		t.Errorf("Expected documents to survive client deletion, got %v", err)
	}
	if err := svc.DeleteClient(ctx, client.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected not found deleting twice, got %v", err)
	}
}

func TestDeletedNumbersAreNotReused(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	client := mustClient(t, svc, "Acme Corp")

	first := mustCreate(t, svc, consulting(client.ID, models.DocumentTypeInvoice, testNow))
	if err := svc.DeleteDocument(ctx, first.ID); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}
	second := mustCreate(t, svc, consulting(client.ID, models.DocumentTypeInvoice, testNow))
	if second.DocumentNumber != "INV-EUR-2025-0002" {
		t.Errorf("Expected INV-EUR-2025-0002, got %s", second.DocumentNumber)
	}

	found, err := svc.FindDocument(ctx, "INV-EUR-2025-0002")
	if err != nil {
		t.Fatalf("FindDocument failed: %v", err)
	}
	if found.ID != second.ID {
		t.Errorf("FindDocument returned %s, want %s", found.ID, second.ID)
	}
	if _, err := svc.FindDocument(ctx, "INV-EUR-2025-0001"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected deleted document to be gone, got %v", err)
	}
}

func TestCompanyIsolation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateCompany(ctx, "First Co")
	if err != nil {
		t.Fatalf("CreateCompany failed: %v", err)
	}
	acme := mustClient(t, svc, "Acme Corp")
	mustCreate(t, svc, consulting(acme.ID, models.DocumentTypeInvoice, testNow))

	second, err := svc.CreateCompany(ctx, "Second Co")
	if err != nil {
		t.Fatalf("CreateCompany failed: %v", err)
	}
	if _, err := svc.SwitchCompany(ctx, second.ID); err != nil {
		t.Fatalf("SwitchCompany failed: %v", err)
	}

	clients, err := svc.ListClients(ctx)
	if err != nil {
		t.Fatalf("ListClients failed: %v", err)
	}
	if len(clients) != 0 {
		t.Errorf("Expected no clients in the second company, got %d", len(clients))
	}
	if _, err := svc.GetClient(ctx, acme.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected first company's client to be invisible, got %v", err)
	}

	globex := mustClient(t, svc, "Globex")
	doc := mustCreate(t, svc, consulting(globex.ID, models.DocumentTypeInvoice, testNow))
	if doc.DocumentNumber != "INV-EUR-2025-0001" {
		t.Errorf("Expected the second company to number independently, got %s", doc.DocumentNumber)
	}

	if _, err := svc.SwitchCompany(ctx, first.ID); err != nil {
		t.Fatalf("SwitchCompany failed: %v", err)
	}
	docs, err := svc.ListDocuments(ctx, database.DocumentFilter{})
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(docs) != 1 || docs[0].ClientID != acme.ID {
		t.Errorf("Expected only the first company's invoice, got %d documents", len(docs))
	}

	if err := svc.DeleteCompany(ctx, second.ID); err != nil {
		t.Fatalf("DeleteCompany failed: %v", err)
	}
	if err := svc.DeleteCompany(ctx, first.ID); !errors.Is(err, apperr.ErrConstraint) {
		t.Errorf("Expected constraint error deleting the last company, got %v", err)
	}
}

func TestExportImportAcrossCompanies(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateCompany(ctx, "Source Co"); err != nil {
		t.Fatalf("CreateCompany failed: %v", err)
	}
	client := mustClient(t, svc, "Acme Corp")
	mustCreate(t, svc, consulting(client.ID, models.DocumentTypeInvoice, testNow))
	mustCreate(t, svc, consulting(client.ID, models.DocumentTypeQuote, testNow))

	snap, name, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if name != "invoicer-source-co-2025-06-15.json" {
		t.Errorf("Unexpected export file name %s", name)
	}
	if snap.Company == nil || snap.Company.Name != "Source Co" {
		t.Errorf("Expected company reference in snapshot, got %+v", snap.Company)
	}

	target, err := svc.CreateCompany(ctx, "Target Co")
	if err != nil {
		t.Fatalf("CreateCompany failed: %v", err)
	}
	if _, err := svc.SwitchCompany(ctx, target.ID); err != nil {
		t.Fatalf("SwitchCompany failed: %v", err)
	}
	res, err := svc.Import(ctx, snap)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Clients != 1 || res.Documents != 2 {
		t.Errorf("Unexpected import counts %+v", res)
	}

	next := mustCreate(t, svc, consulting(client.ID, models.DocumentTypeInvoice, testNow))
	if next.DocumentNumber != "INV-EUR-2025-0002" {
		t.Errorf("Expected numbering to continue after import, got %s", next.DocumentNumber)
	}
}

func TestNotifications(t *testing.T) {
	svc, b := newTestService(t)
	ch, cancel := b.Subscribe()
	defer cancel()

	client := mustClient(t, svc, "Acme Corp")
	doc := mustCreate(t, svc, consulting(client.ID, models.DocumentTypeInvoice, testNow))

	want := []events.Change{
		{Collection: events.CollectionClients, Op: events.OpCreate, ID: client.ID, CompanyID: tenant.DefaultCompanyID},
		{Collection: events.CollectionDocuments, Op: events.OpCreate, ID: doc.ID, CompanyID: tenant.DefaultCompanyID},
		{Collection: events.CollectionLedgers, Op: events.OpUpdate, ID: doc.LedgerID, CompanyID: tenant.DefaultCompanyID},
	}
	var got []events.Change
	for range want {
		select {
		case c := <-ch:
			got = append(got, c)
		case <-time.After(time.Second):
			t.Fatal("Timed out waiting for change")
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Changes mismatch (-want +got):\n%s", diff)
	}

	// Failed operations notify nobody.
	if _, err := svc.CreateDocument(context.Background(), DocumentInput{ClientID: "nobody", Items: doc.Items}); err == nil {
		t.Fatal("Expected create with unknown client to fail")
	}
	select {
	case c := <-ch:
		t.Errorf("Unexpected change %+v", c)
	default:
	}
}
