// Package sandbox holds the demo companies shown in sandbox mode and seeds
// their namespaces.
package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jesses-code-adventures/invoicer/internal/database"
	"github.com/jesses-code-adventures/invoicer/internal/ledger"
	"github.com/jesses-code-adventures/invoicer/internal/models"
	"github.com/jesses-code-adventures/invoicer/internal/totals"
	"github.com/jesses-code-adventures/invoicer/internal/utils"
)

const (
	FirstCompanyID  = "test-company-1"
	SecondCompanyID = "test-company-2"
)

// Companies returns the demo company directory in display order.
func Companies(now time.Time) []models.Company {
	created := now.UTC().Truncate(time.Second)
	return []models.Company{
		{ID: FirstCompanyID, Name: "Demo Freelancer", CreatedAt: created},
		{ID: SecondCompanyID, Name: "Second Business LLC", CreatedAt: created},
	}
}

// Seed writes the demo data of companyID into q. Seeding the same company
// twice at the same time yields the same records apart from generated ids.
func Seed(ctx context.Context, q database.Queries, companyID string, now time.Time) error {
	var p profile
	switch companyID {
	case FirstCompanyID:
		p = freelancer(now.UTC())
	case SecondCompanyID:
		p = secondBusiness(now.UTC())
	default:
		return fmt.Errorf("no demo data for company %q", companyID)
	}

	if err := q.SaveSettings(ctx, &p.settings); err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}
	if err := q.InsertClients(ctx, p.clients); err != nil {
		return fmt.Errorf("failed to seed clients: %w", err)
	}

	docs := make([]*models.Document, 0, len(p.docs))
	for _, d := range p.docs {
		doc := d.build(p.clients, now.UTC())
		docs = append(docs, doc)
	}
	if err := q.InsertLedgers(ctx, ledger.Reconcile(docs)); err != nil {
		return fmt.Errorf("failed to seed ledgers: %w", err)
	}
	if err := q.InsertDocuments(ctx, docs); err != nil {
		return fmt.Errorf("failed to seed documents: %w", err)
	}
	return nil
}

type profile struct {
	settings models.Settings
	clients  []*models.Client
	docs     []demoDoc
}

type demoItem struct {
	description string
	quantity    int64
	unitPrice   int64
	taxRate     int64
}

type demoDoc struct {
	docType  models.DocumentType
	number   string
	client   int
	items    []demoItem
	currency string
	status   models.Status
	issued   time.Time
	due      time.Time
	paid     *time.Time
	notes    string
	updated  time.Time
}

func (d demoDoc) build(clients []*models.Client, now time.Time) *models.Document {
	items := make(models.LineItems, 0, len(d.items))
	for i, it := range d.items {
		rate := decimal.NewFromInt(it.taxRate)
		items = append(items, models.LineItem{
			ID:          fmt.Sprintf("item%d", i+1),
			Description: it.description,
			Quantity:    decimal.NewFromInt(it.quantity),
			UnitPrice:   decimal.NewFromInt(it.unitPrice),
			TaxRate:     &rate,
		})
	}
	updated := d.updated
	if updated.IsZero() {
		updated = d.issued
	}
	doc := &models.Document{
		ID:             models.NewUUID(),
		DocumentType:   d.docType,
		DocumentNumber: d.number,
		ClientID:       clients[d.client].ID,
		Items:          items,
		Currency:       d.currency,
		Status:         d.status,
		IssueDate:      d.issued,
		DueDate:        d.due,
		PaidDate:       d.paid,
		Notes:          utils.OptionalString(d.notes),
		CreatedAt:      d.issued,
		UpdatedAt:      updated,
	}
	totals.Apply(doc)
	return doc
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func client(name, email, phone, street, city, state, postal, country, vat, notes string, created time.Time) *models.Client {
	return &models.Client{
		ID:         models.NewUUID(),
		Name:       name,
		Email:      utils.OptionalString(email),
		Phone:      utils.OptionalString(phone),
		Street:     utils.OptionalString(street),
		City:       utils.OptionalString(city),
		State:      utils.OptionalString(state),
		PostalCode: utils.OptionalString(postal),
		Country:    utils.OptionalString(country),
		VatNumber:  utils.OptionalString(vat),
		Notes:      utils.OptionalString(notes),
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func freelancer(now time.Time) profile {
	y := now.Year()
	settings := models.DefaultSettings()
	settings.BusinessName = utils.ToPtr("Demo Freelancer")
	settings.BusinessEmail = utils.ToPtr("demo@invoicer.example.com")
	settings.BusinessPhone = utils.ToPtr("+1 555-DEMO")
	settings.BusinessStreet = utils.ToPtr("100 Demo Street")
	settings.BusinessCity = utils.ToPtr("Demo City")
	settings.BusinessState = utils.ToPtr("DC")
	settings.BusinessPostalCode = utils.ToPtr("00000")
	settings.BusinessCountry = utils.ToPtr("Demoland")
	settings.BusinessVatNumber = utils.ToPtr("DEMO123456")
	settings.DefaultTaxRate = decimal.NewFromInt(21)
	settings.InvoiceNumberPrefix = "DEMO-"
	settings.DefaultNotes = utils.ToPtr("Thank you for your business! Payment is due within 30 days.")

	clients := []*models.Client{
		client("Acme Corporation", "billing@acme.example.com", "+1 555-0100", "123 Business Ave", "San Francisco", "CA", "94102", "USA", "US123456789", "Enterprise client - Net 30 payment terms", day(2024, 1, 15)),
		client("TechStart Solutions", "accounts@techstart.example.com", "+1 555-0200", "456 Innovation Blvd", "Austin", "TX", "78701", "USA", "", "Startup client - monthly retainer", day(2024, 2, 1)),
		client("Green Energy Ltd", "finance@greenenergy.example.com", "+44 20 7123 4567", "10 Sustainability Lane", "London", "", "EC1A 1BB", "United Kingdom", "GB987654321", "", day(2024, 2, 15)),
		client("Nordic Design Studio", "hello@nordicdesign.example.com", "+46 8 123 456", "Designgatan 7", "Stockholm", "", "111 22", "Sweden", "SE556677889901", "Design agency - creative projects", day(2024, 3, 1)),
		client("Local Coffee Shop", "owner@localcoffee.example.com", "+1 555-0300", "789 Main Street", "Portland", "OR", "97201", "USA", "", "Small business client", day(2024, 3, 15)),
	}

	inv := func(seq int, currency string) string {
		return ledger.FormatNumber(ledger.Prefix(ledger.Key{DocumentType: models.DocumentTypeInvoice, Currency: currency, Year: y}), int64(seq))
	}
	quo := func(seq int) string {
		return ledger.FormatNumber(ledger.Prefix(ledger.Key{DocumentType: models.DocumentTypeQuote, Currency: "EUR", Year: y}), int64(seq))
	}
	website := []demoItem{{"Website Development", 1, 5000, 21}, {"Hosting Setup", 1, 200, 21}}

	docs := []demoDoc{
		{docType: models.DocumentTypeInvoice, number: inv(1, "EUR"), client: 0, items: website, currency: "EUR",
			status: models.StatusPaid, issued: day(y, 1, 15), due: day(y, 2, 14), paid: utils.ToPtr(day(y, 2, 10)), updated: day(y, 2, 10)},
		{docType: models.DocumentTypeInvoice, number: inv(2, "EUR"), client: 1, items: []demoItem{{"Monthly Retainer - January", 1, 2000, 21}}, currency: "EUR",
			status: models.StatusPaid, issued: day(y, 1, 31), due: day(y, 2, 28), paid: utils.ToPtr(day(y, 3, 1)), updated: day(y, 3, 1)},
		{docType: models.DocumentTypeInvoice, number: inv(3, "EUR"), client: 1, items: []demoItem{{"Monthly Retainer - February", 1, 2000, 21}}, currency: "EUR",
			status: models.StatusSent, issued: day(y, 2, 28), due: day(y, 3, 30)},
		{docType: models.DocumentTypeInvoice, number: inv(1, "USD"), client: 4, items: []demoItem{{"Logo Design", 1, 800, 0}, {"Brand Guidelines Document", 1, 400, 0}}, currency: "USD",
			status: models.StatusSent, issued: day(y, 3, 1), due: day(y, 3, 31)},
		{docType: models.DocumentTypeInvoice, number: inv(4, "EUR"), client: 0, items: []demoItem{{"Maintenance Package Q1", 1, 1500, 21}}, currency: "EUR",
			status: models.StatusOverdue, issued: day(y, 1, 1), due: day(y, 1, 31), notes: "Payment reminder sent on Feb 5", updated: day(y, 2, 5)},
		{docType: models.DocumentTypeInvoice, number: inv(1, "GBP"), client: 2, items: []demoItem{{"Consulting Services", 8, 150, 20}}, currency: "GBP",
			status: models.StatusPaid, issued: day(y, 2, 15), due: day(y, 3, 15), paid: utils.ToPtr(day(y, 3, 10)), updated: day(y, 3, 10)},
		{docType: models.DocumentTypeInvoice, number: inv(2, "USD"), client: 4, items: []demoItem{{"Social Media Graphics Package", 10, 50, 0}}, currency: "USD",
			status: models.StatusDraft, issued: now, due: now.AddDate(0, 0, 14)},
		{docType: models.DocumentTypeQuote, number: quo(1), client: 0, items: website, currency: "EUR",
			status: models.StatusAccepted, issued: day(y, 1, 10), due: day(y, 2, 10), notes: "Website project proposal", updated: day(y, 1, 14)},
		{docType: models.DocumentTypeQuote, number: quo(2), client: 3, items: []demoItem{{"UI/UX Design Project", 1, 3500, 25}, {"Prototype Development", 1, 1500, 25}}, currency: "EUR",
			status: models.StatusSent, issued: now, due: now.AddDate(0, 0, 30), notes: "Design project proposal - awaiting client feedback"},
	}

	return profile{settings: settings, clients: clients, docs: docs}
}

func secondBusiness(now time.Time) profile {
	y := now.Year()
	settings := models.DefaultSettings()
	settings.BusinessName = utils.ToPtr("Second Business LLC")
	settings.BusinessEmail = utils.ToPtr("office@secondbusiness.example.com")
	settings.BusinessStreet = utils.ToPtr("2 Commerce Plaza")
	settings.BusinessCity = utils.ToPtr("Boston")
	settings.BusinessState = utils.ToPtr("MA")
	settings.BusinessPostalCode = utils.ToPtr("02110")
	settings.BusinessCountry = utils.ToPtr("USA")
	settings.DefaultCurrency = "USD"
	settings.DefaultTaxRate = decimal.NewFromInt(8)
	settings.InvoiceNumberPrefix = "SB-"
	settings.DefaultPaymentTermsDays = 14

	clients := []*models.Client{
		client("Alpha Industries", "ap@alpha.example.com", "+1 555-0400", "1 Foundry Road", "Pittsburgh", "PA", "15222", "USA", "", "Manufacturing client", day(2024, 4, 2)),
		client("Beta Services", "billing@beta.example.com", "+1 555-0500", "55 Harbor Street", "Seattle", "WA", "98101", "USA", "", "", day(2024, 5, 20)),
	}

	sb := func(seq int) string {
		return ledger.FormatNumber(fmt.Sprintf("SB-USD-%d-", y), int64(seq))
	}

	docs := []demoDoc{
		{docType: models.DocumentTypeInvoice, number: sb(1), client: 0, items: []demoItem{{"Equipment Audit", 1, 2400, 8}}, currency: "USD",
			status: models.StatusPaid, issued: day(y, 1, 20), due: day(y, 2, 3), paid: utils.ToPtr(day(y, 2, 1)), updated: day(y, 2, 1)},
		{docType: models.DocumentTypeInvoice, number: sb(2), client: 1, items: []demoItem{{"Quarterly Support", 3, 600, 8}}, currency: "USD",
			status: models.StatusSent, issued: day(y, 3, 5), due: day(y, 3, 19)},
		{docType: models.DocumentTypeInvoice, number: sb(3), client: 0, items: []demoItem{{"Process Review Workshop", 2, 900, 8}}, currency: "USD",
			status: models.StatusDraft, issued: now, due: now.AddDate(0, 0, 14)},
	}

	return profile{settings: settings, clients: clients, docs: docs}
}
