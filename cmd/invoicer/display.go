package main

import (
	"fmt"

	"github.com/jesses-code-adventures/invoicer/internal/models"
	"github.com/jesses-code-adventures/invoicer/internal/service"
	"github.com/jesses-code-adventures/invoicer/internal/totals"
	"github.com/jesses-code-adventures/invoicer/internal/utils"
)

func displayClient(client *models.Client) {
	fmt.Printf("\nClient: %s (ID: %s)\n", client.Name, client.ID)
	optional := []struct {
		label string
		value *string
	}{
		{"Email", client.Email},
		{"Phone", client.Phone},
		{"Street", client.Street},
		{"City", client.City},
		{"State", client.State},
		{"Postal Code", client.PostalCode},
		{"Country", client.Country},
		{"VAT Number", client.VatNumber},
		{"Notes", client.Notes},
	}
	for _, field := range optional {
		if field.value != nil {
			fmt.Printf("  %s: %s\n", field.label, *field.value)
		}
	}
}

func displayDocument(doc *models.Document, client *models.Client) {
	dueLabel := "Due"
	if doc.IsQuote() {
		dueLabel = "Valid Until"
	}

	fmt.Printf("%s %s [%s]\n", doc.DocumentType, doc.DocumentNumber, doc.Status)
	if client != nil {
		fmt.Printf("Client: %s\n", client.Name)
	} else {
		fmt.Printf("Client: %s (missing)\n", doc.ClientID)
	}
	fmt.Printf("Issued: %s\n", doc.IssueDate.Format("2006-01-02"))
	fmt.Printf("%s: %s\n", dueLabel, doc.DueDate.Format("2006-01-02"))
	if doc.PaidDate != nil {
		fmt.Printf("Paid: %s\n", doc.PaidDate.Format("2006-01-02"))
	}
	if doc.ConvertedFromQuoteID != nil {
		fmt.Printf("Converted from quote: %s\n", *doc.ConvertedFromQuoteID)
	}
	if doc.ConvertedToInvoiceID != nil {
		fmt.Printf("Converted to invoice: %s\n", *doc.ConvertedToInvoiceID)
	}

	fmt.Println("\nItems:")
	for _, item := range doc.Items {
		rate := "0"
		if item.TaxRate != nil {
			rate = item.TaxRate.String()
		}
		fmt.Printf("  %s  %s x %s  (tax %s%%)  %s\n",
			item.Description, item.Quantity, item.UnitPrice.StringFixed(2), rate,
			service.FormatMoney(totals.LineTotal(item), doc.Currency))
	}

	fmt.Printf("\nSubtotal: %s\n", service.FormatMoney(doc.Subtotal, doc.Currency))
	fmt.Printf("Tax: %s\n", service.FormatMoney(doc.TaxTotal, doc.Currency))
	fmt.Printf("Total: %s\n", service.FormatMoney(doc.Total, doc.Currency))
	if notes := utils.Deref(doc.Notes, ""); notes != "" {
		fmt.Printf("\nNotes: %s\n", notes)
	}
}

func displaySettings(s *models.Settings) {
	fmt.Printf("Business Name: %s\n", utils.Deref(s.BusinessName, "-"))
	fmt.Printf("Business Email: %s\n", utils.Deref(s.BusinessEmail, "-"))
	fmt.Printf("VAT Number: %s\n", utils.Deref(s.BusinessVatNumber, "-"))
	fmt.Printf("Default Currency: %s\n", s.DefaultCurrency)
	fmt.Printf("Default Tax Rate: %s%%\n", s.DefaultTaxRate)
	fmt.Printf("Payment Terms: %d days\n", s.DefaultPaymentTermsDays)
	fmt.Printf("Quote Validity: %d days\n", s.DefaultQuoteValidityDays)
	fmt.Printf("Default Notes: %s\n", utils.Deref(s.DefaultNotes, "-"))
	fmt.Printf("Locale: %s\n", s.Locale)
}
