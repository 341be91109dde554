package main

import (
	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/invoicer/internal/models"
	"github.com/jesses-code-adventures/invoicer/internal/service"
)

func newRootCmd(invoiceService *service.InvoiceService) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "invoicer",
		Short: "Local-first invoicing and quoting",
		Long: `Manage clients, invoices and quotes for one or more companies.
Every company keeps its data in its own local database, and document numbers
are sequential per document type, currency and year.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newClientsCmd(invoiceService),
		newDocumentsCmd(invoiceService, models.DocumentTypeInvoice),
		newDocumentsCmd(invoiceService, models.DocumentTypeQuote),
		newCompaniesCmd(invoiceService),
		newSandboxCmd(invoiceService),
		newSettingsCmd(invoiceService),
		newExportCmd(invoiceService),
		newImportCmd(invoiceService),
		newOverdueCmd(invoiceService),
		newStatsCmd(invoiceService),
		newConfigCmd(invoiceService),
	)

	return rootCmd
}
