package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/invoicer/internal/lifecycle"
	"github.com/jesses-code-adventures/invoicer/internal/models"
	"github.com/jesses-code-adventures/invoicer/internal/service"
)

func newOverdueCmd(invoiceService *service.InvoiceService) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "Mark sent invoices past their due date as overdue",
		RunE: func(cmd *cobra.Command, args []string) error {
			changed, err := invoiceService.SweepOverdue(cmd.Context())
			if err != nil {
				return err
			}
			if len(changed) == 0 {
				fmt.Println("No invoices are overdue.")
				return nil
			}
			for _, doc := range changed {
				fmt.Printf("%s is overdue (due %s)\n", doc.DocumentNumber, doc.DueDate.Format("2006-01-02"))
			}
			return nil
		},
	}
}

func newStatsCmd(invoiceService *service.InvoiceService) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarise documents by status and outstanding amounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := invoiceService.Stats(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println("Invoices:")
			for _, status := range lifecycle.Statuses(models.DocumentTypeInvoice) {
				fmt.Printf("  %-10s %d\n", status, stats.Invoices[status])
			}
			fmt.Println("Quotes:")
			for _, status := range lifecycle.Statuses(models.DocumentTypeQuote) {
				fmt.Printf("  %-10s %d\n", status, stats.Quotes[status])
			}

			fmt.Println("Outstanding:")
			for _, currency := range sortedKeys(stats.Outstanding) {
				fmt.Printf("  %s\n", service.FormatMoney(stats.Outstanding[currency], currency))
			}
			fmt.Println("Paid:")
			for _, currency := range sortedKeys(stats.Paid) {
				fmt.Printf("  %s\n", service.FormatMoney(stats.Paid[currency], currency))
			}
			return nil
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
