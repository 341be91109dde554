package main

import (
	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/invoicer/internal/service"
)

func newConfigCmd(invoiceService *service.InvoiceService) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			invoiceService.Config().Dump()
			return nil
		},
	}
}
