package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/invoicer/internal/service"
	"github.com/jesses-code-adventures/invoicer/internal/snapshot"
)

func newExportCmd(invoiceService *service.InvoiceService) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the active company to a JSON file",
		Long:  "Write every client, document, ledger and setting of the active company to a JSON snapshot. Use -o - for stdout.",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, name, err := invoiceService.Export(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}

			if output == "-" {
				return snapshot.Write(os.Stdout, snap)
			}
			if output == "" {
				output = name
			}
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer file.Close()

			if err := snapshot.Write(file, snap); err != nil {
				return err
			}
			fmt.Printf("Exported %d clients and %d documents to %s\n", len(snap.Clients), len(snap.Invoices), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: <app>-<company>-<date>.json)")
	return cmd
}

func newImportCmd(invoiceService *service.InvoiceService) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the active company's data with a JSON snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("import replaces all data of the active company, pass --force to confirm")
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open snapshot: %w", err)
			}
			defer file.Close()

			snap, err := snapshot.Read(file)
			if err != nil {
				return err
			}
			res, err := invoiceService.Import(cmd.Context(), snap)
			if err != nil {
				return fmt.Errorf("failed to import: %w", err)
			}

			fmt.Printf("Imported %d clients, %d documents and %d ledgers\n", res.Clients, res.Documents, res.Ledgers)
			if res.LedgersRebuilt {
				fmt.Println("Numbering was rebuilt from the imported document numbers.")
			}
			for _, o := range res.OrphanedClientRefs {
				fmt.Printf("Warning: %s refers to missing client %s\n", o.DocumentNumber, o.ClientID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Confirm replacing existing data")
	return cmd
}
