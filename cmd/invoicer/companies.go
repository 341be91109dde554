package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/invoicer/internal/service"
)

func newCompaniesCmd(invoiceService *service.InvoiceService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "companies",
		Short: "Manage companies",
		Long:  "Each company has its own clients, documents, numbering and settings. Commands act on the active company.",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List companies",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				companies, err := invoiceService.ListCompanies(ctx)
				if err != nil {
					return err
				}
				if len(companies) == 0 {
					fmt.Println("No companies yet, using the default data.")
					return nil
				}
				active, err := invoiceService.ActiveCompany(ctx)
				if err != nil {
					return err
				}
				for _, c := range companies {
					marker := " "
					if active != nil && active.ID == c.ID {
						marker = "*"
					}
					fmt.Printf("%s %s - %s\n", marker, c.ID, c.Name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create a company",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := invoiceService.CreateCompany(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Created company '%s' (ID: %s)\n", c.Name, c.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename <id> <name>",
			Short: "Rename a company",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := invoiceService.RenameCompany(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Printf("Renamed company %s to '%s'\n", c.ID, c.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "switch <id>",
			Short: "Make a company active",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := invoiceService.SwitchCompany(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Switched to company '%s'\n", c.Name)
				return nil
			},
		},
		newCompaniesDeleteCmd(invoiceService),
	)

	return cmd
}

func newCompaniesDeleteCmd(invoiceService *service.InvoiceService) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a company and all of its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("deleting a company removes all of its data, pass --force to confirm")
			}
			if err := invoiceService.DeleteCompany(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted company %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Confirm deletion")
	return cmd
}
