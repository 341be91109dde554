package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/invoicer/internal/apperr"
	"github.com/jesses-code-adventures/invoicer/internal/database"
	"github.com/jesses-code-adventures/invoicer/internal/models"
	"github.com/jesses-code-adventures/invoicer/internal/service"
	"github.com/jesses-code-adventures/invoicer/internal/utils"
)

func newClientsCmd(invoiceService *service.InvoiceService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage clients",
		Long:  "Commands for managing the clients of the active company.",
	}

	cmd.AddCommand(newClientsListCmd(invoiceService))
	cmd.AddCommand(newClientsCreateCmd(invoiceService))
	cmd.AddCommand(newClientsUpdateCmd(invoiceService))
	cmd.AddCommand(newClientsDeleteCmd(invoiceService))

	return cmd
}

// clientFlags are the optional contact fields shared by create and update.
type clientFlags struct {
	email, phone, street, city, state, postalCode, country, vat, notes string
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.email, "email", "", "Email address")
	cmd.Flags().StringVar(&f.phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&f.street, "street", "", "Street address")
	cmd.Flags().StringVar(&f.city, "city", "", "City")
	cmd.Flags().StringVar(&f.state, "state", "", "State/Province")
	cmd.Flags().StringVar(&f.postalCode, "postcode", "", "Postal/ZIP code")
	cmd.Flags().StringVar(&f.country, "country", "", "Country")
	cmd.Flags().StringVar(&f.vat, "vat", "", "VAT number")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Notes")
}

func newClientsListCmd(invoiceService *service.InvoiceService) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			clients, err := invoiceService.ListClients(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list clients: %w", err)
			}

			if len(clients) == 0 {
				fmt.Println("No clients found.")
				return nil
			}

			fmt.Println("Clients:")
			for _, client := range clients {
				if verbose {
					displayClient(client)
				} else {
					fmt.Printf("%s - %s - %s\n", client.ID, client.Name, utils.Deref(client.Email, "no email"))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show contact details")
	return cmd
}

func newClientsCreateCmd(invoiceService *service.InvoiceService) *cobra.Command {
	var flags clientFlags
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := invoiceService.CreateClient(cmd.Context(), &models.Client{
				Name:       args[0],
				Email:      utils.OptionalString(flags.email),
				Phone:      utils.OptionalString(flags.phone),
				Street:     utils.OptionalString(flags.street),
				City:       utils.OptionalString(flags.city),
				State:      utils.OptionalString(flags.state),
				PostalCode: utils.OptionalString(flags.postalCode),
				Country:    utils.OptionalString(flags.country),
				VatNumber:  utils.OptionalString(flags.vat),
				Notes:      utils.OptionalString(flags.notes),
			})
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			fmt.Printf("Created client '%s' (ID: %s)\n", client.Name, client.ID)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newClientsUpdateCmd(invoiceService *service.InvoiceService) *cobra.Command {
	var flags clientFlags
	var name string
	cmd := &cobra.Command{
		Use:   "update <client>",
		Short: "Update details about a client",
		Long:  "Update the contact details of a client given by ID or name. Only the flags given are changed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := resolveClient(ctx, invoiceService, args[0])
			if err != nil {
				return err
			}

			updated, err := invoiceService.UpdateClient(ctx, client.ID, &database.ClientUpdateDetails{
				Name:       utils.OptionalString(name),
				Email:      utils.OptionalString(flags.email),
				Phone:      utils.OptionalString(flags.phone),
				Street:     utils.OptionalString(flags.street),
				City:       utils.OptionalString(flags.city),
				State:      utils.OptionalString(flags.state),
				PostalCode: utils.OptionalString(flags.postalCode),
				Country:    utils.OptionalString(flags.country),
				VatNumber:  utils.OptionalString(flags.vat),
				Notes:      utils.OptionalString(flags.notes),
			})
			if err != nil {
				return fmt.Errorf("failed to update client: %w", err)
			}

			fmt.Printf("Updated client '%s'\n", updated.Name)
			displayClient(updated)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "New client name")
	flags.register(cmd)
	return cmd
}

func newClientsDeleteCmd(invoiceService *service.InvoiceService) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <client>",
		Short: "Delete a client",
		Long:  "Delete a client given by ID or name. Its invoices and quotes are kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := resolveClient(ctx, invoiceService, args[0])
			if err != nil {
				return err
			}
			if err := invoiceService.DeleteClient(ctx, client.ID); err != nil {
				return fmt.Errorf("failed to delete client: %w", err)
			}
			fmt.Printf("Deleted client '%s'\n", client.Name)
			return nil
		},
	}
}

// resolveClient finds a client by ID, or else by case-insensitive name.
func resolveClient(ctx context.Context, invoiceService *service.InvoiceService, ref string) (*models.Client, error) {
	client, err := invoiceService.GetClient(ctx, ref)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	clients, err := invoiceService.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range clients {
		if strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("client '%s' does not exist", ref)
}
