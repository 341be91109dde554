package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/invoicer/internal/apperr"
	"github.com/jesses-code-adventures/invoicer/internal/database"
	"github.com/jesses-code-adventures/invoicer/internal/models"
	"github.com/jesses-code-adventures/invoicer/internal/service"
	"github.com/jesses-code-adventures/invoicer/internal/utils"
)

// newDocumentsCmd builds the "invoices" or "quotes" command tree.
func newDocumentsCmd(invoiceService *service.InvoiceService, docType models.DocumentType) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(docType) + "s",
		Short: fmt.Sprintf("Manage %ss", docType),
		Long:  fmt.Sprintf("Create, edit and track the status of %ss of the active company.", docType),
	}

	cmd.AddCommand(
		newDocumentCreateCmd(invoiceService, docType),
		newDocumentListCmd(invoiceService, docType),
		newDocumentShowCmd(invoiceService, docType),
		newDocumentEditCmd(invoiceService, docType),
		newDocumentDuplicateCmd(invoiceService, docType),
		newDocumentDeleteCmd(invoiceService, docType),
		newStatusCmd(invoiceService, docType, "send", "Mark as sent", invoiceService.MarkSent),
	)

	if docType == models.DocumentTypeQuote {
		cmd.AddCommand(
			newStatusCmd(invoiceService, docType, "accept", "Mark a sent quote as accepted", invoiceService.AcceptQuote),
			newStatusCmd(invoiceService, docType, "decline", "Mark a sent quote as declined", invoiceService.DeclineQuote),
			newStatusCmd(invoiceService, docType, "expire", "Mark a sent quote as expired", invoiceService.ExpireQuote),
			newConvertCmd(invoiceService),
		)
	} else {
		cmd.AddCommand(
			newStatusCmd(invoiceService, docType, "paid", "Mark an invoice as paid today", invoiceService.MarkPaid),
			newStatusCmd(invoiceService, docType, "overdue", "Mark a sent invoice as overdue", invoiceService.MarkOverdue),
			newStatusCmd(invoiceService, docType, "cancel", "Cancel an invoice", invoiceService.Cancel),
		)
	}

	return cmd
}

// documentFlags are the content flags shared by create and edit.
type documentFlags struct {
	client, currency, issue, due, notes string
	items                               []string
}

func (f *documentFlags) register(cmd *cobra.Command, docType models.DocumentType) {
	dueHelp := "Due date (YYYY-MM-DD or +days)"
	if docType == models.DocumentTypeQuote {
		dueHelp = "Valid until (YYYY-MM-DD or +days)"
	}
	cmd.Flags().StringVarP(&f.client, "client", "c", "", "Client ID or name")
	cmd.Flags().StringArrayVarP(&f.items, "item", "i", nil, "Line item as 'description;quantity;price[;tax]' (repeatable)")
	cmd.Flags().StringVar(&f.currency, "currency", "", "Currency code (default from settings)")
	cmd.Flags().StringVar(&f.issue, "issue", "", "Issue date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&f.due, "due", "", dueHelp)
	cmd.Flags().StringVarP(&f.notes, "notes", "n", "", "Notes")
}

// input parses the flags. Dates given as offsets count from the issue date.
func (f *documentFlags) input(ctx context.Context, invoiceService *service.InvoiceService, docType models.DocumentType) (service.DocumentInput, error) {
	in := service.DocumentInput{
		DocumentType: docType,
		Currency:     f.currency,
		Notes:        utils.OptionalString(f.notes),
	}

	if f.client != "" {
		client, err := resolveClient(ctx, invoiceService, f.client)
		if err != nil {
			return in, err
		}
		in.ClientID = client.ID
	}

	for _, raw := range f.items {
		item, err := service.ParseLineItem(raw)
		if err != nil {
			return in, err
		}
		in.Items = append(in.Items, item)
	}

	now := time.Now()
	if f.issue != "" {
		issue, err := service.ParseDate(f.issue, now)
		if err != nil {
			return in, err
		}
		in.IssueDate = issue
	}
	if f.due != "" {
		from := now
		if !in.IssueDate.IsZero() {
			from = in.IssueDate
		}
		due, err := service.ParseDate(f.due, from)
		if err != nil {
			return in, err
		}
		in.DueDate = due
	}
	return in, nil
}

func newDocumentCreateCmd(invoiceService *service.InvoiceService, docType models.DocumentType) *cobra.Command {
	var flags documentFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: fmt.Sprintf("Create a draft %s", docType),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in, err := flags.input(ctx, invoiceService, docType)
			if err != nil {
				return err
			}
			doc, err := invoiceService.CreateDocument(ctx, in)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", docType, err)
			}

			fmt.Printf("Created %s %s (Total: %s)\n", docType, doc.DocumentNumber, service.FormatMoney(doc.Total, doc.Currency))
			return nil
		},
	}
	flags.register(cmd, docType)
	return cmd
}

func newDocumentEditCmd(invoiceService *service.InvoiceService, docType models.DocumentType) *cobra.Command {
	var flags documentFlags
	cmd := &cobra.Command{
		Use:   "edit <id|number>",
		Short: fmt.Sprintf("Edit a %s", docType),
		Long:  "Replace the content of a document. Its number and status never change. Line items given replace all existing items.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := findDocument(ctx, invoiceService, args[0], docType)
			if err != nil {
				return err
			}
			in, err := flags.input(ctx, invoiceService, docType)
			if err != nil {
				return err
			}
			if in.ClientID == "" {
				in.ClientID = doc.ClientID
			}
			if len(in.Items) == 0 {
				in.Items = doc.Items
			}

			updated, err := invoiceService.UpdateDocument(ctx, doc.ID, in)
			if err != nil {
				return fmt.Errorf("failed to update %s: %w", docType, err)
			}
			fmt.Printf("Updated %s %s (Total: %s)\n", docType, updated.DocumentNumber, service.FormatMoney(updated.Total, updated.Currency))
			return nil
		},
	}
	flags.register(cmd, docType)
	return cmd
}

func newDocumentListCmd(invoiceService *service.InvoiceService, docType models.DocumentType) *cobra.Command {
	var status, client, search string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %ss", docType),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			filter := database.DocumentFilter{
				DocumentType: docType,
				Status:       models.Status(status),
				Search:       search,
				Limit:        limit,
			}
			if client != "" {
				c, err := resolveClient(ctx, invoiceService, client)
				if err != nil {
					return err
				}
				filter.ClientID = c.ID
			}

			docs, err := invoiceService.ListDocuments(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list %ss: %w", docType, err)
			}
			if len(docs) == 0 {
				fmt.Printf("No %ss found.\n", docType)
				return nil
			}
			for _, doc := range docs {
				fmt.Printf("%s  %-10s %s  %s\n",
					doc.DocumentNumber, doc.Status, doc.IssueDate.Format("2006-01-02"), service.FormatMoney(doc.Total, doc.Currency))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "Only show this status")
	cmd.Flags().StringVarP(&client, "client", "c", "", "Only show this client (ID or name)")
	cmd.Flags().StringVarP(&search, "search", "q", "", "Search numbers and notes")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of results")
	return cmd
}

func newDocumentShowCmd(invoiceService *service.InvoiceService, docType models.DocumentType) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|number>",
		Short: fmt.Sprintf("Show a %s", docType),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := findDocument(ctx, invoiceService, args[0], docType)
			if err != nil {
				return err
			}
			var client *models.Client
			if c, err := invoiceService.GetClient(ctx, doc.ClientID); err == nil {
				client = c
			}
			displayDocument(doc, client)
			return nil
		},
	}
}

func newDocumentDuplicateCmd(invoiceService *service.InvoiceService, docType models.DocumentType) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id|number>",
		Short: fmt.Sprintf("Create a new draft %s from an existing one", docType),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := findDocument(ctx, invoiceService, args[0], docType)
			if err != nil {
				return err
			}
			doc, err := invoiceService.DuplicateDocument(ctx, src.ID)
			if err != nil {
				return fmt.Errorf("failed to duplicate %s: %w", src.DocumentNumber, err)
			}
			fmt.Printf("Duplicated %s as %s\n", src.DocumentNumber, doc.DocumentNumber)
			return nil
		},
	}
}

func newDocumentDeleteCmd(invoiceService *service.InvoiceService, docType models.DocumentType) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|number>",
		Short: fmt.Sprintf("Delete a %s", docType),
		Long:  "Delete a document. Its number is not reused.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := findDocument(ctx, invoiceService, args[0], docType)
			if err != nil {
				return err
			}
			if err := invoiceService.DeleteDocument(ctx, doc.ID); err != nil {
				return fmt.Errorf("failed to delete %s: %w", doc.DocumentNumber, err)
			}
			fmt.Printf("Deleted %s %s\n", doc.DocumentType, doc.DocumentNumber)
			return nil
		},
	}
}

// findDocument resolves ref to a document of docType.
func findDocument(ctx context.Context, invoiceService *service.InvoiceService, ref string, docType models.DocumentType) (*models.Document, error) {
	doc, err := invoiceService.FindDocument(ctx, ref)
	if err != nil {
		return nil, err
	}
	if doc.DocumentType != docType {
		return nil, apperr.Validation("cli.find_document", "%s is a %s, not a %s", doc.DocumentNumber, doc.DocumentType, docType)
	}
	return doc, nil
}

type transition func(ctx context.Context, id string) (*models.Document, error)

func newStatusCmd(invoiceService *service.InvoiceService, docType models.DocumentType, use, short string, apply transition) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id|number>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := findDocument(ctx, invoiceService, args[0], docType)
			if err != nil {
				return err
			}
			updated, err := apply(ctx, doc.ID)
			if err != nil {
				return err
			}
			fmt.Printf("%s is now %s\n", updated.DocumentNumber, updated.Status)
			return nil
		},
	}
}

func newConvertCmd(invoiceService *service.InvoiceService) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <id|number>",
		Short: "Convert an accepted quote into a draft invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			quote, err := findDocument(ctx, invoiceService, args[0], models.DocumentTypeQuote)
			if err != nil {
				return err
			}
			invoice, err := invoiceService.ConvertQuote(ctx, quote.ID)
			if err != nil {
				return fmt.Errorf("failed to convert %s: %w", quote.DocumentNumber, err)
			}
			fmt.Printf("Converted quote %s to invoice %s\n", quote.DocumentNumber, invoice.DocumentNumber)
			return nil
		},
	}
}
