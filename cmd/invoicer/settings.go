package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/invoicer/internal/models"
	"github.com/jesses-code-adventures/invoicer/internal/service"
	"github.com/jesses-code-adventures/invoicer/internal/utils"
)

func newSettingsCmd(invoiceService *service.InvoiceService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the active company's settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := invoiceService.Settings(cmd.Context())
			if err != nil {
				return err
			}
			displaySettings(settings)
			return nil
		},
	}
	cmd.AddCommand(newSettingsSetCmd(invoiceService))
	return cmd
}

func newSettingsSetCmd(invoiceService *service.InvoiceService) *cobra.Command {
	var name, email, phone, street, city, state, postalCode, country, vat, logo string
	var currency, tax, notes, locale, theme string
	var terms, validity int

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings",
		Long:  "Change the business profile and document defaults. Only the flags given are changed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			settings, err := invoiceService.UpdateSettings(cmd.Context(), func(s *models.Settings) error {
				text := []struct {
					flag  string
					value string
					dst   **string
				}{
					{"name", name, &s.BusinessName},
					{"email", email, &s.BusinessEmail},
					{"phone", phone, &s.BusinessPhone},
					{"street", street, &s.BusinessStreet},
					{"city", city, &s.BusinessCity},
					{"state", state, &s.BusinessState},
					{"postcode", postalCode, &s.BusinessPostalCode},
					{"country", country, &s.BusinessCountry},
					{"vat", vat, &s.BusinessVatNumber},
					{"logo", logo, &s.BusinessLogo},
					{"notes", notes, &s.DefaultNotes},
				}
				for _, f := range text {
					if changed(f.flag) {
						*f.dst = utils.OptionalString(f.value)
					}
				}

				if changed("currency") {
					s.DefaultCurrency = currency
				}
				if changed("tax") {
					rate, err := decimal.NewFromString(tax)
					if err != nil {
						return fmt.Errorf("invalid tax rate %q: %w", tax, err)
					}
					s.DefaultTaxRate = rate
				}
				if changed("terms") {
					s.DefaultPaymentTermsDays = terms
				}
				if changed("validity") {
					s.DefaultQuoteValidityDays = validity
				}
				if changed("locale") {
					s.Locale = locale
				}
				if changed("theme") {
					s.Theme = theme
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to update settings: %w", err)
			}

			fmt.Println("Updated settings")
			displaySettings(settings)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Business name")
	cmd.Flags().StringVar(&email, "email", "", "Business email")
	cmd.Flags().StringVar(&phone, "phone", "", "Business phone")
	cmd.Flags().StringVar(&street, "street", "", "Street address")
	cmd.Flags().StringVar(&city, "city", "", "City")
	cmd.Flags().StringVar(&state, "state", "", "State/Province")
	cmd.Flags().StringVar(&postalCode, "postcode", "", "Postal/ZIP code")
	cmd.Flags().StringVar(&country, "country", "", "Country")
	cmd.Flags().StringVar(&vat, "vat", "", "VAT number")
	cmd.Flags().StringVar(&logo, "logo", "", "Logo path or data URL")
	cmd.Flags().StringVar(&currency, "currency", "", "Default currency code")
	cmd.Flags().StringVar(&tax, "tax", "", "Default tax rate in percent")
	cmd.Flags().IntVar(&terms, "terms", 30, "Default payment terms in days")
	cmd.Flags().IntVar(&validity, "validity", 30, "Default quote validity in days")
	cmd.Flags().StringVar(&notes, "notes", "", "Default document notes")
	cmd.Flags().StringVar(&locale, "locale", "", "Locale")
	cmd.Flags().StringVar(&theme, "theme", "", "Theme")

	return cmd
}
