package service

import (
	"context"
	"strings"

	"github.com/jesses-code-adventures/invoicer/internal/apperr"
	"github.com/jesses-code-adventures/invoicer/internal/database"
	"github.com/jesses-code-adventures/invoicer/internal/events"
	"github.com/jesses-code-adventures/invoicer/internal/models"
	"github.com/jesses-code-adventures/invoicer/internal/tenant"
)

// Settings returns the active company's settings with defaults filled in.
func (s *InvoiceService) Settings(ctx context.Context) (*models.Settings, error) {
	var settings *models.Settings
	err := s.tenants.Do(ctx, func(h *tenant.Handle) error {
		var err error
		settings, err = loadSettings(ctx, h.Store, "service.settings")
		return err
	})
	return settings, err
}

// UpdateSettings applies fn to the current settings and saves the result.
func (s *InvoiceService) UpdateSettings(ctx context.Context, fn func(*models.Settings) error) (*models.Settings, error) {
	const op = "service.update_settings"

	var settings *models.Settings
	err := s.tenants.Do(ctx, func(h *tenant.Handle) error {
		err := h.Store.WithTx(ctx, func(tx database.Queries) error {
			current, err := loadSettings(ctx, tx, op)
			if err != nil {
				return err
			}
			if err := fn(current); err != nil {
				return err
			}
			if err := validateSettings(current, op); err != nil {
				return err
			}
			if err := tx.SaveSettings(ctx, current); err != nil {
				return err
			}
			settings = current
			return nil
		})
		if err != nil {
			return apperr.Storage(op, err)
		}
		s.notify(h, events.CollectionSettings, events.OpUpdate, settings.ID)
		return nil
	})
	return settings, err
}

func validateSettings(st *models.Settings, op string) error {
	st.DefaultCurrency = strings.ToUpper(strings.TrimSpace(st.DefaultCurrency))
	if st.DefaultCurrency == "" {
		return apperr.Validation(op, "default currency is required")
	}
	if st.DefaultPaymentTermsDays < 0 {
		return apperr.Validation(op, "payment terms cannot be negative")
	}
	if st.DefaultQuoteValidityDays < 0 {
		return apperr.Validation(op, "quote validity cannot be negative")
	}
	if st.DefaultTaxRate.IsNegative() {
		return apperr.Validation(op, "default tax rate cannot be negative")
	}
	return nil
}
