package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jesses-code-adventures/invoicer/internal/models"
)

const settingsColumns = `id, business_name, business_email, business_phone, business_street, business_city,
	business_state, business_postal_code, business_country, business_vat_number, business_logo,
	default_currency, default_tax_rate, invoice_number_prefix, invoice_number_next_value,
	quote_number_prefix, quote_number_next_value, default_payment_terms_days,
	default_quote_validity_days, default_notes, locale, theme`

// GetSettings returns the stored settings merged over the defaults. A
// namespace without a settings row yields the defaults with an empty ID.
func (q *queries) GetSettings(ctx context.Context) (*models.Settings, error) {
	var records []models.SettingsRecord
	err := sqlx.SelectContext(ctx, q.ext, &records, `SELECT `+settingsColumns+` FROM settings ORDER BY id LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if len(records) == 0 {
		s := models.DefaultSettings()
		return &s, nil
	}
	s := records[0].Resolve()
	return &s, nil
}

func (q *queries) ListSettings(ctx context.Context) ([]*models.Settings, error) {
	var records []models.SettingsRecord
	err := sqlx.SelectContext(ctx, q.ext, &records, `SELECT `+settingsColumns+` FROM settings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	out := make([]*models.Settings, 0, len(records))
	for i := range records {
		s := records[i].Resolve()
		out = append(out, &s)
	}
	return out, nil
}

// SaveSettings inserts or replaces the settings row with the same ID.
func (q *queries) SaveSettings(ctx context.Context, settings *models.Settings) error {
	if settings.ID == "" {
		settings.ID = models.NewUUID()
	}
	record := settings.Record()
	_, err := sqlx.NamedExecContext(ctx, q.ext, `INSERT INTO settings (`+settingsColumns+`)
		VALUES (:id, :business_name, :business_email, :business_phone, :business_street, :business_city,
			:business_state, :business_postal_code, :business_country, :business_vat_number, :business_logo,
			:default_currency, :default_tax_rate, :invoice_number_prefix, :invoice_number_next_value,
			:quote_number_prefix, :quote_number_next_value, :default_payment_terms_days,
			:default_quote_validity_days, :default_notes, :locale, :theme)
		ON CONFLICT(id) DO UPDATE SET
			business_name = excluded.business_name,
			business_email = excluded.business_email,
			business_phone = excluded.business_phone,
			business_street = excluded.business_street,
			business_city = excluded.business_city,
			business_state = excluded.business_state,
			business_postal_code = excluded.business_postal_code,
			business_country = excluded.business_country,
			business_vat_number = excluded.business_vat_number,
			business_logo = excluded.business_logo,
			default_currency = excluded.default_currency,
			default_tax_rate = excluded.default_tax_rate,
			invoice_number_prefix = excluded.invoice_number_prefix,
			invoice_number_next_value = excluded.invoice_number_next_value,
			quote_number_prefix = excluded.quote_number_prefix,
			quote_number_next_value = excluded.quote_number_next_value,
			default_payment_terms_days = excluded.default_payment_terms_days,
			default_quote_validity_days = excluded.default_quote_validity_days,
			default_notes = excluded.default_notes,
			locale = excluded.locale,
			theme = excluded.theme`, &record)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (q *queries) DeleteAllSettings(ctx context.Context) error {
	if _, err := q.ext.ExecContext(ctx, `DELETE FROM settings`); err != nil {
		return fmt.Errorf("failed to delete all settings: %w", err)
	}
	return nil
}
