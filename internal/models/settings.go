package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Settings is the per-company business profile and document defaults. The
// prefix and next-value fields are advisory only; ledgers hold the real
// counters.
type Settings struct {
	ID                       string          `json:"id"`
	BusinessName             *string         `json:"businessName,omitempty"`
	BusinessEmail            *string         `json:"businessEmail,omitempty"`
	BusinessPhone            *string         `json:"businessPhone,omitempty"`
	BusinessStreet           *string         `json:"businessStreet,omitempty"`
	BusinessCity             *string         `json:"businessCity,omitempty"`
	BusinessState            *string         `json:"businessState,omitempty"`
	BusinessPostalCode       *string         `json:"businessPostalCode,omitempty"`
	BusinessCountry          *string         `json:"businessCountry,omitempty"`
	BusinessVatNumber        *string         `json:"businessVatNumber,omitempty"`
	BusinessLogo             *string         `json:"businessLogo,omitempty"`
	DefaultCurrency          string          `json:"defaultCurrency"`
	DefaultTaxRate           decimal.Decimal `json:"defaultTaxRate"`
	InvoiceNumberPrefix      string          `json:"invoiceNumberPrefix"`
	InvoiceNumberNextValue   int64           `json:"invoiceNumberNextValue"`
	QuoteNumberPrefix        string          `json:"quoteNumberPrefix"`
	QuoteNumberNextValue     int64           `json:"quoteNumberNextValue"`
	DefaultPaymentTermsDays  int             `json:"defaultPaymentTermsDays"`
	DefaultQuoteValidityDays int             `json:"defaultQuoteValidityDays"`
	DefaultNotes             *string         `json:"defaultNotes,omitempty"`
	Locale                   string          `json:"locale"`
	Theme                    string          `json:"theme"`
}

func DefaultSettings() Settings {
	return Settings{
		DefaultCurrency:          "EUR",
		DefaultTaxRate:           decimal.Zero,
		InvoiceNumberPrefix:      "INV-",
		InvoiceNumberNextValue:   1,
		QuoteNumberPrefix:        "QUO-",
		QuoteNumberNextValue:     1,
		DefaultPaymentTermsDays:  30,
		DefaultQuoteValidityDays: 30,
		Locale:                   "en",
		Theme:                    "default",
	}
}

// UnmarshalJSON decodes on top of DefaultSettings so fields missing from
// older exports keep their defaults instead of zero values.
func (s *Settings) UnmarshalJSON(data []byte) error {
	type plain Settings
	p := plain(DefaultSettings())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Settings(p)
	return nil
}

// SettingsRecord is the stored form of Settings where every defaulted field
// may be absent. Resolve merges the defaults in once.
type SettingsRecord struct {
	ID                       string           `db:"id"`
	BusinessName             *string          `db:"business_name"`
	BusinessEmail            *string          `db:"business_email"`
	BusinessPhone            *string          `db:"business_phone"`
	BusinessStreet           *string          `db:"business_street"`
	BusinessCity             *string          `db:"business_city"`
	BusinessState            *string          `db:"business_state"`
	BusinessPostalCode       *string          `db:"business_postal_code"`
	BusinessCountry          *string          `db:"business_country"`
	BusinessVatNumber        *string          `db:"business_vat_number"`
	BusinessLogo             *string          `db:"business_logo"`
	DefaultCurrency          *string          `db:"default_currency"`
	DefaultTaxRate           *decimal.Decimal `db:"default_tax_rate"`
	InvoiceNumberPrefix      *string          `db:"invoice_number_prefix"`
	InvoiceNumberNextValue   *int64           `db:"invoice_number_next_value"`
	QuoteNumberPrefix        *string          `db:"quote_number_prefix"`
	QuoteNumberNextValue     *int64           `db:"quote_number_next_value"`
	DefaultPaymentTermsDays  *int             `db:"default_payment_terms_days"`
	DefaultQuoteValidityDays *int             `db:"default_quote_validity_days"`
	DefaultNotes             *string          `db:"default_notes"`
	Locale                   *string          `db:"locale"`
	Theme                    *string          `db:"theme"`
}

func (r *SettingsRecord) Resolve() Settings {
	s := DefaultSettings()
	s.ID = r.ID
	s.BusinessName = r.BusinessName
	s.BusinessEmail = r.BusinessEmail
	s.BusinessPhone = r.BusinessPhone
	s.BusinessStreet = r.BusinessStreet
	s.BusinessCity = r.BusinessCity
	s.BusinessState = r.BusinessState
	s.BusinessPostalCode = r.BusinessPostalCode
	s.BusinessCountry = r.BusinessCountry
	s.BusinessVatNumber = r.BusinessVatNumber
	s.BusinessLogo = r.BusinessLogo
	s.DefaultNotes = r.DefaultNotes
	if r.DefaultCurrency != nil && *r.DefaultCurrency != "" {
		s.DefaultCurrency = *r.DefaultCurrency
	}
	if r.DefaultTaxRate != nil {
		s.DefaultTaxRate = *r.DefaultTaxRate
	}
	if r.InvoiceNumberPrefix != nil && *r.InvoiceNumberPrefix != "" {
		s.InvoiceNumberPrefix = *r.InvoiceNumberPrefix
	}
	if r.InvoiceNumberNextValue != nil {
		s.InvoiceNumberNextValue = *r.InvoiceNumberNextValue
	}
	if r.QuoteNumberPrefix != nil && *r.QuoteNumberPrefix != "" {
		s.QuoteNumberPrefix = *r.QuoteNumberPrefix
	}
	if r.QuoteNumberNextValue != nil {
		s.QuoteNumberNextValue = *r.QuoteNumberNextValue
	}
	if r.DefaultPaymentTermsDays != nil {
		s.DefaultPaymentTermsDays = *r.DefaultPaymentTermsDays
	}
	if r.DefaultQuoteValidityDays != nil {
		s.DefaultQuoteValidityDays = *r.DefaultQuoteValidityDays
	}
	if r.Locale != nil && *r.Locale != "" {
		s.Locale = *r.Locale
	}
	if r.Theme != nil && *r.Theme != "" {
		s.Theme = *r.Theme
	}
	return s
}

// Record converts resolved settings back into their stored form.
func (s Settings) Record() SettingsRecord {
	return SettingsRecord{
		ID:                       s.ID,
		BusinessName:             s.BusinessName,
		BusinessEmail:            s.BusinessEmail,
		BusinessPhone:            s.BusinessPhone,
		BusinessStreet:           s.BusinessStreet,
		BusinessCity:             s.BusinessCity,
		BusinessState:            s.BusinessState,
		BusinessPostalCode:       s.BusinessPostalCode,
		BusinessCountry:          s.BusinessCountry,
		BusinessVatNumber:        s.BusinessVatNumber,
		BusinessLogo:             s.BusinessLogo,
		DefaultCurrency:          &s.DefaultCurrency,
		DefaultTaxRate:           &s.DefaultTaxRate,
		InvoiceNumberPrefix:      &s.InvoiceNumberPrefix,
		InvoiceNumberNextValue:   &s.InvoiceNumberNextValue,
		QuoteNumberPrefix:        &s.QuoteNumberPrefix,
		QuoteNumberNextValue:     &s.QuoteNumberNextValue,
		DefaultPaymentTermsDays:  &s.DefaultPaymentTermsDays,
		DefaultQuoteValidityDays: &s.DefaultQuoteValidityDays,
		DefaultNotes:             s.DefaultNotes,
		Locale:                   &s.Locale,
		Theme:                    &s.Theme,
	}
}
