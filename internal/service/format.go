package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jesses-code-adventures/invoicer/internal/models"
)

// ParseDate parses a date given as YYYY-MM-DD, "today", or a day offset
// from today such as "+14".
func ParseDate(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if value == "" || value == "today" {
		return today, nil
	}

	if strings.HasPrefix(value, "+") || strings.HasPrefix(value, "-") {
		days, err := strconv.Atoi(value)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day offset %q: %w", value, err)
		}
		return today.AddDate(0, 0, days), nil
	}

	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, expected YYYY-MM-DD: %w", err)
	}
	return parsed, nil
}

// ParseLineItem parses "description;quantity;unit price[;tax rate]".
func ParseLineItem(value string) (models.LineItem, error) {
	parts := strings.Split(value, ";")
	if len(parts) < 3 || len(parts) > 4 {
		return models.LineItem{}, fmt.Errorf("invalid line item %q, expected description;quantity;price[;tax]", value)
	}

	item := models.LineItem{Description: strings.TrimSpace(parts[0])}
	var err error
	if item.Quantity, err = decimal.NewFromString(strings.TrimSpace(parts[1])); err != nil {
		return models.LineItem{}, fmt.Errorf("invalid quantity in %q: %w", value, err)
	}
	if item.UnitPrice, err = decimal.NewFromString(strings.TrimSpace(parts[2])); err != nil {
		return models.LineItem{}, fmt.Errorf("invalid unit price in %q: %w", value, err)
	}
	if len(parts) == 4 && strings.TrimSpace(parts[3]) != "" {
		rate, err := decimal.NewFromString(strings.TrimSpace(parts[3]))
		if err != nil {
			return models.LineItem{}, fmt.Errorf("invalid tax rate in %q: %w", value, err)
		}
		item.TaxRate = &rate
	}
	return item, nil
}

// FormatMoney rounds to two decimals for display.
func FormatMoney(amount decimal.Decimal, currency string) string {
	return fmt.Sprintf("%s %s", amount.StringFixed(2), currency)
}
