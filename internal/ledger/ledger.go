// Package ledger mints sequential document numbers from counters partitioned
// by document type, currency and year.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jesses-code-adventures/invoicer/internal/apperr"
	"github.com/jesses-code-adventures/invoicer/internal/database"
	"github.com/jesses-code-adventures/invoicer/internal/models"
)

// Key identifies a ledger partition.
type Key struct {
	DocumentType models.DocumentType
	Currency     string
	Year         int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%d", k.DocumentType, k.Currency, k.Year)
}

func (k Key) validate() error {
	if !k.DocumentType.Valid() {
		return apperr.Validation("ledger.key", "unknown document type %q", k.DocumentType)
	}
	if strings.TrimSpace(k.Currency) == "" {
		return apperr.Validation("ledger.key", "currency is required")
	}
	if k.Year <= 0 {
		return apperr.Validation("ledger.key", "invalid year %d", k.Year)
	}
	return nil
}

// Prefix returns the number prefix of a partition, e.g. "INV-EUR-2025-".
func Prefix(k Key) string {
	kind := "INV"
	if k.DocumentType == models.DocumentTypeQuote {
		kind = "QUO"
	}
	return fmt.Sprintf("%s-%s-%d-", kind, k.Currency, k.Year)
}

// FormatNumber pads value to four digits. Larger values are printed in full.
func FormatNumber(prefix string, value int64) string {
	return fmt.Sprintf("%s%04d", prefix, value)
}

// GetOrCreate returns the ledger for k, creating it with a next value of 1
// when the partition has never been used.
func GetOrCreate(ctx context.Context, q database.Queries, k Key) (*models.Ledger, error) {
	if err := k.validate(); err != nil {
		return nil, err
	}

	l, err := q.GetLedger(ctx, k.DocumentType, k.Currency, k.Year)
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Storage("ledger.get", err)
	}

	l = &models.Ledger{
		DocumentType: k.DocumentType,
		Currency:     k.Currency,
		Year:         k.Year,
		Prefix:       Prefix(k),
		NextValue:    1,
		CreatedAt:    time.Now().UTC(),
	}
	if err := q.InsertLedger(ctx, l); err != nil {
		return nil, apperr.Storage("ledger.create", err)
	}
	return l, nil
}

// Mint formats the next number of the partition and advances its ledger.
// q must be a transaction: the number is only valid once that transaction
// commits together with the document that carries it.
func Mint(ctx context.Context, q database.Queries, k Key) (ledgerID, number string, err error) {
	l, err := GetOrCreate(ctx, q, k)
	if err != nil {
		return "", "", err
	}

	number = FormatNumber(l.Prefix, l.NextValue)
	if err := q.AdvanceLedger(ctx, l.ID, l.NextValue); err != nil {
		if errors.Is(err, database.ErrNoChange) {
			return "", "", apperr.Conflict("ledger.mint", "ledger %s advanced concurrently", k)
		}
		return "", "", apperr.Storage("ledger.mint", err)
	}
	return l.ID, number, nil
}

var sequenceSuffix = regexp.MustCompile(`(\d+)$`)

// Sequence extracts the trailing counter of a document number.
func Sequence(number string) (int64, bool) {
	m := sequenceSuffix.FindStringSubmatch(number)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Reconcile rebuilds ledgers from a set of documents, one per partition, with
// a next value past the highest number already issued. The year comes from
// the document number when it carries one, otherwise from the issue date, and
// the prefix is the one the highest number was issued with. Every document is
// re-pointed at the ledger of its partition.
func Reconcile(docs []*models.Document) []*models.Ledger {
	byKey := make(map[Key]*models.Ledger)
	var order []Key

	for _, d := range docs {
		k := partitionOf(d)
		l, ok := byKey[k]
		if !ok {
			l = &models.Ledger{
				ID:           d.LedgerID,
				DocumentType: k.DocumentType,
				Currency:     k.Currency,
				Year:         k.Year,
				Prefix:       Prefix(k),
				NextValue:    1,
				CreatedAt:    time.Now().UTC(),
			}
			byKey[k] = l
			order = append(order, k)
		}
		if l.ID == "" {
			l.ID = d.LedgerID
		}
		if seq, ok := Sequence(d.DocumentNumber); ok && seq >= l.NextValue {
			l.NextValue = seq + 1
			l.Prefix = strings.TrimSuffix(d.DocumentNumber, sequenceSuffix.FindString(d.DocumentNumber))
		}
	}

	out := make([]*models.Ledger, 0, len(order))
	for _, k := range order {
		l := byKey[k]
		if l.ID == "" {
			l.ID = models.NewUUID()
		}
		out = append(out, l)
	}
	for _, d := range docs {
		d.LedgerID = byKey[partitionOf(d)].ID
	}
	return out
}

var numberYearPattern = regexp.MustCompile(`-(\d{4})-\d+$`)

func partitionOf(d *models.Document) Key {
	k := Key{DocumentType: d.DocumentType, Currency: d.Currency, Year: d.IssueDate.Year()}
	if m := numberYearPattern.FindStringSubmatch(d.DocumentNumber); m != nil {
		if year, err := strconv.Atoi(m[1]); err == nil {
			k.Year = year
		}
	}
	return k
}
