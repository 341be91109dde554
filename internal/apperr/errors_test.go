package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"validation", Validation("CreateClient", "name is required"), ErrValidation},
		{"conflict", Conflict("ConvertQuote", "quote already converted"), ErrConflict},
		{"constraint", Constraint("DeleteCompany", "cannot delete the last company"), ErrConstraint},
		{"not found", NotFound("GetClient", "client", "abc"), ErrNotFound},
		{"storage", Storage("InsertDocument", errors.New("disk full")), ErrStorage},
		{"no rows", Storage("GetDocument", fmt.Errorf("failed to get document: %w", sql.ErrNoRows)), ErrNotFound},
		{"wrapped", fmt.Errorf("outer: %w", Conflict("Mint", "duplicate")), ErrConflict},
		{"plain", errors.New("plain"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.err); got != tt.want {
				t.Errorf("Kind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStorageKeepsExistingKind(t *testing.T) {
	inner := Validation("UpdateDocument", "at least one line item is required")
	err := Storage("UpdateDocument", inner)
	if err != inner {
		t.Errorf("Storage() rewrapped an error that already had a kind: %v", err)
	}
	if errors.Is(err, ErrStorage) {
		t.Errorf("validation error reported as storage error")
	}
}

func TestUnwrapReachesCause(t *testing.T) {
	err := Storage("GetClient", sql.ErrNoRows)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected errors.Is to reach sql.ErrNoRows")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found kind")
	}
}
