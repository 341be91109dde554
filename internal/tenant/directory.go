package tenant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jesses-code-adventures/invoicer/internal/database"
	"github.com/jesses-code-adventures/invoicer/internal/models"
)

// Directory keys. The backup key only exists while sandbox mode is on, and
// the parked key only while it is off.
const (
	keyCompanies = "companies"
	keyActive    = "activeCompanyId"
	keySandbox   = "sandboxMode"
	keyBackup    = "sandboxBackup"
	keyParked    = "sandboxDirectory"
)

// directoryState is the decoded tenant directory.
type directoryState struct {
	Companies []models.Company
	ActiveID  string
	Sandbox   bool
	raw       map[string]string
}

// backup holds the company list and active pointer of the directory that is
// not in use, exactly as they were stored. A nil field means the key was
// absent. It keeps the production directory during sandbox mode and the
// sandbox directory outside it.
type backup struct {
	Companies *string `json:"companies"`
	Active    *string `json:"activeCompanyId"`
}

// takeBackup captures the live company list and active pointer of raw.
func takeBackup(raw map[string]string) (string, error) {
	var b backup
	if v, ok := raw[keyCompanies]; ok {
		b.Companies = &v
	}
	if v, ok := raw[keyActive]; ok {
		b.Active = &v
	}
	return encode(b)
}

// restore turns a backup back into directory writes.
func (b backup) restore(set map[string]string, del []string) []string {
	if b.Companies != nil {
		set[keyCompanies] = *b.Companies
	} else {
		del = append(del, keyCompanies)
	}
	if b.Active != nil {
		set[keyActive] = *b.Active
	} else {
		del = append(del, keyActive)
	}
	return del
}

func decodeBackup(raw map[string]string, key string) (*backup, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	var b backup
	if err := json.Unmarshal([]byte(v), &b); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return &b, nil
}

func loadDirectory(ctx context.Context, db *database.DirectoryDB) (*directoryState, error) {
	raw, err := db.Load(ctx)
	if err != nil {
		return nil, err
	}
	st := &directoryState{raw: raw}
	if v, ok := raw[keyCompanies]; ok {
		if err := json.Unmarshal([]byte(v), &st.Companies); err != nil {
			return nil, fmt.Errorf("failed to decode company list: %w", err)
		}
	}
	if v, ok := raw[keyActive]; ok {
		if err := json.Unmarshal([]byte(v), &st.ActiveID); err != nil {
			return nil, fmt.Errorf("failed to decode active company: %w", err)
		}
	}
	if v, ok := raw[keySandbox]; ok {
		if err := json.Unmarshal([]byte(v), &st.Sandbox); err != nil {
			return nil, fmt.Errorf("failed to decode sandbox flag: %w", err)
		}
	}
	return st, nil
}

func (st *directoryState) find(id string) (int, bool) {
	for i, c := range st.Companies {
		if c.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (st *directoryState) active() *models.Company {
	if i, ok := st.find(st.ActiveID); ok {
		c := st.Companies[i]
		return &c
	}
	return nil
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// saveCompanies writes the company list and active pointer.
func saveCompanies(ctx context.Context, db *database.DirectoryDB, companies []models.Company, activeID string) error {
	if companies == nil {
		companies = []models.Company{}
	}
	list, err := encode(companies)
	if err != nil {
		return fmt.Errorf("failed to encode company list: %w", err)
	}
	set := map[string]string{keyCompanies: list}
	var del []string
	if activeID == "" {
		del = append(del, keyActive)
	} else {
		active, err := encode(activeID)
		if err != nil {
			return fmt.Errorf("failed to encode active company: %w", err)
		}
		set[keyActive] = active
	}
	return db.Update(ctx, set, del)
}
