// Package tenant keeps every company's data in its own database namespace
// and routes operations to the namespace of the active company.
package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jesses-code-adventures/invoicer/internal/apperr"
	"github.com/jesses-code-adventures/invoicer/internal/config"
	"github.com/jesses-code-adventures/invoicer/internal/database"
	"github.com/jesses-code-adventures/invoicer/internal/logger"
	"github.com/jesses-code-adventures/invoicer/internal/models"
	"github.com/jesses-code-adventures/invoicer/internal/sandbox"
)

// DefaultCompanyID maps to the namespace used before companies existed, so
// that data remains reachable without migration.
const DefaultCompanyID = "default"

// Namespace returns the database name that holds a company's data.
func Namespace(appName, companyID string, sandboxMode bool) string {
	base := appName
	if sandboxMode {
		base += "-test"
	}
	if companyID == "" || companyID == DefaultCompanyID {
		return base
	}
	return base + "-" + companyID
}

// Opener opens and discards namespace databases. *database.Factory is the
// production implementation.
type Opener interface {
	Open(ctx context.Context, namespace string) (database.Store, error)
	Remove(ctx context.Context, namespace string) error
}

// Handle is the active namespace as seen by one operation.
type Handle struct {
	Store     database.Store
	Company   *models.Company
	Namespace string
	Sandbox   bool
}

// CompanyID returns the active company id, or DefaultCompanyID when no
// company has been created yet.
func (h *Handle) CompanyID() string {
	if h.Company == nil {
		return DefaultCompanyID
	}
	return h.Company.ID
}

type Manager struct {
	// mu is held for reading by Do and for writing by anything that changes
	// which namespace is active, so a switch waits for in-flight work.
	mu      sync.RWMutex
	dir     *database.DirectoryDB
	opener  Opener
	appName string

	storesMu sync.Mutex
	stores   map[string]database.Store

	logger zerolog.Logger
	now    func() time.Time
}

type Option func(*Manager)

func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger.WithComponent(l, "tenant") }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(dir *database.DirectoryDB, opener Opener, appName string, opts ...Option) *Manager {
	m := &Manager{
		dir:     dir,
		opener:  opener,
		appName: appName,
		stores:  make(map[string]database.Store),
		logger:  logger.WithComponent(log.Logger, "tenant"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open builds a Manager over the configured data directory.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Manager, error) {
	f := database.NewFactory(cfg)
	dir, err := f.OpenDirectory(ctx, cfg.AppName+"-directory")
	if err != nil {
		return nil, apperr.Storage("tenant.open", err)
	}
	return NewManager(dir, f, cfg.AppName, opts...), nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeStores()
	return m.dir.Close()
}

func (m *Manager) store(ctx context.Context, namespace string) (database.Store, error) {
	m.storesMu.Lock()
	defer m.storesMu.Unlock()

	if s, ok := m.stores[namespace]; ok {
		return s, nil
	}
	s, err := m.opener.Open(ctx, namespace)
	if err != nil {
		return nil, apperr.Storage("tenant.open_namespace", err)
	}
	m.stores[namespace] = s
	return s, nil
}

func (m *Manager) closeStore(namespace string) {
	m.storesMu.Lock()
	defer m.storesMu.Unlock()
	if s, ok := m.stores[namespace]; ok {
		if err := s.Close(); err != nil {
			m.logger.Warn().Err(err).Str("namespace", namespace).Msg("Failed to close namespace")
		}
		delete(m.stores, namespace)
	}
}

func (m *Manager) closeStores() {
	m.storesMu.Lock()
	defer m.storesMu.Unlock()
	for ns, s := range m.stores {
		if err := s.Close(); err != nil {
			m.logger.Warn().Err(err).Str("namespace", ns).Msg("Failed to close namespace")
		}
	}
	m.stores = make(map[string]database.Store)
}

func (m *Manager) load(ctx context.Context, op string) (*directoryState, error) {
	st, err := loadDirectory(ctx, m.dir)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	return st, nil
}

// Do runs fn against the active company's namespace. The active company
// cannot change until fn returns; fn must not call methods of m that change
// the directory.
func (m *Manager) Do(ctx context.Context, fn func(h *Handle) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, err := m.load(ctx, "tenant.do")
	if err != nil {
		return err
	}
	company := st.active()
	if company == nil && len(st.Companies) > 0 {
		return apperr.NotFound("tenant.do", "company", st.ActiveID)
	}

	id := DefaultCompanyID
	if company != nil {
		id = company.ID
	}
	ns := Namespace(m.appName, id, st.Sandbox)
	store, err := m.store(ctx, ns)
	if err != nil {
		return err
	}
	return fn(&Handle{Store: store, Company: company, Namespace: ns, Sandbox: st.Sandbox})
}

func (m *Manager) List(ctx context.Context) ([]models.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, err := m.load(ctx, "tenant.list")
	if err != nil {
		return nil, err
	}
	return st.Companies, nil
}

// Active returns the active company, or nil before any company exists.
func (m *Manager) Active(ctx context.Context) (*models.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, err := m.load(ctx, "tenant.active")
	if err != nil {
		return nil, err
	}
	return st.active(), nil
}

func (m *Manager) InSandbox(ctx context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, err := m.load(ctx, "tenant.sandbox")
	if err != nil {
		return false, err
	}
	return st.Sandbox, nil
}

// Create adds a company. The first company becomes active and, outside
// sandbox mode, takes over the legacy namespace.
func (m *Manager) Create(ctx context.Context, name string) (*models.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("tenant.create", "company name is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.load(ctx, "tenant.create")
	if err != nil {
		return nil, err
	}

	id := models.NewUUID()
	if len(st.Companies) == 0 && !st.Sandbox {
		id = DefaultCompanyID
	}
	c := models.Company{ID: id, Name: name, CreatedAt: m.now().UTC()}

	companies := append(slices.Clone(st.Companies), c)
	active := st.ActiveID
	if len(st.Companies) == 0 {
		active = c.ID
	}
	if err := saveCompanies(ctx, m.dir, companies, active); err != nil {
		return nil, apperr.Storage("tenant.create", err)
	}

	m.logger.Info().Str("company_id", c.ID).Str("name", c.Name).Msg("Created company")
	return &c, nil
}

// Rename changes a company's display name only.
func (m *Manager) Rename(ctx context.Context, id, name string) (*models.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("tenant.rename", "company name is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.load(ctx, "tenant.rename")
	if err != nil {
		return nil, err
	}
	i, ok := st.find(id)
	if !ok {
		return nil, apperr.NotFound("tenant.rename", "company", id)
	}

	companies := slices.Clone(st.Companies)
	companies[i].Name = name
	if err := saveCompanies(ctx, m.dir, companies, st.ActiveID); err != nil {
		return nil, apperr.Storage("tenant.rename", err)
	}
	c := companies[i]
	return &c, nil
}

// Switch makes id the active company.
func (m *Manager) Switch(ctx context.Context, id string) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.load(ctx, "tenant.switch")
	if err != nil {
		return nil, err
	}
	i, ok := st.find(id)
	if !ok {
		return nil, apperr.NotFound("tenant.switch", "company", id)
	}
	if st.ActiveID != id {
		if err := saveCompanies(ctx, m.dir, st.Companies, id); err != nil {
			return nil, apperr.Storage("tenant.switch", err)
		}
		m.logger.Info().Str("from", st.ActiveID).Str("to", id).Msg("Switched company")
	}
	c := st.Companies[i]
	return &c, nil
}

// Delete removes a company and discards its namespace. Deleting the active
// company activates the first remaining one.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.load(ctx, "tenant.delete")
	if err != nil {
		return err
	}
	i, ok := st.find(id)
	if !ok {
		return apperr.NotFound("tenant.delete", "company", id)
	}
	if len(st.Companies) == 1 {
		return apperr.Constraint("tenant.delete", "cannot delete the last company")
	}

	remaining := slices.Delete(slices.Clone(st.Companies), i, i+1)
	active := st.ActiveID
	if active == id {
		active = remaining[0].ID
	}
	if err := saveCompanies(ctx, m.dir, remaining, active); err != nil {
		return apperr.Storage("tenant.delete", err)
	}

	ns := Namespace(m.appName, id, st.Sandbox)
	m.closeStore(ns)
	if err := m.opener.Remove(ctx, ns); err != nil {
		return apperr.Storage("tenant.delete", err)
	}

	m.logger.Info().Str("company_id", id).Str("active", active).Msg("Deleted company")
	return nil
}

// EnterSandbox swaps in the sandbox company directory. The first entry seeds
// the demo companies; later entries resume the directory parked by
// ExitSandbox, including companies created in sandbox mode. The production
// directory is kept verbatim until ExitSandbox. Entering twice is a no-op.
func (m *Manager) EnterSandbox(ctx context.Context) error {
	const op = "tenant.enter_sandbox"
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.load(ctx, op)
	if err != nil {
		return err
	}
	if st.Sandbox {
		return nil
	}

	parked, err := decodeBackup(st.raw, keyParked)
	if err != nil {
		return apperr.Storage(op, err)
	}
	saved, err := takeBackup(st.raw)
	if err != nil {
		return apperr.Storage(op, err)
	}

	demo := sandbox.Companies(m.now())
	set := map[string]string{}
	var del []string
	if parked == nil {
		if set, err = sandboxDirectory(demo, demo[0].ID); err != nil {
			return apperr.Storage(op, err)
		}
	} else {
		var listed []models.Company
		if parked.Companies != nil {
			if err := json.Unmarshal([]byte(*parked.Companies), &listed); err != nil {
				return apperr.Storage(op, fmt.Errorf("failed to decode parked sandbox companies: %w", err))
			}
		}
		// Demo companies deleted in an earlier session stay deleted.
		demo = slices.DeleteFunc(demo, func(d models.Company) bool {
			return !slices.ContainsFunc(listed, func(c models.Company) bool { return c.ID == d.ID })
		})
		del = append(parked.restore(set, del), keyParked)
	}

	if err := m.seedSandbox(ctx, demo, false); err != nil {
		return err
	}

	set[keyBackup] = saved
	set[keySandbox] = "true"
	if err := m.dir.Update(ctx, set, del); err != nil {
		return apperr.Storage(op, err)
	}
	m.closeStores()
	m.logger.Info().Bool("resumed", parked != nil).Msg("Entered sandbox mode")
	return nil
}

// ExitSandbox restores the production directory saved by EnterSandbox and
// parks the sandbox directory for the next EnterSandbox.
func (m *Manager) ExitSandbox(ctx context.Context) error {
	const op = "tenant.exit_sandbox"
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.load(ctx, op)
	if err != nil {
		return err
	}
	if !st.Sandbox {
		return nil
	}

	prod, err := decodeBackup(st.raw, keyBackup)
	if err != nil {
		return apperr.Storage(op, err)
	}
	if prod == nil {
		prod = &backup{}
	}
	parked, err := takeBackup(st.raw)
	if err != nil {
		return apperr.Storage(op, err)
	}

	set := map[string]string{keyParked: parked}
	del := prod.restore(set, []string{keySandbox, keyBackup})
	if err := m.dir.Update(ctx, set, del); err != nil {
		return apperr.Storage(op, err)
	}
	m.closeStores()
	m.logger.Info().Msg("Exited sandbox mode")
	return nil
}

// ResetSandbox discards every sandbox namespace and re-seeds the demo
// companies. Production namespaces are not touched.
func (m *Manager) ResetSandbox(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.load(ctx, "tenant.reset_sandbox")
	if err != nil {
		return err
	}
	if !st.Sandbox {
		return apperr.Validation("tenant.reset_sandbox", "sandbox mode is not active")
	}

	for _, c := range st.Companies {
		ns := Namespace(m.appName, c.ID, true)
		m.closeStore(ns)
		if err := m.opener.Remove(ctx, ns); err != nil {
			return apperr.Storage("tenant.reset_sandbox", err)
		}
	}

	demo := sandbox.Companies(m.now())
	if err := m.seedSandbox(ctx, demo, true); err != nil {
		return err
	}

	active := demo[0].ID
	if slices.ContainsFunc(demo, func(c models.Company) bool { return c.ID == st.ActiveID }) {
		active = st.ActiveID
	}
	set, err := sandboxDirectory(demo, active)
	if err != nil {
		return apperr.Storage("tenant.reset_sandbox", err)
	}
	if err := m.dir.Update(ctx, set, nil); err != nil {
		return apperr.Storage("tenant.reset_sandbox", err)
	}
	m.logger.Info().Msg("Reset sandbox data")
	return nil
}

// seedSandbox seeds the demo namespaces concurrently. Unless force is set, a
// namespace that already has settings is left alone.
func (m *Manager) seedSandbox(ctx context.Context, demo []models.Company, force bool) error {
	now := m.now()
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range demo {
		g.Go(func() error {
			store, err := m.store(gctx, Namespace(m.appName, c.ID, true))
			if err != nil {
				return err
			}
			if !force {
				existing, err := store.ListSettings(gctx)
				if err != nil {
					return apperr.Storage("tenant.seed", err)
				}
				if len(existing) > 0 {
					return nil
				}
			}
			err = store.WithTx(gctx, func(tx database.Queries) error {
				return sandbox.Seed(gctx, tx, c.ID, now)
			})
			if err != nil {
				return apperr.Storage("tenant.seed", err)
			}
			m.logger.Debug().Str("company_id", c.ID).Msg("Seeded sandbox company")
			return nil
		})
	}
	return g.Wait()
}

func sandboxDirectory(companies []models.Company, activeID string) (map[string]string, error) {
	list, err := encode(companies)
	if err != nil {
		return nil, err
	}
	active, err := encode(activeID)
	if err != nil {
		return nil, err
	}
	return map[string]string{keyCompanies: list, keyActive: active}, nil
}
