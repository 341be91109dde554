package service

import (
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jesses-code-adventures/invoicer/internal/apperr"
	"github.com/jesses-code-adventures/invoicer/internal/config"
	"github.com/jesses-code-adventures/invoicer/internal/events"
	"github.com/jesses-code-adventures/invoicer/internal/logger"
	"github.com/jesses-code-adventures/invoicer/internal/tenant"
)

// Notifier receives a Change after every committed mutation.
type Notifier interface {
	Notify(c events.Change)
}

// InvoiceService is the entry point for every operation on clients,
// documents and settings. All of them run against the active company.
type InvoiceService struct {
	tenants  *tenant.Manager
	cfg      *config.Config
	notifier Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

type Option func(*InvoiceService)

func WithNotifier(n Notifier) Option {
	return func(s *InvoiceService) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *InvoiceService) { s.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *InvoiceService) { s.logger = logger.WithComponent(l, "service") }
}

func NewInvoiceService(tenants *tenant.Manager, cfg *config.Config, opts ...Option) *InvoiceService {
	s := &InvoiceService{
		tenants:  tenants,
		cfg:      cfg,
		notifier: events.Discard{},
		logger:   logger.WithComponent(log.Logger, "service"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InvoiceService) Config() *config.Config {
	return s.cfg
}

func (s *InvoiceService) Close() error {
	return s.tenants.Close()
}

func (s *InvoiceService) clock() time.Time {
	return s.now().UTC()
}

func (s *InvoiceService) notify(h *tenant.Handle, collection string, op events.Op, id string) {
	s.notifier.Notify(events.Change{
		Collection: collection,
		Op:         op,
		ID:         id,
		CompanyID:  h.CompanyID(),
	})
}

// lookup classifies the error of a single-row query.
func lookup(op, what, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(op, what, id)
	}
	return apperr.Storage(op, err)
}
