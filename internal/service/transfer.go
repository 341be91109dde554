package service

import (
	"context"

	"github.com/jesses-code-adventures/invoicer/internal/events"
	"github.com/jesses-code-adventures/invoicer/internal/snapshot"
	"github.com/jesses-code-adventures/invoicer/internal/tenant"
)

// Export snapshots the active company and suggests a file name for it.
func (s *InvoiceService) Export(ctx context.Context) (*snapshot.Snapshot, string, error) {
	var snap *snapshot.Snapshot
	var name string
	err := s.tenants.Do(ctx, func(h *tenant.Handle) error {
		now := s.clock()
		var err error
		snap, err = snapshot.Export(ctx, h.Store, h.Company, now)
		if err != nil {
			return err
		}
		name = snapshot.Filename(s.cfg.AppName, h.Company, now)
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	s.logger.Info().
		Int("clients", len(snap.Clients)).
		Int("documents", len(snap.Invoices)).
		Msg("Exported company data")
	return snap, name, nil
}

// Import replaces all data of the active company with snap.
func (s *InvoiceService) Import(ctx context.Context, snap *snapshot.Snapshot) (*snapshot.ImportResult, error) {
	var res *snapshot.ImportResult
	err := s.tenants.Do(ctx, func(h *tenant.Handle) error {
		var err error
		res, err = snapshot.Import(ctx, h.Store, snap)
		if err != nil {
			return err
		}
		for _, c := range []string{events.CollectionClients, events.CollectionDocuments, events.CollectionLedgers, events.CollectionSettings} {
			s.notify(h, c, events.OpReplace, "")
		}

		for _, o := range res.OrphanedClientRefs {
			s.logger.Warn().
				Str("company_id", h.CompanyID()).
				Str("document", o.DocumentNumber).
				Str("client_id", o.ClientID).
				Msg("Imported document references a missing client")
		}
		s.logger.Info().
			Str("company_id", h.CompanyID()).
			Int("clients", res.Clients).
			Int("documents", res.Documents).
			Bool("ledgers_rebuilt", res.LedgersRebuilt).
			Msg("Imported company data")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
