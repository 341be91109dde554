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

func (s *InvoiceService) CreateClient(ctx context.Context, client *models.Client) (*models.Client, error) {
	client.Name = strings.TrimSpace(client.Name)
	if client.Name == "" {
		return nil, apperr.Validation("service.create_client", "client name is required")
	}

	err := s.tenants.Do(ctx, func(h *tenant.Handle) error {
		now := s.clock()
		client.ID = ""
		client.CreatedAt = now
		client.UpdatedAt = now
		if err := h.Store.CreateClient(ctx, client); err != nil {
			return apperr.Storage("service.create_client", err)
		}
		s.notify(h, events.CollectionClients, events.OpCreate, client.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("client_id", client.ID).Str("name", client.Name).Msg("Created client")
	return client, nil
}

func (s *InvoiceService) GetClient(ctx context.Context, id string) (*models.Client, error) {
	var client *models.Client
	err := s.tenants.Do(ctx, func(h *tenant.Handle) error {
		var err error
		client, err = h.Store.GetClientByID(ctx, id)
		if err != nil {
			return lookup("service.get_client", "client", id, err)
		}
		return nil
	})
	return client, err
}

func (s *InvoiceService) ListClients(ctx context.Context) ([]*models.Client, error) {
	var clients []*models.Client
	err := s.tenants.Do(ctx, func(h *tenant.Handle) error {
		var err error
		clients, err = h.Store.ListClients(ctx)
		return apperr.Storage("service.list_clients", err)
	})
	return clients, err
}

// UpdateClient applies the non-nil fields of updates.
func (s *InvoiceService) UpdateClient(ctx context.Context, id string, updates *database.ClientUpdateDetails) (*models.Client, error) {
	if updates.Name != nil {
		name := strings.TrimSpace(*updates.Name)
		if name == "" {
			return nil, apperr.Validation("service.update_client", "client name cannot be empty")
		}
		updates.Name = &name
	}

	var client *models.Client
	err := s.tenants.Do(ctx, func(h *tenant.Handle) error {
		var err error
		client, err = h.Store.UpdateClient(ctx, id, updates)
		if err != nil {
			return lookup("service.update_client", "client", id, err)
		}
		s.notify(h, events.CollectionClients, events.OpUpdate, id)
		return nil
	})
	return client, err
}

// DeleteClient removes a client. Documents that reference it are kept.
func (s *InvoiceService) DeleteClient(ctx context.Context, id string) error {
	return s.tenants.Do(ctx, func(h *tenant.Handle) error {
		if err := h.Store.DeleteClient(ctx, id); err != nil {
			return lookup("service.delete_client", "client", id, err)
		}
		s.notify(h, events.CollectionClients, events.OpDelete, id)
		s.logger.Info().Str("client_id", id).Msg("Deleted client")
		return nil
	})
}
