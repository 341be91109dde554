package service

import (
	"context"

	"github.com/jesses-code-adventures/invoicer/internal/events"
	"github.com/jesses-code-adventures/invoicer/internal/models"
)

func (s *InvoiceService) companyChanged(op events.Op, id string) {
	s.notifier.Notify(events.Change{Collection: events.CollectionCompanies, Op: op, ID: id, CompanyID: id})
}

func (s *InvoiceService) ListCompanies(ctx context.Context) ([]models.Company, error) {
	return s.tenants.List(ctx)
}

// ActiveCompany returns nil while no company has been created.
func (s *InvoiceService) ActiveCompany(ctx context.Context) (*models.Company, error) {
	return s.tenants.Active(ctx)
}

func (s *InvoiceService) CreateCompany(ctx context.Context, name string) (*models.Company, error) {
	c, err := s.tenants.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	s.companyChanged(events.OpCreate, c.ID)
	return c, nil
}

func (s *InvoiceService) RenameCompany(ctx context.Context, id, name string) (*models.Company, error) {
	c, err := s.tenants.Rename(ctx, id, name)
	if err != nil {
		return nil, err
	}
	s.companyChanged(events.OpUpdate, c.ID)
	return c, nil
}

func (s *InvoiceService) SwitchCompany(ctx context.Context, id string) (*models.Company, error) {
	c, err := s.tenants.Switch(ctx, id)
	if err != nil {
		return nil, err
	}
	s.companyChanged(events.OpUpdate, c.ID)
	return c, nil
}

// DeleteCompany removes a company together with all of its data.
func (s *InvoiceService) DeleteCompany(ctx context.Context, id string) error {
	if err := s.tenants.Delete(ctx, id); err != nil {
		return err
	}
	s.companyChanged(events.OpDelete, id)
	return nil
}

func (s *InvoiceService) InSandbox(ctx context.Context) (bool, error) {
	return s.tenants.InSandbox(ctx)
}

func (s *InvoiceService) EnterSandbox(ctx context.Context) error {
	if err := s.tenants.EnterSandbox(ctx); err != nil {
		return err
	}
	s.companyChanged(events.OpReplace, "")
	return nil
}

func (s *InvoiceService) ExitSandbox(ctx context.Context) error {
	if err := s.tenants.ExitSandbox(ctx); err != nil {
		return err
	}
	s.companyChanged(events.OpReplace, "")
	return nil
}

func (s *InvoiceService) ResetSandbox(ctx context.Context) error {
	if err := s.tenants.ResetSandbox(ctx); err != nil {
		return err
	}
	s.companyChanged(events.OpReplace, "")
	return nil
}
