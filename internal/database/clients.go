package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jesses-code-adventures/invoicer/internal/models"
)

const clientColumns = `id, name, email, phone, street, city, state, postal_code, country, vat_number, notes, created_at, updated_at`

const insertClientSQL = `INSERT INTO clients (` + clientColumns + `)
VALUES (:id, :name, :email, :phone, :street, :city, :state, :postal_code, :country, :vat_number, :notes, :created_at, :updated_at)`

func (q *queries) CreateClient(ctx context.Context, client *models.Client) error {
	if client.ID == "" {
		client.ID = models.NewUUID()
	}
	if _, err := sqlx.NamedExecContext(ctx, q.ext, insertClientSQL, client); err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func (q *queries) InsertClients(ctx context.Context, clients []*models.Client) error {
	for _, client := range clients {
		if err := q.CreateClient(ctx, client); err != nil {
			return err
		}
	}
	return nil
}

func (q *queries) GetClientByID(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	err := sqlx.GetContext(ctx, q.ext, &client, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get client by ID: %w", err)
	}
	return &client, nil
}

func (q *queries) ListClients(ctx context.Context) ([]*models.Client, error) {
	var clients []*models.Client
	err := sqlx.SelectContext(ctx, q.ext, &clients, `SELECT `+clientColumns+` FROM clients ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

// UpdateClient applies the non-nil fields of updates.
func (q *queries) UpdateClient(ctx context.Context, id string, updates *ClientUpdateDetails) (*models.Client, error) {
	client, err := q.GetClientByID(ctx, id)
	if err != nil {
		return nil, err
	}

	apply := func(dst **string, src *string) {
		if src != nil {
			*dst = src
		}
	}
	if updates.Name != nil {
		client.Name = *updates.Name
	}
	apply(&client.Email, updates.Email)
	apply(&client.Phone, updates.Phone)
	apply(&client.Street, updates.Street)
	apply(&client.City, updates.City)
	apply(&client.State, updates.State)
	apply(&client.PostalCode, updates.PostalCode)
	apply(&client.Country, updates.Country)
	apply(&client.VatNumber, updates.VatNumber)
	apply(&client.Notes, updates.Notes)
	client.UpdatedAt = time.Now().UTC()

	_, err = sqlx.NamedExecContext(ctx, q.ext, `UPDATE clients SET
		name = :name, email = :email, phone = :phone, street = :street, city = :city,
		state = :state, postal_code = :postal_code, country = :country,
		vat_number = :vat_number, notes = :notes, updated_at = :updated_at
		WHERE id = :id`, client)
	if err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	return client, nil
}

func (q *queries) DeleteClient(ctx context.Context, id string) error {
	result, err := q.ext.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err := rowsChanged(result, err, "clients"); err != nil {
		if err == ErrNoChange {
			return fmt.Errorf("failed to delete client %s: %w", id, sql.ErrNoRows)
		}
		return err
	}
	return nil
}

func (q *queries) DeleteAllClients(ctx context.Context) error {
	if _, err := q.ext.ExecContext(ctx, `DELETE FROM clients`); err != nil {
		return fmt.Errorf("failed to delete all clients: %w", err)
	}
	return nil
}
