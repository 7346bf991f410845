package sqlite

import (
	"context"

	"github.com/veldtlabs/gatehouse/internal/auth/domain"
	"github.com/veldtlabs/gatehouse/pkg/idx"
)

type clientsRepo struct {
	q querier
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, name, type, secret_hash, response_types, redirect_uris, scopes, created_at, updated_at
		FROM clients WHERE id = ?`, id)
	return scanClient(row)
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, type, secret_hash, response_types, redirect_uris, scopes, created_at, updated_at
		FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO clients (id, name, type, secret_hash, response_types, redirect_uris, scopes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.Name, string(c.Type), c.SecretHash,
		joinResponseTypes(c.ResponseTypes), joinFields(c.RedirectURIs), joinFields(c.Scopes),
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *clientsRepo) DeleteClient(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	return err
}

func (r *clientsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

func scanClient(row rowScanner) (domain.Client, error) {
	var (
		c                                   domain.Client
		id, clientType                      string
		responseTypes, redirectURIs, scopes string
		createdAt, updatedAt                string
	)
	err := row.Scan(&id, &c.Name, &clientType, &c.SecretHash,
		&responseTypes, &redirectURIs, &scopes, &createdAt, &updatedAt)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}

	if c.ID, err = idx.Parse(id); err != nil {
		return domain.Client{}, err
	}
	c.Type = domain.ClientType(clientType)
	c.ResponseTypes = splitResponseTypes(responseTypes)
	c.RedirectURIs = splitFields(redirectURIs)
	c.Scopes = splitFields(scopes)
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Client{}, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Client{}, err
	}
	return c, nil
}
