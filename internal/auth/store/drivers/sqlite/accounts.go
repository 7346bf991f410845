package sqlite

import (
	"context"
	"time"

	"github.com/veldtlabs/gatehouse/internal/auth/domain"
)

type accountsRepo struct {
	q querier
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id domain.UserID) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, address, name, password_hash, created_at, updated_at
		FROM accounts WHERE id = ?`, id.String())
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByAddress(ctx context.Context, address string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, address, name, password_hash, created_at, updated_at
		FROM accounts WHERE address = ?`, address)
	return scanAccount(row)
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO accounts (id, address, name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.Address, a.Name, a.PasswordHash,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *accountsRepo) UpdateName(ctx context.Context, id domain.UserID, name string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE accounts SET name = ?, updated_at = ? WHERE id = ?`,
		name, formatTime(time.Now()), id.String())
	return err
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, id domain.UserID, newHash string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, formatTime(time.Now()), id.String())
	return err
}

func (r *accountsRepo) DeleteAccount(ctx context.Context, id domain.UserID) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id.String())
	return err
}

func (r *accountsRepo) AddressExists(ctx context.Context, address string) (bool, error) {
	var count int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE address = ?`, address).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var (
		a                    domain.Account
		id                   string
		createdAt, updatedAt string
	)
	err := row.Scan(&id, &a.Address, &a.Name, &a.PasswordHash, &createdAt, &updatedAt)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	if a.ID, err = domain.ParseUserID(id); err != nil {
		return domain.Account{}, err
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Account{}, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Account{}, err
	}
	return a, nil
}
