package store

import (
	"context"
	"errors"

	"github.com/veldtlabs/gatehouse/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root durable data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns tidy
// and testable; exposing them as methods also stops callers from accidentally
// nesting transactions.
type Store interface {
	Accounts() Accounts
	Clients() Clients

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back if fn returns an
	// error and committing otherwise. Prefer this over Tx directly.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetAccountByID returns an account by its permanent id.
	GetAccountByID(ctx context.Context, id domain.UserID) (domain.Account, error)

	// GetAccountByAddress is used during login; addresses are unique.
	GetAccountByAddress(ctx context.Context, address string) (domain.Account, error)

	// CreateAccount inserts a new account (id is provided by the app).
	// Returns ErrAlreadyExists when the address is taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	// UpdateName mutates the display name and bumps updated_at.
	UpdateName(ctx context.Context, id domain.UserID, name string) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, id domain.UserID, newHash string) error

	// DeleteAccount removes the account row.
	DeleteAccount(ctx context.Context, id domain.UserID) error

	// AddressExists reports whether an account already claims the address.
	AddressExists(ctx context.Context, address string) (bool, error)
}

type Clients interface {
	// GetClientByID fetches a registered relying party.
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// ListClients returns all clients ordered by creation date (newest first).
	ListClients(ctx context.Context) ([]domain.Client, error)

	// CreateClient inserts a new client (secret_hash may be empty for public clients).
	CreateClient(ctx context.Context, c domain.Client) error

	// DeleteClient removes a client registration.
	DeleteClient(ctx context.Context, id string) error

	// IsEmpty returns true if there are no clients.
	IsEmpty(ctx context.Context) (bool, error)
}
