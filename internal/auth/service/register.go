package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/veldtlabs/gatehouse/internal/auth/domain"
	"github.com/veldtlabs/gatehouse/internal/auth/mail"
	"github.com/veldtlabs/gatehouse/internal/auth/store"
	"github.com/veldtlabs/gatehouse/internal/auth/store/volatile"
	"github.com/veldtlabs/gatehouse/pkg/cryptox"
)

// RegistrationService turns a proven mail address into a durable account.
// StartRegistration parks the address behind a temporary user id; the shared
// MFA machine proves ownership; CreateAccount trades the accepted ticket for
// the durable record.
type RegistrationService struct {
	Store         store.Store
	Registrations volatile.Store[domain.Registration] // temporary user id -> address
	Codes         volatile.Store[string]              // shared with LoginService
	Pending       volatile.Store[domain.UserID]       // shared with LoginService
	Accepted      volatile.Store[domain.UserID]       // shared with LoginService
	Mailer        mail.Dispatcher

	RegistrationTTL time.Duration
	CodeTTL         time.Duration
	TicketTTL       time.Duration
}

// StartRegistration records the address under a temporary user id and mails a
// verification code. The returned *MFARequiredError carries the pending
// ticket; the code travels out of band.
func (s *RegistrationService) StartRegistration(ctx context.Context, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return ErrInvalidRequest
	}

	taken, err := s.Store.Accounts().AddressExists(ctx, address)
	if err != nil {
		return fmt.Errorf("check address: %w", err)
	}
	if taken {
		return ErrAddressTaken
	}

	// The temporary id keys the registration record and the mailed code. It
	// never becomes the durable account id.
	tempID := domain.NewUserID()

	reg := domain.Registration{
		Address:   address,
		CreatedAt: time.Now(),
	}
	if err := s.Registrations.Create(ctx, tempID.String(), reg, s.RegistrationTTL); err != nil {
		return fmt.Errorf("store registration: %w", err)
	}

	code, err := cryptox.GenerateAlphanumeric(cryptox.CodeLength)
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}
	if err := s.Codes.Create(ctx, tempID.String(), code, s.CodeTTL); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}
	if err := s.Mailer.SendCode(ctx, address, code); err != nil {
		return fmt.Errorf("dispatch verification code: %w", err)
	}

	ticket, err := cryptox.GenerateAlphanumeric(cryptox.TicketLengthLong)
	if err != nil {
		return fmt.Errorf("generate pending ticket: %w", err)
	}
	if err := s.Pending.Create(ctx, ticket, tempID, s.TicketTTL); err != nil {
		return fmt.Errorf("store pending ticket: %w", err)
	}

	return &MFARequiredError{PendingTicket: ticket}
}

// CreateAccount consumes an accepted ticket from the registration flow and
// mints the durable account. The account gets a fresh permanent id; the
// temporary id and its records are revoked on the way out.
func (s *RegistrationService) CreateAccount(ctx context.Context, acceptedTicket, name, password string) (domain.AccountView, error) {
	name = strings.TrimSpace(name)
	if acceptedTicket == "" || name == "" || password == "" {
		return domain.AccountView{}, ErrInvalidRequest
	}

	tempID, found, err := s.Accepted.Find(ctx, acceptedTicket)
	if err != nil {
		return domain.AccountView{}, fmt.Errorf("find accepted ticket: %w", err)
	}
	if !found {
		return domain.AccountView{}, ErrAcceptedTicketNotFound
	}

	reg, found, err := s.Registrations.Find(ctx, tempID.String())
	if err != nil {
		return domain.AccountView{}, fmt.Errorf("find registration: %w", err)
	}
	if !found {
		return domain.AccountView{}, ErrRegistrationNotFound
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.AccountView{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	account := domain.Account{
		ID:           domain.NewUserID(),
		Address:      reg.Address,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Accounts().CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.AccountView{}, ErrAddressTaken
		}
		return domain.AccountView{}, fmt.Errorf("create account: %w", err)
	}

	// Consume the flow records after the durable write. A crash before these
	// deletes leaves records the TTL bounds; the address uniqueness
	// constraint stops a replay from minting a second account.
	if err := s.Accepted.Revoke(ctx, acceptedTicket); err != nil {
		return domain.AccountView{}, fmt.Errorf("revoke accepted ticket: %w", err)
	}
	if err := s.Registrations.Revoke(ctx, tempID.String()); err != nil {
		return domain.AccountView{}, fmt.Errorf("revoke registration: %w", err)
	}

	return account.View(), nil
}
