package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/veldtlabs/gatehouse/internal/auth/domain"
	"github.com/veldtlabs/gatehouse/internal/auth/mail"
	"github.com/veldtlabs/gatehouse/internal/auth/store"
	"github.com/veldtlabs/gatehouse/internal/auth/store/volatile"
	"github.com/veldtlabs/gatehouse/pkg/cryptox"
	"github.com/veldtlabs/gatehouse/pkg/slogx"
)

// LoginService runs the password + mailed-code authentication machine. A
// successful password check parks the flow behind a pending ticket; a
// verified code trades it for an accepted ticket the session layer consumes.
type LoginService struct {
	Store    store.Store
	Codes    volatile.Store[string]        // user id -> mailed code
	Pending  volatile.Store[domain.UserID] // pending ticket -> user
	Accepted volatile.Store[domain.UserID] // accepted ticket -> user
	Mailer   mail.Dispatcher

	CodeTTL   time.Duration
	TicketTTL time.Duration
}

// StartLogin verifies the address/password pair, mails a fresh code and
// returns *MFARequiredError carrying the pending ticket. Any other return is
// terminal: the caller restarts the flow.
func (s *LoginService) StartLogin(ctx context.Context, address, password string) error {
	l := slogx.FromContext(ctx)

	address = strings.TrimSpace(address)
	if address == "" || password == "" {
		return ErrInvalidRequest
	}

	account, err := s.Store.Accounts().GetAccountByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if err := cryptox.VerifyPassword(password, account.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("login password check failed", slog.String("user_id", account.ID.String()))
			return ErrInvalidCredentials
		}
		return fmt.Errorf("verify password: %w", err)
	}

	if err := s.dispatchCode(ctx, account.ID, account.Address); err != nil {
		return err
	}

	ticket, err := cryptox.GenerateAlphanumeric(cryptox.TicketLengthLong)
	if err != nil {
		return fmt.Errorf("generate pending ticket: %w", err)
	}
	if err := s.Pending.Create(ctx, ticket, account.ID, s.TicketTTL); err != nil {
		return fmt.Errorf("store pending ticket: %w", err)
	}

	return &MFARequiredError{PendingTicket: ticket}
}

// SubmitMFA checks the mailed code against a pending ticket. A mismatched
// code leaves the pending ticket live so the user may retry within the TTL; a
// match consumes both records and returns a fresh accepted ticket.
func (s *LoginService) SubmitMFA(ctx context.Context, pendingTicket, code string) (string, error) {
	if pendingTicket == "" || code == "" {
		return "", ErrInvalidRequest
	}

	userID, found, err := s.Pending.Find(ctx, pendingTicket)
	if err != nil {
		return "", fmt.Errorf("find pending ticket: %w", err)
	}
	if !found {
		return "", ErrPendingTicketNotFound
	}

	stored, found, err := s.Codes.Find(ctx, userID.String())
	if err != nil {
		return "", fmt.Errorf("find mfa code: %w", err)
	}
	if !found {
		return "", ErrMFACodeNotFound
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		// The pending ticket survives a bad code; the user retries until
		// the TTL runs out.
		return "", ErrInvalidMFACode
	}

	// Two independent deletes. A crash between them leaves a dangling code
	// that the TTL bounds.
	if err := s.Pending.Revoke(ctx, pendingTicket); err != nil {
		return "", fmt.Errorf("revoke pending ticket: %w", err)
	}
	if err := s.Codes.Revoke(ctx, userID.String()); err != nil {
		return "", fmt.Errorf("revoke mfa code: %w", err)
	}

	accepted, err := cryptox.GenerateAlphanumeric(cryptox.TicketLengthLong)
	if err != nil {
		return "", fmt.Errorf("generate accepted ticket: %w", err)
	}
	if err := s.Accepted.Create(ctx, accepted, userID, s.TicketTTL); err != nil {
		return "", fmt.Errorf("store accepted ticket: %w", err)
	}

	return accepted, nil
}

// dispatchCode mints a code, stores it keyed by the user and mails it out.
// Restarting a flow overwrites the previous code; only the latest one counts.
func (s *LoginService) dispatchCode(ctx context.Context, userID domain.UserID, address string) error {
	code, err := cryptox.GenerateAlphanumeric(cryptox.CodeLength)
	if err != nil {
		return fmt.Errorf("generate mfa code: %w", err)
	}
	if err := s.Codes.Create(ctx, userID.String(), code, s.CodeTTL); err != nil {
		return fmt.Errorf("store mfa code: %w", err)
	}
	if err := s.Mailer.SendCode(ctx, address, code); err != nil {
		return fmt.Errorf("dispatch mfa code: %w", err)
	}
	return nil
}
