package service

import (
	"context"
	"fmt"
	"time"

	"github.com/veldtlabs/gatehouse/internal/auth/domain"
	"github.com/veldtlabs/gatehouse/internal/auth/store/volatile"
	"github.com/veldtlabs/gatehouse/pkg/cryptox"
)

// SessionService owns the session lifecycle: minting from an accepted ticket
// and the sliding renewal that rotates session ids on every resume.
type SessionService struct {
	Sessions volatile.Store[domain.Session] // session id -> session
	Accepted volatile.Store[domain.UserID]  // accepted ticket -> user

	SessionTTL time.Duration
}

// FinalizeSession consumes an accepted ticket and establishes a session. The
// ticket is single-use: it is revoked before the session is handed back.
func (s *SessionService) FinalizeSession(ctx context.Context, acceptedTicket string) (domain.SessionView, error) {
	if acceptedTicket == "" {
		return domain.SessionView{}, ErrInvalidRequest
	}

	userID, found, err := s.Accepted.Find(ctx, acceptedTicket)
	if err != nil {
		return domain.SessionView{}, fmt.Errorf("find accepted ticket: %w", err)
	}
	if !found {
		return domain.SessionView{}, ErrAcceptedTicketNotFound
	}

	if err := s.Accepted.Revoke(ctx, acceptedTicket); err != nil {
		return domain.SessionView{}, fmt.Errorf("revoke accepted ticket: %w", err)
	}

	session, err := s.establish(ctx, userID)
	if err != nil {
		return domain.SessionView{}, err
	}
	return session.View(), nil
}

// ResumeSession validates a presented session id and slides the window: the
// old id is revoked and a fresh session with a new id and extended expiry
// comes back. An expired record is removed and the caller re-authenticates.
func (s *SessionService) ResumeSession(ctx context.Context, sessionID string) (domain.SessionView, error) {
	if sessionID == "" {
		return domain.SessionView{}, ErrInvalidRequest
	}

	session, found, err := s.Sessions.Find(ctx, sessionID)
	if err != nil {
		return domain.SessionView{}, fmt.Errorf("find session: %w", err)
	}
	if !found {
		return domain.SessionView{}, ErrSessionNotFound
	}

	if !session.Valid(time.Now()) {
		if err := s.Sessions.Revoke(ctx, sessionID); err != nil {
			return domain.SessionView{}, fmt.Errorf("revoke expired session: %w", err)
		}
		return domain.SessionView{}, ErrLoginRequired
	}

	// Revoke before re-issue; a crash in between forces a re-login instead
	// of leaving two live ids for one session.
	if err := s.Sessions.Revoke(ctx, sessionID); err != nil {
		return domain.SessionView{}, fmt.Errorf("revoke session: %w", err)
	}

	renewed, err := s.establish(ctx, session.UserID)
	if err != nil {
		return domain.SessionView{}, err
	}
	return renewed.View(), nil
}

// RevokeSession ends a session outright. Absent ids are fine; logout is
// idempotent.
func (s *SessionService) RevokeSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidRequest
	}
	if err := s.Sessions.Revoke(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *SessionService) establish(ctx context.Context, userID domain.UserID) (domain.Session, error) {
	id, err := cryptox.GenerateAlphanumeric(cryptox.TicketLengthLong)
	if err != nil {
		return domain.Session{}, fmt.Errorf("generate session id: %w", err)
	}

	now := time.Now()
	session := domain.Session{
		ID:            id,
		UserID:        userID,
		EstablishedAt: now,
		ExpiresAt:     now.Add(s.SessionTTL),
	}
	if err := s.Sessions.Create(ctx, session.ID, session, s.SessionTTL); err != nil {
		return domain.Session{}, fmt.Errorf("store session: %w", err)
	}
	return session, nil
}
