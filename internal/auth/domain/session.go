package domain

import "time"

// Session is an authenticated user session. Validity is re-checked against
// ExpiresAt on every use, never cached.
type Session struct {
	ID            string    `json:"id"`
	UserID        UserID    `json:"user_id"`
	EstablishedAt time.Time `json:"established_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Valid reports whether the session is still usable at now.
func (s Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// SessionView is the caller-facing projection of a Session.
type SessionView struct {
	SessionID string    `json:"session_id"`
	UserID    UserID    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// View projects the session for responses.
func (s Session) View() SessionView {
	return SessionView{
		SessionID: s.ID,
		UserID:    s.UserID,
		ExpiresAt: s.ExpiresAt,
	}
}
