package domain

import (
	"time"

	"github.com/veldtlabs/gatehouse/pkg/idx"
)

// AuthorizeToken is the server-side record of an in-progress authorization
// code grant. The same shape passes through two storage stages: pending
// (OwnerUserID nil, keyed by the flow ticket) and issued (OwnerUserID set,
// keyed by the token id). A token has an owner if and only if it has passed
// through user acceptance.
type AuthorizeToken struct {
	ID           string       `json:"id"` // the authorization code value
	OwnerUserID  *UserID      `json:"owner_user_id,omitempty"`
	ClientID     idx.ID       `json:"client_id"`
	Scopes       []string     `json:"scopes"`
	ResponseType ResponseType `json:"response_type"`
	RedirectURI  string       `json:"redirect_uri"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

// Owned reports whether the token has been bound to a user.
func (t AuthorizeToken) Owned() bool {
	return t.OwnerUserID != nil
}

// Expired reports whether the token is past its lifetime at now.
func (t AuthorizeToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// AuthorizeTokenView is what acceptance returns to the transport layer: the
// material needed to redirect back to the client.
type AuthorizeTokenView struct {
	Code         string       `json:"code"`
	TokenType    string       `json:"token_type"`
	ResponseType ResponseType `json:"response_type"`
	RedirectURI  string       `json:"redirect_uri"`
	Scopes       []string     `json:"scopes"`
	State        string       `json:"state"` // echoed back unchanged
}

// TokenPair is the result of exchanging an authorization code.
type TokenPair struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}
