package domain

import (
	"slices"
	"time"

	"github.com/veldtlabs/gatehouse/pkg/idx"
)

// ResponseType is an OAuth2 response type a client may request.
type ResponseType string

// ResponseTypeCode is the only response type this server issues.
const ResponseTypeCode ResponseType = "code"

// ClientType distinguishes clients that can keep a secret from those that
// cannot.
type ClientType string

const (
	ClientTypePublic       ClientType = "public"
	ClientTypeConfidential ClientType = "confidential"
)

// Client is a registered OAuth2 relying party.
type Client struct {
	ID            idx.ID
	Name          string
	Type          ClientType
	SecretHash    string // empty for public clients
	ResponseTypes []ResponseType
	RedirectURIs  []string
	Scopes        []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SupportsResponseType reports whether rt is among the client's registered
// response types.
func (c Client) SupportsResponseType(rt ResponseType) bool {
	return slices.Contains(c.ResponseTypes, rt)
}

// ResolveRedirectURI picks the effective redirect URI for a request. A
// caller-supplied URI must exactly match a registered one; when omitted, the
// client must have exactly one registered URI (no implicit default when
// ambiguous).
func (c Client) ResolveRedirectURI(requested string) (string, bool) {
	if requested != "" {
		if slices.Contains(c.RedirectURIs, requested) {
			return requested, true
		}
		return "", false
	}
	if len(c.RedirectURIs) == 1 {
		return c.RedirectURIs[0], true
	}
	return "", false
}
