// Package volatile provides the TTL-backed key/value store the flow
// machinery keeps its single-use records in: tickets, MFA codes, sessions,
// PKCE challenges, anti-CSRF state and authorize tokens.
//
// The contract is deliberately small. Create overwrites silently (there is no
// conditional create), Find never distinguishes "expired" from "never
// existed", and Revoke is idempotent. Everything else — single-use
// consumption, pairing finds with revokes — is the caller's job.
package volatile

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable reports a transport failure talking to the backing store.
// Absence of a record is not an error; it surfaces as found == false.
var ErrUnavailable = errors.New("volatile: store unavailable")

// Store is a TTL'd key/value store for a single record kind. Distinct kinds
// use distinct key namespaces so a shared ticket string space cannot collide.
type Store[V any] interface {
	// Create stores val under key with the given expiry, silently
	// overwriting any existing record (last-writer-wins).
	Create(ctx context.Context, key string, val V, ttl time.Duration) error

	// Find returns the record under key, or found == false when it is
	// absent or expired.
	Find(ctx context.Context, key string) (val V, found bool, err error)

	// Revoke deletes key. Deleting an absent key is not an error.
	Revoke(ctx context.Context, key string) error
}

// Key namespaces, one per record kind.
const (
	NamespaceRegistration = "reg"   // temporary UserID -> Registration
	NamespaceMFACode      = "mfac"  // UserID -> MFA code
	NamespaceMFAPending   = "mfap"  // ticket -> UserID (code sent, awaiting it)
	NamespaceMFAAccepted  = "mfaa"  // ticket -> UserID (code verified)
	NamespaceSession      = "sess"  // session id -> Session
	NamespacePKCE         = "pkce"  // authorize token id -> challenge digest
	NamespaceState        = "stat"  // ticket -> anti-CSRF state
	NamespacePendingToken = "authp" // ticket -> unowned AuthorizeToken
	NamespaceIssuedToken  = "authi" // token id -> owned AuthorizeToken
)
