package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrVerifierMismatch reports a verifier whose digest does not equal the
	// stored challenge.
	ErrVerifierMismatch = errors.New("cryptox: code verifier does not match challenge")
)

// DecodeChallenge decodes a base64url (no padding) S256 code challenge into
// its raw digest bytes. The challenge must decode to a full SHA-256 digest.
func DecodeChallenge(challenge string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(challenge)
	if err != nil {
		return nil, fmt.Errorf("cryptox: malformed code challenge: %w", err)
	}
	if len(raw) != sha256.Size {
		return nil, fmt.Errorf("cryptox: code challenge must be %d bytes, got %d", sha256.Size, len(raw))
	}
	return raw, nil
}

// ComputeChallenge derives the S256 code challenge for a verifier, returned
// base64url-encoded for transport. Matches what a well-behaved client sends.
func ComputeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// VerifyChallenge recomputes SHA-256 over the supplied verifier and compares
// it byte-for-byte against the stored raw digest. Any mismatch is
// ErrVerifierMismatch.
func VerifyChallenge(challenge []byte, verifier string) error {
	sum := sha256.Sum256([]byte(verifier))
	if subtle.ConstantTimeCompare(challenge, sum[:]) != 1 {
		return ErrVerifierMismatch
	}
	return nil
}
