package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
)

// Alphanumeric lengths for the identifiers this server mints. Longer strings
// gate more sensitive transitions.
const (
	// CodeLength is the length of an out-of-band MFA code.
	CodeLength = 8
	// TicketLengthShort is the length of OAuth2 flow tickets and token ids.
	TicketLengthShort = 32
	// TicketLengthLong is the length of login/session path tickets.
	TicketLengthLong = 128
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateAlphanumeric returns a cryptographically random alphanumeric string
// of length n. Used for tickets, session ids and MFA codes where the value
// travels through URLs, cookies, or mail without further encoding.
func GenerateAlphanumeric(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("cryptox: length must be positive, got %d", n)
	}

	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphanumeric))))
		if err != nil {
			return "", fmt.Errorf("cryptox: failed to generate random string: %w", err)
		}
		out[i] = alphanumeric[idx.Int64()]
	}
	return string(out), nil
}

// GenerateToken creates a random token of the given byte length, returned as
// a base64url string (URL-safe, no padding).
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token as
// a base64url string. Lets stores hold hashed secrets and look them up
// without keeping the original value.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
