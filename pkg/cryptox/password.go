package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// ErrPasswordMismatch reports a well-formed hash that simply does not match
// the supplied password. Callers must be able to tell this apart from hash
// parsing or derivation failures: a mismatch is a credential problem, the
// rest are infrastructure problems.
var ErrPasswordMismatch = errors.New("cryptox: password does not match")

// HashPassword derives a PHC-format Argon2id hash string including salt and
// parameters, so hashes remain verifiable after parameter changes.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate salt: %w", err)
	}

	hash := argon2.IDKey(
		[]byte(password+GetPepper()),
		salt,
		iterations,
		memory,
		parallelism,
		keyLength,
	)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword compares a plaintext password against a PHC-style Argon2id
// hash. It returns nil on match, ErrPasswordMismatch on a clean mismatch, and
// any other error when the stored hash cannot be parsed.
func VerifyPassword(password, encodedHash string) error {
	params, salt, expected, err := parsePHC(encodedHash)
	if err != nil {
		return err
	}

	computed := argon2.IDKey(
		[]byte(password+GetPepper()),
		salt,
		params.iterations,
		params.memory,
		params.parallelism,
		uint32(len(expected)), // #nosec G115 - hash lengths are bounded by the PHC format
	)

	if subtle.ConstantTimeCompare(computed, expected) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

type argonParams struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
}

// parsePHC splits "$argon2id$v=19$m=X,t=Y,p=Z$salt$hash" into its parts.
func parsePHC(encoded string) (argonParams, []byte, []byte, error) {
	parts := make([]string, 0, 6)
	start := 0
	for i := range len(encoded) {
		if encoded[i] == '$' {
			parts = append(parts, encoded[start:i])
			start = i + 1
		}
	}
	parts = append(parts, encoded[start:])

	if len(parts) != 6 {
		return argonParams{}, nil, nil, errors.New("cryptox: invalid hash format: expected 6 parts")
	}
	if parts[1] != "argon2id" {
		return argonParams{}, nil, nil, errors.New("cryptox: invalid hash format: not argon2id")
	}
	if parts[2] != "v=19" {
		return argonParams{}, nil, nil, errors.New("cryptox: invalid hash format: wrong version")
	}

	var p argonParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("cryptox: invalid hash format: failed to parse parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("cryptox: invalid hash format: failed to decode salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("cryptox: invalid hash format: failed to decode hash: %w", err)
	}

	return p, salt, hash, nil
}
