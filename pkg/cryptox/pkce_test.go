package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPKCERoundTrip(t *testing.T) {
	t.Parallel()

	verifiers := []string{
		"dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk",
		"a",
		"some much longer verifier string with spaces and ünïcode",
	}

	for _, v := range verifiers {
		challenge := ComputeChallenge(v)

		raw, err := DecodeChallenge(challenge)
		require.NoError(t, err)

		require.NoError(t, VerifyChallenge(raw, v))
		require.ErrorIs(t, VerifyChallenge(raw, v+"x"), ErrVerifierMismatch)
	}
}

func TestDecodeChallenge(t *testing.T) {
	t.Parallel()

	t.Run("rejects malformed base64url", func(t *testing.T) {
		_, err := DecodeChallenge("not/base64url==")
		require.Error(t, err)
	})

	t.Run("rejects digests of the wrong size", func(t *testing.T) {
		_, err := DecodeChallenge("c2hvcnQ") // "short"
		require.Error(t, err)
	})
}
