package cryptox

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPasswordProducesPHCFormat(t *testing.T) {
	SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
	require.Len(t, strings.Split(hash, "$"), 6)
}

func TestVerifyPassword(t *testing.T) {
	SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	hash, err := HashPassword("hunter2!")
	require.NoError(t, err)

	t.Run("accepts the original password", func(t *testing.T) {
		require.NoError(t, VerifyPassword("hunter2!", hash))
	})

	t.Run("rejects a wrong password with the mismatch sentinel", func(t *testing.T) {
		err := VerifyPassword("hunter3!", hash)
		require.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("salts make hashes unique", func(t *testing.T) {
		other, err := HashPassword("hunter2!")
		require.NoError(t, err)
		require.NotEqual(t, hash, other)
		require.NoError(t, VerifyPassword("hunter2!", other))
	})
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	cases := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"wrong algorithm", "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"missing sections", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA"},
		{"bad salt encoding", "$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA"},
		{"bad params", "$argon2id$v=19$m=what$c2FsdA$aGFzaA"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := VerifyPassword("anything", tc.encoded)
			require.Error(t, err)
			// Parsing failures must stay distinguishable from mismatches.
			require.False(t, errors.Is(err, ErrPasswordMismatch))
		})
	}
}
