package service

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/veldtlabs/gatehouse/internal/auth/domain"
)

// issueCode walks the full authorization flow and returns the redeemable
// code alongside the client and account it belongs to.
func issueCode(t *testing.T, e *env) (string, domain.Client, domain.Account) {
	t.Helper()
	ctx := context.Background()

	account := e.seedAccount(t, "person@example.com", "correct-horse")
	client := e.seedClient(t, "https://app/cb")

	ticket, err := e.authorize.PendingAuthorization(ctx, authRequest(client))
	require.NoError(t, err)
	view, err := e.authorize.AcceptAuthorization(ctx, ticket, "xyz", "person@example.com", "correct-horse")
	require.NoError(t, err)

	return view.Code, client, account
}

func TestExchangeAuthorizationCode(t *testing.T) {
	ctx := context.Background()

	t.Run("valid exchange mints a signed access token", func(t *testing.T) {
		e := newEnv(t)
		code, client, account := issueCode(t, e)

		pair, err := e.tokens.ExchangeAuthorizationCode(ctx, client.ID.String(), "", code, "https://app/cb", testVerifier)
		require.NoError(t, err)
		require.Equal(t, "Bearer", pair.TokenType)
		require.Equal(t, "read", pair.Scope)
		require.Positive(t, pair.ExpiresIn)

		parsed, _, err := jwt.NewParser().ParseUnverified(pair.AccessToken, &accessClaims{})
		require.NoError(t, err)
		claims := parsed.Claims.(*accessClaims)
		require.Equal(t, account.ID.String(), claims.Subject)
		require.Equal(t, client.ID.String(), claims.ClientID)
		require.Equal(t, "https://auth.test", claims.Issuer)
	})

	t.Run("code is single use", func(t *testing.T) {
		e := newEnv(t)
		code, client, _ := issueCode(t, e)

		_, err := e.tokens.ExchangeAuthorizationCode(ctx, client.ID.String(), "", code, "https://app/cb", testVerifier)
		require.NoError(t, err)

		_, err = e.tokens.ExchangeAuthorizationCode(ctx, client.ID.String(), "", code, "https://app/cb", testVerifier)
		require.ErrorIs(t, err, ErrInvalidGrant)
	})

	t.Run("verifier mismatch rejects and keeps the code", func(t *testing.T) {
		e := newEnv(t)
		code, client, _ := issueCode(t, e)

		_, err := e.tokens.ExchangeAuthorizationCode(ctx, client.ID.String(), "", code, "https://app/cb", "wrong-verifier")
		require.ErrorIs(t, err, ErrInvalidVerifier)

		// The legitimate holder can still redeem it.
		_, err = e.tokens.ExchangeAuthorizationCode(ctx, client.ID.String(), "", code, "https://app/cb", testVerifier)
		require.NoError(t, err)
	})

	t.Run("redirect uri must match the bound one", func(t *testing.T) {
		e := newEnv(t)
		code, client, _ := issueCode(t, e)

		_, err := e.tokens.ExchangeAuthorizationCode(ctx, client.ID.String(), "", code, "https://evil/cb", testVerifier)
		require.ErrorIs(t, err, ErrInvalidGrant)
	})

	t.Run("code bound to another client is rejected", func(t *testing.T) {
		e := newEnv(t)
		code, _, _ := issueCode(t, e)
		other := e.seedClient(t, "https://other/cb")

		_, err := e.tokens.ExchangeAuthorizationCode(ctx, other.ID.String(), "", code, "https://app/cb", testVerifier)
		require.ErrorIs(t, err, ErrInvalidClient)
	})

	t.Run("unknown code", func(t *testing.T) {
		e := newEnv(t)
		client := e.seedClient(t, "https://app/cb")

		_, err := e.tokens.ExchangeAuthorizationCode(ctx, client.ID.String(), "", "no-such-code", "https://app/cb", testVerifier)
		require.ErrorIs(t, err, ErrInvalidGrant)
	})
}
