package service

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/veldtlabs/gatehouse/internal/auth/domain"
	"github.com/veldtlabs/gatehouse/internal/auth/store"
	"github.com/veldtlabs/gatehouse/internal/auth/store/volatile"
	"github.com/veldtlabs/gatehouse/pkg/cryptox"
	"github.com/veldtlabs/gatehouse/pkg/slogx"
)

// TokenService redeems issued authorization codes for signed access tokens.
// The code and its PKCE challenge are consumed on first use.
type TokenService struct {
	Store      store.Store
	Issued     volatile.Store[domain.AuthorizeToken]
	Challenges volatile.Store[[]byte]

	SigningKey ed25519.PrivateKey
	KeyID      string
	Issuer     string
	AccessTTL  time.Duration
}

type accessClaims struct {
	jwt.RegisteredClaims
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
}

// ExchangeAuthorizationCode implements the authorization_code grant: client
// authentication for confidential clients, single-use code redemption, PKCE
// verifier check against the stored digest, and access token minting.
func (s *TokenService) ExchangeAuthorizationCode(ctx context.Context, clientID, clientSecret, code, redirectURI, codeVerifier string) (domain.TokenPair, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	client, err := s.Store.Clients().GetClientByID(ctx, strings.TrimSpace(clientID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidClient
		}
		return domain.TokenPair{}, fmt.Errorf("lookup client: %w", err)
	}

	// Confidential clients must authenticate
	if client.SecretHash != "" {
		if clientSecret == "" || cryptox.VerifyPassword(clientSecret, client.SecretHash) != nil {
			l.Info("client authentication failed", slog.String("client_id", client.ID.String()))
			return domain.TokenPair{}, ErrInvalidClient
		}
	}

	code = strings.TrimSpace(code)
	redirectURI = strings.TrimSpace(redirectURI)
	codeVerifier = strings.TrimSpace(codeVerifier)
	if code == "" || redirectURI == "" || codeVerifier == "" {
		return domain.TokenPair{}, ErrInvalidGrant
	}

	token, found, err := s.Issued.Find(ctx, code)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("find issued token: %w", err)
	}
	if !found {
		return domain.TokenPair{}, ErrInvalidGrant
	}

	if token.ClientID != client.ID {
		return domain.TokenPair{}, ErrInvalidClient
	}
	if token.RedirectURI != redirectURI {
		return domain.TokenPair{}, ErrInvalidGrant
	}
	if !token.Owned() || token.Expired(now) {
		return domain.TokenPair{}, ErrInvalidGrant
	}

	digest, found, err := s.Challenges.Find(ctx, token.ID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("find code challenge: %w", err)
	}
	if !found {
		return domain.TokenPair{}, ErrInvalidGrant
	}
	if err := cryptox.VerifyChallenge(digest, codeVerifier); err != nil {
		l.Info("code verifier rejected", slog.String("client_id", client.ID.String()))
		return domain.TokenPair{}, ErrInvalidVerifier
	}

	// Consume before signing; a signing failure burns the code.
	if err := s.Issued.Revoke(ctx, code); err != nil {
		return domain.TokenPair{}, fmt.Errorf("revoke issued token: %w", err)
	}
	if err := s.Challenges.Revoke(ctx, token.ID); err != nil {
		return domain.TokenPair{}, fmt.Errorf("revoke code challenge: %w", err)
	}

	scope := strings.Join(token.Scopes, " ")
	accessToken, err := s.signAccess(*token.OwnerUserID, client.ID.String(), scope, now)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	return domain.TokenPair{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.AccessTTL.Seconds()),
		Scope:       scope,
	}, nil
}

func (s *TokenService) signAccess(userID domain.UserID, clientID, scope string, now time.Time) (string, error) {
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.Issuer,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{clientID},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.AccessTTL)),
		},
		ClientID: clientID,
		Scope:    scope,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	if s.KeyID != "" {
		token.Header["kid"] = s.KeyID
	}
	return token.SignedString(s.SigningKey)
}
