package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/veldtlabs/gatehouse/internal/auth/domain"
	"github.com/veldtlabs/gatehouse/internal/auth/store"
	"github.com/veldtlabs/gatehouse/internal/auth/store/volatile"
	"github.com/veldtlabs/gatehouse/pkg/cryptox"
	"github.com/veldtlabs/gatehouse/pkg/slogx"
)

// challengeMethodS256 is the only PKCE method this server accepts. Plain is
// not an opt-out.
const challengeMethodS256 = "S256"

// PendingAuthorizationRequest carries an incoming authorization request
// before any validation.
type PendingAuthorizationRequest struct {
	ClientID            string
	ResponseType        string
	RedirectURI         string
	Scopes              []string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// AuthorizeService runs the pending → accept | reject machine of the
// authorization code grant. The pending stage parks an unowned token behind a
// flow ticket; acceptance binds the owner and promotes the token to the
// issued stage under its own id.
type AuthorizeService struct {
	Store      store.Store
	Pending    volatile.Store[domain.AuthorizeToken] // flow ticket -> unowned token
	Issued     volatile.Store[domain.AuthorizeToken] // token id -> owned token
	States     volatile.Store[string]                // flow ticket -> anti-CSRF state
	Challenges volatile.Store[[]byte]                // token id -> PKCE digest

	TokenTTL time.Duration
}

// PendingAuthorization validates an authorization request, stashes its PKCE
// challenge and anti-CSRF state, and parks an unowned token behind the
// returned flow ticket.
func (s *AuthorizeService) PendingAuthorization(ctx context.Context, req PendingAuthorizationRequest) (string, error) {
	req.ClientID = strings.TrimSpace(req.ClientID)
	if req.ClientID == "" {
		return "", ErrInvalidRequest
	}

	client, err := s.Store.Clients().GetClientByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrClientNotFound
		}
		return "", fmt.Errorf("lookup client: %w", err)
	}

	if req.CodeChallengeMethod != challengeMethodS256 {
		return "", ErrInvalidChallengeMethod
	}
	digest, err := cryptox.DecodeChallenge(req.CodeChallenge)
	if err != nil {
		return "", ErrInvalidRequest
	}

	responseType := domain.ResponseType(req.ResponseType)
	if responseType != domain.ResponseTypeCode || !client.SupportsResponseType(responseType) {
		return "", ErrUnsupportedResponseType
	}

	redirectURI, ok := client.ResolveRedirectURI(strings.TrimSpace(req.RedirectURI))
	if !ok {
		return "", ErrInvalidRedirectURI
	}

	scopes, err := resolveScopes(req.Scopes, client.Scopes)
	if err != nil {
		return "", err
	}

	tokenID, err := cryptox.GenerateAlphanumeric(cryptox.TicketLengthShort)
	if err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}

	// The challenge lives exactly as long as the token it gates.
	if err := s.Challenges.Create(ctx, tokenID, digest, s.TokenTTL); err != nil {
		return "", fmt.Errorf("store code challenge: %w", err)
	}

	ticket, err := cryptox.GenerateAlphanumeric(cryptox.TicketLengthShort)
	if err != nil {
		return "", fmt.Errorf("generate flow ticket: %w", err)
	}
	if err := s.States.Create(ctx, ticket, req.State, s.TokenTTL); err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}

	now := time.Now()
	token := domain.AuthorizeToken{
		ID:           tokenID,
		ClientID:     client.ID,
		Scopes:       scopes,
		ResponseType: responseType,
		RedirectURI:  redirectURI,
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    now.Add(s.TokenTTL),
	}
	if err := s.Pending.Create(ctx, ticket, token, s.TokenTTL); err != nil {
		return "", fmt.Errorf("store pending token: %w", err)
	}

	return ticket, nil
}

// AcceptAuthorization binds the requesting user onto a pending token after
// the anti-CSRF state and their credentials both check out. The state
// comparison runs before any credential work so a forged ticket learns
// nothing about the account.
func (s *AuthorizeService) AcceptAuthorization(ctx context.Context, ticket, callerState, address, password string) (domain.AuthorizeTokenView, error) {
	l := slogx.FromContext(ctx)

	if ticket == "" || address == "" || password == "" {
		return domain.AuthorizeTokenView{}, ErrInvalidRequest
	}

	token, found, err := s.Pending.Find(ctx, ticket)
	if err != nil {
		return domain.AuthorizeTokenView{}, fmt.Errorf("find pending token: %w", err)
	}
	if !found {
		return domain.AuthorizeTokenView{}, ErrTicketNotFound
	}

	storedState, found, err := s.States.Find(ctx, ticket)
	if err != nil {
		return domain.AuthorizeTokenView{}, fmt.Errorf("find state: %w", err)
	}
	if !found {
		return domain.AuthorizeTokenView{}, ErrStateNotFound
	}
	if storedState != callerState {
		l.Info("authorization state mismatch", slog.String("client_id", token.ClientID.String()))
		return domain.AuthorizeTokenView{}, ErrStateMismatch
	}

	account, err := s.Store.Accounts().GetAccountByAddress(ctx, strings.TrimSpace(address))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthorizeTokenView{}, ErrAccountNotFound
		}
		return domain.AuthorizeTokenView{}, fmt.Errorf("lookup account: %w", err)
	}
	if err := cryptox.VerifyPassword(password, account.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.AuthorizeTokenView{}, ErrInvalidCredentials
		}
		return domain.AuthorizeTokenView{}, fmt.Errorf("verify password: %w", err)
	}

	// Bind the owner. The pending copy is rewritten in place (plain re-save
	// under the ticket key) and the owned token is promoted to the issued
	// stage under its own id, where the exchange endpoint looks it up.
	token.OwnerUserID = &account.ID
	token.UpdatedAt = time.Now()

	remaining := time.Until(token.ExpiresAt)
	if err := s.Pending.Create(ctx, ticket, token, remaining); err != nil {
		return domain.AuthorizeTokenView{}, fmt.Errorf("rewrite pending token: %w", err)
	}
	if err := s.Issued.Create(ctx, token.ID, token, remaining); err != nil {
		return domain.AuthorizeTokenView{}, fmt.Errorf("store issued token: %w", err)
	}

	return domain.AuthorizeTokenView{
		Code:         token.ID,
		TokenType:    "Bearer",
		ResponseType: token.ResponseType,
		RedirectURI:  token.RedirectURI,
		Scopes:       token.Scopes,
		State:        storedState,
	}, nil
}

// RejectAuthorization tears the flow down: pending token and state are
// revoked without looking at who asked. Rejecting an unknown or already
// rejected ticket succeeds.
func (s *AuthorizeService) RejectAuthorization(ctx context.Context, ticket string) error {
	if ticket == "" {
		return ErrInvalidRequest
	}

	if err := s.Pending.Revoke(ctx, ticket); err != nil {
		return fmt.Errorf("revoke pending token: %w", err)
	}
	if err := s.States.Revoke(ctx, ticket); err != nil {
		return fmt.Errorf("revoke state: %w", err)
	}
	return nil
}

// resolveScopes narrows a request to the client's registered scopes. An
// empty request inherits everything the client registered; an unregistered
// scope fails the whole request rather than being silently dropped.
func resolveScopes(requested, registered []string) ([]string, error) {
	if len(requested) == 0 {
		return slices.Clone(registered), nil
	}
	out := make([]string, 0, len(requested))
	for _, scope := range requested {
		if !slices.Contains(registered, scope) {
			return nil, ErrInvalidRequest
		}
		if !slices.Contains(out, scope) {
			out = append(out, scope)
		}
	}
	return out, nil
}
