package http

import (
	"errors"
	"net/http"

	"github.com/veldtlabs/gatehouse/internal/auth/service"
	"github.com/veldtlabs/gatehouse/pkg/httpx"
	"github.com/veldtlabs/gatehouse/pkg/slogx"
)

// writeServiceError maps a service error onto an OAuth2-style error
// response. Anything outside the sentinel set is an infrastructure failure:
// logged with the wrapped detail, surfaced as a bare 503.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "missing or malformed request fields")
	case errors.Is(err, service.ErrInvalidChallengeMethod):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "code_challenge_method must be S256")
	case errors.Is(err, service.ErrUnsupportedResponseType):
		httpx.WriteError(w, http.StatusBadRequest, "unsupported_response_type", "response_type not supported for this client")
	case errors.Is(err, service.ErrInvalidRedirectURI):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "redirect_uri does not match client registration")
	case errors.Is(err, service.ErrStateMismatch):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "state does not match the original request")
	case errors.Is(err, service.ErrInvalidMFACode):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "verification code does not match")
	case errors.Is(err, service.ErrInvalidVerifier):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_grant", "code verifier does not match challenge")
	case errors.Is(err, service.ErrAddressTaken):
		httpx.WriteError(w, http.StatusConflict, "invalid_request", "address is already registered")

	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrInvalidCredentials):
		// One response for both; the caller learns nothing about which half
		// of the credentials was wrong.
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "address or password incorrect")

	case errors.Is(err, service.ErrClientNotFound):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_client", "unknown client")
	case errors.Is(err, service.ErrPendingTicketNotFound),
		errors.Is(err, service.ErrAcceptedTicketNotFound),
		errors.Is(err, service.ErrTicketNotFound),
		errors.Is(err, service.ErrStateNotFound),
		errors.Is(err, service.ErrMFACodeNotFound),
		errors.Is(err, service.ErrRegistrationNotFound):
		httpx.WriteError(w, http.StatusNotFound, "invalid_ticket", "ticket is unknown or expired")
	case errors.Is(err, service.ErrSessionNotFound):
		httpx.WriteError(w, http.StatusNotFound, "invalid_session", "session is unknown or expired")

	case errors.Is(err, service.ErrLoginRequired):
		httpx.WriteError(w, http.StatusUnauthorized, "login_required", "session expired, authenticate again")

	case errors.Is(err, service.ErrInvalidClient):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
	case errors.Is(err, service.ErrInvalidGrant):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_grant", "authorization code is invalid, expired, or already used")

	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusServiceUnavailable, "server_error", "temporary failure, retry later")
	}
}
