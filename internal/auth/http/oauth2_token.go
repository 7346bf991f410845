package http

import (
	"net/http"
	"strings"

	"github.com/veldtlabs/gatehouse/internal/auth/service"
	"github.com/veldtlabs/gatehouse/pkg/httpx"
)

// TokenHandler serves POST /v1/oauth2/token. Only the authorization_code
// grant is implemented.
type TokenHandler struct {
	TokenService *service.TokenService
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	if grant := r.Form.Get("grant_type"); grant != "authorization_code" {
		httpx.WriteError(w, http.StatusBadRequest, "unsupported_grant_type", "only authorization_code is supported")
		return
	}

	code := strings.TrimSpace(r.Form.Get("code"))
	redirectURI := strings.TrimSpace(r.Form.Get("redirect_uri"))
	clientID := strings.TrimSpace(r.Form.Get("client_id"))
	codeVerifier := strings.TrimSpace(r.Form.Get("code_verifier"))
	clientSecret := r.Form.Get("client_secret")

	if code == "" || redirectURI == "" || clientID == "" || codeVerifier == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "missing required form fields")
		return
	}

	pair, err := h.TokenService.ExchangeAuthorizationCode(r.Context(), clientID, clientSecret, code, redirectURI, codeVerifier)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}
