package http

import (
	"net/http"
	"strings"

	"github.com/veldtlabs/gatehouse/internal/auth/service"
	"github.com/veldtlabs/gatehouse/pkg/httpx"
)

// AuthorizeHandler runs the pending → accept | reject half of the
// authorization code grant. All three endpoints accept
// application/x-www-form-urlencoded per RFC 6749.
type AuthorizeHandler struct {
	AuthorizeService *service.AuthorizeService
}

type ticketResponse struct {
	Ticket string `json:"ticket"`
}

// HandlePending serves POST /v1/oauth2/authorize.
func (h *AuthorizeHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	req := service.PendingAuthorizationRequest{
		ClientID:            r.Form.Get("client_id"),
		ResponseType:        r.Form.Get("response_type"),
		RedirectURI:         r.Form.Get("redirect_uri"),
		Scopes:              httpx.ParseSpaceDelimitedFields(r.Form.Get("scope")),
		State:               r.Form.Get("state"),
		CodeChallenge:       r.Form.Get("code_challenge"),
		CodeChallengeMethod: r.Form.Get("code_challenge_method"),
	}

	ticket, err := h.AuthorizeService.PendingAuthorization(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, ticketResponse{Ticket: ticket})
}

// HandleAccept serves POST /v1/oauth2/authorize/accept.
func (h *AuthorizeHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	view, err := h.AuthorizeService.AcceptAuthorization(r.Context(),
		r.Form.Get("ticket"),
		r.Form.Get("state"),
		r.Form.Get("address"),
		r.Form.Get("password"),
	)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, view)
}

// HandleReject serves POST /v1/oauth2/authorize/reject.
func (h *AuthorizeHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	if err := h.AuthorizeService.RejectAuthorization(r.Context(), r.Form.Get("ticket")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseForm enforces the form content type and parses the body, writing the
// error response itself on failure.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "expected application/x-www-form-urlencoded")
		return false
	}
	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return false
	}
	return true
}
