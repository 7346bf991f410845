package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/veldtlabs/gatehouse/internal/auth/service"
	"github.com/veldtlabs/gatehouse/pkg/httpx"
)

// LoginHandler serves the password + mailed-code steps of authentication.
type LoginHandler struct {
	LoginService *service.LoginService
}

type startLoginRequest struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

type mfaRequiredResponse struct {
	Error         string `json:"error"`
	PendingTicket string `json:"pending_ticket"`
}

// HandleStart serves POST /v1/login. Success is a 401 carrying the pending
// ticket: the flow is not authenticated until the mailed code comes back.
func (h *LoginHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req startLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	err := h.LoginService.StartLogin(r.Context(), req.Address, req.Password)

	var mfaErr *service.MFARequiredError
	if errors.As(err, &mfaErr) {
		httpx.WriteJSON(w, http.StatusUnauthorized, mfaRequiredResponse{
			Error:         "mfa_required",
			PendingTicket: mfaErr.PendingTicket,
		})
		return
	}
	// StartLogin never returns nil; anything else is terminal.
	writeServiceError(w, r, err)
}

type submitMFARequest struct {
	PendingTicket string `json:"pending_ticket"`
	Code          string `json:"code"`
}

type acceptedTicketResponse struct {
	AcceptedTicket string `json:"accepted_ticket"`
}

// HandleMFA serves POST /v1/login/mfa.
func (h *LoginHandler) HandleMFA(w http.ResponseWriter, r *http.Request) {
	var req submitMFARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	accepted, err := h.LoginService.SubmitMFA(r.Context(), req.PendingTicket, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, acceptedTicketResponse{AcceptedTicket: accepted})
}
