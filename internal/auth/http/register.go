package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/veldtlabs/gatehouse/internal/auth/service"
	"github.com/veldtlabs/gatehouse/pkg/httpx"
)

// RegisterHandler serves the signup flow: address verification followed by
// account materialization.
type RegisterHandler struct {
	RegistrationService *service.RegistrationService
}

type startRegistrationRequest struct {
	Address string `json:"address"`
}

// HandleStart serves POST /v1/register.
func (h *RegisterHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req startRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	err := h.RegistrationService.StartRegistration(r.Context(), req.Address)

	var mfaErr *service.MFARequiredError
	if errors.As(err, &mfaErr) {
		httpx.WriteJSON(w, http.StatusAccepted, mfaRequiredResponse{
			Error:         "mfa_required",
			PendingTicket: mfaErr.PendingTicket,
		})
		return
	}
	writeServiceError(w, r, err)
}

type createAccountRequest struct {
	AcceptedTicket string `json:"accepted_ticket"`
	Name           string `json:"name"`
	Password       string `json:"password"`
}

// HandleCreate serves POST /v1/register/account.
func (h *RegisterHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	view, err := h.RegistrationService.CreateAccount(r.Context(), req.AcceptedTicket, req.Name, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, view)
}
