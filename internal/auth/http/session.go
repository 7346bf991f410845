package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/veldtlabs/gatehouse/internal/auth/service"
	"github.com/veldtlabs/gatehouse/pkg/httpx"
)

// SessionHandler establishes, renews and revokes sessions.
type SessionHandler struct {
	SessionService *service.SessionService
}

type establishSessionRequest struct {
	SessionID      string `json:"session_id,omitempty"`
	AcceptedTicket string `json:"accepted_ticket,omitempty"`
}

// HandleEstablish serves POST /v1/session. A presented session id is renewed
// in place; when it is absent (or unknown) the accepted-ticket branch runs,
// so a client can always send both and get whichever works.
func (h *SessionHandler) HandleEstablish(w http.ResponseWriter, r *http.Request) {
	var req establishSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	ctx := r.Context()

	if req.SessionID != "" {
		view, err := h.SessionService.ResumeSession(ctx, req.SessionID)
		if err == nil {
			httpx.WriteJSON(w, http.StatusOK, view)
			return
		}
		// Fall through to the ticket branch only when the session simply
		// is not there; expiry and infrastructure failures are terminal.
		if !errors.Is(err, service.ErrSessionNotFound) || req.AcceptedTicket == "" {
			writeServiceError(w, r, err)
			return
		}
	}

	view, err := h.SessionService.FinalizeSession(ctx, req.AcceptedTicket)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, view)
}

type revokeSessionRequest struct {
	SessionID string `json:"session_id"`
}

// HandleRevoke serves DELETE /v1/session. Idempotent.
func (h *SessionHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	var req revokeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	if err := h.SessionService.RevokeSession(r.Context(), req.SessionID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
