package service

import "errors"

// Flow-terminal errors. Handlers map these onto OAuth2-style error responses;
// anything not in this set is an infrastructure failure and maps to 503.
var (
	// Lookup failures. An expired record is indistinguishable from one that
	// never existed, so these cover both.
	ErrAccountNotFound        = errors.New("account_not_found")
	ErrClientNotFound         = errors.New("client_not_found")
	ErrPendingTicketNotFound  = errors.New("pending_ticket_not_found")
	ErrAcceptedTicketNotFound = errors.New("accepted_ticket_not_found")
	ErrMFACodeNotFound        = errors.New("mfa_code_not_found")
	ErrTicketNotFound         = errors.New("ticket_not_found")
	ErrStateNotFound          = errors.New("state_not_found")
	ErrSessionNotFound        = errors.New("session_not_found")
	ErrRegistrationNotFound   = errors.New("registration_not_found")

	// Malformed or mismatched inputs.
	ErrInvalidRequest          = errors.New("invalid_request")
	ErrInvalidChallengeMethod  = errors.New("invalid_challenge_method")
	ErrUnsupportedResponseType = errors.New("unsupported_response_type")
	ErrInvalidRedirectURI      = errors.New("invalid_redirect_uri")
	ErrStateMismatch           = errors.New("state_mismatch")
	ErrInvalidMFACode          = errors.New("invalid_mfa_code")
	ErrInvalidVerifier         = errors.New("invalid_verifier")
	ErrAddressTaken            = errors.New("address_taken")

	// Credential verification failure. Deliberately carries no detail about
	// which of address/password was wrong.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// Token exchange failures, named per RFC 6749.
	ErrInvalidClient = errors.New("invalid_client")
	ErrInvalidGrant  = errors.New("invalid_grant")

	// ErrLoginRequired is a control signal, not a failure: the caller must
	// restart authentication.
	ErrLoginRequired = errors.New("login_required")
)

// MFARequiredError is the control signal returned when credentials checked
// out but the flow needs an out-of-band code before it can continue. It
// carries the pending ticket the caller presents together with the code.
type MFARequiredError struct {
	PendingTicket string
}

func (e *MFARequiredError) Error() string { return "mfa_required" }
