package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/veldtlabs/gatehouse/internal/auth/domain"
	"github.com/veldtlabs/gatehouse/internal/auth/store/drivers/sqlite"
	"github.com/veldtlabs/gatehouse/internal/auth/store/volatile"
	"github.com/veldtlabs/gatehouse/pkg/cryptox"
	"github.com/veldtlabs/gatehouse/pkg/idx"
)

// captureMailer records dispatched codes instead of sending them.
type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string // address -> last code
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{codes: make(map[string]string)}
}

func (m *captureMailer) SendCode(_ context.Context, address, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[address] = code
	return nil
}

func (m *captureMailer) lastCode(address string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[address]
}

// env wires every service over memory volatile stores and a throwaway sqlite
// database, the same shape the app assembles in production.
type env struct {
	store *sqlite.Store

	codes         *volatile.Memory[string]
	pending       *volatile.Memory[domain.UserID]
	accepted      *volatile.Memory[domain.UserID]
	sessions      *volatile.Memory[domain.Session]
	registrations *volatile.Memory[domain.Registration]
	pendingTokens *volatile.Memory[domain.AuthorizeToken]
	issuedTokens  *volatile.Memory[domain.AuthorizeToken]
	states        *volatile.Memory[string]
	challenges    *volatile.Memory[[]byte]

	mailer *captureMailer

	login        *LoginService
	registration *RegistrationService
	sessionSvc   *SessionService
	authorize    *AuthorizeService
	tokens       *TokenService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	_, signingKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	e := &env{
		store:         s,
		codes:         volatile.NewMemory[string](),
		pending:       volatile.NewMemory[domain.UserID](),
		accepted:      volatile.NewMemory[domain.UserID](),
		sessions:      volatile.NewMemory[domain.Session](),
		registrations: volatile.NewMemory[domain.Registration](),
		pendingTokens: volatile.NewMemory[domain.AuthorizeToken](),
		issuedTokens:  volatile.NewMemory[domain.AuthorizeToken](),
		states:        volatile.NewMemory[string](),
		challenges:    volatile.NewMemory[[]byte](),
		mailer:        newCaptureMailer(),
	}

	e.login = &LoginService{
		Store:     s,
		Codes:     e.codes,
		Pending:   e.pending,
		Accepted:  e.accepted,
		Mailer:    e.mailer,
		CodeTTL:   15 * time.Minute,
		TicketTTL: 10 * time.Minute,
	}
	e.registration = &RegistrationService{
		Store:           s,
		Registrations:   e.registrations,
		Codes:           e.codes,
		Pending:         e.pending,
		Accepted:        e.accepted,
		Mailer:          e.mailer,
		RegistrationTTL: 30 * time.Minute,
		CodeTTL:         15 * time.Minute,
		TicketTTL:       10 * time.Minute,
	}
	e.sessionSvc = &SessionService{
		Sessions:   e.sessions,
		Accepted:   e.accepted,
		SessionTTL: time.Hour,
	}
	e.authorize = &AuthorizeService{
		Store:      s,
		Pending:    e.pendingTokens,
		Issued:     e.issuedTokens,
		States:     e.states,
		Challenges: e.challenges,
		TokenTTL:   10 * time.Minute,
	}
	e.tokens = &TokenService{
		Store:      s,
		Issued:     e.issuedTokens,
		Challenges: e.challenges,
		SigningKey: signingKey,
		KeyID:      "test-key",
		Issuer:     "https://auth.test",
		AccessTTL:  5 * time.Minute,
	}
	return e
}

func (e *env) seedAccount(t *testing.T, address, password string) domain.Account {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	account := domain.Account{
		ID:           domain.NewUserID(),
		Address:      address,
		Name:         "Test Person",
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.store.Accounts().CreateAccount(context.Background(), account))
	return account
}

func (e *env) seedClient(t *testing.T, redirectURIs ...string) domain.Client {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	client := domain.Client{
		ID:            idx.New(),
		Name:          "Test App",
		Type:          domain.ClientTypePublic,
		ResponseTypes: []domain.ResponseType{domain.ResponseTypeCode},
		RedirectURIs:  redirectURIs,
		Scopes:        []string{"read", "write"},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, e.store.Clients().CreateClient(context.Background(), client))
	return client
}

// startLogin runs the password step and returns the pending ticket out of
// the MFA-required signal.
func (e *env) startLogin(t *testing.T, address, password string) string {
	t.Helper()

	err := e.login.StartLogin(context.Background(), address, password)
	var mfaErr *MFARequiredError
	require.ErrorAs(t, err, &mfaErr)
	require.NotEmpty(t, mfaErr.PendingTicket)
	return mfaErr.PendingTicket
}
