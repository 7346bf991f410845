package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/veldtlabs/gatehouse/internal/auth/domain"
	"github.com/veldtlabs/gatehouse/internal/auth/service"
	"github.com/veldtlabs/gatehouse/internal/auth/store/drivers/sqlite"
	"github.com/veldtlabs/gatehouse/internal/auth/store/volatile"
	"github.com/veldtlabs/gatehouse/pkg/cryptox"
	"github.com/veldtlabs/gatehouse/pkg/idx"
)

type recordingMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *recordingMailer) SendCode(_ context.Context, address, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[address] = code
	return nil
}

func (m *recordingMailer) code(address string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[address]
}

type testServer struct {
	router *Router
	mailer *recordingMailer
	store  *sqlite.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	mailer := &recordingMailer{codes: make(map[string]string)}

	codes := volatile.NewMemory[string]()
	pending := volatile.NewMemory[domain.UserID]()
	accepted := volatile.NewMemory[domain.UserID]()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter("test", st, PingerFunc(func(*http.Request) error { return nil }), logger)
	router.LoginService = &service.LoginService{
		Store:     st,
		Codes:     codes,
		Pending:   pending,
		Accepted:  accepted,
		Mailer:    mailer,
		CodeTTL:   15 * time.Minute,
		TicketTTL: 10 * time.Minute,
	}
	router.RegistrationService = &service.RegistrationService{
		Store:           st,
		Registrations:   volatile.NewMemory[domain.Registration](),
		Codes:           codes,
		Pending:         pending,
		Accepted:        accepted,
		Mailer:          mailer,
		RegistrationTTL: 30 * time.Minute,
		CodeTTL:         15 * time.Minute,
		TicketTTL:       10 * time.Minute,
	}
	router.SessionService = &service.SessionService{
		Sessions:   volatile.NewMemory[domain.Session](),
		Accepted:   accepted,
		SessionTTL: time.Hour,
	}
	router.AuthorizeService = &service.AuthorizeService{
		Store:      st,
		Pending:    volatile.NewMemory[domain.AuthorizeToken](),
		Issued:     volatile.NewMemory[domain.AuthorizeToken](),
		States:     volatile.NewMemory[string](),
		Challenges: volatile.NewMemory[[]byte](),
		TokenTTL:   10 * time.Minute,
	}
	router.TokenService = &service.TokenService{
		Store:      st,
		Issued:     router.AuthorizeService.Issued,
		Challenges: router.AuthorizeService.Challenges,
		Issuer:     "https://auth.test",
		AccessTTL:  5 * time.Minute,
	}
	router.ApplyRoutes()

	return &testServer{router: router, mailer: mailer, store: st}
}

func (ts *testServer) seedAccount(t *testing.T, address, password string) domain.Account {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	account := domain.Account{
		ID:           domain.NewUserID(),
		Address:      address,
		Name:         "Person",
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, ts.store.Accounts().CreateAccount(context.Background(), account))
	return account
}

func (ts *testServer) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestLoginEndpoints(t *testing.T) {
	t.Run("full login flow over http", func(t *testing.T) {
		ts := newTestServer(t)
		ts.seedAccount(t, "person@example.com", "correct-horse")

		rec := ts.postJSON(t, "/v1/login", map[string]string{
			"address":  "person@example.com",
			"password": "correct-horse",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeBody(t, rec)
		require.Equal(t, "mfa_required", body["error"])
		ticket := body["pending_ticket"].(string)
		require.NotEmpty(t, ticket)

		rec = ts.postJSON(t, "/v1/login/mfa", map[string]string{
			"pending_ticket": ticket,
			"code":           ts.mailer.code("person@example.com"),
		})
		require.Equal(t, http.StatusOK, rec.Code)
		accepted := decodeBody(t, rec)["accepted_ticket"].(string)
		require.NotEmpty(t, accepted)

		rec = ts.postJSON(t, "/v1/session", map[string]string{
			"accepted_ticket": accepted,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		session := decodeBody(t, rec)
		require.NotEmpty(t, session["session_id"])

		// Renewal rotates the id.
		rec = ts.postJSON(t, "/v1/session", map[string]string{
			"session_id": session["session_id"].(string),
		})
		require.Equal(t, http.StatusOK, rec.Code)
		renewed := decodeBody(t, rec)
		require.NotEqual(t, session["session_id"], renewed["session_id"])
	})

	t.Run("wrong credentials map to 401 without detail", func(t *testing.T) {
		ts := newTestServer(t)
		ts.seedAccount(t, "person@example.com", "correct-horse")

		for _, creds := range []map[string]string{
			{"address": "person@example.com", "password": "wrong"},
			{"address": "ghost@example.com", "password": "whatever"},
		} {
			rec := ts.postJSON(t, "/v1/login", creds)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, "invalid_credentials", decodeBody(t, rec)["error"])
		}
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		ts := newTestServer(t)

		req := httptest.NewRequest(http.MethodPost, "/v1/login", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		ts.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOAuth2Endpoints(t *testing.T) {
	const verifier = "http-level-code-verifier-with-enough-entropy"

	seedClient := func(t *testing.T, ts *testServer) domain.Client {
		t.Helper()
		now := time.Now().UTC()
		client := domain.Client{
			ID:            idx.New(),
			Name:          "Web",
			Type:          domain.ClientTypePublic,
			ResponseTypes: []domain.ResponseType{domain.ResponseTypeCode},
			RedirectURIs:  []string{"https://app/cb"},
			Scopes:        []string{"read"},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		require.NoError(t, ts.store.Clients().CreateClient(context.Background(), client))
		return client
	}

	t.Run("authorize accept reject over http", func(t *testing.T) {
		ts := newTestServer(t)
		ts.seedAccount(t, "person@example.com", "correct-horse")
		client := seedClient(t, ts)

		rec := ts.postForm(t, "/v1/oauth2/authorize", url.Values{
			"client_id":             {client.ID.String()},
			"response_type":         {"code"},
			"scope":                 {"read"},
			"state":                 {"xyz"},
			"code_challenge":        {cryptox.ComputeChallenge(verifier)},
			"code_challenge_method": {"S256"},
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		ticket := decodeBody(t, rec)["ticket"].(string)

		rec = ts.postForm(t, "/v1/oauth2/authorize/accept", url.Values{
			"ticket":   {ticket},
			"state":    {"xyz"},
			"address":  {"person@example.com"},
			"password": {"correct-horse"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		accept := decodeBody(t, rec)
		require.Equal(t, "xyz", accept["state"])
		require.NotEmpty(t, accept["code"])

		rec = ts.postForm(t, "/v1/oauth2/authorize/reject", url.Values{"ticket": {ticket}})
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = ts.postForm(t, "/v1/oauth2/authorize/accept", url.Values{
			"ticket":   {ticket},
			"state":    {"xyz"},
			"address":  {"person@example.com"},
			"password": {"correct-horse"},
		})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unsupported grant type", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.postForm(t, "/v1/oauth2/token", url.Values{"grant_type": {"client_credentials"}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "unsupported_grant_type", decodeBody(t, rec)["error"])
	})
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeBody(t, rec)["status"])

	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
