package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/veldtlabs/gatehouse/internal/auth/service"
	"github.com/veldtlabs/gatehouse/internal/auth/store"
	"github.com/veldtlabs/gatehouse/pkg/httpx"
	"github.com/veldtlabs/gatehouse/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store        store.Store
	volatilePing Pinger

	LoginService        *service.LoginService
	RegistrationService *service.RegistrationService
	SessionService      *service.SessionService
	AuthorizeService    *service.AuthorizeService
	TokenService        *service.TokenService
}

func NewRouter(buildVersion string, st store.Store, volatilePing Pinger, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		volatilePing: volatilePing,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerOAuth2()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	loginHandler := &LoginHandler{LoginService: r.LoginService}
	registerHandler := &RegisterHandler{RegistrationService: r.RegistrationService}
	sessionHandler := &SessionHandler{SessionService: r.SessionService}

	// Password checks are the brute-force target: strict limit keyed by IP.
	r.Mux.Handle("POST /v1/login",
		httpx.Chain(http.HandlerFunc(loginHandler.HandleStart),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/login/mfa",
		httpx.Chain(http.HandlerFunc(loginHandler.HandleMFA),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/register",
		httpx.Chain(http.HandlerFunc(registerHandler.HandleStart),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/register/account",
		httpx.Chain(http.HandlerFunc(registerHandler.HandleCreate),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Session renewal happens on every page load; keep it lenient.
	r.Mux.Handle("POST /v1/session",
		httpx.Chain(http.HandlerFunc(sessionHandler.HandleEstablish),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/session",
		httpx.Chain(http.HandlerFunc(sessionHandler.HandleRevoke),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerOAuth2() {
	authorizeHandler := &AuthorizeHandler{AuthorizeService: r.AuthorizeService}

	r.Mux.Handle("POST /v1/oauth2/authorize",
		httpx.Chain(http.HandlerFunc(authorizeHandler.HandlePending),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	// Acceptance carries credentials; throttle by IP plus the address form
	// field so one box cannot walk a password list.
	r.Mux.Handle("POST /v1/oauth2/authorize/accept",
		httpx.Chain(http.HandlerFunc(authorizeHandler.HandleAccept),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "address"),
		),
	)
	r.Mux.Handle("POST /v1/oauth2/authorize/reject",
		httpx.Chain(http.HandlerFunc(authorizeHandler.HandleReject),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.volatilePing))
}
