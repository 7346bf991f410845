package app

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veldtlabs/gatehouse/internal/auth/domain"
	httpapi "github.com/veldtlabs/gatehouse/internal/auth/http"
	"github.com/veldtlabs/gatehouse/internal/auth/mail"
	"github.com/veldtlabs/gatehouse/internal/auth/service"
	"github.com/veldtlabs/gatehouse/internal/auth/store"
	"github.com/veldtlabs/gatehouse/internal/auth/store/drivers/sqlite"
	"github.com/veldtlabs/gatehouse/internal/auth/store/volatile"
	"github.com/veldtlabs/gatehouse/pkg/cryptox"
	"github.com/veldtlabs/gatehouse/pkg/idx"
	"github.com/veldtlabs/gatehouse/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// volatileStores bundles one store per record kind. Backed by Redis when a
// URL is configured, by in-process memory stores otherwise.
type volatileStores struct {
	codes         volatile.Store[string]
	pending       volatile.Store[domain.UserID]
	accepted      volatile.Store[domain.UserID]
	sessions      volatile.Store[domain.Session]
	registrations volatile.Store[domain.Registration]
	pendingTokens volatile.Store[domain.AuthorizeToken]
	issuedTokens  volatile.Store[domain.AuthorizeToken]
	states        volatile.Store[string]
	challenges    volatile.Store[[]byte]

	sweepers []service.Sweeper // populated only for memory stores
	redis    *redis.Client     // nil for memory stores
}

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	records *volatileStores
	mailer  mail.Dispatcher

	loginService        *service.LoginService
	registrationService *service.RegistrationService
	sessionService      *service.SessionService
	authorizeService    *service.AuthorizeService
	tokenService        *service.TokenService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gatehouse",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initVolatile(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initMailer()

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("gatehouse starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts the application down.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gatehouse...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if app.records.redis != nil {
		if err := app.records.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gatehouse stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initVolatile() error {
	if app.cfg.RedisURL == "" {
		app.records = newMemoryStores()
		app.logger.Info("volatile records backed by in-process memory stores")
		return nil
	}

	opts, err := redis.ParseURL(app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	app.records = newRedisStores(client)
	app.logger.Info("volatile records backed by redis")
	return nil
}

func newMemoryStores() *volatileStores {
	codes := volatile.NewMemory[string]()
	pending := volatile.NewMemory[domain.UserID]()
	accepted := volatile.NewMemory[domain.UserID]()
	sessions := volatile.NewMemory[domain.Session]()
	registrations := volatile.NewMemory[domain.Registration]()
	pendingTokens := volatile.NewMemory[domain.AuthorizeToken]()
	issuedTokens := volatile.NewMemory[domain.AuthorizeToken]()
	states := volatile.NewMemory[string]()
	challenges := volatile.NewMemory[[]byte]()

	return &volatileStores{
		codes:         codes,
		pending:       pending,
		accepted:      accepted,
		sessions:      sessions,
		registrations: registrations,
		pendingTokens: pendingTokens,
		issuedTokens:  issuedTokens,
		states:        states,
		challenges:    challenges,
		sweepers: []service.Sweeper{
			codes, pending, accepted, sessions, registrations,
			pendingTokens, issuedTokens, states, challenges,
		},
	}
}

func newRedisStores(client *redis.Client) *volatileStores {
	return &volatileStores{
		codes:         volatile.NewRedis[string](client, volatile.NamespaceMFACode),
		pending:       volatile.NewRedis[domain.UserID](client, volatile.NamespaceMFAPending),
		accepted:      volatile.NewRedis[domain.UserID](client, volatile.NamespaceMFAAccepted),
		sessions:      volatile.NewRedis[domain.Session](client, volatile.NamespaceSession),
		registrations: volatile.NewRedis[domain.Registration](client, volatile.NamespaceRegistration),
		pendingTokens: volatile.NewRedis[domain.AuthorizeToken](client, volatile.NamespacePendingToken),
		issuedTokens:  volatile.NewRedis[domain.AuthorizeToken](client, volatile.NamespaceIssuedToken),
		states:        volatile.NewRedis[string](client, volatile.NamespaceState),
		challenges:    volatile.NewRedis[[]byte](client, volatile.NamespacePKCE),
		redis:         client,
	}
}

func (app *Application) initMailer() {
	if app.cfg.SMTPHost == "" {
		app.mailer = mail.Log{}
		app.logger.Warn("no smtp relay configured, verification codes are logged")
		return
	}

	app.mailer = mail.NewSMTP(mail.SMTPConfig{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.SMTPFrom,
	})
}

func (app *Application) initServices() error {
	app.loginService = &service.LoginService{
		Store:     app.db,
		Codes:     app.records.codes,
		Pending:   app.records.pending,
		Accepted:  app.records.accepted,
		Mailer:    app.mailer,
		CodeTTL:   app.cfg.CodeTTL,
		TicketTTL: app.cfg.TicketTTL,
	}
	app.registrationService = &service.RegistrationService{
		Store:           app.db,
		Registrations:   app.records.registrations,
		Codes:           app.records.codes,
		Pending:         app.records.pending,
		Accepted:        app.records.accepted,
		Mailer:          app.mailer,
		RegistrationTTL: app.cfg.RegistrationTTL,
		CodeTTL:         app.cfg.CodeTTL,
		TicketTTL:       app.cfg.TicketTTL,
	}
	app.sessionService = &service.SessionService{
		Sessions:   app.records.sessions,
		Accepted:   app.records.accepted,
		SessionTTL: app.cfg.SessionTTL,
	}
	app.authorizeService = &service.AuthorizeService{
		Store:      app.db,
		Pending:    app.records.pendingTokens,
		Issued:     app.records.issuedTokens,
		States:     app.records.states,
		Challenges: app.records.challenges,
		TokenTTL:   app.cfg.AuthorizeTokenTTL,
	}

	// Access token keys are ephemeral: a restart invalidates outstanding
	// tokens, which the short TTL makes tolerable.
	_, signingKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate signing key: %w", err)
	}
	app.tokenService = &service.TokenService{
		Store:      app.db,
		Issued:     app.records.issuedTokens,
		Challenges: app.records.challenges,
		SigningKey: signingKey,
		KeyID:      idx.New().String(),
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTokenTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.records.sweepers,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

func (app *Application) initHTTP() {
	pinger := httpapi.PingerFunc(func(r *http.Request) error {
		if app.records.redis == nil {
			return nil
		}
		return app.records.redis.Ping(r.Context()).Err()
	})

	router := httpapi.NewRouter(BuildVersion, app.db, pinger, app.logger)

	router.LoginService = app.loginService
	router.RegistrationService = app.registrationService
	router.SessionService = app.sessionService
	router.AuthorizeService = app.authorizeService
	router.TokenService = app.tokenService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
