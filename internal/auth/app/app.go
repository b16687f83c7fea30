package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/memoauth/internal/auth/http"
	"github.com/aussiebroadwan/memoauth/internal/auth/metrics"
	"github.com/aussiebroadwan/memoauth/internal/auth/service"
	"github.com/aussiebroadwan/memoauth/internal/auth/store"
	"github.com/aussiebroadwan/memoauth/pkg/cryptox"
	"github.com/aussiebroadwan/memoauth/pkg/httpx"
	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
	"github.com/aussiebroadwan/memoauth/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application wires the auth core to its store and HTTP surface.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	hasher  *cryptox.PasswordHasher
	signer  *jwtx.HMACSigner
	metrics *metrics.Recorder

	credentials  *service.CredentialVerifier
	sessions     *service.SessionService
	accounts     *service.AccountService
	housekeeping *service.HousekeepingService // nil when disabled

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.db = db
	app.logger.Info("database ready", "driver", cfg.Database.Driver)

	if app.hasher, err = NewHasher(cfg); err != nil {
		_ = db.Close()
		return nil, err
	}

	app.signer, err = jwtx.NewHMACSigner(jwtx.HMACOptions{
		AccessSecret:  []byte(cfg.JWT.AccessSecret),
		RefreshSecret: []byte(cfg.JWT.RefreshSecret),
		AccessTTL:     cfg.JWT.AccessExpiry.Std(),
		RefreshTTL:    cfg.JWT.RefreshExpiry.Std(),
		Issuer:        cfg.Issuer,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	app.initServices()

	if cfg.Bootstrap.Enabled() {
		if _, err := app.accounts.EnsureBootstrapAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	app.initHTTP()
	return app, nil
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "memoauth",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// NewHasher builds the password hasher, loading or creating the pepper file
// when one is configured.
func NewHasher(cfg Config) (*cryptox.PasswordHasher, error) {
	var pepper string
	if cfg.Password.PepperFile != "" {
		p, err := cryptox.LoadOrGeneratePepper(cfg.Password.PepperFile)
		if err != nil {
			return nil, fmt.Errorf("load pepper: %w", err)
		}
		pepper = p
	}

	h, err := cryptox.NewPasswordHasher(cfg.Password.Argon2Params(), cfg.Password.BcryptCost, pepper)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return h, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	if app.housekeeping != nil {
		app.housekeeping.Start()
	}

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeeping != nil {
		app.housekeeping.Stop()
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// Handler exposes the routed HTTP handler, for tests.
func (app *Application) Handler() http.Handler { return app.router }

func (app *Application) initServices() {
	app.metrics = metrics.New()

	app.credentials = &service.CredentialVerifier{
		Store:   app.db,
		Hasher:  app.hasher,
		Timeout: app.cfg.StoreTimeout,
	}

	app.sessions = &service.SessionService{
		Store:       app.db,
		Credentials: app.credentials,
		Signer:      app.signer,
		RefreshTTL:  app.cfg.JWT.RefreshExpiry.Std(),
		Timeout:     app.cfg.StoreTimeout,
		Metrics:     app.metrics,
	}

	app.accounts = &service.AccountService{
		Store:   app.db,
		Hasher:  app.hasher,
		Timeout: app.cfg.StoreTimeout,
	}

	if app.cfg.HousekeepingInterval > 0 {
		app.housekeeping = service.NewHousekeepingService(app.db, app.logger, app.cfg.HousekeepingInterval)
		app.housekeeping.Timeout = app.cfg.StoreTimeout
		app.housekeeping.Metrics = app.metrics
	} else {
		app.logger.Info("housekeeping disabled")
	}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.signer, BuildVersion, app.db, app.logger)
	router.SessionService = app.sessions
	router.Metrics = app.metrics
	router.RateLimits = httpx.DefaultRateLimitProfiles().FromEnv()
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
