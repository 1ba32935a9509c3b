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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpapi "github.com/catedeguzman-it/finmark-sub001/internal/access/http"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/metrics"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/service"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/store"
	"github.com/catedeguzman-it/finmark-sub001/pkg/jwtx"
	"github.com/catedeguzman-it/finmark-sub001/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application is the access service with all its dependencies wired.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	keys     *jwtx.KeySet
	verifier jwtx.Verifier
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	invitationService   *service.InvitationService
	userService         *service.UserService
	identityService     *service.IdentityService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "access-service",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		File:    cfg.LogFile,
	})
}

// NewServices wires the invitation and user services over st. The CLI uses
// it for one-shot commands that do not run the HTTP server.
func NewServices(cfg Config, st store.Store, m *metrics.Metrics) (*service.InvitationService, *service.UserService) {
	inv := &service.InvitationService{
		Store:   st,
		TTL:     cfg.InvitationTTL,
		Metrics: m,
	}
	return inv, &service.UserService{Store: st, Invitations: inv}
}

func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg:      cfg,
		logger:   NewLogger(cfg),
		registry: prometheus.NewRegistry(),
	}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)

	db, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.db = db
	app.logger.Info("database ready", "driver", cfg.DatabaseDriver)

	app.keys, app.verifier, err = LoadIdPKeys(ctx, cfg, app.logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("access service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.db.Close()
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

func (app *Application) Shutdown() error {
	app.logger.Info("shutting down access service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("access service stopped")
	return nil
}

func (app *Application) initServices() error {
	app.invitationService, app.userService = NewServices(app.cfg, app.db, app.metrics)
	app.identityService = &service.IdentityService{
		Store:    app.db,
		Verifier: app.verifier,
		Metrics:  app.metrics,
	}

	hk, err := service.NewHousekeepingService(app.invitationService, app.logger, app.cfg.SweepSchedule, app.metrics)
	if err != nil {
		return err
	}
	app.housekeepingService = hk

	// Remote keys rotate at the IdP; files only change on restart.
	if app.cfg.IdPJWKSURL != "" {
		err := hk.AddJob("jwks-refresh", app.cfg.JWKSRefresh, func(ctx context.Context) error {
			if err := refreshIdPKeys(ctx, app.cfg, app.keys); err != nil {
				return err
			}
			app.logger.Debug("identity provider keys refreshed", "keys", len(app.keys.JWKS().Keys))
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys,
		app.verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.InvitationService = app.invitationService
	router.UserService = app.userService
	router.IdentityService = app.identityService
	router.Gatherer = app.registry
	router.InviteLinkBase = app.cfg.InviteLinkBase
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}
