package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/grimoire/internal/auth/http"
	"github.com/aussiebroadwan/grimoire/internal/auth/metrics"
	"github.com/aussiebroadwan/grimoire/internal/auth/service"
	"github.com/aussiebroadwan/grimoire/internal/auth/store"
	"github.com/aussiebroadwan/grimoire/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/grimoire/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/grimoire/pkg/slogx"

	goredis "github.com/redis/go-redis/v9"
)

// BuildVersion is overridden at build time with -ldflags "-X ...app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application owns every long-lived dependency of the service.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db         store.Store
	revocation store.RevocationStore // nil when refresh records live in db
	metrics    *metrics.Metrics

	issuer              *service.Issuer
	tokenService        *service.TokenService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New validates cfg and builds the application. Nothing is listening until
// Run is called.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "grimoire-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metrics.New(),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initRevocation(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initServices(); err != nil {
		app.closeStores()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the pruner and the HTTP server and blocks until shutdown is
// requested or the server fails.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("grimoire auth starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"revocation_backend", app.cfg.RevocationBackend,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		app.closeStores()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown drains in-flight requests, stops the pruner and closes the stores.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down grimoire auth...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "err", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "err", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("grimoire auth stopped")
	return nil
}

func (app *Application) closeStores() error {
	var errs []error
	if app.revocation != nil {
		if err := app.revocation.Close(); err != nil {
			app.logger.Error("error closing revocation store", "err", err)
			errs = append(errs, err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	return nil
}

// initRevocation connects to redis when it is the configured backend. A
// comma separated REDIS_ADDR selects a cluster client.
func (app *Application) initRevocation() error {
	if app.cfg.RevocationBackend != BackendRedis {
		return nil
	}

	rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:    strings.Split(app.cfg.RedisAddr, ","),
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	rs := redis.NewStore(rdb, redis.WithPrefix(app.cfg.RedisPrefix))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rs.Ping(ctx); err != nil {
		_ = rs.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	app.revocation = rs
	app.logger.Info("redis revocation store connected", "addr", app.cfg.RedisAddr, "prefix", app.cfg.RedisPrefix)
	return nil
}

// refreshTokens is the revocation store every service shares.
func (app *Application) refreshTokens() store.RefreshTokens {
	if app.revocation != nil {
		return app.revocation
	}
	return app.db.RefreshTokens()
}

func (app *Application) initServices() error {
	issuer, err := service.NewIssuer(service.IssuerConfig{
		AccessSecret:  []byte(app.cfg.AccessSecret),
		RefreshSecret: []byte(app.cfg.RefreshSecret),
		AccessTTL:     app.cfg.AccessTTL,
		RefreshTTL:    app.cfg.RefreshTTL,
		Issuer:        app.cfg.Issuer,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize issuer: %w", err)
	}
	app.issuer = issuer

	tokens := app.refreshTokens()

	app.tokenService = &service.TokenService{
		Issuer:  issuer,
		Users:   app.db.Users(),
		Tokens:  tokens,
		Metrics: app.metrics,
	}
	app.userService = &service.UserService{
		Store:      app.db,
		BcryptCost: app.cfg.BcryptCost,
	}
	app.housekeepingService = service.NewHousekeepingService(
		tokens,
		app.logger,
		app.cfg.PruneInterval,
		app.metrics,
	)

	app.metrics.WatchTokenStats(app.logger, app.tokenService.Stats)
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.issuer,
		BuildVersion,
		app.metrics,
		app.cfg.RateLimits,
		app.logger,
	)

	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.Database = app.db
	if app.revocation != nil {
		router.Revocation = app.revocation
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
