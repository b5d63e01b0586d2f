// Package server wires the auth server together: configuration, signing
// secret, storage backend, session services and the HTTP and gRPC
// transports. It handles graceful shutdown on SIGINT, SIGTERM and SIGQUIT.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/interviewkit/internal/logging"
	"github.com/dmitrijs2005/interviewkit/internal/server/auth"
	"github.com/dmitrijs2005/interviewkit/internal/server/config"
	"github.com/dmitrijs2005/interviewkit/internal/server/httpapi"
	"github.com/dmitrijs2005/interviewkit/internal/server/metrics"
	"github.com/dmitrijs2005/interviewkit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/interviewkit/internal/server/secrets"
	"github.com/dmitrijs2005/interviewkit/internal/server/services"

	gs "github.com/dmitrijs2005/interviewkit/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	sessions *services.SessionService
	guard    *services.Guard
	profiles *services.ProfileService
	metrics  *metrics.Metrics
}

// NewApp validates c, resolves the signing secret, opens storage and runs
// migrations. The caller must Close the returned App.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, err
	}

	secret, err := secrets.Resolve(ctx, c.SecretKey, S3ConfigFrom(c))
	if err != nil {
		return nil, fmt.Errorf("secret key: %w", err)
	}
	if secrets.IsWeak(secret) {
		logger.Warn(ctx, "signing secret is shorter than recommended", "min_bytes", secrets.RecommendedMinLength)
	}

	hasher, err := auth.NewPasswordHasher(c.BcryptCost)
	if err != nil {
		return nil, err
	}

	codec, err := auth.NewTokenCodec(auth.TokenConfig{
		Secret:     secret,
		AccessTTL:  c.AccessTokenTTL,
		RefreshTTL: c.RefreshTokenTTL,
	})
	if err != nil {
		return nil, err
	}

	rm, err := repomanager.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	var opts []services.SessionOption
	if c.RevokeOnLogout {
		opts = append(opts, services.WithRevocation(rm.RevokedTokens()))
	}

	return &App{
		config:   c,
		logger:   logger,
		repos:    rm,
		sessions: services.NewSessionService(rm.Principals(), hasher, codec, opts...),
		guard:    services.NewGuard(rm.Principals(), codec),
		profiles: services.NewProfileService(rm.Principals()),
		metrics:  metrics.New(),
	}, nil
}

// S3ConfigFrom extracts object storage settings used for s3:// secrets.
func S3ConfigFrom(c *config.Config) secrets.S3Config {
	return secrets.S3Config{
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	}
}

func (app *App) Close() error {
	return app.repos.Close()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	a := httpapi.New(app.logger, app.sessions, app.guard, app.profiles, app.metrics,
		httpapi.WithSecureCookie(app.config.CookieSecure),
		httpapi.WithRefreshTTL(app.config.RefreshTokenTTL),
	)

	if err := a.Run(ctx, app.config.HTTPAddr); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.sessions, app.guard, app.metrics)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or either transport
// fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"storage", app.config.StorageBackend,
		"revoke_on_logout", app.config.RevokeOnLogout,
	)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
}
