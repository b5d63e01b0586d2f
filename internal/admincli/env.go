package admincli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/interviewkit/internal/server"
	"github.com/dmitrijs2005/interviewkit/internal/server/auth"
	"github.com/dmitrijs2005/interviewkit/internal/server/config"
	"github.com/dmitrijs2005/interviewkit/internal/server/repositories/principals"
	"github.com/dmitrijs2005/interviewkit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/interviewkit/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/interviewkit/internal/server/secrets"
	"github.com/dmitrijs2005/interviewkit/internal/server/services"
)

// Env is what the commands operate on.
type Env struct {
	Principals principals.Repository
	Revoked    revokedtokens.Repository
	Sessions   *services.SessionService
	Codec      *auth.TokenCodec
	Close      func() error
}

// EnvLoader opens an Env for cfg.
type EnvLoader func(ctx context.Context, cfg *config.Config) (*Env, error)

// LoadEnv opens the configured storage, runs migrations and builds the
// codec with the resolved signing secret.
func LoadEnv(ctx context.Context, cfg *config.Config) (*Env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	secret, err := secrets.Resolve(ctx, cfg.SecretKey, server.S3ConfigFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("secret key: %w", err)
	}

	codec, err := auth.NewTokenCodec(auth.TokenConfig{
		Secret:     secret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := auth.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	rm, err := repomanager.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &Env{
		Principals: rm.Principals(),
		Revoked:    rm.RevokedTokens(),
		Sessions:   services.NewSessionService(rm.Principals(), hasher, codec),
		Codec:      codec,
		Close:      rm.Close,
	}, nil
}
