// Package auth implements the credential primitives of the server: bcrypt
// password hashing and the HS256 JWT codec for access and refresh tokens.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/interviewkit/internal/common"
	"github.com/dmitrijs2005/interviewkit/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType tags a token with its purpose. It is part of the signed payload.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var ErrEmptySecret = errors.New("token signing secret is empty")

// Claims is the payload of both token types:
// {"sub", "role", "type", "iat", "exp", "jti"}.
type Claims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role"`
	Type TokenType   `json:"type"`
}

// TokenConfig is the immutable codec configuration built once at startup.
type TokenConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenPair is an access and a refresh token minted together for the same
// subject and role.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenCodec signs and verifies tokens with a single HS256 secret.
// It is safe for concurrent use.
type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type CodecOption func(*TokenCodec)

// WithClock replaces time.Now for issuing and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

// NewTokenCodec copies the secret; zero TTLs fall back to the defaults.
func NewTokenCodec(cfg TokenConfig, opts ...CodecOption) (*TokenCodec, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrEmptySecret
	}
	c := &TokenCodec{
		secret:     append([]byte(nil), cfg.Secret...),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	if c.accessTTL <= 0 {
		c.accessTTL = DefaultAccessTTL
	}
	if c.refreshTTL <= 0 {
		c.refreshTTL = DefaultRefreshTTL
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *TokenCodec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }

func (c *TokenCodec) CreateAccess(subject string, role models.Role) (string, error) {
	token, _, err := c.sign(subject, role, TokenTypeAccess, c.accessTTL)
	return token, err
}

func (c *TokenCodec) CreateRefresh(subject string, role models.Role) (string, error) {
	token, _, err := c.sign(subject, role, TokenTypeRefresh, c.refreshTTL)
	return token, err
}

func (c *TokenCodec) CreateAccessWithTTL(subject string, role models.Role, ttl time.Duration) (string, error) {
	token, _, err := c.sign(subject, role, TokenTypeAccess, ttl)
	return token, err
}

func (c *TokenCodec) CreateRefreshWithTTL(subject string, role models.Role, ttl time.Duration) (string, error) {
	token, _, err := c.sign(subject, role, TokenTypeRefresh, ttl)
	return token, err
}

// NewPair mints an access and a refresh token bound to subject and role.
func (c *TokenCodec) NewPair(subject string, role models.Role) (*TokenPair, error) {
	access, accessExp, err := c.sign(subject, role, TokenTypeAccess, c.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := c.sign(subject, role, TokenTypeRefresh, c.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (c *TokenCodec) sign(subject string, role models.Role, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	now := c.now()
	exp := now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		Role: role,
		Type: typ,
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Decode verifies signature and expiration and returns the claims. Every
// failure, whatever its cause, is common.ErrInvalidToken.
func (c *TokenCodec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}

	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, common.ErrInvalidToken
	}
	if claims.Type != TokenTypeAccess && claims.Type != TokenTypeRefresh {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// DecodeAccess is Decode plus type == "access".
func (c *TokenCodec) DecodeAccess(tokenString string) (*Claims, error) {
	return c.decodeTyped(tokenString, TokenTypeAccess)
}

// DecodeRefresh is Decode plus type == "refresh".
func (c *TokenCodec) DecodeRefresh(tokenString string) (*Claims, error) {
	return c.decodeTyped(tokenString, TokenTypeRefresh)
}

func (c *TokenCodec) decodeTyped(tokenString string, want TokenType) (*Claims, error) {
	claims, err := c.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
