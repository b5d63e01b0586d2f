// Package services contains the server-side auth logic: the session
// manager (signup, login, refresh, logout), the authorization guard and the
// profile lookups built on top of it. Nothing here logs; callers map the
// returned sentinel errors from internal/common to transport responses.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dmitrijs2005/interviewkit/internal/common"
	"github.com/dmitrijs2005/interviewkit/internal/server/auth"
	"github.com/dmitrijs2005/interviewkit/internal/server/models"
	"github.com/dmitrijs2005/interviewkit/internal/server/repositories/principals"
	"github.com/dmitrijs2005/interviewkit/internal/server/repositories/revokedtokens"
)

// SessionService issues and rotates token pairs. Without a deny-list it is
// fully stateless: logout only tells the transport to drop the cookie.
type SessionService struct {
	principals principals.Repository
	revoked    revokedtokens.Repository
	hasher     *auth.PasswordHasher
	codec      *auth.TokenCodec

	dummyOnce sync.Once
	dummyHash string
}

type SessionOption func(*SessionService)

// WithRevocation enables the refresh-token deny-list: logout revokes the
// presented refresh token and refresh revokes the one it replaces.
func WithRevocation(r revokedtokens.Repository) SessionOption {
	return func(s *SessionService) {
		s.revoked = r
	}
}

func NewSessionService(p principals.Repository, hasher *auth.PasswordHasher, codec *auth.TokenCodec, opts ...SessionOption) *SessionService {
	s := &SessionService{
		principals: p,
		hasher:     hasher,
		codec:      codec,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup registers uid exactly as given, so the same string logs in. A
// blank uid or one longer than MaxIdentifierLength characters is rejected.
// An empty or unrecognized role becomes USER.
func (s *SessionService) Signup(ctx context.Context, uid, password, role string) (*models.Principal, error) {
	if strings.TrimSpace(uid) == "" || utf8.RuneCountInString(uid) > common.MaxIdentifierLength {
		return nil, common.ErrInvalidIdentifier
	}

	exists, err := s.principals.Exists(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if exists {
		return nil, common.ErrDuplicateIdentifier
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	p, err := s.principals.Insert(ctx, &models.Principal{
		UID:          uid,
		PasswordHash: hash,
		Role:         models.RoleOrDefault(role),
	})
	if err != nil {
		// lost a race with a concurrent signup for the same uid
		if errors.Is(err, common.ErrDuplicateIdentifier) {
			return nil, common.ErrDuplicateIdentifier
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return p, nil
}

// Login verifies the password and mints a pair. Unknown uid and wrong
// password both yield ErrInvalidCredentials.
func (s *SessionService) Login(ctx context.Context, uid, password string) (*auth.TokenPair, *models.Principal, error) {
	p, err := s.principals.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// spend a bcrypt comparison anyway so the miss is not faster
			_, _ = s.hasher.Verify(password, s.decoyHash())
			return nil, nil, common.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	ok, err := s.hasher.Verify(password, p.PasswordHash)
	if err != nil || !ok {
		return nil, nil, common.ErrInvalidCredentials
	}

	pair, err := s.codec.NewPair(p.UID, p.Role)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return pair, p, nil
}

// Refresh exchanges a refresh token for a new pair. The role is re-read
// from storage, so a role change applies on the next refresh.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, *models.Principal, error) {
	claims, err := s.codec.DecodeRefresh(refreshToken)
	if err != nil {
		return nil, nil, common.ErrInvalidToken
	}

	p, err := s.principals.FindByUID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrPrincipalNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if s.revoked != nil {
		added, err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		if !added {
			// already rotated or logged out
			return nil, nil, common.ErrInvalidToken
		}
	}

	pair, err := s.codec.NewPair(p.UID, p.Role)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return pair, p, nil
}

// Logout never fails on a bad or missing token; the caller clears the
// cookie regardless. With a deny-list the token's jti is recorded.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	if s.revoked == nil || refreshToken == "" {
		return nil
	}

	claims, err := s.codec.DecodeRefresh(refreshToken)
	if err != nil {
		return nil
	}

	if _, err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return nil
}

// RevocationEnabled reports whether a deny-list is configured.
func (s *SessionService) RevocationEnabled() bool {
	return s.revoked != nil
}

func (s *SessionService) decoyHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("decoy-password-for-unknown-uid")
	})
	return s.dummyHash
}
