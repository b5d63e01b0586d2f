// Package revokedtokens stores the ids (jti) of refresh tokens that must no
// longer be accepted. Entries are kept until the token would have expired
// anyway and are then purged.
package revokedtokens

import (
	"context"
	"time"
)

type Repository interface {
	// Revoke records jti. It reports false when jti was already revoked.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// PurgeExpired drops entries whose expiry is before now and returns
	// how many were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
