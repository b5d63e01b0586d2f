package revokedtokens

import (
	"context"
	"sync"
	"time"
)

type MemoryRepository struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[string]time.Time)}
}

func (r *MemoryRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[jti]; ok {
		return false, nil
	}
	r.entries[jti] = expiresAt
	return true, nil
}

func (r *MemoryRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.entries[jti]
	return ok, nil
}

func (r *MemoryRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for jti, exp := range r.entries {
		if exp.Before(now) {
			delete(r.entries, jti)
			n++
		}
	}
	return n, nil
}
