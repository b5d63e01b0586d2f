package revokedtokens

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var revokedBucket = []byte("revoked_refresh_tokens")

// BoltRepository keeps jti -> expiry (time.MarshalBinary) in one bucket.
type BoltRepository struct {
	db *bbolt.DB
}

var _ Repository = (*BoltRepository)(nil)

func NewBoltRepository(db *bbolt.DB) *BoltRepository {
	return &BoltRepository{db: db}
}

func (r *BoltRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	added := false
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(revokedBucket)
		if err != nil {
			return err
		}
		if b.Get([]byte(jti)) != nil {
			return nil
		}
		v, err := expiresAt.UTC().MarshalBinary()
		if err != nil {
			return err
		}
		added = true
		return b.Put([]byte(jti), v)
	})
	if err != nil {
		return false, fmt.Errorf("bolt error: %w", err)
	}
	return added, nil
}

func (r *BoltRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	revoked := false
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(revokedBucket)
		revoked = b != nil && b.Get([]byte(jti)) != nil
		return nil
	})
	return revoked, err
}

func (r *BoltRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var purged int64
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(revokedBucket)
		if b == nil {
			return nil
		}

		var expired [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var exp time.Time
			if err := exp.UnmarshalBinary(v); err != nil {
				return err
			}
			if exp.Before(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		purged = int64(len(expired))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("bolt error: %w", err)
	}
	return purged, nil
}

func (r *BoltRepository) Init() error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(revokedBucket)
		return err
	})
}
