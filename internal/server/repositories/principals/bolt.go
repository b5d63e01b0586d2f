package principals

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/interviewkit/internal/common"
	"github.com/dmitrijs2005/interviewkit/internal/server/models"
	"go.etcd.io/bbolt"
)

var (
	principalsBucket = []byte("principals")
	uidIndexBucket   = []byte("principals_uid")
)

type boltRecord struct {
	ID        int64     `json:"id"`
	UID       string    `json:"uid"`
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	StarCount int       `json:"star_count"`
	CreatedAt time.Time `json:"created_at"`
}

// BoltRepository implements Repository on a bbolt file. Records are JSON
// values keyed by big-endian id; a second bucket maps uid to id.
type BoltRepository struct {
	db *bbolt.DB
}

var _ Repository = (*BoltRepository)(nil)

func NewBoltRepository(db *bbolt.DB) *BoltRepository {
	return &BoltRepository{db: db}
}

func idKey(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func (r *BoltRepository) Insert(ctx context.Context, p *models.Principal) (*models.Principal, error) {
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(principalsBucket)
		if err != nil {
			return err
		}
		idx, err := tx.CreateBucketIfNotExists(uidIndexBucket)
		if err != nil {
			return err
		}

		if idx.Get([]byte(p.UID)) != nil {
			return common.ErrDuplicateIdentifier
		}

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		rec := boltRecord{
			ID:        int64(seq),
			UID:       p.UID,
			Password:  p.PasswordHash,
			Role:      string(p.Role),
			StarCount: p.StarCount,
			CreatedAt: time.Now().UTC(),
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		key := idKey(rec.ID)
		if err := b.Put(key, data); err != nil {
			return err
		}
		if err := idx.Put([]byte(p.UID), key); err != nil {
			return err
		}

		p.ID = rec.ID
		p.CreatedAt = rec.CreatedAt
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateIdentifier) {
			return nil, err
		}
		return nil, fmt.Errorf("bolt error: %w", err)
	}
	return p, nil
}

func (r *BoltRepository) FindByUID(ctx context.Context, uid string) (*models.Principal, error) {
	var p *models.Principal
	err := r.db.View(func(tx *bbolt.Tx) error {
		idx := tx.Bucket(uidIndexBucket)
		if idx == nil {
			return common.ErrorNotFound
		}
		key := idx.Get([]byte(uid))
		if key == nil {
			return common.ErrorNotFound
		}
		var err error
		p, err = getRecord(tx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *BoltRepository) FindByID(ctx context.Context, id int64) (*models.Principal, error) {
	var p *models.Principal
	err := r.db.View(func(tx *bbolt.Tx) error {
		var err error
		p, err = getRecord(tx, idKey(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *BoltRepository) Exists(ctx context.Context, uid string) (bool, error) {
	var exists bool
	err := r.db.View(func(tx *bbolt.Tx) error {
		idx := tx.Bucket(uidIndexBucket)
		exists = idx != nil && idx.Get([]byte(uid)) != nil
		return nil
	})
	return exists, err
}

func getRecord(tx *bbolt.Tx, key []byte) (*models.Principal, error) {
	b := tx.Bucket(principalsBucket)
	if b == nil {
		return nil, common.ErrorNotFound
	}
	data := b.Get(key)
	if data == nil {
		return nil, common.ErrorNotFound
	}

	var rec boltRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("bolt error: %w", err)
	}
	role, err := models.ParseRole(rec.Role)
	if err != nil {
		return nil, fmt.Errorf("bolt error: principal %d: %w", rec.ID, err)
	}
	return &models.Principal{
		ID:           rec.ID,
		UID:          rec.UID,
		PasswordHash: rec.Password,
		Role:         role,
		StarCount:    rec.StarCount,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

// Init creates the buckets up front so readers never see a missing bucket.
func (r *BoltRepository) Init() error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{principalsBucket, uidIndexBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
}
