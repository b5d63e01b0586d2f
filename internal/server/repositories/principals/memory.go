package principals

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/interviewkit/internal/common"
	"github.com/dmitrijs2005/interviewkit/internal/server/models"
)

// MemoryRepository keeps principals in process memory. Returned values are
// copies, so callers cannot mutate stored state.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]models.Principal
	byUID  map[string]int64
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:  make(map[int64]models.Principal),
		byUID: make(map[string]int64),
	}
}

func (r *MemoryRepository) Insert(ctx context.Context, p *models.Principal) (*models.Principal, error) {
	if !p.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownRole, p.Role)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUID[p.UID]; ok {
		return nil, common.ErrDuplicateIdentifier
	}

	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now().UTC()

	r.byID[p.ID] = *p
	r.byUID[p.UID] = p.ID

	return p, nil
}

func (r *MemoryRepository) FindByUID(ctx context.Context, uid string) (*models.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUID[uid]
	if !ok {
		return nil, common.ErrorNotFound
	}
	p := r.byID[id]
	return &p, nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id int64) (*models.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) Exists(ctx context.Context, uid string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byUID[uid]
	return ok, nil
}
