// Package principals declares the storage contract for authenticated
// identities and provides PostgreSQL, bbolt and in-memory implementations.
package principals

import (
	"context"

	"github.com/dmitrijs2005/interviewkit/internal/server/models"
)

// Repository stores principals. Lookups that miss return common.ErrorNotFound;
// inserting an existing uid returns common.ErrDuplicateIdentifier.
type Repository interface {
	// Insert stores p and fills in the storage-assigned fields (ID, CreatedAt).
	Insert(ctx context.Context, p *models.Principal) (*models.Principal, error)
	FindByUID(ctx context.Context, uid string) (*models.Principal, error)
	FindByID(ctx context.Context, id int64) (*models.Principal, error)
	Exists(ctx context.Context, uid string) (bool, error)
}
