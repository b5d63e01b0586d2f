package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/interviewkit/internal/common"
	"github.com/dmitrijs2005/interviewkit/internal/server/auth"
	"github.com/dmitrijs2005/interviewkit/internal/server/models"
	"github.com/dmitrijs2005/interviewkit/internal/server/repositories/principals"
)

// Guard is the single gate in front of protected operations.
type Guard struct {
	principals principals.Repository
	codec      *auth.TokenCodec
}

func NewGuard(p principals.Repository, codec *auth.TokenCodec) *Guard {
	return &Guard{principals: p, codec: codec}
}

// ResolvePrincipal decodes an access token (without the "Bearer " prefix)
// and loads its subject.
func (g *Guard) ResolvePrincipal(ctx context.Context, accessToken string) (*models.Principal, error) {
	claims, err := g.codec.DecodeAccess(accessToken)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	p, err := g.principals.FindByUID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return p, nil
}

// RequireRole fails with ErrForbidden unless p holds exactly role.
func (g *Guard) RequireRole(p *models.Principal, role models.Role) error {
	if p == nil || p.Role != role {
		return common.ErrForbidden
	}
	return nil
}
