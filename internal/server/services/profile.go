package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/interviewkit/internal/common"
	"github.com/dmitrijs2005/interviewkit/internal/server/repositories/principals"
)

// ProfileService serves read-only views of the current principal.
type ProfileService struct {
	principals principals.Repository
}

func NewProfileService(p principals.Repository) *ProfileService {
	return &ProfileService{principals: p}
}

// Progress returns the star count of the principal with internal id.
func (s *ProfileService) Progress(ctx context.Context, id int64) (int, error) {
	p, err := s.principals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, common.ErrPrincipalNotFound
		}
		return 0, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return p.StarCount, nil
}
