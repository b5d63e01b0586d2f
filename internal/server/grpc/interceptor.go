package grpc

import (
	"context"

	"github.com/dmitrijs2005/interviewkit/internal/common"
	"github.com/dmitrijs2005/interviewkit/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey struct{}

// protectedMethods require a resolved principal.
var protectedMethods = map[string]bool{
	MethodMe: true,
}

// PrincipalFromContext returns the principal stored by the interceptor.
func PrincipalFromContext(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*models.Principal)
	return p, ok && p != nil
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if !protectedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AuthorizationHeaderName); len(values) > 0 {
			header = values[0]
		}
	}

	token, ok := common.ParseBearer(header)
	if !ok {
		s.metrics.ObserveRejection(common.ErrInvalidToken)
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	p, err := s.guard.ResolvePrincipal(ctx, token)
	if err != nil {
		s.metrics.ObserveRejection(err)
		s.logger.Warn(ctx, "rejected", "method", info.FullMethod, "reason", err.Error())
		return nil, toStatus(err)
	}

	return handler(context.WithValue(ctx, ctxKey{}, p), req)
}
