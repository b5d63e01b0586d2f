package grpc

import (
	"context"

	"github.com/dmitrijs2005/interviewkit/internal/common"
	"github.com/dmitrijs2005/interviewkit/internal/server/auth"
	"github.com/dmitrijs2005/interviewkit/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func stringField(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

func reply(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func tokenReply(pair *auth.TokenPair, p *models.Principal) (*structpb.Struct, error) {
	return reply(map[string]any{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    common.BearerScheme,
		"user_id":       p.UID,
		"role":          p.Role.String(),
	})
}

func (s *GRPCServer) Signup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	uid := stringField(req, "user_id")
	p, err := s.sessions.Signup(ctx, uid, stringField(req, "password"), stringField(req, "role"))
	s.metrics.ObserveSignup(err)

	if err != nil {
		s.logger.Error(ctx, "signup failed", "uid", uid, "error", err.Error())
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Signed up", "uid", p.UID)
	return reply(map[string]any{"message": "signed up", "user_id": p.UID})
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	pair, p, err := s.sessions.Login(ctx, stringField(req, "user_id"), stringField(req, "password"))
	s.metrics.ObserveLogin(err)

	if err != nil {
		return nil, toStatus(err)
	}

	return tokenReply(pair, p)
}

func (s *GRPCServer) Refresh(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	pair, p, err := s.sessions.Refresh(ctx, stringField(req, common.RefreshTokenParamName))
	s.metrics.ObserveRefresh(err)

	if err != nil {
		return nil, toStatus(err)
	}

	return tokenReply(pair, p)
}

func (s *GRPCServer) Logout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	if err := s.sessions.Logout(ctx, stringField(req, common.RefreshTokenParamName)); err != nil {
		s.logger.Error(ctx, "logout failed", "error", err.Error())
		return nil, toStatus(err)
	}

	return reply(map[string]any{"message": "logged out"})
}

func (s *GRPCServer) Me(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "could not validate credentials")
	}

	return reply(map[string]any{
		"user_id":    p.UID,
		"role":       p.Role.String(),
		"star_count": p.StarCount,
	})
}

func (s *GRPCServer) Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	return reply(map[string]any{"status": "OK"})

}
