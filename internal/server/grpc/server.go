// Package grpc exposes the auth services over gRPC. Requests and responses
// are structpb.Struct values; the access token travels in the
// "authorization" metadata key as "Bearer <token>".
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/interviewkit/internal/logging"
	"github.com/dmitrijs2005/interviewkit/internal/server/auth"
	"github.com/dmitrijs2005/interviewkit/internal/server/metrics"
	"github.com/dmitrijs2005/interviewkit/internal/server/models"
	"google.golang.org/grpc"
)

type sessionService interface {
	Signup(ctx context.Context, uid, password, role string) (*models.Principal, error)
	Login(ctx context.Context, uid, password string) (*auth.TokenPair, *models.Principal, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, *models.Principal, error)
	Logout(ctx context.Context, refreshToken string) error
}

type principalResolver interface {
	ResolvePrincipal(ctx context.Context, accessToken string) (*models.Principal, error)
}

type GRPCServer struct {
	address  string
	sessions sessionService
	guard    principalResolver
	metrics  *metrics.Metrics
	logger   logging.Logger
}

var _ AuthServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, sessions sessionService, guard principalResolver, m *metrics.Metrics) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		sessions: sessions,
		guard:    guard,
		metrics:  m,
	}
}

// NewServer builds a *grpc.Server with the auth interceptor and the
// service registered.
func (s *GRPCServer) NewServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	RegisterAuthServiceServer(srv, s)
	return srv
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
