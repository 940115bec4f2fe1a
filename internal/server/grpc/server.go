// Package grpc exposes the auth service over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/YousefAdel777/chatter-backend-sub000/internal/logging"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/api/authpb"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// AuthService is the business API the handlers delegate to.
type AuthService interface {
	Register(ctx context.Context, identifier, secret string) (*models.User, error)
	Login(ctx context.Context, identifier, secret string) (*models.TokenPair, error)
	LoginHandoff(ctx context.Context, identifier, secret string) (string, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, refreshToken, requesterEmail string) error
	RedeemExchangeCode(ctx context.Context, code string) (*models.TokenPair, error)
	AuthenticateAccessToken(accessToken string) (string, error)
}

// GRPCServer serves authpb.AuthService and the standard health service.
type GRPCServer struct {
	authpb.UnimplementedAuthServiceServer
	address string
	auth    AuthService
	logger  logging.Logger
	health  *health.Server
}

// NewGRPCServer returns a server that will listen on address a.
func NewGRPCServer(a string, l logging.Logger, as AuthService) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		auth:    as,
		health:  health.NewServer(),
	}
}

// newServer creates the gRPC server with interceptors and registered services.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	authpb.RegisterAuthServiceServer(srv, s)
	healthpb.RegisterHealthServer(srv, s.health)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.health.SetServingStatus(authpb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
