package grpc

import (
	"context"
	"errors"

	"github.com/YousefAdel777/chatter-backend-sub000/internal/common"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/api/authpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC status errors. Anything unexpected
// becomes Internal without leaking details.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, common.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, "invalid request")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "already registered")
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

// Register creates a user account.
func (s *GRPCServer) Register(ctx context.Context, req *authpb.RegisterRequest) (*authpb.RegisterResponse, error) {
	user, err := s.auth.Register(ctx, req.Identifier, req.Secret)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &authpb.RegisterResponse{UserId: user.ID}, nil
}

// Login returns a token pair, or with Handoff set, a one-time exchange code
// behind which the pair is parked.
func (s *GRPCServer) Login(ctx context.Context, req *authpb.LoginRequest) (*authpb.LoginResponse, error) {
	if req.Handoff {
		code, err := s.auth.LoginHandoff(ctx, req.Identifier, req.Secret)
		if err != nil {
			return nil, s.toStatus(ctx, err)
		}
		return &authpb.LoginResponse{ExchangeCode: code}, nil
	}

	tokens, err := s.auth.Login(ctx, req.Identifier, req.Secret)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &authpb.LoginResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

// Refresh rotates a refresh token.
func (s *GRPCServer) Refresh(ctx context.Context, req *authpb.RefreshRequest) (*authpb.RefreshResponse, error) {
	tokens, err := s.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &authpb.RefreshResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

// Logout revokes the caller's session. The caller is identified by the
// access token checked in the interceptor.
func (s *GRPCServer) Logout(ctx context.Context, req *authpb.LogoutRequest) (*authpb.LogoutResponse, error) {
	subject, ok := SubjectFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	if err := s.auth.Logout(ctx, req.RefreshToken, subject); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &authpb.LogoutResponse{}, nil
}

// RedeemExchangeCode trades a one-time code for the pair parked behind it.
func (s *GRPCServer) RedeemExchangeCode(ctx context.Context, req *authpb.RedeemExchangeCodeRequest) (*authpb.RedeemExchangeCodeResponse, error) {
	tokens, err := s.auth.RedeemExchangeCode(ctx, req.Code)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &authpb.RedeemExchangeCodeResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}
