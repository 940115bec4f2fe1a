package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/YousefAdel777/chatter-backend-sub000/internal/common"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/api/authpb"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      authpb.AuthServiceClient

	mu     sync.Mutex
	tokens models.TokenPair
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withAccessToken(ctx, s.Tokens().AccessToken), method, req, reply, cc, opts...)
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

// NewAuthClient dials endpointURL. Extra options are appended to the
// defaults (insecure transport and the access token interceptor).
func NewAuthClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.initGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) initGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = authpb.NewAuthServiceClient(conn)
	return nil
}

// Tokens returns a copy of the stored token pair.
func (s *GRPCClient) Tokens() models.TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = models.TokenPair{AccessToken: access, RefreshToken: refresh}
}

// LoggedIn reports whether a token pair is held.
func (s *GRPCClient) LoggedIn() bool {
	return s.Tokens().RefreshToken != ""
}

// Register creates an account. It does not log in.
func (s *GRPCClient) Register(ctx context.Context, identifier, secret string) error {
	if _, err := s.client.Register(ctx, &authpb.RegisterRequest{Identifier: identifier, Secret: secret}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Login(ctx context.Context, identifier, secret string) error {
	res, err := s.client.Login(ctx, &authpb.LoginRequest{Identifier: identifier, Secret: secret})
	if err != nil {
		return s.mapError(err)
	}
	s.setTokens(res.AccessToken, res.RefreshToken)
	return nil
}

// LoginHandoff logs in without keeping the tokens: the pair is parked on the
// server and the returned one-time code redeems it, e.g. on another device.
func (s *GRPCClient) LoginHandoff(ctx context.Context, identifier, secret string) (string, error) {
	res, err := s.client.Login(ctx, &authpb.LoginRequest{Identifier: identifier, Secret: secret, Handoff: true})
	if err != nil {
		return "", s.mapError(err)
	}
	return res.ExchangeCode, nil
}

func (s *GRPCClient) Redeem(ctx context.Context, code string) error {
	res, err := s.client.RedeemExchangeCode(ctx, &authpb.RedeemExchangeCodeRequest{Code: code})
	if err != nil {
		return s.mapError(err)
	}
	s.setTokens(res.AccessToken, res.RefreshToken)
	return nil
}

// Refresh rotates the stored token pair.
func (s *GRPCClient) Refresh(ctx context.Context) error {
	refresh := s.Tokens().RefreshToken
	if refresh == "" {
		return ErrNotLoggedIn
	}
	return s.rotate(ctx, refresh)
}

func (s *GRPCClient) rotate(ctx context.Context, refreshToken string) error {
	res, err := s.client.Refresh(ctx, &authpb.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return s.mapError(err)
	}
	s.setTokens(res.AccessToken, res.RefreshToken)
	return nil
}

// Logout revokes the stored session and forgets the tokens. An expired
// access token is rotated once and the call retried with the new pair, since
// the request carries the refresh token the rotation replaces.
func (s *GRPCClient) Logout(ctx context.Context) error {
	refresh := s.Tokens().RefreshToken
	if refresh == "" {
		return ErrNotLoggedIn
	}

	_, err := s.client.Logout(ctx, &authpb.LogoutRequest{RefreshToken: refresh})
	if isTokenExpired(err) {
		if err := s.rotate(ctx, refresh); err != nil {
			return err
		}
		_, err = s.client.Logout(ctx, &authpb.LogoutRequest{RefreshToken: s.Tokens().RefreshToken})
	}
	if err != nil {
		return s.mapError(err)
	}

	s.setTokens("", "")
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.InvalidArgument:
		return ErrRejected
	case codes.NotFound:
		return ErrUnknownCode
	case codes.AlreadyExists:
		return ErrAlreadyRegistered
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
