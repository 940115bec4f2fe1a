package grpc

import (
	"context"
	"errors"

	"github.com/YousefAdel777/chatter-backend-sub000/internal/common"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/api/authpb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const subjectKey ctxKey = "subject"

// protectedMethods require a valid access token.
var protectedMethods = map[string]bool{
	authpb.AuthService_Logout_FullMethodName: true,
}

// SubjectFromContext returns the subject of the access token that
// authorized the current call. The second result is false on methods that
// do not require a token.
func SubjectFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(subjectKey).(string)
	return sub, ok && sub != ""
}

// accessTokenInterceptor authenticates calls to protectedMethods and stores
// the token subject in the context.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if protectedMethods[info.FullMethod] {
		var accessToken string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(common.AccessTokenHeaderName)
			if len(values) > 0 {
				accessToken = values[0]
			}
		}
		if len(accessToken) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		subject, err := s.auth.AuthenticateAccessToken(accessToken)
		if err != nil {
			s.logger.Debug(ctx, "access token rejected", "method", info.FullMethod, "error", err)
			if errors.Is(err, common.ErrTokenExpired) {
				return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
			}
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		ctx = context.WithValue(ctx, subjectKey, subject)
	}

	return handler(ctx, req)
}
