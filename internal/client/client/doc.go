// Package client contains the gRPC client of the chatter auth service.
//
// GRPCClient keeps the caller's token pair, injects the access token into
// every call via an interceptor, rotates the pair on an expired access token
// during Logout, and maps gRPC status codes to
// sentinel errors (ErrUnavailable, ErrUnauthorized, ErrRejected,
// ErrUnknownCode) that callers can match with errors.Is.
//
// A GRPCClient is safe for concurrent use.
package client
