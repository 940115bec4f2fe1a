package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// ExchangeCodeSize is the number of random bytes behind an exchange code
// (the hex-encoded code is twice as long).
const ExchangeCodeSize = 32
