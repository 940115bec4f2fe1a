// Package auth issues and parses the signed bearer tokens used by the
// session core. It is pure: no I/O and no persistence.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/YousefAdel777/chatter-backend-sub000/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the claim set carried by both access and refresh tokens.
// Subject holds the user's email.
type Claims struct {
	jwt.RegisteredClaims
	IsRefresh bool `json:"isRefresh"`
}

// ErrorKind classifies why a token could not be parsed.
type ErrorKind int

const (
	KindMalformed ErrorKind = iota + 1
	KindSignatureInvalid
	KindExpired
)

func (k ErrorKind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindSignatureInvalid:
		return "signature invalid"
	case KindExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// TokenError is returned by every parsing method of Codec.
//
// errors.Is(err, common.ErrTokenExpired) holds for KindExpired only;
// errors.Is(err, common.ErrInvalidToken) holds for the other kinds.
type TokenError struct {
	Kind ErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err == nil {
		return "token " + e.Kind.String()
	}
	return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }

func (e *TokenError) Is(target error) bool {
	switch target {
	case common.ErrTokenExpired:
		return e.Kind == KindExpired
	case common.ErrInvalidToken:
		return e.Kind != KindExpired
	}
	return false
}

// CodecConfig carries the process-wide signing material. The secret must be
// the same on every instance that needs to accept the tokens.
type CodecConfig struct {
	Secret []byte
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Codec creates and parses HS256-signed tokens. It is safe for concurrent use.
type Codec struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

// NewCodec validates cfg and returns a Codec.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth: empty signing secret")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Codec{
		secret: secret,
		now:    now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(now),
		),
	}, nil
}

// Issue signs a token for subject that expires ttl from now.
// Each token carries a random jti, so two tokens for the same subject never
// collide even when minted within the same second.
func (c *Codec) Issue(subject string, isRefresh bool, ttl time.Duration) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		IsRefresh: isRefresh,
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Parse verifies signature and expiry and returns the claims.
func (c *Codec) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := c.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, &TokenError{Kind: KindMalformed}
	}
	if claims.Subject == "" {
		return nil, &TokenError{Kind: KindMalformed, Err: errors.New("missing subject")}
	}

	return claims, nil
}

// ParseSubject returns the sub claim of a valid token.
func (c *Codec) ParseSubject(tokenString string) (string, error) {
	claims, err := c.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ParseIsRefresh returns the isRefresh claim of a valid token.
func (c *Codec) ParseIsRefresh(tokenString string) (bool, error) {
	claims, err := c.Parse(tokenString)
	if err != nil {
		return false, err
	}
	return claims.IsRefresh, nil
}

// Validate reports whether tokenString is a valid token for expectedSubject
// of the expected kind. A well-formed token with a different subject or kind
// yields (false, nil); parse failures are returned as errors.
func (c *Codec) Validate(tokenString, expectedSubject string, expectedIsRefresh bool) (bool, error) {
	claims, err := c.Parse(tokenString)
	if err != nil {
		return false, err
	}
	return claims.Subject == expectedSubject && claims.IsRefresh == expectedIsRefresh, nil
}

func classify(err error) *TokenError {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return &TokenError{Kind: KindSignatureInvalid, Err: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &TokenError{Kind: KindExpired, Err: err}
	default:
		return &TokenError{Kind: KindMalformed, Err: err}
	}
}
