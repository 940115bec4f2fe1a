// Package exchange implements the one-time exchange-code cache used to hand
// a freshly minted token pair to another context.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YousefAdel777/chatter-backend-sub000/internal/common"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/models"
	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "exchange:"

// ErrBackend wraps failures of the underlying store.
var ErrBackend = errors.New("exchange cache unavailable")

// entry is the stored representation of a token pair.
type entry struct {
	AccessToken  string `cbor:"1,keyasint"`
	RefreshToken string `cbor:"2,keyasint"`
}

// RedisCache keeps code -> pair entries in Redis with a fixed TTL.
// Redeem uses GETDEL, so an entry can be read at most once.
type RedisCache struct {
	rdb     redis.Cmdable
	ttl     time.Duration
	newCode func() (string, error)
}

// NewRedisCache returns a cache whose entries expire after ttl.
func NewRedisCache(rdb redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{
		rdb: rdb,
		ttl: ttl,
		newCode: func() (string, error) {
			return common.MakeRandHexString(common.ExchangeCodeSize)
		},
	}
}

func key(code string) string {
	return keyPrefix + code
}

// Store saves pair under a fresh random code and returns the code.
func (c *RedisCache) Store(ctx context.Context, pair models.TokenPair) (string, error) {
	code, err := c.newCode()
	if err != nil {
		return "", fmt.Errorf("exchange: generate code: %w", err)
	}

	data, err := cbor.Marshal(entry{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	if err != nil {
		return "", fmt.Errorf("exchange: encode: %w", err)
	}

	// NX: a live code is never overwritten.
	ok, err := c.rdb.SetNX(ctx, key(code), data, c.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if !ok {
		return "", fmt.Errorf("exchange: %w", common.ErrorAlreadyExists)
	}

	return code, nil
}

// Redeem atomically reads and deletes the entry for code. A missing, expired,
// already redeemed or empty code yields common.ErrorNotFound.
func (c *RedisCache) Redeem(ctx context.Context, code string) (*models.TokenPair, error) {
	if code == "" {
		return nil, common.ErrorNotFound
	}

	data, err := c.rdb.GetDel(ctx, key(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	var e entry
	if err := cbor.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("exchange: decode: %w", err)
	}

	return &models.TokenPair{AccessToken: e.AccessToken, RefreshToken: e.RefreshToken}, nil
}
