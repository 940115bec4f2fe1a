// Package presence publishes presence transitions that the auth flow triggers.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
)

// Event is published on the presence channel.
type Event struct {
	Subject string `cbor:"1,keyasint"`
	Online  bool   `cbor:"2,keyasint"`
	At      int64  `cbor:"3,keyasint"`
}

// DecodeEvent decodes a payload published by RedisNotifier.
func DecodeEvent(payload []byte) (Event, error) {
	var e Event
	if err := cbor.Unmarshal(payload, &e); err != nil {
		return Event{}, fmt.Errorf("presence: decode: %w", err)
	}
	return e, nil
}

// RedisNotifier publishes events to a Redis pub/sub channel.
type RedisNotifier struct {
	rdb     redis.Cmdable
	channel string
	now     func() time.Time
}

func NewRedisNotifier(rdb redis.Cmdable, channel string) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, channel: channel, now: time.Now}
}

// Disconnected announces that subject went offline.
func (n *RedisNotifier) Disconnected(ctx context.Context, subject string) error {
	payload, err := cbor.Marshal(Event{Subject: subject, Online: false, At: n.now().Unix()})
	if err != nil {
		return fmt.Errorf("presence: encode: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("presence: publish: %w", err)
	}
	return nil
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Disconnected(context.Context, string) error { return nil }
