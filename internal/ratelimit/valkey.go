package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ConnectValkey creates a Valkey client and verifies the connection with a ping.
func ConnectValkey(addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping: %w", err)
	}

	log.Info().Str("addr", addr).Msg("valkey connected")
	return client, nil
}

// Valkey is a fixed-window counter stored in Valkey, shared by every server
// instance that points at the same Valkey.
type Valkey struct {
	client redis.Cmdable
	prefix string
	limit  int64
	window time.Duration
}

// NewValkey allows limit requests per window for each key. Counter keys
// are namespaced with prefix.
func NewValkey(client redis.Cmdable, prefix string, limit int, window time.Duration) *Valkey {
	return &Valkey{client: client, prefix: prefix, limit: int64(limit), window: window}
}

// Allow increments the key's counter for the current window. The first
// increment in a window sets the expiry.
func (v *Valkey) Allow(ctx context.Context, key string) (bool, error) {
	k := v.prefix + key

	var incr *redis.IntCmd
	_, err := v.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, v.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	return incr.Val() <= v.limit, nil
}
