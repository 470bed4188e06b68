// Package ratelimit limits how often a client may hit sensitive endpoints.
// A Valkey-backed fixed window is used when Valkey is configured so the
// limit holds across server instances; otherwise an in-process token
// bucket per key is used.
package ratelimit

import "context"

// Limiter decides whether another request for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
