package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultWindow = time.Minute

// RateLimiter is a fixed-window request counter per account.
// Key format: ratelimit:<account_id>:<window_start_unix>
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter allows limit requests per window. A zero window selects one
// minute.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = defaultWindow
	}
	return &RateLimiter{client: client, limit: int64(limit), window: window, now: time.Now}
}

// Allow counts one request for key and reports whether it fits the window.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.key(key, l.now())

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}
	return incr.Val() <= l.limit, nil
}

func (l *RateLimiter) key(accountID string, at time.Time) string {
	start := at.Truncate(l.window).Unix()
	return fmt.Sprintf("ratelimit:%s:%d", accountID, start)
}

// Pinger adapts a client to the readiness probe.
type Pinger struct {
	client *redis.Client
}

func NewPinger(client *redis.Client) *Pinger {
	return &Pinger{client: client}
}

func (p *Pinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
