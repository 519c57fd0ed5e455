// Package throttle limits repeated login and password-reset attempts using
// Redis counters. A Limiter without a Redis client allows everything.
package throttle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts attempts per key within a fixed window.
type Limiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// Connect dials Redis at addr and pings it. An empty addr, or a server that
// does not answer, yields a nil client and the limiter runs degraded.
func Connect(ctx context.Context, addr, password string, db int) *redis.Client {
	if addr == "" {
		slog.Info("redis not configured, attempt throttling disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, attempt throttling disabled", "addr", addr, "error", err)
		client.Close()
		return nil
	}

	slog.Info("redis connected", "addr", addr)
	return client
}

// New creates a limiter. A nil client or a non-positive maxAttempts disables
// throttling.
func New(client *redis.Client, maxAttempts int, window time.Duration) *Limiter {
	return &Limiter{client: client, maxAttempts: maxAttempts, window: window}
}

// Enabled reports whether attempts are being counted.
func (l *Limiter) Enabled() bool {
	return l != nil && l.client != nil && l.maxAttempts > 0 && l.window > 0
}

func key(scope, id string) string {
	return fmt.Sprintf("throttle:%s:%s", scope, strings.ToLower(strings.TrimSpace(id)))
}

// Allow reports whether another attempt for scope/id is permitted, and if not,
// how long until the window resets. Redis errors fail open.
func (l *Limiter) Allow(ctx context.Context, scope, id string) (bool, time.Duration) {
	if !l.Enabled() {
		return true, 0
	}

	k := key(scope, id)
	n, err := l.client.Get(ctx, k).Int()
	if err == redis.Nil {
		return true, 0
	}
	if err != nil {
		slog.Warn("throttle lookup failed", "key", k, "error", err)
		return true, 0
	}
	if n < l.maxAttempts {
		return true, 0
	}

	ttl, err := l.client.TTL(ctx, k).Result()
	if err != nil || ttl < 0 {
		ttl = l.window
	}
	return false, ttl
}

// Fail records a failed attempt. The window starts at the first failure.
func (l *Limiter) Fail(ctx context.Context, scope, id string) {
	if !l.Enabled() {
		return
	}

	k := key(scope, id)
	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		slog.Warn("throttle record failed", "key", k, "error", err)
		return
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			slog.Warn("throttle expiry failed", "key", k, "error", err)
		}
	}
}

// Reset clears the counter, typically after a successful attempt.
func (l *Limiter) Reset(ctx context.Context, scope, id string) {
	if !l.Enabled() {
		return
	}

	k := key(scope, id)
	if err := l.client.Del(ctx, k).Err(); err != nil {
		slog.Warn("throttle reset failed", "key", k, "error", err)
	}
}
