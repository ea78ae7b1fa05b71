package rediskit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter implements fixed-window request counting. Each counter is a
// single integer key (conventionally ratelimit:<scope>:<identity>) whose
// TTL is the window length.
//
// Security note for callers: a ConnError from Check means the limit could
// not be verified, not that the request is allowed. Fail closed.
type RateLimiter struct {
	mgr *Manager
	log Logger
}

func NewRateLimiter(mgr *Manager, log Logger) (*RateLimiter, error) {
	if mgr == nil {
		return nil, fmt.Errorf("rediskit: manager is required")
	}
	return &RateLimiter{mgr: mgr, log: coalesce[Logger](log, NopLogger{})}, nil
}

// Check counts a request against key and reports whether it is within
// limit. Read, increment, and expiry run in one pipelined round trip.
//
// The EXPIRE runs unconditionally on every hit, so a busy window's expiry
// keeps moving out until traffic pauses for a full window. This matches the
// long-observed behavior downstream limit math depends on; do not move the
// EXPIRE behind a first-hit check.
func (r *RateLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	c, err := r.mgr.Active()
	if err != nil {
		return false, 0, err
	}

	pipe := c.Pipeline()
	prev := pipe.Get(ctx, key)
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		// redis.Nil leaks out of Exec when GET missed; that is the
		// fresh-window case, not a failure.
		return false, 0, connErr("rate limit "+key, err)
	}

	count := int(incr.Val())
	if errors.Is(prev.Err(), redis.Nil) {
		// first request of a fresh window
		return true, count, nil
	}

	allowed := count <= limit
	if !allowed {
		r.log.Debug("rate limit exceeded", Fields{"key": key, "count": count, "limit": limit})
	}
	return allowed, count, nil
}

// Reset deletes the counter so the next Check starts a new window at 1.
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	c, err := r.mgr.Active()
	if err != nil {
		return err
	}
	if err := c.Del(ctx, key).Err(); err != nil {
		return connErr("rate limit reset "+key, err)
	}
	return nil
}
