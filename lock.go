package rediskit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only while it still holds the caller's
// token. Running it server-side closes the race between a GET and a DEL in
// which the lock expires and is re-acquired by someone else.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// Lock is a distributed mutual-exclusion primitive built on SET NX with a
// per-acquisition token. There is no queueing or fairness among waiters:
// the first successful conditional set wins, and retry policy belongs to
// the caller. TTL expiry is the only recovery from a crashed holder.
type Lock struct {
	mgr *Manager
	log Logger
}

func NewLock(mgr *Manager, log Logger) (*Lock, error) {
	if mgr == nil {
		return nil, fmt.Errorf("rediskit: manager is required")
	}
	return &Lock{mgr: mgr, log: coalesce[Logger](log, NopLogger{})}, nil
}

// Acquire attempts to take lockKey for ttl. On success it returns the token
// required to Release. When the lock is already held it returns
// ErrLockContention immediately; it never polls.
//
// A ConnError here means the outcome is unknown — the set may have reached
// the server. Callers must not treat it as "unlocked".
func (l *Lock) Acquire(ctx context.Context, lockKey string, ttl time.Duration) (string, error) {
	c, err := l.mgr.Active()
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	ok, err := c.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return "", connErr("acquire "+lockKey, err)
	}
	if !ok {
		return "", ErrLockContention
	}
	l.log.Debug("lock acquired", Fields{"key": lockKey, "ttl": ttl})
	return token, nil
}

// Release deletes lockKey only if it still holds token, as one atomic
// server-side script. Releasing a lock that expired and was re-acquired
// under a different token is a no-op, which is what prevents lock stealing.
func (l *Lock) Release(ctx context.Context, lockKey, token string) (bool, error) {
	c, err := l.mgr.Active()
	if err != nil {
		return false, err
	}
	n, err := releaseScript.Run(ctx, c, []string{lockKey}, token).Int64()
	if err != nil {
		return false, connErr("release "+lockKey, err)
	}
	released := n == 1
	if !released {
		l.log.Debug("release skipped, token mismatch or lock expired", Fields{"key": lockKey})
	}
	return released, nil
}

// WithLock acquires lockKey, runs fn, and releases on every exit path
// including panics. fn's duration is not bounded by ttl and the lock is not
// auto-renewed, so pick a ttl comfortably above the worst-case runtime.
func (l *Lock) WithLock(ctx context.Context, lockKey string, ttl time.Duration, fn func(ctx context.Context) error) error {
	token, err := l.Acquire(ctx, lockKey, ttl)
	if err != nil {
		return err
	}
	defer func() {
		if _, err := l.Release(ctx, lockKey, token); err != nil {
			l.log.Warn("lock release failed", Fields{"key": lockKey, "err": err})
		}
	}()
	return fn(ctx)
}
