package rediskit

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// Invalidator deletes every key matching a glob pattern. In cluster mode
// the listing and the delete both run against the node that owns the keys;
// a delete routed through an arbitrary node would be redirected per key and
// can miss keys during resharding.
type Invalidator struct {
	mgr *Manager
	log Logger
}

func NewInvalidator(mgr *Manager, log Logger) (*Invalidator, error) {
	if mgr == nil {
		return nil, fmt.Errorf("rediskit: manager is required")
	}
	return &Invalidator{mgr: mgr, log: coalesce[Logger](log, NopLogger{})}, nil
}

// InvalidatePattern removes all keys matching pattern and returns how many
// were deleted. No matches is a no-op, not an error. In cluster mode a
// failing shard aborts with a ShardError; the count still reflects shards
// that completed before the failure was observed.
func (iv *Invalidator) InvalidatePattern(ctx context.Context, pattern string) (int64, error) {
	if cluster, ok := iv.mgr.ClusterClient(); ok {
		return iv.invalidateCluster(ctx, cluster, pattern)
	}

	c, err := iv.mgr.Active()
	if err != nil {
		return 0, err
	}
	return iv.invalidateOn(ctx, c, pattern)
}

func (iv *Invalidator) invalidateOn(ctx context.Context, c redis.Cmdable, pattern string) (int64, error) {
	keys, err := c.Keys(ctx, pattern).Result()
	if err != nil {
		return 0, connErr("keys "+pattern, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	removed, err := c.Del(ctx, keys...).Result()
	if err != nil {
		return removed, connErr("del "+pattern, err)
	}
	iv.log.Debug("pattern invalidated", Fields{"pattern": pattern, "removed": removed})
	return removed, nil
}

func (iv *Invalidator) invalidateCluster(ctx context.Context, cluster *redis.ClusterClient, pattern string) (int64, error) {
	var removed atomic.Int64
	err := cluster.ForEachMaster(ctx, func(ctx context.Context, master *redis.Client) error {
		n, err := iv.invalidateOn(ctx, master, pattern)
		removed.Add(n)
		if err != nil {
			return &ShardError{Addr: master.Options().Addr, Err: err}
		}
		return nil
	})
	return removed.Load(), err
}
