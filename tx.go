package rediskit

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Watch runs fn inside an optimistic transaction: the given keys are
// watched, and queued commands in fn abort if any watched key changed
// before EXEC. Single-node only — cluster keys may hash to different
// shards, so the attempt fails fast with ErrClusterUnsupported instead of
// silently executing non-atomically.
func (m *Manager) Watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	if _, clustered := m.ClusterClient(); clustered {
		return ErrClusterUnsupported
	}

	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	if client == nil {
		return ErrNotInitialized
	}

	if err := client.Watch(ctx, fn, keys...); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return err // watched key changed; caller decides whether to retry
		}
		return connErr("watch", err)
	}
	return nil
}
