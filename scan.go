package rediskit

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Scanner enumerates keys matching a glob pattern with cursor-based SCAN
// pages, never a single unbounded listing. It carries the standard SCAN
// guarantee: every key present for the whole scan is returned at least
// once; keys churning mid-scan may be missed or duplicated.
type Scanner struct {
	mgr *Manager
	log Logger
}

func NewScanner(mgr *Manager, log Logger) (*Scanner, error) {
	if mgr == nil {
		return nil, fmt.Errorf("rediskit: manager is required")
	}
	return &Scanner{mgr: mgr, log: coalesce[Logger](log, NopLogger{})}, nil
}

// ScanKeys returns all keys matching pattern, fetching pageSize keys per
// round trip. In cluster mode each master runs its own cursor loop; SCAN
// cursors are node-local and must never be carried across nodes.
func (s *Scanner) ScanKeys(ctx context.Context, pattern string, pageSize int64) ([]string, error) {
	if cluster, ok := s.mgr.ClusterClient(); ok {
		return s.scanCluster(ctx, cluster, pattern, pageSize)
	}

	c, err := s.mgr.Active()
	if err != nil {
		return nil, err
	}
	return scanNode(ctx, c, pattern, pageSize)
}

func scanNode(ctx context.Context, c redis.Cmdable, pattern string, pageSize int64) ([]string, error) {
	var (
		all    []string
		cursor uint64
	)
	for {
		keys, next, err := c.Scan(ctx, cursor, pattern, pageSize).Result()
		if err != nil {
			return nil, connErr("scan "+pattern, err)
		}
		all = append(all, keys...)
		if next == 0 {
			return all, nil
		}
		cursor = next
	}
}

func (s *Scanner) scanCluster(ctx context.Context, cluster *redis.ClusterClient, pattern string, pageSize int64) ([]string, error) {
	var (
		mu  sync.Mutex
		all []string
	)
	err := cluster.ForEachMaster(ctx, func(ctx context.Context, master *redis.Client) error {
		keys, err := scanNode(ctx, master, pattern, pageSize)
		if err != nil {
			return &ShardError{Addr: master.Options().Addr, Err: err}
		}
		mu.Lock()
		all = append(all, keys...)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}
