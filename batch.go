package rediskit

import (
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/rediskit/codec"
)

// BatchOptions tune the batch executor. Only Manager is required.
type BatchOptions struct {
	Manager *Manager    // required
	Codec   codec.Codec // nil => codec.JSON{}
	Logger  Logger      // nil => NopLogger
}

// Batch pipelines independent operations into single round trips. A batch
// is a performance optimization, not a transaction: commands execute in
// submission order on the server but individual failures are not rolled
// back. Callers needing atomicity use Watch (single-node only) or design
// for idempotent retries.
type Batch struct {
	mgr   *Manager
	codec codec.Codec
	log   Logger
}

func NewBatch(opts BatchOptions) (*Batch, error) {
	if opts.Manager == nil {
		return nil, fmt.Errorf("rediskit: manager is required")
	}
	return &Batch{
		mgr:   opts.Manager,
		codec: coalesce[codec.Codec](opts.Codec, codec.JSON{}),
		log:   coalesce[Logger](opts.Logger, NopLogger{}),
	}, nil
}

// BatchSet writes every key/value pair in one pipelined round trip, all with
// the same ttl (0 = no expiry).
func (b *Batch) BatchSet(ctx context.Context, operations map[string]any, ttl time.Duration) error {
	if len(operations) == 0 {
		return nil
	}
	c, err := b.mgr.Active()
	if err != nil {
		return err
	}

	pipe := c.Pipeline()
	for key, value := range operations {
		data, err := encodeValue(b.codec, key, value)
		if err != nil {
			return err
		}
		pipe.Set(ctx, key, data, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return connErr("batch set", err)
	}
	return nil
}

// BatchDelete removes all keys in one round trip.
func (b *Batch) BatchDelete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	c, err := b.mgr.Active()
	if err != nil {
		return err
	}
	if err := c.Del(ctx, keys...).Err(); err != nil {
		return connErr("batch del", err)
	}
	return nil
}

// MultiGet fetches keys in one round trip. Keys with no stored value are
// omitted from the result rather than erroring.
func (b *Batch) MultiGet(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	c, err := b.mgr.Active()
	if err != nil {
		return nil, err
	}

	vals, err := c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, connErr("mget", err)
	}
	for i, key := range keys {
		switch v := vals[i].(type) {
		case nil:
			// absent; omit
		case string:
			out[key] = v
		default:
			out[key] = fmt.Sprint(v)
		}
	}
	return out, nil
}

// MultiSet is BatchSet with a pair map; kept as a separate name to mirror
// MultiGet.
func (b *Batch) MultiSet(ctx context.Context, pairs map[string]any, ttl time.Duration) error {
	return b.BatchSet(ctx, pairs, ttl)
}
