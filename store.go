package rediskit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/rediskit/codec"
)

// StoreOptions tune the key-value store. Only Manager is required.
type StoreOptions struct {
	Manager *Manager    // required
	Codec   codec.Codec // nil => codec.JSON{}
	Logger  Logger      // nil => NopLogger
}

// Store exposes Redis key-value and collection primitives with transparent
// encoding of structured values. Strings and byte slices are written as-is;
// anything else goes through the configured codec. All operations resolve
// the active client per call and return ErrNotInitialized when the Manager
// is not connected.
type Store struct {
	mgr   *Manager
	codec codec.Codec
	log   Logger
}

func NewStore(opts StoreOptions) (*Store, error) {
	if opts.Manager == nil {
		return nil, fmt.Errorf("rediskit: manager is required")
	}
	return &Store{
		mgr:   opts.Manager,
		codec: coalesce[codec.Codec](opts.Codec, codec.JSON{}),
		log:   coalesce[Logger](opts.Logger, NopLogger{}),
	}, nil
}

// encodeValue passes strings and byte slices through untouched and runs
// everything else through the codec.
func encodeValue(cd codec.Codec, key string, value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		b, err := cd.Marshal(v)
		if err != nil {
			return nil, &CodecError{Key: key, Err: err}
		}
		return b, nil
	}
}

func (s *Store) encode(key string, value any) ([]byte, error) {
	return encodeValue(s.codec, key, value)
}

// Set writes value under key, overwriting unconditionally. ttl == 0 means
// no expiry.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	c, err := s.mgr.Active()
	if err != nil {
		return err
	}
	data, err := s.encode(key, value)
	if err != nil {
		return err
	}
	if err := c.Set(ctx, key, data, ttl).Err(); err != nil {
		return connErr("set "+key, err)
	}
	return nil
}

// Get returns the raw stored representation. An absent key is a normal
// outcome and reports ErrNotFound, never a ConnError.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	c, err := s.mgr.Active()
	if err != nil {
		return "", err
	}
	res, err := c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", connErr("get "+key, err)
	}
	return res, nil
}

// GetJSON fetches key and decodes it into dest through the configured codec.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := s.codec.Unmarshal([]byte(data), dest); err != nil {
		return &CodecError{Key: key, Err: err}
	}
	return nil
}

// SetJSON encodes value through the configured codec and writes it.
func (s *Store) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	return s.Set(ctx, key, value, ttl)
}

// Delete removes keys. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	c, err := s.mgr.Active()
	if err != nil {
		return err
	}
	if err := c.Del(ctx, keys...).Err(); err != nil {
		return connErr("del", err)
	}
	return nil
}

// Exists returns how many of the given keys exist.
func (s *Store) Exists(ctx context.Context, keys ...string) (int64, error) {
	c, err := s.mgr.Active()
	if err != nil {
		return 0, err
	}
	n, err := c.Exists(ctx, keys...).Result()
	if err != nil {
		return 0, connErr("exists", err)
	}
	return n, nil
}

// Expire attaches a TTL to an existing key.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	c, err := s.mgr.Active()
	if err != nil {
		return err
	}
	if err := c.Expire(ctx, key, ttl).Err(); err != nil {
		return connErr("expire "+key, err)
	}
	return nil
}

// TTL returns the remaining time to live for key.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	c, err := s.mgr.Active()
	if err != nil {
		return 0, err
	}
	d, err := c.TTL(ctx, key).Result()
	if err != nil {
		return 0, connErr("ttl "+key, err)
	}
	return d, nil
}

// Increment atomically adds 1 to the integer at key, initializing a missing
// key to 1.
func (s *Store) Increment(ctx context.Context, key string) (int64, error) {
	c, err := s.mgr.Active()
	if err != nil {
		return 0, err
	}
	n, err := c.Incr(ctx, key).Result()
	if err != nil {
		return 0, connErr("incr "+key, err)
	}
	return n, nil
}

// IncrementBy atomically adds delta to the integer at key, initializing a
// missing key to delta.
func (s *Store) IncrementBy(ctx context.Context, key string, delta int64) (int64, error) {
	c, err := s.mgr.Active()
	if err != nil {
		return 0, err
	}
	n, err := c.IncrBy(ctx, key, delta).Result()
	if err != nil {
		return 0, connErr("incrby "+key, err)
	}
	return n, nil
}

// Hash operations

func (s *Store) HashSet(ctx context.Context, key string, fields map[string]any) error {
	c, err := s.mgr.Active()
	if err != nil {
		return err
	}
	if err := c.HSet(ctx, key, fields).Err(); err != nil {
		return connErr("hset "+key, err)
	}
	return nil
}

// HashGet returns the requested fields; with no fields given it returns the
// whole hash. Absent fields are omitted from the result.
func (s *Store) HashGet(ctx context.Context, key string, fields ...string) (map[string]string, error) {
	c, err := s.mgr.Active()
	if err != nil {
		return nil, err
	}

	if len(fields) == 0 {
		m, err := c.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, connErr("hgetall "+key, err)
		}
		return m, nil
	}

	vals, err := c.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, connErr("hmget "+key, err)
	}
	out := make(map[string]string, len(fields))
	for i, f := range fields {
		if vals[i] != nil {
			out[f] = fmt.Sprint(vals[i])
		}
	}
	return out, nil
}

// List operations

// ListPush pushes values onto the head of the list at key.
func (s *Store) ListPush(ctx context.Context, key string, values ...any) error {
	c, err := s.mgr.Active()
	if err != nil {
		return err
	}
	if err := c.LPush(ctx, key, values...).Err(); err != nil {
		return connErr("lpush "+key, err)
	}
	return nil
}

// ListPop pops the head of the list at key. Empty or missing lists report
// ErrNotFound.
func (s *Store) ListPop(ctx context.Context, key string) (string, error) {
	c, err := s.mgr.Active()
	if err != nil {
		return "", err
	}
	res, err := c.LPop(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", connErr("lpop "+key, err)
	}
	return res, nil
}

func (s *Store) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	c, err := s.mgr.Active()
	if err != nil {
		return nil, err
	}
	vals, err := c.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, connErr("lrange "+key, err)
	}
	return vals, nil
}

func (s *Store) ListLength(ctx context.Context, key string) (int64, error) {
	c, err := s.mgr.Active()
	if err != nil {
		return 0, err
	}
	n, err := c.LLen(ctx, key).Result()
	if err != nil {
		return 0, connErr("llen "+key, err)
	}
	return n, nil
}

// Set operations

func (s *Store) SetAdd(ctx context.Context, key string, members ...any) error {
	c, err := s.mgr.Active()
	if err != nil {
		return err
	}
	if err := c.SAdd(ctx, key, members...).Err(); err != nil {
		return connErr("sadd "+key, err)
	}
	return nil
}

func (s *Store) SetRemove(ctx context.Context, key string, members ...any) error {
	c, err := s.mgr.Active()
	if err != nil {
		return err
	}
	if err := c.SRem(ctx, key, members...).Err(); err != nil {
		return connErr("srem "+key, err)
	}
	return nil
}

func (s *Store) SetMembers(ctx context.Context, key string) ([]string, error) {
	c, err := s.mgr.Active()
	if err != nil {
		return nil, err
	}
	vals, err := c.SMembers(ctx, key).Result()
	if err != nil {
		return nil, connErr("smembers "+key, err)
	}
	return vals, nil
}

func (s *Store) SetIsMember(ctx context.Context, key string, member any) (bool, error) {
	c, err := s.mgr.Active()
	if err != nil {
		return false, err
	}
	ok, err := c.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, connErr("sismember "+key, err)
	}
	return ok, nil
}
