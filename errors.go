package rediskit

import (
	"errors"
	"fmt"
)

// Sentinel errors. Match with errors.Is; ErrNotFound and ErrLockContention
// are expected outcomes, not system faults.
var (
	// ErrNotFound is returned when a requested key is absent (cache miss).
	ErrNotFound = errors.New("rediskit: key not found")

	// ErrNotInitialized is returned when an operation runs before Connect
	// succeeded (or after Close).
	ErrNotInitialized = errors.New("rediskit: not connected")

	// ErrLockContention is returned by Acquire when the lock is already held
	// under another token.
	ErrLockContention = errors.New("rediskit: lock already held")

	// ErrClusterUnsupported is returned for operations that need multi-key
	// atomicity while a cluster client is active.
	ErrClusterUnsupported = errors.New("rediskit: operation not supported in cluster mode")

	// ErrFlushProduction is returned by FlushDatabase when the configured
	// environment is production.
	ErrFlushProduction = errors.New("rediskit: flush database not allowed in production")
)

// ConnError wraps a transport, dial, or probe failure. This layer never
// retries; the wrapped cause is preserved for errors.Is/As so callers can
// apply their own backoff. A ConnError on a non-idempotent operation means
// "unknown outcome", not "failed".
type ConnError struct {
	Op  string
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("rediskit: %s: %v", e.Op, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

func connErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ConnError{Op: op, Err: err}
}

// CodecError wraps a marshal/unmarshal failure for a specific key.
type CodecError struct {
	Key string
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("rediskit: encode/decode %q: %v", e.Key, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// ShardError reports a failure against one node during a cluster fan-out.
// Partial shard failures are surfaced, never swallowed.
type ShardError struct {
	Addr string
	Err  error
}

func (e *ShardError) Error() string {
	return fmt.Sprintf("rediskit: shard %s: %v", e.Addr, e.Err)
}

func (e *ShardError) Unwrap() error { return e.Err }
