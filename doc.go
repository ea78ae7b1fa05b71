// Package rediskit wraps a Redis deployment (single node or cluster) with
// the coordination primitives an application layer actually needs: a typed
// key-value store with transparent JSON encoding, pipelined batch writes,
// fixed-window rate limiting, token-guarded distributed locks, namespaced
// session storage, pattern invalidation, cursor scans, and pub/sub.
//
// Components:
//   - Manager: owns the connection (one of *redis.Client or
//     *redis.ClusterClient, never both) and is injected into everything else.
//   - Store / Batch: get/set/delete plus hash, list and set collections;
//     non-primitive values go through a pluggable Codec (JSON by default).
//   - RateLimiter, Lock, Sessions, Invalidator, Scanner, Broker: peers that
//     borrow the Manager's client and never open connections of their own.
//
// Keys:
//
//	prefix:part1:part2   - built with GenerateKey, split with ParseKey
//	session:<id>         - session blobs
//	ratelimit:<scope>:<identity> - rate-limit counters (by convention)
//
// Cluster mode changes behavior in two places only: pattern operations
// (Invalidator, Scanner) fan out per master, and multi-key transactions
// (Watch) fail fast with ErrClusterUnsupported.
package rediskit
