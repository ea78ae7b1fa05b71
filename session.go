package rediskit

import (
	"context"
	"fmt"
	"time"
)

const sessionPrefix = "session"

// Sessions stores namespaced JSON session blobs under session:<id>.
// Lifecycle: Set on login, Refresh on activity (TTL extension without value
// mutation), Delete on logout; TTL expiry handles abandonment.
type Sessions struct {
	store *Store
}

func NewSessions(store *Store) (*Sessions, error) {
	if store == nil {
		return nil, fmt.Errorf("rediskit: store is required")
	}
	return &Sessions{store: store}, nil
}

func sessionKey(sessionID string) string {
	return GenerateKey(sessionPrefix, sessionID)
}

// Set writes the session payload with the given lifetime.
func (s *Sessions) Set(ctx context.Context, sessionID string, data any, ttl time.Duration) error {
	return s.store.SetJSON(ctx, sessionKey(sessionID), data, ttl)
}

// Get decodes the session payload into dest. A missing or expired session
// reports ErrNotFound.
func (s *Sessions) Get(ctx context.Context, sessionID string, dest any) error {
	return s.store.GetJSON(ctx, sessionKey(sessionID), dest)
}

// Delete removes the session.
func (s *Sessions) Delete(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionKey(sessionID))
}

// Refresh extends the session's TTL without touching its value.
func (s *Sessions) Refresh(ctx context.Context, sessionID string, ttl time.Duration) error {
	return s.store.Expire(ctx, sessionKey(sessionID), ttl)
}
