package rediskit

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestManager starts an in-process Redis and returns a connected Manager.
func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	m := NewManager(Config{Host: mr.Host(), Port: mr.Port(), Environment: "test"}, nil)
	require.NoError(t, m.Connect(context.Background()))
	t.Cleanup(func() { _ = m.Close() })
	return m, mr
}

func TestManagerConnectAndProbe(t *testing.T) {
	m, _ := newTestManager(t)

	assert.True(t, m.Connected())
	require.NoError(t, m.HealthCheck(context.Background()))

	c, err := m.Active()
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestManagerConnectRefusedEndpoint(t *testing.T) {
	// Reserved port with nothing listening.
	m := NewManager(Config{Host: "127.0.0.1", Port: "1"}, nil)
	err := m.Connect(context.Background())
	require.Error(t, err)

	var ce *ConnError
	assert.True(t, errors.As(err, &ce), "dial failure should be a ConnError, got %v", err)
	assert.False(t, m.Connected())
}

func TestManagerNotInitialized(t *testing.T) {
	m := NewManager(Config{}, nil)

	_, err := m.Active()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, m.HealthCheck(context.Background()), ErrNotInitialized)
	assert.Zero(t, m.Stats())
}

func TestManagerConnectIdempotent(t *testing.T) {
	m, _ := newTestManager(t)
	// second Connect on a live manager is a no-op
	require.NoError(t, m.Connect(context.Background()))
}

func TestManagerCloseIdempotent(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err := m.Active()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestManagerStatsAdvisory(t *testing.T) {
	m, _ := newTestManager(t)

	c, err := m.Active()
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), "k", "v", 0).Err())

	st := m.Stats()
	assert.NotZero(t, st.TotalConns, "pool should report at least one connection")
}

func TestManagerClusterConfigRequiresAddresses(t *testing.T) {
	m := NewManager(Config{EnableCluster: true}, nil)
	err := m.Connect(context.Background())
	require.Error(t, err)
	var ce *ConnError
	assert.True(t, errors.As(err, &ce))
}

func TestFlushDatabase(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	c, err := m.Active()
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "k", "v", 0).Err())

	require.NoError(t, m.FlushDatabase(ctx))
	assert.False(t, mr.Exists("k"))
}

func TestFlushDatabaseRejectedInProduction(t *testing.T) {
	mr := miniredis.RunT(t)
	m := NewManager(Config{Host: mr.Host(), Port: mr.Port(), Environment: "production"}, nil)
	require.NoError(t, m.Connect(context.Background()))
	defer m.Close()

	err := m.FlushDatabase(context.Background())
	assert.ErrorIs(t, err, ErrFlushProduction)
}

func TestWatchOptimisticTransaction(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	c, err := m.Active()
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "counter", "1", 0).Err())

	err = m.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Get(ctx, "counter").Int64()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, "counter", n+1, 0)
			return nil
		})
		return err
	}, "counter")
	require.NoError(t, err)

	got, err := c.Get(ctx, "counter").Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
}

func TestWatchNotInitialized(t *testing.T) {
	m := NewManager(Config{}, nil)
	err := m.Watch(context.Background(), func(*redis.Tx) error { return nil }, "k")
	assert.ErrorIs(t, err, ErrNotInitialized)
}
