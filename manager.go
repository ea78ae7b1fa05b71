package rediskit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const probeTimeout = 5 * time.Second

// Stats is an advisory snapshot of connection-pool utilization. Reading it
// never mutates pool state.
type Stats struct {
	Hits       uint32
	Misses     uint32
	Timeouts   uint32
	TotalConns uint32
	IdleConns  uint32
	StaleConns uint32
}

// Manager owns the connection to a Redis deployment. Exactly one of the
// single-node client or the cluster client is active at a time, selected by
// Config.EnableCluster. Every other component in this package borrows the
// active client through the Manager and never dials on its own.
//
// The expected lifecycle is acquire-once: Connect at process start, Close at
// shutdown, everything in between shares the handle.
type Manager struct {
	cfg Config
	log Logger

	mu      sync.RWMutex
	client  *redis.Client
	cluster *redis.ClusterClient
	subs    map[*redis.PubSub]struct{}
}

// NewManager builds an unconnected Manager. Call Connect before use.
func NewManager(cfg Config, log Logger) *Manager {
	return &Manager{
		cfg:  cfg,
		log:  coalesce[Logger](log, NopLogger{}),
		subs: make(map[*redis.PubSub]struct{}),
	}
}

// Connect establishes the client selected by the configuration and verifies
// liveness with a bounded ping. It fails fast with a ConnError instead of
// letting the first real operation discover a dead endpoint.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil || m.cluster != nil {
		return nil // already connected
	}
	if m.cfg.EnableCluster {
		return m.connectCluster(ctx)
	}
	return m.connectSingle(ctx)
}

func (m *Manager) connectSingle(ctx context.Context) error {
	var opts *redis.Options
	if m.cfg.URL != "" {
		parsed, err := redis.ParseURL(m.cfg.URL)
		if err != nil {
			return connErr("parse url", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:            m.cfg.Addr(),
			Password:        m.cfg.Password,
			DB:              m.cfg.Database,
			MaxRetries:      m.cfg.MaxRetries,
			MinRetryBackoff: m.cfg.MinRetryBackoff,
			MaxRetryBackoff: m.cfg.MaxRetryBackoff,
			DialTimeout:     m.cfg.DialTimeout,
			ReadTimeout:     m.cfg.ReadTimeout,
			WriteTimeout:    m.cfg.WriteTimeout,
			PoolSize:        m.cfg.PoolSize,
			MinIdleConns:    m.cfg.MinIdleConns,
			PoolTimeout:     m.cfg.PoolTimeout,
			ConnMaxLifetime: m.cfg.ConnMaxLifetime,
			ConnMaxIdleTime: m.cfg.ConnMaxIdleTime,
		}
	}

	client := redis.NewClient(opts)
	if err := probe(ctx, client); err != nil {
		_ = client.Close()
		return connErr("ping", err)
	}

	m.client = client
	m.log.Info("redis connected", Fields{"addr": opts.Addr, "db": opts.DB})
	return nil
}

func (m *Manager) connectCluster(ctx context.Context) error {
	if len(m.cfg.ClusterAddresses) == 0 {
		return connErr("connect cluster", errors.New("no cluster addresses provided"))
	}

	cluster := redis.NewClusterClient(&redis.ClusterOptions{
		Addrs:           m.cfg.ClusterAddresses,
		Password:        m.cfg.Password,
		MaxRetries:      m.cfg.MaxRetries,
		MinRetryBackoff: m.cfg.MinRetryBackoff,
		MaxRetryBackoff: m.cfg.MaxRetryBackoff,
		DialTimeout:     m.cfg.DialTimeout,
		ReadTimeout:     m.cfg.ReadTimeout,
		WriteTimeout:    m.cfg.WriteTimeout,
		PoolSize:        m.cfg.PoolSize,
		MinIdleConns:    m.cfg.MinIdleConns,
		PoolTimeout:     m.cfg.PoolTimeout,
		ConnMaxLifetime: m.cfg.ConnMaxLifetime,
		ConnMaxIdleTime: m.cfg.ConnMaxIdleTime,
	})
	if err := probe(ctx, cluster); err != nil {
		_ = cluster.Close()
		return connErr("ping cluster", err)
	}

	m.cluster = cluster
	m.log.Info("redis cluster connected", Fields{"addrs": m.cfg.ClusterAddresses})
	return nil
}

func probe(ctx context.Context, c redis.Cmdable) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return c.Ping(ctx).Err()
}

// Active returns whichever client is connected as a uniform command
// interface, or ErrNotInitialized when neither is.
func (m *Manager) Active() (redis.Cmdable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch {
	case m.cluster != nil:
		return m.cluster, nil
	case m.client != nil:
		return m.client, nil
	default:
		return nil, ErrNotInitialized
	}
}

// universal exposes the subscribe-capable client for pub/sub.
func (m *Manager) universal() (redis.UniversalClient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch {
	case m.cluster != nil:
		return m.cluster, nil
	case m.client != nil:
		return m.client, nil
	default:
		return nil, ErrNotInitialized
	}
}

// ClusterClient returns the cluster client and whether cluster mode is
// active. Callers use it only for per-shard fan-out; everything else goes
// through Active.
func (m *Manager) ClusterClient() (*redis.ClusterClient, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cluster, m.cluster != nil
}

// Connected reports whether a client is active.
func (m *Manager) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil || m.cluster != nil
}

// HealthCheck pings the active client.
func (m *Manager) HealthCheck(ctx context.Context) error {
	c, err := m.Active()
	if err != nil {
		return err
	}
	if err := c.Ping(ctx).Err(); err != nil {
		return connErr("ping", err)
	}
	return nil
}

// Stats reports pool utilization for the active client. Zero value when not
// connected.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ps *redis.PoolStats
	switch {
	case m.cluster != nil:
		ps = m.cluster.PoolStats()
	case m.client != nil:
		ps = m.client.PoolStats()
	default:
		return Stats{}
	}
	return Stats{
		Hits:       ps.Hits,
		Misses:     ps.Misses,
		Timeouts:   ps.Timeouts,
		TotalConns: ps.TotalConns,
		IdleConns:  ps.IdleConns,
		StaleConns: ps.StaleConns,
	}
}

// FlushDatabase wipes the active logical database. Maintenance/testing only;
// refused outright in production.
func (m *Manager) FlushDatabase(ctx context.Context) error {
	if m.cfg.IsProduction() {
		return ErrFlushProduction
	}
	c, err := m.Active()
	if err != nil {
		return err
	}
	if err := c.FlushDB(ctx).Err(); err != nil {
		return connErr("flushdb", err)
	}
	m.log.Warn("database flushed", Fields{"environment": m.cfg.Environment})
	return nil
}

// trackSub registers a pub/sub handle so Close can release it.
func (m *Manager) trackSub(ps *redis.PubSub) {
	m.mu.Lock()
	m.subs[ps] = struct{}{}
	m.mu.Unlock()
}

func (m *Manager) untrackSub(ps *redis.PubSub) {
	m.mu.Lock()
	delete(m.subs, ps)
	m.mu.Unlock()
}

// Close releases open subscriptions first, then the pool itself. Safe to
// call multiple times; repeated calls become no-ops.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []string
	for ps := range m.subs {
		if err := ps.Close(); err != nil {
			errs = append(errs, "pubsub close: "+err.Error())
		}
		delete(m.subs, ps)
	}
	if m.client != nil {
		if err := m.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			errs = append(errs, "client close: "+err.Error())
		}
		m.client = nil
	}
	if m.cluster != nil {
		if err := m.cluster.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			errs = append(errs, "cluster close: "+err.Error())
		}
		m.cluster = nil
	}
	if len(errs) > 0 {
		return connErr("close", errors.New(strings.Join(errs, "; ")))
	}
	m.log.Info("redis connections closed", nil)
	return nil
}
