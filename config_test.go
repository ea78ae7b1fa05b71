package rediskit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "6379", cfg.Port)
	assert.Equal(t, 20, cfg.PoolSize)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
	assert.False(t, cfg.EnableCluster)
	assert.Equal(t, "localhost:6379", cfg.Addr())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_POOL_SIZE", "50")
	t.Setenv("REDIS_DIAL_TIMEOUT", "10s")
	t.Setenv("REDIS_ENABLE_CLUSTER", "true")
	t.Setenv("REDIS_CLUSTER_ADDRESSES", "n1:7000, n2:7000 ,n3:7000")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "redis.internal:6380", cfg.Addr())
	assert.Equal(t, 50, cfg.PoolSize)
	assert.Equal(t, 10*time.Second, cfg.DialTimeout)
	assert.True(t, cfg.EnableCluster)
	assert.Equal(t, []string{"n1:7000", "n2:7000", "n3:7000"}, cfg.ClusterAddresses)
	assert.True(t, cfg.IsProduction())
}

func TestFromEnvDotenvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("REDIS_PASSWORD=hunter2\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("REDIS_PASSWORD") })

	cfg, err := FromEnv(envFile)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.Password)

	// missing dotenv files are ignored
	_, err = FromEnv(filepath.Join(dir, "absent.env"))
	require.NoError(t, err)
}

func TestFromFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "redis.yaml")
	raw := `
host: redis.example.com
port: "6380"
database: 2
pool_size: 15
read_timeout: 2s
enable_cluster: true
cluster_addresses:
  - n1:7000
  - n2:7000
environment: prod
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "redis.example.com:6380", cfg.Addr())
	assert.Equal(t, 2, cfg.Database)
	assert.Equal(t, 15, cfg.PoolSize)
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)
	assert.Equal(t, []string{"n1:7000", "n2:7000"}, cfg.ClusterAddresses)
	assert.True(t, cfg.IsProduction())
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestIsProduction(t *testing.T) {
	assert.True(t, Config{Environment: "production"}.IsProduction())
	assert.True(t, Config{Environment: "prod"}.IsProduction())
	assert.False(t, Config{Environment: "development"}.IsProduction())
	assert.False(t, Config{}.IsProduction())
}
