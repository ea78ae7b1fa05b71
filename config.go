package rediskit

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full connection surface recognized at startup. URL, when
// set, wins over Host/Port in single-node mode. Exactly one of single-node
// or cluster mode is selected by EnableCluster.
type Config struct {
	URL              string        `yaml:"url"`
	Host             string        `yaml:"host"`
	Port             string        `yaml:"port"`
	Password         string        `yaml:"password"`
	Database         int           `yaml:"database"`
	MaxRetries       int           `yaml:"max_retries"`
	MinRetryBackoff  time.Duration `yaml:"min_retry_backoff"`
	MaxRetryBackoff  time.Duration `yaml:"max_retry_backoff"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	PoolSize         int           `yaml:"pool_size"`
	MinIdleConns     int           `yaml:"min_idle_conns"`
	PoolTimeout      time.Duration `yaml:"pool_timeout"`
	ConnMaxLifetime  time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `yaml:"conn_max_idle_time"`
	EnableCluster    bool          `yaml:"enable_cluster"`
	ClusterAddresses []string      `yaml:"cluster_addresses"`

	// Environment gates maintenance-only operations such as FlushDatabase.
	Environment string `yaml:"environment"`
}

// FromEnv builds a Config from REDIS_* environment variables, falling back
// to defaults suitable for local development. Optional dotenv files are
// loaded first (missing files are ignored, real parse errors are not).
func FromEnv(dotenvFiles ...string) (Config, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("rediskit: load %s: %w", f, err)
		}
	}

	return Config{
		URL:              getEnv("REDIS_URL", ""),
		Host:             getEnv("REDIS_HOST", "localhost"),
		Port:             getEnv("REDIS_PORT", "6379"),
		Password:         getEnv("REDIS_PASSWORD", ""),
		Database:         getEnvInt("REDIS_DB", 0),
		MaxRetries:       getEnvInt("REDIS_MAX_RETRIES", 3),
		MinRetryBackoff:  getEnvDuration("REDIS_MIN_RETRY_BACKOFF", 8*time.Millisecond),
		MaxRetryBackoff:  getEnvDuration("REDIS_MAX_RETRY_BACKOFF", 512*time.Millisecond),
		DialTimeout:      getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:      getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout:     getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		PoolSize:         getEnvInt("REDIS_POOL_SIZE", 20),
		MinIdleConns:     getEnvInt("REDIS_MIN_IDLE_CONNS", 5),
		PoolTimeout:      getEnvDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
		ConnMaxLifetime:  getEnvDuration("REDIS_CONN_MAX_LIFETIME", 0),
		ConnMaxIdleTime:  getEnvDuration("REDIS_CONN_MAX_IDLE_TIME", 5*time.Minute),
		EnableCluster:    getEnvBool("REDIS_ENABLE_CLUSTER", false),
		ClusterAddresses: getEnvStringSlice("REDIS_CLUSTER_ADDRESSES", nil),
		Environment:      getEnv("ENVIRONMENT", "development"),
	}, nil
}

// FromFile reads a YAML config file. Duration fields accept Go duration
// strings ("3s", "512ms").
func FromFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("rediskit: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("rediskit: parse config: %w", err)
	}
	return cfg, nil
}

// yamlConfig mirrors Config with string durations, since yaml.v3 has no
// native time.Duration support.
type yamlConfig struct {
	URL              string   `yaml:"url"`
	Host             string   `yaml:"host"`
	Port             string   `yaml:"port"`
	Password         string   `yaml:"password"`
	Database         int      `yaml:"database"`
	MaxRetries       int      `yaml:"max_retries"`
	MinRetryBackoff  string   `yaml:"min_retry_backoff"`
	MaxRetryBackoff  string   `yaml:"max_retry_backoff"`
	DialTimeout      string   `yaml:"dial_timeout"`
	ReadTimeout      string   `yaml:"read_timeout"`
	WriteTimeout     string   `yaml:"write_timeout"`
	PoolSize         int      `yaml:"pool_size"`
	MinIdleConns     int      `yaml:"min_idle_conns"`
	PoolTimeout      string   `yaml:"pool_timeout"`
	ConnMaxLifetime  string   `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime  string   `yaml:"conn_max_idle_time"`
	EnableCluster    bool     `yaml:"enable_cluster"`
	ClusterAddresses []string `yaml:"cluster_addresses"`
	Environment      string   `yaml:"environment"`
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var y yamlConfig
	if err := node.Decode(&y); err != nil {
		return err
	}

	*c = Config{
		URL:              y.URL,
		Host:             y.Host,
		Port:             y.Port,
		Password:         y.Password,
		Database:         y.Database,
		MaxRetries:       y.MaxRetries,
		PoolSize:         y.PoolSize,
		MinIdleConns:     y.MinIdleConns,
		EnableCluster:    y.EnableCluster,
		ClusterAddresses: y.ClusterAddresses,
		Environment:      y.Environment,
	}

	for _, d := range []struct {
		raw  string
		dest *time.Duration
	}{
		{y.MinRetryBackoff, &c.MinRetryBackoff},
		{y.MaxRetryBackoff, &c.MaxRetryBackoff},
		{y.DialTimeout, &c.DialTimeout},
		{y.ReadTimeout, &c.ReadTimeout},
		{y.WriteTimeout, &c.WriteTimeout},
		{y.PoolTimeout, &c.PoolTimeout},
		{y.ConnMaxLifetime, &c.ConnMaxLifetime},
		{y.ConnMaxIdleTime, &c.ConnMaxIdleTime},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", d.raw, err)
		}
		*d.dest = parsed
	}
	return nil
}

// Addr returns the single-node address in host:port form.
func (c Config) Addr() string {
	return net.JoinHostPort(coalesce(c.Host, "localhost"), coalesce(c.Port, "6379"))
}

// IsProduction reports whether maintenance-only operations must be refused.
func (c Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getEnvStringSlice(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
