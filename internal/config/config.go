// Package config loads and validates inspector configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
)

// Archive backends.
const (
	ArchiveNone   = "none"
	ArchiveMemory = "memory"
	ArchiveLocal  = "local"
	ArchiveGCS    = "gcs"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Store   StoreConfig   `mapstructure:"store"`
	Archive ArchiveConfig `mapstructure:"archive"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Logging LoggingConfig `mapstructure:"logging"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// HTTPConfig configures the page fetcher.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
	MaxBodyBytes   int    `mapstructure:"max_body_bytes"`
	DetectCharset  bool   `mapstructure:"detect_charset"`
	// RatePerHost caps fetches per second to one host; 0 disables the limiter.
	RatePerHost float64 `mapstructure:"rate_per_host"`
	RateBurst   int     `mapstructure:"rate_burst"`
}

// StoreConfig selects and configures the record store.
type StoreConfig struct {
	Backend  string         `mapstructure:"backend"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig controls the pgx pool.
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// SQLiteConfig points at the database file.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig selects the Redis server.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// ArchiveConfig controls optional raw-HTML snapshots.
type ArchiveConfig struct {
	Backend     string             `mapstructure:"backend"`
	Prefix      string             `mapstructure:"prefix"`
	ContentType string             `mapstructure:"content_type"`
	Local       LocalArchiveConfig `mapstructure:"local"`
	GCS         GCSArchiveConfig   `mapstructure:"gcs"`
}

// LocalArchiveConfig roots snapshots on disk.
type LocalArchiveConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// GCSArchiveConfig names the snapshot bucket.
type GCSArchiveConfig struct {
	Bucket string `mapstructure:"bucket"`
}

// PubSubConfig holds metadata for record notifications. Empty TopicName disables them.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// TracingConfig controls the OpenTelemetry tracer provider.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WEBLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Every key gets a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("http.timeout_seconds", 5)
	v.SetDefault("http.user_agent", "Mozilla/5.0 (Windows NT 6.2; WOW64)")
	v.SetDefault("http.max_body_bytes", 10*1024*1024)
	v.SetDefault("http.detect_charset", false)
	v.SetDefault("http.rate_per_host", 0)
	v.SetDefault("http.rate_burst", 1)
	v.SetDefault("store.backend", StoreMemory)
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("store.postgres.table", "weblinks")
	v.SetDefault("store.postgres.max_conns", 4)
	v.SetDefault("store.postgres.min_conns", 0)
	v.SetDefault("store.postgres.max_conn_lifetime", time.Hour)
	v.SetDefault("store.sqlite.path", "weblinks.db")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.key_prefix", "weblink:")
	v.SetDefault("archive.backend", ArchiveNone)
	v.SetDefault("archive.prefix", "snapshots")
	v.SetDefault("archive.content_type", "text/html; charset=utf-8")
	v.SetDefault("archive.local.base_dir", "snapshots")
	v.SetDefault("archive.gcs.bucket", "")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "weblink-inspector")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxBodyBytes < 0 {
		return fmt.Errorf("http.max_body_bytes must be >= 0")
	}
	if c.HTTP.RatePerHost < 0 {
		return fmt.Errorf("http.rate_per_host must be >= 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StorePostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn must be set for the postgres backend")
		}
	case StoreSQLite:
		if c.Store.SQLite.Path == "" {
			return fmt.Errorf("store.sqlite.path must be set for the sqlite backend")
		}
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr must be set for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}

	switch c.Archive.Backend {
	case ArchiveNone, ArchiveMemory:
	case ArchiveLocal:
		if c.Archive.Local.BaseDir == "" {
			return fmt.Errorf("archive.local.base_dir must be set for the local archive")
		}
	case ArchiveGCS:
		if c.Archive.GCS.Bucket == "" {
			return fmt.Errorf("archive.gcs.bucket must be set for the gcs archive")
		}
	default:
		return fmt.Errorf("unknown archive.backend %q", c.Archive.Backend)
	}

	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	return nil
}

// FetchTimeout converts the HTTP timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
