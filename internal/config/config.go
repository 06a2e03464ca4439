// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Providers ProvidersConfig `mapstructure:"providers"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Blob      BlobConfig      `mapstructure:"blob"`
	Exchange  ExchangeConfig  `mapstructure:"exchange"`
	Mirror    MirrorConfig    `mapstructure:"mirror"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// ProvidersConfig selects backend implementations per concern.
type ProvidersConfig struct {
	Store    string `mapstructure:"store"`    // postgres | memory
	Mirror   string `mapstructure:"mirror"`   // redis | memory
	Notifier string `mapstructure:"notifier"` // pubsub | noop
	Blob     string `mapstructure:"blob"`     // gcs | memory | noop
}

// DBConfig controls access to the authoritative Postgres store.
type DBConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxConns        int32  `mapstructure:"max_conns"`
	MinConns        int32  `mapstructure:"min_conns"`
	ConnLifetimeMin int    `mapstructure:"conn_lifetime_minutes"`
}

// RedisConfig controls access to the mirror store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PubSubConfig holds metadata for the notification topic.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// BlobConfig sets the raw payload archive destination.
type BlobConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// ExchangeConfig bounds the in-process job exchange queue.
type ExchangeConfig struct {
	MaxEntries    int `mapstructure:"max_entries"`
	MaxAgeMinutes int `mapstructure:"max_age_minutes"`
}

// MirrorConfig bounds mirror-store writes and reads.
type MirrorConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	Retries        int `mapstructure:"retries"`
	BackoffMs      int `mapstructure:"backoff_ms"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCRAPER")
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 60)
	v.SetDefault("providers.store", "memory")
	v.SetDefault("providers.mirror", "memory")
	v.SetDefault("providers.notifier", "noop")
	v.SetDefault("providers.blob", "noop")
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.conn_lifetime_minutes", 30)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("exchange.max_entries", 1024)
	v.SetDefault("exchange.max_age_minutes", 60)
	v.SetDefault("mirror.timeout_seconds", 5)
	v.SetDefault("mirror.retries", 2)
	v.SetDefault("mirror.backoff_ms", 500)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Providers.Store == "postgres" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set when providers.store is postgres")
	}
	if c.Providers.Mirror == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr must be set when providers.mirror is redis")
	}
	if c.Providers.Notifier == "pubsub" && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set when providers.notifier is pubsub")
	}
	if c.Providers.Blob == "gcs" && c.Blob.Bucket == "" {
		return fmt.Errorf("blob.bucket must be set when providers.blob is gcs")
	}
	if c.Exchange.MaxEntries <= 0 {
		return fmt.Errorf("exchange.max_entries must be > 0")
	}
	return nil
}

// MirrorTimeout returns the mirror call budget as a duration.
func (c Config) MirrorTimeout() time.Duration {
	return time.Duration(c.Mirror.TimeoutSeconds) * time.Second
}

// MirrorBackoff returns the retry backoff as a duration.
func (c Config) MirrorBackoff() time.Duration {
	return time.Duration(c.Mirror.BackoffMs) * time.Millisecond
}

// ExchangeMaxAge returns the queue entry lifetime as a duration.
func (c Config) ExchangeMaxAge() time.Duration {
	return time.Duration(c.Exchange.MaxAgeMinutes) * time.Minute
}
