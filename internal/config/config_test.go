package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Providers.Store)
	assert.Equal(t, "memory", cfg.Providers.Mirror)
	assert.Equal(t, "noop", cfg.Providers.Notifier)
	assert.Equal(t, 1024, cfg.Exchange.MaxEntries)
	assert.Equal(t, 5*time.Second, cfg.MirrorTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.MirrorBackoff())
	assert.Equal(t, time.Hour, cfg.ExchangeMaxAge())
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
providers:
  store: postgres
db:
  dsn: postgres://localhost:5432/scraper
exchange:
  max_entries: 16
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Providers.Store)
	assert.Equal(t, "postgres://localhost:5432/scraper", cfg.DB.DSN)
	assert.Equal(t, 16, cfg.Exchange.MaxEntries)
	assert.Equal(t, 60, cfg.Exchange.MaxAgeMinutes, "file values merge over defaults")
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func(t *testing.T) Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.Providers.Store = "postgres" },
			wantErr: "db.dsn",
		},
		{
			name: "redis without addr",
			mutate: func(c *Config) {
				c.Providers.Mirror = "redis"
				c.Redis.Addr = ""
			},
			wantErr: "redis.addr",
		},
		{
			name:    "pubsub without project",
			mutate:  func(c *Config) { c.Providers.Notifier = "pubsub" },
			wantErr: "pubsub.project_id",
		},
		{
			name:    "gcs without bucket",
			mutate:  func(c *Config) { c.Providers.Blob = "gcs" },
			wantErr: "blob.bucket",
		},
		{
			name:    "zero exchange capacity",
			mutate:  func(c *Config) { c.Exchange.MaxEntries = 0 },
			wantErr: "exchange.max_entries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
