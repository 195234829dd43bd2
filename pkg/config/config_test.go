package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, NoLimit, cfg.Corpus.Limit)
	assert.Equal(t, "test data", cfg.Corpus.Dir)
	assert.Equal(t, "queries.txt", cfg.Corpus.QueryFile)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
	assert.False(t, cfg.Postgres.Enabled)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
corpus:
  dir: pages
  queryFile: pages/queries.txt
  limit: 5
  workers: 2
redis:
  enabled: true
  cacheTTL: 2m
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pages", cfg.Corpus.Dir)
	assert.Equal(t, 5, cfg.Corpus.Limit)
	assert.Equal(t, 2, cfg.Corpus.Workers)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr, "unset fields keep defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WS_CORPUS_DIR", "/srv/pages")
	t.Setenv("WS_CORPUS_LIMIT", "3")
	t.Setenv("WS_KAFKA_ENABLED", "true")
	t.Setenv("WS_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("WS_POSTGRES_ENABLED", "not-a-bool")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/srv/pages", cfg.Corpus.Dir)
	assert.Equal(t, 3, cfg.Corpus.Limit)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Postgres.Enabled)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("corpus: [not, a, map]"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"positive limit", func(c *Config) { c.Corpus.Limit = 7 }, false},
		{"zero limit", func(c *Config) { c.Corpus.Limit = 0 }, true},
		{"negative limit", func(c *Config) { c.Corpus.Limit = -2 }, true},
		{"no workers", func(c *Config) { c.Corpus.Workers = 0 }, true},
		{"no max results", func(c *Config) { c.Search.MaxResults = 0 }, true},
		{"rate limit enabled", func(c *Config) { c.Server.RateLimit.Enabled = true }, false},
		{"rate limit without window", func(c *Config) {
			c.Server.RateLimit.Enabled = true
			c.Server.RateLimit.Window = 0
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := defaultConfig().Postgres
	assert.Equal(t,
		"host=localhost port=5432 user=webpagesearch password=localdev dbname=webpagesearch sslmode=disable",
		p.DSN())
}
