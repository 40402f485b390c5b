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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, 10*time.Minute, cfg.Hazards.FiresTTL)
	assert.Equal(t, []string{"*"}, cfg.Server.CorsAllowedOrigins)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ZASCITA_SERVER_ADDR", ":9999")
	t.Setenv("ZASCITA_CACHE_BACKEND", "redis")
	t.Setenv("ZASCITA_CACHE_STATS_TTL", "5s")
	t.Setenv("ZASCITA_JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 5*time.Second, cfg.Cache.StatsTTL)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: postgres
  dsn: postgres://zascita@localhost/zascita
hazards:
  fires_url: https://example.org/fires.geojson
  fires_ttl: 1m
storage:
  backend: s3
  s3_bucket: photos
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "https://example.org/fires.geojson", cfg.Hazards.FiresURL)
	assert.Equal(t, time.Minute, cfg.Hazards.FiresTTL)
	assert.Equal(t, "photos", cfg.Storage.S3Bucket)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("ZASCITA_DATABASE_DRIVER", "oracle")
	t.Setenv("ZASCITA_STORAGE_BACKEND", "s3")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver")
	assert.Contains(t, err.Error(), "storage.s3_bucket")
}
