package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"Recurra/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RECURRA_CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("GENERATION_WORKERS", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 4, cfg.Generation.Workers)
	assert.Equal(t, "0 6 * * *", cfg.Generation.Schedule)
	assert.Equal(t, 30*time.Second, cfg.Redis.LockTTL)
	assert.Contains(t, cfg.Database.DSN, "dbname=recurra")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("RECURRA_CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "MONGO")
	t.Setenv("GENERATION_WORKERS", "8")
	t.Setenv("GENERATION_TIMEZONE", "America/Sao_Paulo")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_LOCK_TTL", "45s")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DriverMongo, cfg.Database.Driver)
	assert.Equal(t, 8, cfg.Generation.Workers)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 45*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.Database.DSN)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", loc.String())
}

func TestLoadOverlaysYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recurra.yaml")
	content := []byte(`
database:
  driver: Memory
generation:
  schedule: "*/5 * * * *"
  include_overdue: false
  workers: 2
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("RECURRA_CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "*/5 * * * *", cfg.Generation.Schedule)
	assert.False(t, cfg.Generation.IncludeOverdue)
	assert.Equal(t, 2, cfg.Generation.Workers)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver": {"DB_DRIVER": "sqlite"},
		"zero workers":   {"GENERATION_WORKERS": "0"},
		"bad timezone":   {"GENERATION_TIMEZONE": "Mars/Olympus"},
		"zero lock ttl":  {"REDIS_ENABLED": "true", "REDIS_LOCK_TTL": "0s"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("RECURRA_CONFIG_FILE", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadFailsOnMissingConfigFile(t *testing.T) {
	t.Setenv("RECURRA_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := config.Load()
	assert.Error(t, err)
}
