package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withoutEnvFile(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

// unset removes key for the duration of the test; t.Setenv restores it.
func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadDefaults(t *testing.T) {
	withoutEnvFile(t)
	for _, key := range []string{"STORE_DRIVER", "HTTP_ADDR", "MONGO_DATABASE", "NATS_URL", "SHUTDOWN_TIMEOUT"} {
		unset(t, key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "todos", cfg.Mongo.Database)
	assert.Empty(t, cfg.NATS.URL)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
}

func TestLoadReadsEnvFile(t *testing.T) {
	unset(t, "STORE_DRIVER")
	unset(t, "HTTP_ADDR")
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("STORE_DRIVER=memory\nHTTP_ADDR=:9999\n"), 0o600))
	t.Setenv("ENV_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
}

func TestLoadEnvironmentWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("STORE_DRIVER=mongo\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Setenv("STORE_DRIVER", "Memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	withoutEnvFile(t)
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestLoadClampsPoolSizes(t *testing.T) {
	withoutEnvFile(t)
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_MIN_CONNS", "50")
	t.Setenv("DB_MAX_CONNS", "10")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.PG.MaxConns)
	assert.Equal(t, 10, cfg.PG.MinConns)
}
