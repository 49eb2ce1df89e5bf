package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendBolt, cfg.Store.Backend)
	assert.Equal(t, "todoList", cfg.Store.SnapshotKey)
	assert.Equal(t, 5, cfg.Seed.Limit)
	assert.True(t, cfg.Seed.Enabled)
	assert.Equal(t, "https://jsonplaceholder.typicode.com/todos", cfg.Seed.URL)
	assert.Equal(t, "127.0.0.1:8080", cfg.Address())
	assert.Equal(t, "postgres://tasklist:@localhost:5432/tasklist?sslmode=disable", cfg.Database.URL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("SNAPSHOT_KEY", "tasks")
	t.Setenv("SEED_ENABLED", "false")
	t.Setenv("SEED_LIMIT", "20")
	t.Setenv("SYNC_INTERVAL_SECONDS", "90")
	t.Setenv("SEED_TIMEOUT_SECONDS", "2s")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "tasks", cfg.Store.SnapshotKey)
	assert.False(t, cfg.Seed.Enabled)
	assert.Equal(t, 20, cfg.Seed.Limit)
	assert.Equal(t, 90*time.Second, cfg.Store.SyncInterval)
	assert.Equal(t, 2*time.Second, cfg.Seed.Timeout)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.Database.URL)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	for name, env := range map[string][2]string{
		"backend":    {"STORE_BACKEND", "sqlite"},
		"seed limit": {"SEED_LIMIT", "0"},
		"interval":   {"SYNC_INTERVAL_SECONDS", "0"},
	} {
		t.Run(name, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(env[0], env[1])

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
