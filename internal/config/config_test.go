package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tada.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.Client.ServerURL)
	assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StorageJSON, cfg.Server.Storage)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadFileAndEnv(t *testing.T) {
	p := writeConfig(t, `
client:
  server_url: http://todo.internal:9000
  timeout: 3s
  theme: neon
server:
  port: 9000
  storage: SQLite
  sqlite_path: /tmp/x.sqlite3
`)
	t.Setenv("TADA_SERVER_PORT", "9100")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "http://todo.internal:9000", cfg.Client.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "neon", cfg.Client.Theme)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, StorageSQLite, cfg.Server.Storage)
	assert.Equal(t, "/tmp/x.sqlite3", cfg.Server.SQLitePath)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown storage", "server:\n  storage: pebble\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"negative rate", "server:\n  rate_limit: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
