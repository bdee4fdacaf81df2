package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, `
jwt:
  secret: test-secret
database:
  url: postgres://localhost/rca_test
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Database.EditWindow)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, 30*time.Second, cfg.WebSocket.HeartbeatInterval)
	assert.Equal(t, "./uploads", cfg.Uploads.Dir)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
jwt:
  secret: test-secret
  expiry: 1h
database:
  url: postgres://localhost/rca_test
  edit_window: 5m
websocket:
  heartbeat_interval: 10s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, 5*time.Minute, cfg.Database.EditWindow)
	assert.Equal(t, 10*time.Second, cfg.WebSocket.HeartbeatInterval)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RCA_JWT_SECRET", "env-secret")
	t.Setenv("RCA_DATABASE_URL", "postgres://localhost/rca_env")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "postgres://localhost/rca_env", cfg.Database.URL)
}

func TestLoadMissingSecret(t *testing.T) {
	t.Setenv("RCA_JWT_SECRET", "")
	t.Setenv("RCA_DATABASE_URL", "postgres://localhost/rca_test")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	t.Setenv("RCA_JWT_SECRET", "test-secret")
	t.Setenv("RCA_DATABASE_URL", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
