package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"CONFIG_FILE", "DATABASE_URL", "JWT_SECRET", "SERVER_HOST", "SERVER_PORT",
	"LOG_LEVEL", "RUST_LOG", "PUBLIC_DIR", "ADMIN_EMAIL", "ADMIN_PASSWORD",
	"DB_MAX_CONNECTIONS", "DB_ACQUIRE_TIMEOUT", "DB_IDLE_TIMEOUT",
	"OIDC_ISSUER", "OIDC_CLIENT_ID", "OIDC_CLIENT_SECRET", "OIDC_REDIRECT_URL", "OIDC_POST_LOGIN_URL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/hyperlocal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "public", cfg.PublicDir)
	assert.True(t, cfg.UsingDefaultSecret())
	assert.False(t, cfg.OIDC.Enabled())

	p := cfg.Pool()
	assert.Equal(t, 10, p.MaxSize)
	assert.Equal(t, 5*time.Second, p.AcquireTimeout)
	assert.Equal(t, 10*time.Minute, p.IdleTimeout)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingDatabaseURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "memory://")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RUST_LOG", "debug")
	t.Setenv("DB_MAX_CONNECTIONS", "2")
	t.Setenv("DB_ACQUIRE_TIMEOUT", "250ms")
	t.Setenv("DB_IDLE_TIMEOUT", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.UsingDefaultSecret())
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2, cfg.DB.MaxConnections)
	assert.Equal(t, 250*time.Millisecond, cfg.DB.AcquireTimeout)
	assert.Equal(t, 30*time.Second, cfg.DB.IdleTimeout)
}

func TestLoad_LogLevelPrefersLOG_LEVEL(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "memory://")
	t.Setenv("RUST_LOG", "debug")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_url: postgres://yaml/db
port: 7000
db:
  max_connections: 4
  acquire_timeout: 2s
oidc:
  issuer: https://auth.example.com
  client_id: hyperlocal
  redirect_url: https://shop.example.com/api/admin/sso/callback
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://yaml/db", cfg.DatabaseURL)
	assert.Equal(t, 7001, cfg.Port)
	assert.Equal(t, 4, cfg.DB.MaxConnections)
	assert.Equal(t, 2*time.Second, cfg.DB.AcquireTimeout)
	assert.Equal(t, 10*time.Minute, cfg.DB.IdleTimeout)
	assert.True(t, cfg.OIDC.Enabled())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SERVER_PORT", "eighty"},
		{"SERVER_PORT", "70000"},
		{"DB_MAX_CONNECTIONS", "0"},
		{"DB_ACQUIRE_TIMEOUT", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DATABASE_URL", "memory://")
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "memory://")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
