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
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, Duration(time.Hour), cfg.Auth.TokenTTL)
	assert.Equal(t, "test-secret", cfg.Auth.Secret)
	assert.Empty(t, cfg.NATS.URL)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadYAMLFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
  read_timeout: 5s
auth:
  secret: file-secret
  token_ttl: 30m
nats:
  url: nats://localhost:4222
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, Duration(5*time.Second), cfg.Server.ReadTimeout)
	assert.Equal(t, "file-secret", cfg.Auth.Secret)
	assert.Equal(t, Duration(30*time.Minute), cfg.Auth.TokenTTL)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("PORT", "7000")
	t.Setenv("TOKEN_TTL", "15m")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
auth:
  secret: file-secret
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "env-secret", cfg.Auth.Secret)
	assert.Equal(t, Duration(15*time.Minute), cfg.Auth.TokenTTL)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
