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
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFromFileWithDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
session:
  secret: file-secret
  ttl: 2h
access:
  scope_to_active_clinic: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "file-secret", cfg.Session.Secret)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.Access.ScopeToActiveClinic)
	assert.Equal(t, "c1", cfg.Access.FallbackClinic)
	assert.Equal(t, 30*time.Minute, cfg.Consent.DraftTTL)
	assert.Equal(t, "clinic.", cfg.Events.ChannelPrefix)
	assert.Equal(t, 40, cfg.RateLimit.Burst)
	assert.Equal(t, int64(256<<10), cfg.Server.MaxBodySize)
	assert.Equal(t, int64(4<<20), cfg.Server.MaxSignatureSize)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
session:
  secret: file-secret
`)
	t.Setenv("CLINIC_SESSION_SECRET", "env-secret")
	t.Setenv("CLINIC_ACCESS_FALLBACK_CLINIC", "c2")
	t.Setenv("CLINIC_RATE_LIMIT_ENABLED", "false")
	t.Setenv("CLINIC_CONSENT_DRAFT_TTL", "5m")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Session.Secret)
	assert.Equal(t, "c2", cfg.Access.FallbackClinic)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Consent.DraftTTL)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "session.secret")
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
