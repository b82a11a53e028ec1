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

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 30, cfg.Seed.Plants)
	assert.Equal(t, 100, cfg.Seed.RTUs)
	assert.Equal(t, 10, cfg.Query.PlantPageSize)
	assert.Equal(t, 20, cfg.Query.RTUPageSize)
	assert.Equal(t, 3*time.Second, cfg.Telemetry.MinInterval)
	assert.Equal(t, 8*time.Second, cfg.Telemetry.MaxInterval)
	assert.Len(t, cfg.Telemetry.Devices, 5)
	assert.Equal(t, 70, cfg.Telemetry.StatusWeights["online"])
	assert.Equal(t, "file", cfg.History.Backend)
	assert.Equal(t, 50, cfg.History.RecentLimit)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  http_port: 9090
log:
  format: console
seed:
  plants: 5
telemetry:
  devices: ["A", "B"]
  min_interval: 100ms
  max_interval: 200ms
auth:
  enabled: true
  users:
    - username: kim
      password_hash: "$argon2id$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("PLANTDECK_SEED_RTUS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 5, cfg.Seed.Plants)
	assert.Equal(t, 7, cfg.Seed.RTUs)
	assert.Equal(t, []string{"A", "B"}, cfg.Telemetry.Devices)
	assert.Equal(t, 100*time.Millisecond, cfg.Telemetry.MinInterval)
	require.Len(t, cfg.Auth.Users, 1)
	assert.Equal(t, "kim", cfg.Auth.Users[0].Username)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("history:\n  backend: s3\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, Database: "pd", User: "u", Password: "p"}
	assert.Equal(t, "postgres://u:p@db:5432/pd?sslmode=disable", db.DSN())
}

func TestJWTSecretFallback(t *testing.T) {
	a := AuthConfig{JWTSecretEnv: "PLANTDECK_TEST_SECRET"}
	t.Setenv("PLANTDECK_TEST_SECRET", "")
	assert.Equal(t, devJWTSecret, a.GetJWTSecret())
	assert.False(t, a.IsProductionReady())

	t.Setenv("PLANTDECK_TEST_SECRET", "0123456789abcdef0123456789abcdef")
	assert.True(t, a.IsProductionReady())
}

func TestDevAdminPassword(t *testing.T) {
	var a AuthConfig
	t.Setenv(adminPassword, "")
	user, pass := a.DevAdminPassword()
	assert.Equal(t, "admin", user)
	assert.Equal(t, "admin", pass)

	t.Setenv(adminPassword, "s3cret")
	_, pass = a.DevAdminPassword()
	assert.Equal(t, "s3cret", pass)
}

func TestMatchOrigin(t *testing.T) {
	cases := []struct {
		allowed  []string
		origin   string
		ok       bool
		wildcard bool
	}{
		{[]string{"http://localhost:3000"}, "http://localhost:3000", true, false},
		{[]string{"*.plantdeck.io"}, "https://ops.plantdeck.io", true, false},
		{[]string{"https://plantdeck.io"}, "https://evil.io", false, false},
		{[]string{"*"}, "http://a.test", true, true},
		{[]string{"*", "http://a.test"}, "http://a.test", true, false},
		{nil, "http://a.test", false, false},
	}
	for _, tc := range cases {
		ok, wildcard := MatchOrigin(tc.allowed, tc.origin)
		assert.Equal(t, tc.ok, ok, tc.origin)
		assert.Equal(t, tc.wildcard, wildcard, tc.origin)
	}
}
