package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projecthub/internal/model"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoadFromMemoryDriverSkipsDB(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
storage:
  driver: memory
jwt:
  secret: a-very-long-test-secret
  ttl: 2h
`)

	cfg, err := LoadFrom("test", dir)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Health.CacheTTL)
	assert.Equal(t, "notification.requested.q", cfg.Worker.Queue)
}

func TestLoadFromPostgresNeedsDB(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
storage:
  driver: postgres
jwt:
  secret: a-very-long-test-secret
`)

	_, err := LoadFrom("test", dir)
	assert.Error(t, err)
}

func TestEnvFileOverridesBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
storage:
  driver: memory
jwt:
  secret: short
health:
  cache_ttl: 1m
`)
	writeFile(t, dir, "ci.yaml", `
jwt:
  secret: a-very-long-test-secret
sequence:
  strategy: count
`)

	cfg, err := LoadFrom("ci", dir)
	require.NoError(t, err)
	assert.Equal(t, "a-very-long-test-secret", cfg.JWT.Secret)
	assert.Equal(t, time.Minute, cfg.Health.CacheTTL)
}

func TestStorageDriverFromEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
storage:
  driver: postgres
jwt:
  secret: a-very-long-test-secret
`)
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := LoadFrom("test", dir)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
}

func TestRejectsUnknownValues(t *testing.T) {
	base := Config{
		Storage: StorageConfig{Driver: DriverMemory},
	}
	base.JWT.Secret = "a-very-long-test-secret"
	base.Server.Port = "8080"
	require.NoError(t, base.Validate())

	bad := base
	bad.Storage.Driver = "sqlite"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Sequence.Strategy = "uuid"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Sequence.Strategy = "redis"
	assert.Error(t, bad.Validate())
	bad.Redis.Addr = "localhost:6379"
	assert.NoError(t, bad.Validate())
}

func TestAuthRoles(t *testing.T) {
	a := AuthConfig{
		Approvers: []string{" Boss@Example.com ", "both@example.com"},
		Admins:    []string{"both@example.com"},
	}
	roles := a.Roles()
	assert.Equal(t, model.RoleApprover, roles["boss@example.com"])
	assert.Equal(t, model.RoleAdmin, roles["both@example.com"])
	assert.Len(t, roles, 2)
}
