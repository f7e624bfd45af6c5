package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoadIntoMergesEnvironmentFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
db:
  host: localhost
  port: 5432
  slow_threshold: 100ms
server:
  port: ":8080"
jwt:
  secret: ${APP_SECRET}
`)
	writeFile(t, dir, "staging.yaml", `
db:
  host: db.staging
`)
	writeFile(t, dir, "secrets.env", `
# comment
APP_SECRET="from-secrets-file"
`)

	var out struct {
		DB     DBConfig     `yaml:"db"`
		Server ServerConfig `yaml:"server"`
		JWT    JWTConfig    `yaml:"jwt"`
	}
	require.NoError(t, LoadInto("staging", dir, &out))

	assert.Equal(t, "db.staging", out.DB.Host)
	assert.Equal(t, 5432, out.DB.Port)
	assert.Equal(t, 100*time.Millisecond, out.DB.SlowThreshold)
	assert.Equal(t, ":8080", out.Server.Port)
	assert.Equal(t, "from-secrets-file", out.JWT.Secret)
}

func TestLoadConfigSubstitutesProcessEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "mq:\n  url: ${PROJECTHUB_TEST_MQ}\n")
	t.Setenv("PROJECTHUB_TEST_MQ", "amqp://guest@mq:5672/")

	var out struct {
		MQ MQConfig `yaml:"mq"`
	}
	require.NoError(t, LoadInto("", dir, &out))
	assert.Equal(t, "amqp://guest@mq:5672/", out.MQ.URL)
}

func TestLoadConfigMissingBase(t *testing.T) {
	_, err := LoadConfig("local", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base.yaml")
}

func TestOverrideDBFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("DB_PORT", "6543")
	cfg := DBConfig{Host: "localhost", Port: 5432}

	OverrideDBFromEnv(&cfg)

	assert.Equal(t, "pg.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
}
