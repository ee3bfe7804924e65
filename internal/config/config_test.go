package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
env: dev
roster_path: data/students.txt
autoload: true
http_server:
  address: localhost:8082
backup:
  sqlite_path: data/backup.db
  redis:
    address: localhost:6379
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "data/students.txt", cfg.RosterPath)
	assert.Equal(t, ".", cfg.DataDir)
	assert.True(t, cfg.AutoLoad)
	assert.False(t, cfg.AutoSave)
	assert.Equal(t, "localhost:8082", cfg.Addr)
	assert.Equal(t, "data/backup.db", cfg.Backup.SQLitePath)
	assert.Equal(t, "localhost:6379", cfg.Backup.Redis.Addr)
	assert.Equal(t, "roster:students", cfg.Backup.Redis.Key)
	assert.Equal(t, "students.txt.zst", cfg.Backup.ObjectStore.Object)
	assert.True(t, cfg.Backup.ObjectStore.Secure)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
env: dev
roster_path: students.txt
http_server:
  address: localhost:8082
`)
	t.Setenv("ENV", "prod")
	t.Setenv("HTTP_SERVER_ADDR", "0.0.0.0:9000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
}

func TestLoadMissingRequired(t *testing.T) {
	path := writeConfig(t, `
env: dev
http_server:
  address: localhost:8082
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "config file does not exist")
}
