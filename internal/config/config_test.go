package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("WORKLOG_CONFIG", "")

	cfg, err := Load("", "/tmp/w.db")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/w.db", cfg.Database.Path)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, 15, cfg.Query.PerPage)
	assert.Equal(t, time.Hour, cfg.MaxInterval())
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "worklog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: 9000
log:
  level: debug
jwt:
  secret_key: from-file
query:
  timezone: Europe/Berlin
`), 0o644))

	t.Setenv("WORKLOG_JWT_SECRET_KEY", "from-env")
	t.Setenv("WORKLOG_CONFIG", path)

	cfg, err := Load("", ":memory:")
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "from-env", cfg.JWT.SecretKey)
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("WORKLOG_CONFIG", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WORKLOG_QUERY_PER_PAGE=40\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("WORKLOG_QUERY_PER_PAGE") })

	cfg, err := Load("", ":memory:")
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Query.PerPage)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load("/nonexistent/config.yaml", ":memory:")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		HTTP:  HTTPConfig{Port: 8080},
		Query: QueryConfig{PerPage: 15, Timezone: "UTC", MaxIntervalHours: 24},
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.HTTP.Port = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.Query.Timezone = "Mars/Olympus"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Query.PerPage = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.HTTP.Mode = "production"
	assert.Error(t, bad.Validate())
}
