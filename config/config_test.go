package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
server:
  host: 127.0.0.1
  port: 8080
  allowed_origins: [http://localhost:3000]
  read_timeout: 10s
database:
  username: postgres
  password: "007"
  host: db
  port: 5432
  database: app
redis:
  host: cache
  port: 6379
oauth:
  issuer: https://issuer.example.com/
  audience: https://api.example.com
  jwks_url: https://issuer.example.com/.well-known/jwks.json
  userinfo_url: https://issuer.example.com/userinfo
log:
  level: info
  format: json
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	s, err := LoadFile(writeFile(t, dir, "base.yml", baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", s.Server.Address())
	assert.Equal(t, []string{"http://localhost:3000"}, s.Server.AllowedOrigins)
	assert.Equal(t, 10*time.Second, s.Server.ReadTimeout)
	assert.Equal(t, "007", s.Database.Password)
	assert.Equal(t, "cache:6379", s.Redis.Addr())
	assert.Equal(t, "https://api.example.com", s.OAuth.Audience)
	assert.Empty(t, s.Auth.Secret)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadDirOverlaysEnvironmentFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yml", baseYAML)
	writeFile(t, dir, "production.yml", "server:\n  host: 0.0.0.0\nlog:\n  level: warn\n")

	s, err := LoadDir(dir, "production", nil)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", s.Server.Host)
	assert.Equal(t, 8080, s.Server.Port)
	assert.Equal(t, "warn", s.Log.Level)
	assert.Equal(t, "json", s.Log.Format)
}

func TestLoadDirEnvironmentFileIsOptional(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yml", baseYAML)

	s, err := LoadDir(dir, "staging", nil)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", s.Server.Host)
}

func TestLoadDirRequiresBase(t *testing.T) {
	_, err := LoadDir(t.TempDir(), "local", nil)
	assert.Error(t, err)
}

func TestLoadDirAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yml", baseYAML)
	writeFile(t, dir, "local.yml", "server:\n  port: 9000\n")

	s, err := LoadDir(dir, "local", []string{
		"APP_SERVER_PORT=9100",
		"APP_SERVER_ALLOWED_ORIGINS=https://a.example.com, https://b.example.com",
		"APP_DATABASE_PASSWORD=0123",
		"APP_AUTH_SECRET=s3cret",
		"APP_REDIS_DB=2",
		"OTHER_SERVER_PORT=1",
		"APP_BROKEN",
	})
	require.NoError(t, err)
	assert.Equal(t, 9100, s.Server.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, s.Server.AllowedOrigins)
	assert.Equal(t, "0123", s.Database.Password)
	assert.Equal(t, "s3cret", s.Auth.Secret)
	assert.Equal(t, 2, s.Redis.DB)
}

func TestValidationFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yml", baseYAML)

	cases := map[string][]string{
		"port range":   {"APP_SERVER_PORT=70000"},
		"jwks url":     {"APP_OAUTH_JWKS_URL=not a url"},
		"log level":    {"APP_LOG_LEVEL=loud"},
		"missing host": {"APP_DATABASE_HOST="},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadDir(dir, "", env)
			assert.ErrorContains(t, err, "validation failed")
		})
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseSettings{Username: "app", Password: "p@ss word", Host: "db", Port: 5432, Database: "main"}
	assert.Equal(t, "postgres://app:p%40ss%20word@db:5432/main?sslmode=disable", d.DSN())
	assert.NotContains(t, d.String(), "p@ss")

	d.SSLMode = "require"
	assert.Contains(t, d.DSN(), "sslmode=require")
}

func TestDirFallsBackToDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	assert.Equal(t, DefaultDir, Dir())
}

func TestDirPrefersUserConfigDir(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	t.Setenv("HOME", base)
	userDir, err := os.UserConfigDir()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(userDir, appDirName), 0o755))

	assert.Equal(t, filepath.Join(userDir, appDirName), Dir())
}
