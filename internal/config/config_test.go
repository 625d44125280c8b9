package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stayadmin/internal/errors"
	"github.com/felixgeelhaar/stayadmin/internal/log"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().API, cfg.API)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeFileNotFound, appErr.Code)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://api.stays.example
  timeout: 5s
  retries: 1
credentials:
  backend: memory
session:
  keep_on_unreachable: true
  ready_timeout: 3s
routes:
  home: /admin/bookings
  public: [/admin/login, /admin/reset/*]
logging:
  level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.stays.example", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 1, cfg.API.Retries)
	assert.Equal(t, "/api/admin/login", cfg.API.LoginPath, "unset keys keep their defaults")
	assert.Equal(t, BackendMemory, cfg.Credentials.Backend)
	assert.True(t, cfg.Session.KeepOnUnreachable)
	assert.Equal(t, 3*time.Second, cfg.Session.ReadyTimeout)
	assert.Equal(t, "/admin/bookings", cfg.Routes.Home)
	assert.Equal(t, []string{"/admin/login", "/admin/reset/*"}, cfg.Routes.Public)
	assert.Equal(t, "/admin/login", cfg.Routes.Login)
	assert.Equal(t, log.LevelDebug, cfg.LogConfig(log.DefaultConfig()).Level)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0o600))

	_, err := Load(path)
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeFileUnmarshal, appErr.Code)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvAPIURL:       "https://staging.stays.example",
		EnvHome:         "/var/lib/stayadmin",
		EnvRedisAddr:    "redis:6379",
		EnvLogLevel:     "error",
		EnvReadyTimeout: "5s",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "https://staging.stays.example", cfg.API.BaseURL)
	assert.Equal(t, "/var/lib/stayadmin", cfg.Credentials.Dir)
	assert.Equal(t, BackendRedis, cfg.Credentials.Backend, "a redis address selects the redis backend")
	assert.Equal(t, "redis:6379", cfg.Credentials.RedisAddr)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 5*time.Second, cfg.Session.ReadyTimeout)

	env[EnvCredentialBackend] = "FILE"
	cfg = Default()
	cfg.ApplyEnv(func(k string) string { return env[k] })
	assert.Equal(t, BackendFile, cfg.Credentials.Backend)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative base url", func(c *Config) { c.API.BaseURL = "api.example" }},
		{"ftp base url", func(c *Config) { c.API.BaseURL = "ftp://api.example" }},
		{"login path without slash", func(c *Config) { c.API.LoginPath = "login" }},
		{"negative timeout", func(c *Config) { c.API.Timeout = -time.Second }},
		{"negative ready timeout", func(c *Config) { c.Session.ReadyTimeout = -time.Second }},
		{"too many retries", func(c *Config) { c.API.Retries = 50 }},
		{"unknown backend", func(c *Config) { c.Credentials.Backend = "keychain" }},
		{"redis without address", func(c *Config) { c.Credentials.Backend = BackendRedis }},
		{"empty routes", func(c *Config) { c.Routes.Protected = nil }},
		{"empty server address", func(c *Config) { c.Server.Address = "" }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad sample rate", func(c *Config) { c.Telemetry.SampleRate = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, errors.ErrCodeConfigInvalid, appErr.Code)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.API.BaseURL = "https://api.stays.example"
	cfg.Credentials.Backend = BackendMemory

	require.NoError(t, Save(cfg, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.API, loaded.API)
	assert.Equal(t, cfg.Routes, loaded.Routes)
	assert.Equal(t, cfg.Server, loaded.Server)
}

func TestCredentialDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)

	cfg := Default()
	dir, err := cfg.CredentialDir()
	require.NoError(t, err)
	assert.Equal(t, home, dir)

	cfg.Credentials.Dir = "/elsewhere"
	dir, err = cfg.CredentialDir()
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere", dir)
}
