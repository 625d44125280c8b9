// Package config loads the stayadmin configuration file.
//
// Values come from ~/.stayadmin/config.yaml (or an explicit path), then
// STAYADMIN_* environment variables override individual keys.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/stayadmin/internal/errors"
	"github.com/felixgeelhaar/stayadmin/internal/log"
	"github.com/felixgeelhaar/stayadmin/internal/platform"
	"github.com/felixgeelhaar/stayadmin/internal/route"
	"github.com/felixgeelhaar/stayadmin/internal/telemetry"
)

// Credential backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Environment overrides.
const (
	EnvAPIURL            = "STAYADMIN_API_URL"
	EnvHome              = "STAYADMIN_HOME"
	EnvCredentialBackend = "STAYADMIN_CREDENTIAL_BACKEND"
	EnvRedisAddr         = "STAYADMIN_REDIS_ADDR"
	EnvLogLevel          = "STAYADMIN_LOG_LEVEL"
	EnvReadyTimeout      = "STAYADMIN_READY_TIMEOUT"
)

// Config is the full stayadmin configuration.
type Config struct {
	API         APIConfig         `yaml:"api" json:"api"`
	Credentials CredentialsConfig `yaml:"credentials" json:"credentials"`
	Session     SessionConfig     `yaml:"session" json:"session"`
	Routes      route.Table       `yaml:"routes" json:"routes"`
	Server      ServerConfig      `yaml:"server" json:"server"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
	Telemetry   telemetry.Config  `yaml:"telemetry" json:"telemetry"`
}

// APIConfig locates the booking platform's REST API.
type APIConfig struct {
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	LoginPath   string        `yaml:"login_path" json:"login_path"`
	ProfilePath string        `yaml:"profile_path" json:"profile_path"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	Retries     int           `yaml:"retries" json:"retries"`
}

// CredentialsConfig selects where the credential is kept.
type CredentialsConfig struct {
	Backend   string `yaml:"backend" json:"backend"`
	Dir       string `yaml:"dir,omitempty" json:"dir,omitempty"`
	RedisAddr string `yaml:"redis_addr,omitempty" json:"redis_addr,omitempty"`
	RedisDB   int    `yaml:"redis_db,omitempty" json:"redis_db,omitempty"`
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	// Cookies keeps the cookie jar fallback next to the primary backend.
	Cookies bool `yaml:"cookies" json:"cookies"`
}

// SessionConfig tunes the session manager.
type SessionConfig struct {
	// KeepOnUnreachable keeps an authenticated session when a refresh cannot
	// reach the identity endpoint.
	KeepOnUnreachable bool `yaml:"keep_on_unreachable" json:"keep_on_unreachable"`
	// ReadyTimeout bounds how long a command waits for the stored
	// credential to resolve. Zero waits as long as the command runs.
	ReadyTimeout time.Duration `yaml:"ready_timeout" json:"ready_timeout"`
}

// ServerConfig configures the local gateway.
type ServerConfig struct {
	Address         string        `yaml:"address" json:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// LoggingConfig mirrors log.Config in file form.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "http://localhost:8000",
			LoginPath:   platform.DefaultLoginPath,
			ProfilePath: platform.DefaultProfilePath,
			Timeout:     15 * time.Second,
			Retries:     2,
		},
		Credentials: CredentialsConfig{
			Backend:   BackendFile,
			Namespace: "default",
			Cookies:   true,
		},
		Session: SessionConfig{
			ReadyTimeout: 45 * time.Second,
		},
		Routes: route.DefaultTable(),
		Server: ServerConfig{
			Address:         "127.0.0.1:8787",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Telemetry: telemetry.DefaultConfig(),
	}
}

// HomeDir returns the stayadmin state directory: $STAYADMIN_HOME, or
// ~/.stayadmin.
func HomeDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".stayadmin"), nil
}

// DefaultPath returns the default configuration file path.
func DefaultPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads path, or the default path when empty. A missing file yields the
// defaults. Environment overrides are applied and the result validated.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigLoad, "cannot locate configuration", err)
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.NewFileUnmarshalError(path, "YAML", err)
		}
	case os.IsNotExist(err):
		if explicit {
			return nil, errors.NewFileNotFoundError(path)
		}
	default:
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read %s", path), err)
	}

	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating the directory.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileMarshal, "failed to marshal config", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeDirectoryFailed, "failed to create config directory", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to write config", err)
	}
	return nil
}

// ApplyEnv overrides keys from the environment. getenv is os.Getenv outside
// tests.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := getenv(EnvHome); v != "" && c.Credentials.Dir == "" {
		c.Credentials.Dir = v
	}
	if v := getenv(EnvCredentialBackend); v != "" {
		c.Credentials.Backend = strings.ToLower(v)
	}
	if v := getenv(EnvRedisAddr); v != "" {
		c.Credentials.RedisAddr = v
		if getenv(EnvCredentialBackend) == "" {
			c.Credentials.Backend = BackendRedis
		}
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if d, err := time.ParseDuration(getenv(EnvReadyTimeout)); err == nil {
		c.Session.ReadyTimeout = d
	}
}

// LogConfig builds a logger configuration on top of base.
func (c *Config) LogConfig(base log.Config) log.Config {
	if c.Logging.Level != "" {
		base.Level = log.ParseLevel(c.Logging.Level)
	}
	if c.Logging.Format != "" {
		base.Format = log.ParseFormat(c.Logging.Format)
	}
	return base
}

// CredentialDir returns the directory holding the credential file and
// cookie jar.
func (c *Config) CredentialDir() (string, error) {
	if c.Credentials.Dir != "" {
		return c.Credentials.Dir, nil
	}
	return HomeDir()
}

// Validate reports the first invalid value as a CONFIG error.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.NewConfigInvalidError(fmt.Sprintf("api.base_url %q is not an absolute URL", c.API.BaseURL))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.NewConfigInvalidError(fmt.Sprintf("api.base_url scheme %q is not http or https", u.Scheme))
	}
	if !strings.HasPrefix(c.API.LoginPath, "/") || !strings.HasPrefix(c.API.ProfilePath, "/") {
		return errors.NewConfigInvalidError("api.login_path and api.profile_path must start with /")
	}
	if c.API.Timeout < 0 {
		return errors.NewConfigInvalidError("api.timeout must not be negative")
	}
	if c.Session.ReadyTimeout < 0 {
		return errors.NewConfigInvalidError("session.ready_timeout must not be negative")
	}
	if c.API.Retries < 0 || c.API.Retries > 10 {
		return errors.NewConfigInvalidError("api.retries must be between 0 and 10, got " + strconv.Itoa(c.API.Retries))
	}

	switch c.Credentials.Backend {
	case BackendFile, BackendMemory:
	case BackendRedis:
		if c.Credentials.RedisAddr == "" {
			return errors.NewConfigInvalidError("credentials.redis_addr is required for the redis backend")
		}
	default:
		return errors.NewConfigInvalidError(fmt.Sprintf("credentials.backend %q must be one of file, redis, memory", c.Credentials.Backend))
	}

	if err := c.Routes.Validate(); err != nil {
		return errors.NewConfigInvalidError("routes: " + err.Error())
	}
	if c.Server.Address == "" {
		return errors.NewConfigInvalidError("server.address is empty")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return errors.NewConfigInvalidError(fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return errors.NewConfigInvalidError(fmt.Sprintf("logging.format %q is not text or json", c.Logging.Format))
	}

	if err := c.Telemetry.Validate(); err != nil {
		return errors.NewConfigInvalidError(err.Error())
	}
	return nil
}
