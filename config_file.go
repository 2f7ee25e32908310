package goSession

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables applied over file configuration.
const (
	EnvIdentityURL  = "GOSESSION_IDENTITY_URL"
	EnvAPIKey       = "GOSESSION_API_KEY"
	EnvDeviceSecret = "GOSESSION_DEVICE_SECRET"
)

// FileConfig is the on-disk configuration of a session client. It carries the Manager
// [Config] plus the wiring a process needs to construct the store and identity service.
//
// Resolution order:
//  1. DefaultFileConfig values
//  2. the YAML file (only keys present override)
//  3. environment variables (EnvIdentityURL, EnvAPIKey, EnvDeviceSecret)
type FileConfig struct {
	Store         FileStoreConfig        `yaml:"store"`
	Identity      FileIdentityConfig     `yaml:"identity"`
	Init          FileInitConfig         `yaml:"init"`
	Notifications FileNotificationConfig `yaml:"notifications"`
	Audit         FileAuditConfig        `yaml:"audit"`
	Metrics       FileMetricsConfig      `yaml:"metrics"`
	Log           FileLogConfig          `yaml:"log"`
}

// FileStoreConfig selects and configures the credential store backend.
type FileStoreConfig struct {
	// Backend is one of "file", "sqlite", "redis", "memory".
	Backend   string        `yaml:"backend"`
	Key       string        `yaml:"key"`
	OpTimeout time.Duration `yaml:"op_timeout"`

	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`

	RedisAddr   string        `yaml:"redis_addr"`
	RedisDB     int           `yaml:"redis_db"`
	RedisPrefix string        `yaml:"redis_prefix"`
	Device      string        `yaml:"device"`
	RedisTTL    time.Duration `yaml:"redis_ttl"`

	// Encrypt seals stored values with a key derived from DeviceSecret and Salt.
	Encrypt      bool   `yaml:"encrypt"`
	DeviceSecret string `yaml:"device_secret"`
	Salt         string `yaml:"salt"`
}

// FileIdentityConfig configures the identity service client.
type FileIdentityConfig struct {
	URL           string        `yaml:"url"`
	APIKey        string        `yaml:"api_key"`
	OpTimeout     time.Duration `yaml:"op_timeout"`
	RefreshMargin time.Duration `yaml:"refresh_margin"`
}

type FileInitConfig struct {
	StoreTimeout            time.Duration `yaml:"store_timeout"`
	RemoteTimeout           time.Duration `yaml:"remote_timeout"`
	KeepCachedOnRemoteError bool          `yaml:"keep_cached_on_remote_error"`
}

type FileNotificationConfig struct {
	RejectExpired bool `yaml:"reject_expired"`
}

type FileAuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

type FileMetricsConfig struct {
	Enabled           bool `yaml:"enabled"`
	LatencyHistograms bool `yaml:"latency_histograms"`
}

// FileLogConfig selects the slog handler of command-line tools.
type FileLogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfigPath returns ~/.config/gosession/config.yaml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gosession", "config.yaml")
}

// DefaultFileConfig mirrors [DefaultConfig] and adds process wiring defaults.
func DefaultFileConfig() *FileConfig {
	cfg := defaultConfig()

	dir := ""
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".config", "gosession", "credentials")
	}

	return &FileConfig{
		Store: FileStoreConfig{
			Backend:     "file",
			Key:         cfg.Store.Key,
			OpTimeout:   cfg.Store.OpTimeout,
			Dir:         dir,
			SQLitePath:  filepath.Join(filepath.Dir(dir), "credentials.db"),
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "gs",
			Encrypt:     true,
		},
		Identity: FileIdentityConfig{
			OpTimeout:     cfg.Identity.OpTimeout,
			RefreshMargin: time.Minute,
		},
		Init: FileInitConfig{
			StoreTimeout:            cfg.Init.StoreTimeout,
			RemoteTimeout:           cfg.Init.RemoteTimeout,
			KeepCachedOnRemoteError: cfg.Init.KeepCachedOnRemoteError,
		},
		Notifications: FileNotificationConfig{
			RejectExpired: cfg.Notifications.RejectExpired,
		},
		Audit: FileAuditConfig{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		},
		Metrics: FileMetricsConfig{
			Enabled:           cfg.Metrics.Enabled,
			LatencyHistograms: cfg.Metrics.EnableLatencyHistograms,
		},
		Log: FileLogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfigFile reads path (DefaultConfigPath when empty) over the defaults. A missing
// file is not an error. The resulting manager Config is validated.
func LoadConfigFile(path string) (*FileConfig, error) {
	fc := DefaultFileConfig()

	if path == "" {
		path = DefaultConfigPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, fc); err != nil {
				return nil, fmt.Errorf("invalid config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(fc)

	cfg := fc.Config()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch fc.Store.Backend {
	case "file", "sqlite", "redis", "memory":
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, fc.Store.Backend)
	}
	return fc, nil
}

func applyEnvOverrides(fc *FileConfig) {
	if v := os.Getenv(EnvIdentityURL); v != "" {
		fc.Identity.URL = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		fc.Identity.APIKey = v
	}
	if v := os.Getenv(EnvDeviceSecret); v != "" {
		fc.Store.DeviceSecret = v
	}
}

// Config returns the manager configuration described by fc.
func (fc *FileConfig) Config() Config {
	cfg := defaultConfig()
	if fc == nil {
		return cfg
	}

	cfg.Store.Key = fc.Store.Key
	cfg.Store.OpTimeout = fc.Store.OpTimeout
	cfg.Identity.OpTimeout = fc.Identity.OpTimeout
	cfg.Init.StoreTimeout = fc.Init.StoreTimeout
	cfg.Init.RemoteTimeout = fc.Init.RemoteTimeout
	cfg.Init.KeepCachedOnRemoteError = fc.Init.KeepCachedOnRemoteError
	cfg.Notifications.RejectExpired = fc.Notifications.RejectExpired
	cfg.Audit.Enabled = fc.Audit.Enabled
	cfg.Audit.BufferSize = fc.Audit.BufferSize
	cfg.Audit.DropIfFull = fc.Audit.DropIfFull
	cfg.Metrics.Enabled = fc.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = fc.Metrics.LatencyHistograms
	return cfg
}
