package goSession

import (
	"errors"
	"strings"
	"time"
)

// DefaultStoreKey is the fixed credential store key the session record lives under.
const DefaultStoreKey = "supabase_session"

// Config controls a [Manager]. Obtain one from [DefaultConfig] and override fields; the
// zero value does not validate.
type Config struct {
	Store         StoreConfig
	Identity      IdentityConfig
	Init          InitConfig
	Notifications NotificationConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig configures credential store access.
type StoreConfig struct {
	// Key is the single key the cached session record is stored under.
	Key string
	// OpTimeout bounds store calls made while applying notifications, sign-in and sign-out.
	OpTimeout time.Duration
}

/*
====================================
IDENTITY CONFIG
====================================
*/

// IdentityConfig configures identity service calls outside initialization.
type IdentityConfig struct {
	// OpTimeout bounds SetSession, SignOut, SignIn and SignUp calls.
	OpTimeout time.Duration
}

/*
====================================
INIT CONFIG
====================================
*/

// InitConfig configures the one-time initialization sequence.
type InitConfig struct {
	StoreTimeout  time.Duration
	RemoteTimeout time.Duration
	// KeepCachedOnRemoteError keeps a restored, unexpired cached session when the remote
	// query fails instead of clearing it. Offline-tolerant clients enable this.
	KeepCachedOnRemoteError bool
}

/*
====================================
NOTIFICATION CONFIG
====================================
*/

// NotificationConfig configures change-notification handling.
type NotificationConfig struct {
	// RejectExpired treats a pushed session that is already expired as a sign-out.
	RejectExpired bool
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process lifecycle metrics.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Key:       DefaultStoreKey,
			OpTimeout: 5 * time.Second,
		},
		Identity: IdentityConfig{
			OpTimeout: 10 * time.Second,
		},
		Init: InitConfig{
			StoreTimeout:            5 * time.Second,
			RemoteTimeout:           5 * time.Second,
			KeepCachedOnRemoteError: false,
		},
		Notifications: NotificationConfig{
			RejectExpired: false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid field of c.
func (c *Config) Validate() error {
	// Store
	if strings.TrimSpace(c.Store.Key) == "" {
		return errors.New("Store Key must not be empty")
	}
	if c.Store.Key != strings.TrimSpace(c.Store.Key) {
		return errors.New("Store Key must not have surrounding whitespace")
	}
	if c.Store.OpTimeout <= 0 {
		return errors.New("Store OpTimeout must be > 0")
	}

	// Identity
	if c.Identity.OpTimeout <= 0 {
		return errors.New("Identity OpTimeout must be > 0")
	}

	// Init
	if c.Init.StoreTimeout <= 0 {
		return errors.New("Init StoreTimeout must be > 0")
	}
	if c.Init.RemoteTimeout <= 0 {
		return errors.New("Init RemoteTimeout must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
