package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/identity/gotrue"
	"github.com/MrEthical07/goSession/identity/local"
	"github.com/MrEthical07/goSession/securestore"
	"github.com/MrEthical07/goSession/token"
	"github.com/redis/go-redis/v9"
)

const defaultSalt = "gosession.device.v1"

// env is everything a command needs: a started manager and its cleanup.
type env struct {
	manager *goSession.Manager
	logger  *slog.Logger
	config  *goSession.FileConfig
	cleanup []func()
}

func (e *env) Close() {
	if e.manager != nil {
		e.manager.Close()
	}
	for i := len(e.cleanup) - 1; i >= 0; i-- {
		e.cleanup[i]()
	}
}

// setup loads configuration, wires store and identity service and starts a manager. It
// returns once initialization has published.
func setup(ctx context.Context) (*env, error) {
	fc, err := goSession.LoadConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if storeFlag != "" {
		fc.Store.Backend = storeFlag
	}
	if logLevel != "" {
		fc.Log.Level = logLevel
	}
	if logFormat != "" {
		fc.Log.Format = logFormat
	}

	e := &env{
		logger: newLogger(os.Stderr, fc.Log.Level, fc.Log.Format),
		config: fc,
	}

	cfg := fc.Config()
	for _, w := range cfg.Lint().BySeverity(goSession.LintWarn) {
		e.logger.Warn("goSession: config lint", "code", w.Code, "severity", w.Severity.String(), "msg", w.Message)
	}

	store, err := e.buildStore(ctx)
	if err != nil {
		e.Close()
		return nil, err
	}
	svc, err := e.buildIdentity(ctx)
	if err != nil {
		e.Close()
		return nil, err
	}

	b := goSession.New().
		WithConfig(cfg).
		WithStore(store).
		WithIdentity(svc).
		WithLogger(e.logger)
	if auditLog {
		b = b.WithAuditSink(goSession.NewJSONWriterSink(os.Stderr))
	}
	m, err := b.Build()
	if err != nil {
		e.Close()
		return nil, err
	}
	e.manager = m

	if err := m.Start(ctx); err != nil {
		e.Close()
		return nil, err
	}
	if err := m.WaitReady(ctx); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *env) buildStore(ctx context.Context) (goSession.CredentialStore, error) {
	sc := e.config.Store

	var backend securestore.Backend
	switch sc.Backend {
	case "memory":
		backend = securestore.NewMemory()
	case "file":
		f, err := securestore.NewFile(sc.Dir)
		if err != nil {
			return nil, err
		}
		backend = f
	case "sqlite":
		db, err := securestore.OpenSQLite(ctx, sc.SQLitePath)
		if err != nil {
			return nil, err
		}
		e.cleanup = append(e.cleanup, func() { _ = db.Close() })
		backend = db
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: sc.RedisAddr, DB: sc.RedisDB})
		e.cleanup = append(e.cleanup, func() { _ = client.Close() })
		r := securestore.NewRedis(client, sc.RedisPrefix, sc.Device, sc.RedisTTL)
		if rtt, err := r.Ping(ctx); err != nil {
			e.logger.Warn("goSession: redis unreachable, continuing", "addr", sc.RedisAddr, "err", err)
		} else {
			e.logger.Debug("goSession: redis reachable", "addr", sc.RedisAddr, "rtt", rtt)
		}
		backend = r
	default:
		return nil, fmt.Errorf("unknown store backend %q", sc.Backend)
	}

	if !sc.Encrypt {
		return backend, nil
	}
	if len(sc.DeviceSecret) < 16 {
		return nil, fmt.Errorf("store encryption needs a device secret of at least 16 bytes (set %s)", goSession.EnvDeviceSecret)
	}
	salt := sc.Salt
	if salt == "" {
		salt = defaultSalt
	}
	sealer, err := securestore.NewSealer(securestore.DefaultSealerConfig([]byte(sc.DeviceSecret), []byte(salt)))
	if err != nil {
		return nil, err
	}
	return securestore.NewEncrypted(backend, sealer), nil
}

// service is what the commands need from an identity service.
type service interface {
	goSession.IdentityService
	goSession.Authenticator
}

func (e *env) buildIdentity(ctx context.Context) (service, error) {
	if useLocal {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
		p, err := local.New(local.Config{
			Token: token.Config{
				AccessTTL:     15 * time.Minute,
				SigningMethod: token.MethodHS256,
				PrivateKey:    key,
				Issuer:        "sessionctl-local",
			},
		})
		if err != nil {
			return nil, err
		}
		if err := p.AddUser(localEmail, localPassword); err != nil {
			return nil, err
		}
		e.logger.Info("goSession: using in-process identity provider", "account", localEmail)
		return p, nil
	}

	ic := e.config.Identity
	if ic.URL == "" {
		return nil, errors.New("identity.url is not configured (set " + goSession.EnvIdentityURL + " or use --local)")
	}
	c, err := gotrue.New(gotrue.Config{
		URL:           ic.URL,
		APIKey:        ic.APIKey,
		RefreshMargin: ic.RefreshMargin,
		Logger:        e.logger,
	})
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	go func() { _ = c.Run(runCtx) }()
	e.cleanup = append(e.cleanup, cancel)
	return c, nil
}
