package goSession

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/mailbox"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Builder assembles a [Manager]. Builder instances are configured during initialization
// and used once.
type Builder struct {
	config   Config
	store    CredentialStore
	identity IdentityService

	logger    *slog.Logger
	auditSink AuditSink
	tracer    trace.Tracer
	clock     func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the credential store the cached session lives in. Required.
func (b *Builder) WithStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithIdentity sets the remote identity service. Required.
func (b *Builder) WithIdentity(svc IdentityService) *Builder {
	b.identity = svc
	return b
}

// WithLogger sets the structured logger. Without one, logs are discarded.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit sink. Events flow only when Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithTracer sets the tracer used for init, sign-in and sign-out spans.
func (b *Builder) WithTracer(tracer trace.Tracer) *Builder {
	b.tracer = tracer
	return b
}

// WithClock overrides the time source used for expiry checks and snapshot timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles in-process lifecycle metrics.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the initialization latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a Manager in StateUninitialized. No I/O
// happens until [Manager.Start].
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if b.store == nil {
		return nil, ErrStoreRequired
	}
	if b.identity == nil {
		return nil, ErrIdentityRequired
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	tracer := b.tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("goSession")
	}
	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	m := &Manager{
		config:    cfg,
		store:     b.store,
		identity:  b.identity,
		logger:    logger,
		tracer:    tracer,
		now:       clock,
		metrics:   NewMetrics(cfg.Metrics),
		inbox:     mailbox.New[command](),
		ready:     make(chan struct{}),
		stopping:  make(chan struct{}),
		done:      make(chan struct{}),
		observers: make(map[uint64]*observer),
	}
	m.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	m.current.Store(&Snapshot{
		State:   StateUninitialized,
		Loading: true,
		At:      clock(),
	})

	b.built = true

	return m, nil
}
