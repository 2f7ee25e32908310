// Command gosession-loadtest pushes refresh notifications and sign-in/sign-out cycles
// through a manager backed by a Redis credential store and reports latency percentiles.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/identity/local"
	otelexport "github.com/MrEthical07/goSession/metrics/export/otel"
	"github.com/MrEthical07/goSession/record"
	"github.com/MrEthical07/goSession/securestore"
	"github.com/MrEthical07/goSession/token"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const (
	email    = "load@example.com"
	password = "load-test-password"
)

func main() {
	var (
		ops       = flag.Int("ops", 5000, "refresh notifications to apply")
		cycles    = flag.Int("cycles", 500, "sign-in/sign-out cycles")
		redisAddr = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix    = flag.String("prefix", "gsload", "credential key prefix")
		encrypt   = flag.Bool("encrypt", false, "seal stored sessions")
		otelDump  = flag.Bool("otel", false, "print manager metrics collected through the OTel exporter")
	)
	flag.Parse()

	if *ops <= 0 || *cycles <= 0 {
		fmt.Fprintln(os.Stderr, "ops and cycles must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	var store goSession.CredentialStore = securestore.NewRedis(client, *prefix, "loadtest", 0)
	if *encrypt {
		secret := make([]byte, 32)
		_, _ = rand.Read(secret)
		cfg := securestore.DefaultSealerConfig(secret, []byte("gosession.loadtest"))
		sealer, err := securestore.NewSealer(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sealer: %v\n", err)
			os.Exit(1)
		}
		store = securestore.NewEncrypted(store, sealer)
	}

	provider, err := newProvider()
	if err != nil {
		fmt.Fprintf(os.Stderr, "provider: %v\n", err)
		os.Exit(1)
	}

	cfg := goSession.DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	manager, err := goSession.New().WithConfig(cfg).WithStore(store).WithIdentity(provider).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	var (
		reader   *sdkmetric.ManualReader
		exporter *otelexport.Exporter
	)
	if *otelDump {
		reader = sdkmetric.NewManualReader()
		meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("gosession-loadtest")
		if exporter, err = otelexport.NewExporter(meter, manager); err != nil {
			fmt.Fprintf(os.Stderr, "otel exporter: %v\n", err)
			os.Exit(1)
		}
		defer exporter.Close()
	}

	if err := manager.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "start: %v\n", err)
		os.Exit(1)
	}
	if err := manager.WaitReady(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ready: %v\n", err)
		os.Exit(1)
	}

	notifyStats, err := runNotificationPhase(ctx, manager, provider, *ops)
	if err != nil {
		fmt.Fprintf(os.Stderr, "notification phase: %v\n", err)
		os.Exit(1)
	}
	cycleStats := runCyclePhase(ctx, manager, *cycles)

	fmt.Println("---- results ----")
	printStats("notify", notifyStats)
	printStats("signout", cycleStats)

	if reader != nil {
		dumpOTel(ctx, reader)
	}
}

func newProvider() (*local.Provider, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	p, err := local.New(local.Config{
		Token: token.Config{
			AccessTTL:     time.Hour,
			SigningMethod: token.MethodHS256,
			PrivateKey:    key,
		},
		Hash: local.HashParams{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16},
	})
	if err != nil {
		return nil, err
	}
	return p, p.AddUser(email, password)
}

// waitFor blocks until the manager publishes a snapshot holding s.
func waitFor(m *goSession.Manager, s *record.Session) {
	seen := make(chan struct{})
	fired := false
	stop := m.Observe(func(snap goSession.Snapshot) {
		if !fired && snap.Session.Equal(s) {
			fired = true
			close(seen)
		}
	})
	<-seen
	stop()
}

// runNotificationPhase measures refresh-to-publish latency: the provider rotates the
// session, the manager persists it to Redis and publishes.
func runNotificationPhase(ctx context.Context, m *goSession.Manager, p *local.Provider, ops int) (phaseStats, error) {
	if _, err := m.SignIn(ctx, email, password); err != nil {
		return phaseStats{}, err
	}

	latencies := make([]time.Duration, 0, ops)
	var failures int64

	start := time.Now()
	for i := 0; i < ops; i++ {
		t0 := time.Now()
		s, err := p.Refresh(ctx)
		if err != nil {
			failures++
			continue
		}
		waitFor(m, s)
		latencies = append(latencies, time.Since(t0))
	}
	return computeStats(time.Since(start), latencies, failures), nil
}

func runCyclePhase(ctx context.Context, m *goSession.Manager, cycles int) phaseStats {
	latencies := make([]time.Duration, 0, cycles)
	var failures int64

	start := time.Now()
	for i := 0; i < cycles; i++ {
		if _, err := m.SignIn(ctx, email, password); err != nil {
			failures++
			continue
		}
		t0 := time.Now()
		if err := m.SignOut(ctx); err != nil {
			failures++
			continue
		}
		latencies = append(latencies, time.Since(t0))
	}
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func dumpOTel(ctx context.Context, reader *sdkmetric.ManualReader) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		fmt.Fprintf(os.Stderr, "otel collect: %v\n", err)
		return
	}
	fmt.Println("---- metrics ----")
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok && len(sum.DataPoints) > 0 && sum.DataPoints[0].Value > 0 {
				fmt.Printf("%s %d\n", m.Name, sum.DataPoints[0].Value)
			}
		}
	}
}
