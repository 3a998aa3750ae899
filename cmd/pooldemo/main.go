// Command pooldemo exercises manifest-configured pools under synthetic load.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/e-sites/ObjectPool/config"
	"github.com/e-sites/ObjectPool/internal/observability"
	"github.com/e-sites/ObjectPool/lib/telemetry"
	"github.com/e-sites/ObjectPool/pool"
)

const (
	demoLoggerPrefix         = "pooldemo "
	defaultRunDuration       = 10 * time.Second
	defaultAcquireRate       = 200
	defaultWorkers           = 8
	holdDuration             = 2 * time.Millisecond
	managerShutdownTimeout   = 5 * time.Second
	telemetryShutdownTimeout = 5 * time.Second
)

// session is the payload recycled by the demo pools. Each instance keeps its
// identity across acquire/release cycles so the logs show recycling at work.
type session struct {
	ID       uuid.UUID
	Acquires int
}

func main() {
	opts := parseFlags()
	ctx, cancel := newSignalContext()
	defer cancel()

	logger := log.New(os.Stderr, demoLoggerPrefix, log.LstdFlags|log.Lmsgprefix)
	observability.SetLogger(observability.NewWriterLogger(os.Stderr))

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	logger.Printf("configuration loaded: pools=%d", len(cfg.Pools))

	providers, telemetryShutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		logger.Fatalf("initialize telemetry: %v", err)
	}

	manager, err := buildManager(cfg, providers.MeterProvider.Meter("github.com/e-sites/ObjectPool/pool"))
	if err != nil {
		logger.Fatalf("initialise pools: %v", err)
	}

	runCtx, runCancel := context.WithTimeout(ctx, opts.duration)
	defer runCancel()
	runLoad(runCtx, logger, manager, cfg, opts)

	for name, snap := range manager.Stats() {
		line, err := pool.EncodeJSON(snap)
		if err != nil {
			logger.Fatalf("encode stats for %s: %v", name, err)
		}
		logger.Printf("pool stats: %s", line)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), managerShutdownTimeout)
	defer shutdownCancel()
	if err := manager.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("shutdown pools: %v", err)
	}

	telemetryCtx, telemetryCancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer telemetryCancel()
	if err := telemetryShutdown(telemetryCtx); err != nil {
		logger.Printf("shutdown telemetry: %v", err)
	}
	logger.Print("demo complete")
}

type options struct {
	configPath string
	duration   time.Duration
	rate       int
	workers    int
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to the pool manifest (defaults to OBJECTPOOL_CONFIG)")
	flag.DurationVar(&opts.duration, "duration", defaultRunDuration, "how long to run the load loop")
	flag.IntVar(&opts.rate, "rate", defaultAcquireRate, "target acquisitions per second across all workers")
	flag.IntVar(&opts.workers, "workers", defaultWorkers, "concurrent workers per pool")
	flag.Parse()
	return opts
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// buildManager constructs one pool per manifest entry and registers them all.
func buildManager(cfg config.Config, meter metric.Meter) (*pool.Manager, error) {
	metrics, err := pool.NewMetrics(meter)
	if err != nil {
		return nil, err
	}

	manager := pool.NewManager()
	for _, pc := range cfg.Pools {
		policy, err := pc.ParsedPolicy()
		if err != nil {
			return nil, err
		}
		p, err := pool.New(pc.Name, pc.Size, policy,
			func() *session { return &session{} },
			pool.WithFactory(func(s *session) { s.ID = uuid.New() }),
			pool.WithOnAcquire(func(s *session) { s.Acquires++ }),
			pool.WithMetrics[*session](metrics),
		)
		if err != nil {
			return nil, err
		}
		if err := manager.Register(p); err != nil {
			return nil, err
		}
	}
	return manager, nil
}

// runLoad drives every configured pool with rate-limited acquire/release
// churn until the context expires.
func runLoad(ctx context.Context, logger *log.Logger, manager *pool.Manager, cfg config.Config, opts options) {
	var wg conc.WaitGroup
	for _, pc := range cfg.Pools {
		registered, err := manager.Lookup(pc.Name)
		if err != nil {
			logger.Fatalf("lookup pool %s: %v", pc.Name, err)
		}
		p, ok := registered.(*pool.Pool[*session])
		if !ok {
			logger.Fatalf("pool %s has unexpected type", pc.Name)
		}

		limiter := rate.NewLimiter(rate.Limit(opts.rate), opts.workers)
		for w := 0; w < opts.workers; w++ {
			wg.Go(func() {
				churn(ctx, p, limiter)
			})
		}
		logger.Printf("load started: pool=%s policy=%s workers=%d", pc.Name, pc.Policy, opts.workers)
	}
	wg.Wait()
}

func churn(ctx context.Context, p *pool.Pool[*session], limiter *rate.Limiter) {
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		it, err := pool.AcquireWithRetry(ctx, p)
		if err != nil {
			return
		}
		time.Sleep(holdDuration)
		if err := p.Release(it); err != nil {
			observability.Log().Error("release failed",
				observability.Field{Key: "pool", Value: p.Name()},
				observability.Field{Key: "error", Value: err.Error()})
			return
		}
	}
}
