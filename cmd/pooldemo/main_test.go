package main

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/time/rate"

	"github.com/e-sites/ObjectPool/config"
	"github.com/e-sites/ObjectPool/pool"
)

func demoConfig() config.Config {
	cfg := config.Default()
	cfg.Pools = []config.PoolConfig{
		{Name: "sessions", Size: 2, Policy: "static"},
		{Name: "scratch", Size: 0, Policy: "dynamic"},
	}
	return cfg
}

func TestBuildManagerFromManifest(t *testing.T) {
	manager, err := buildManager(demoConfig(), noop.NewMeterProvider().Meter("pooldemo_test"))
	if err != nil {
		t.Fatalf("buildManager failed: %v", err)
	}

	stats := manager.Stats()
	if len(stats) != 2 {
		t.Fatalf("expected 2 pools, got %d", len(stats))
	}
	if stats["sessions"].Size != 2 {
		t.Fatalf("expected pre-filled static pool, got %+v", stats["sessions"])
	}

	registered, err := manager.Lookup("sessions")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	p, ok := registered.(*pool.Pool[*session])
	if !ok {
		t.Fatalf("unexpected pool type %T", registered)
	}
	it, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	s := it.Value()
	if s.ID == uuid.Nil {
		t.Fatal("expected the factory to assign an ID")
	}
	if s.Acquires != 1 {
		t.Fatalf("expected acquire hook to run once, got %d", s.Acquires)
	}
	if err := p.Release(it); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
}

func TestBuildManagerRejectsBadPolicy(t *testing.T) {
	cfg := demoConfig()
	cfg.Pools[0].Policy = "elastic"
	if _, err := buildManager(cfg, noop.NewMeterProvider().Meter("pooldemo_test")); err == nil {
		t.Fatal("expected policy error")
	}
}

func TestChurnStopsOnContextCancel(t *testing.T) {
	p, err := pool.New("sessions", 1, pool.PolicyDynamic, func() *session { return &session{} })
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		churn(ctx, p, rate.NewLimiter(rate.Limit(100), 1))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("churn did not stop after context cancellation")
	}
	if got := p.Acquired(); got != 0 {
		t.Fatalf("expected all instances returned, %d still acquired", got)
	}
}
