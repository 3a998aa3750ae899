package pool

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectNames(t *testing.T, reader *sdkmetric.ManualReader) map[string]bool {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	names := make(map[string]bool)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			names[m.Name] = true
		}
	}
	return names
}

func TestMetricsRecordPoolOperations(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	m, err := NewMetrics(provider.Meter("objectpool_test"))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	construct, _ := newConstructor()
	p, err := New("buffers", 1, PolicyDynamic, construct, WithMetrics[*payload](m))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	first, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if _, err := p.Acquire(); err != nil {
		t.Fatalf("growth Acquire failed: %v", err)
	}
	if err := p.Release(first); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := p.Release(first); err == nil {
		t.Fatal("expected double release to fail")
	}
	p.Drain()

	names := collectNames(t, reader)
	for _, want := range []string{
		"objectpool.acquires",
		"objectpool.releases",
		"objectpool.drains",
		"objectpool.growth",
		"objectpool.instances",
		"objectpool.acquired",
	} {
		if !names[want] {
			t.Errorf("expected metric %q to be recorded, got %v", want, names)
		}
	}
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	m.recordFill("buffers", 3)
	m.recordAcquire("buffers", resultOK)
	m.recordRelease("buffers", resultNotAcquired)
	m.recordGrowth("buffers")
	m.recordDrain("buffers", 3, 1)
}
