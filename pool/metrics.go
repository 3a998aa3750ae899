package pool

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	resultOK             = "ok"
	resultDrained        = "drained"
	resultNotInitialized = "not_initialized"
	resultNotAcquired    = "not_acquired"
)

// Metrics captures observability counters for pool operations. A nil Metrics
// is a no-op, so uninstrumented pools pay nothing.
type Metrics struct {
	acquires  metric.Int64Counter
	releases  metric.Int64Counter
	drains    metric.Int64Counter
	growth    metric.Int64Counter
	instances metric.Int64UpDownCounter
	acquired  metric.Int64UpDownCounter
}

// NewMetrics constructs metric instruments on the provided meter. The same
// Metrics value can be shared by any number of pools; series are split by the
// pool attribute.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := new(Metrics)
	var err error

	if m.acquires, err = meter.Int64Counter(
		"objectpool.acquires",
		metric.WithDescription("Total acquire attempts, labeled by pool and result."),
	); err != nil {
		return nil, fmt.Errorf("create acquire counter: %w", err)
	}
	if m.releases, err = meter.Int64Counter(
		"objectpool.releases",
		metric.WithDescription("Total release attempts, labeled by pool and result."),
	); err != nil {
		return nil, fmt.Errorf("create release counter: %w", err)
	}
	if m.drains, err = meter.Int64Counter(
		"objectpool.drains",
		metric.WithDescription("Total drain operations, labeled by pool."),
	); err != nil {
		return nil, fmt.Errorf("create drain counter: %w", err)
	}
	if m.growth, err = meter.Int64Counter(
		"objectpool.growth",
		metric.WithDescription("Instances appended by dynamic-policy growth."),
	); err != nil {
		return nil, fmt.Errorf("create growth counter: %w", err)
	}
	if m.instances, err = meter.Int64UpDownCounter(
		"objectpool.instances",
		metric.WithDescription("Instances currently owned by the pool."),
	); err != nil {
		return nil, fmt.Errorf("create instance counter: %w", err)
	}
	if m.acquired, err = meter.Int64UpDownCounter(
		"objectpool.acquired",
		metric.WithDescription("Slots currently marked acquired."),
	); err != nil {
		return nil, fmt.Errorf("create acquired counter: %w", err)
	}
	return m, nil
}

func poolAttrs(name string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("pool", name))
}

func (m *Metrics) recordFill(name string, size int) {
	if m == nil || size == 0 {
		return
	}
	m.instances.Add(context.Background(), int64(size), poolAttrs(name))
}

func (m *Metrics) recordAcquire(name, result string) {
	if m == nil {
		return
	}
	ctx := context.Background()
	m.acquires.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pool", name),
		attribute.String("result", result),
	))
	if result == resultOK {
		m.acquired.Add(ctx, 1, poolAttrs(name))
	}
}

func (m *Metrics) recordRelease(name, result string) {
	if m == nil {
		return
	}
	ctx := context.Background()
	m.releases.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pool", name),
		attribute.String("result", result),
	))
	if result == resultOK {
		m.acquired.Add(ctx, -1, poolAttrs(name))
	}
}

func (m *Metrics) recordGrowth(name string) {
	if m == nil {
		return
	}
	ctx := context.Background()
	m.growth.Add(ctx, 1, poolAttrs(name))
	m.instances.Add(ctx, 1, poolAttrs(name))
}

func (m *Metrics) recordDrain(name string, discarded, inUse int) {
	if m == nil {
		return
	}
	ctx := context.Background()
	m.drains.Add(ctx, 1, poolAttrs(name))
	if discarded > 0 {
		m.instances.Add(ctx, int64(-discarded), poolAttrs(name))
	}
	if inUse > 0 {
		m.acquired.Add(ctx, int64(-inUse), poolAttrs(name))
	}
}
