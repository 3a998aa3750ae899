package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	concpool "github.com/sourcegraph/conc/pool"

	"github.com/e-sites/ObjectPool/errs"
	"github.com/e-sites/ObjectPool/internal/observability"
)

// Registered is the manager's type-erased view of a pool. Every Pool[T]
// satisfies it regardless of instance type.
type Registered interface {
	Name() string
	Stats() Snapshot
	Drain()
}

// Manager coordinates named pools, providing aggregate statistics, bulk
// draining, and graceful shutdown semantics for pooled resources.
type Manager struct {
	mu           sync.RWMutex
	pools        map[string]Registered
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// NewManager constructs an initialized manager ready for pool registration.
func NewManager() *Manager {
	m := new(Manager)
	m.pools = make(map[string]Registered)
	m.shutdownCh = make(chan struct{})
	return m
}

// Register adds a pool to the manager under its own name.
func (m *Manager) Register(p Registered) error {
	if p == nil || p.Name() == "" {
		return errs.New("", errs.CodeInvalid, errs.WithMessage("pool must be non-nil and named"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.shutdownCh:
		return errs.New(p.Name(), errs.CodeUnavailable, errs.WithMessage("manager shutdown in progress"))
	default:
	}

	if _, exists := m.pools[p.Name()]; exists {
		return errs.New(p.Name(), errs.CodeInvalid, errs.WithMessage("pool already registered"))
	}
	m.pools[p.Name()] = p
	return nil
}

// Lookup returns the registered pool with the given name.
func (m *Manager) Lookup(name string) (Registered, error) {
	m.mu.RLock()
	p, ok := m.pools[name]
	m.mu.RUnlock()
	if !ok {
		return nil, errs.New(name, errs.CodeInvalid, errs.WithMessage("pool not registered"))
	}
	return p, nil
}

// Stats snapshots every registered pool, keyed by pool name.
func (m *Manager) Stats() map[string]Snapshot {
	m.mu.RLock()
	pools := make([]Registered, 0, len(m.pools))
	for _, p := range m.pools {
		pools = append(pools, p)
	}
	m.mu.RUnlock()

	out := make(map[string]Snapshot, len(pools))
	for _, p := range pools {
		out[p.Name()] = p.Stats()
	}
	return out
}

// DrainAll drains every registered pool in parallel.
func (m *Manager) DrainAll() {
	m.mu.RLock()
	pools := make([]Registered, 0, len(m.pools))
	for _, p := range m.pools {
		pools = append(pools, p)
	}
	m.mu.RUnlock()

	if len(pools) == 0 {
		return
	}
	workers := concpool.New().WithMaxGoroutines(len(pools))
	for _, p := range pools {
		workers.Go(p.Drain)
	}
	workers.Wait()
}

// Shutdown refuses new registrations, waits for every acquired instance to be
// released or until the context expires (defaulting to 5 seconds), then
// drains all pools. Outstanding instances are logged with acquisition stacks
// when the debug build tag is enabled.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var cancel context.CancelFunc
	if _, ok := ctx.Deadline(); !ok {
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
	}
	if cancel != nil {
		defer cancel()
	}

	m.shutdownOnce.Do(func() {
		close(m.shutdownCh)
	})

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if remaining := m.totalAcquired(); remaining == 0 {
			m.DrainAll()
			return nil
		}
		select {
		case <-ctx.Done():
			remaining := m.totalAcquired()
			m.logOutstanding(remaining)
			return fmt.Errorf("shutdown timeout: %d pooled instances unreturned", remaining)
		case <-ticker.C:
		}
	}
}

func (m *Manager) totalAcquired() int {
	total := 0
	for _, snap := range m.Stats() {
		total += snap.Acquired
	}
	return total
}

func (m *Manager) logOutstanding(remaining int) {
	if remaining <= 0 {
		return
	}
	observability.Log().Error("manager shutdown timed out with instances in flight",
		observability.Field{Key: "remaining", Value: remaining})

	m.mu.RLock()
	pools := make([]Registered, 0, len(m.pools))
	for _, p := range m.pools {
		pools = append(pools, p)
	}
	m.mu.RUnlock()

	for _, p := range pools {
		tracker, ok := p.(interface{ activeStacks() []string })
		if !ok {
			continue
		}
		for _, stack := range tracker.activeStacks() {
			observability.Log().Error("leak candidate",
				observability.Field{Key: "pool", Value: p.Name()},
				observability.Field{Key: "stack", Value: stack})
		}
	}
}
