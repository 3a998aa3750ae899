// Package pool implements a thread-safe object-recycling pool. Callers borrow
// pre-constructed instances with Acquire and hand them back with Release
// instead of constructing and destroying them repeatedly. All mutating
// operations run inside a single critical section per pool, so a pool can be
// shared across goroutines without external locking.
package pool

import (
	"sync"

	"github.com/e-sites/ObjectPool/errs"
)

// Policy selects how a pool behaves when every slot is acquired.
type Policy string

const (
	// PolicyStatic caps the pool at its constructed size; exhaustion fails fast.
	PolicyStatic Policy = "static"
	// PolicyDynamic grows the pool by one instance on exhaustion instead of failing.
	PolicyDynamic Policy = "dynamic"
)

// ParsePolicy converts a manifest string into a Policy.
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(raw) {
	case PolicyStatic:
		return PolicyStatic, nil
	case PolicyDynamic:
		return PolicyDynamic, nil
	default:
		return "", errs.New("", errs.CodeInvalid, errs.WithMessage("unknown policy "+raw))
	}
}

func (p Policy) String() string { return string(p) }

func (p Policy) valid() bool {
	return p == PolicyStatic || p == PolicyDynamic
}

// slot pairs a stored instance with its availability flag. Slot order is
// append-only; an index identifies the same logical instance until Drain.
type slot[T any] struct {
	value T
	free  bool
}

// Item is the opaque handle returned by Acquire. It pairs the borrowed
// instance with its slot index and the pool generation, making Release an
// O(1) direct-index operation.
type Item[T any] struct {
	value      T
	index      int
	generation uint64
	owner      *Pool[T]
}

// Value returns the borrowed instance.
func (it *Item[T]) Value() T { return it.value }

// Pool owns an ordered sequence of instances plus their availability flags.
// The zero value is not usable; construct pools with New.
type Pool[T any] struct {
	name      string
	policy    Policy
	construct func() T
	factory   func(T)
	onAcquire func(T)
	onRelease func(T)
	metrics   *Metrics
	debug     *debugState

	mu         sync.Mutex
	slots      []slot[T]
	acquired   int
	generation uint64
}

// Option configures optional pool behaviour at construction time.
type Option[T any] func(*Pool[T])

// WithFactory registers a callback invoked once per newly constructed
// instance, both during the initial fill and on dynamic growth. It is the
// place for caller-side post-construction configuration.
func WithFactory[T any](factory func(T)) Option[T] {
	return func(p *Pool[T]) {
		p.factory = factory
	}
}

// WithOnAcquire registers an observational callback fired after every
// successful Acquire. The callback runs outside the critical section and must
// not mutate pool state.
func WithOnAcquire[T any](fn func(T)) Option[T] {
	return func(p *Pool[T]) {
		p.onAcquire = fn
	}
}

// WithOnRelease registers an observational callback fired after every
// successful Release. The callback runs outside the critical section.
func WithOnRelease[T any](fn func(T)) Option[T] {
	return func(p *Pool[T]) {
		p.onRelease = fn
	}
}

// WithMetrics attaches OpenTelemetry instrumentation to the pool.
func WithMetrics[T any](m *Metrics) Option[T] {
	return func(p *Pool[T]) {
		p.metrics = m
	}
}

// New constructs a pool with size instances created up front. Each instance
// is produced by construct and passed through the factory callback when one
// is registered. A zero size is valid only together with PolicyDynamic, since
// a static empty pool could never satisfy an Acquire. Construction with valid
// arguments never fails.
func New[T any](name string, size int, policy Policy, construct func() T, opts ...Option[T]) (*Pool[T], error) {
	if name == "" {
		return nil, errs.New(name, errs.CodeInvalid, errs.WithMessage("pool name must be non-empty"))
	}
	if construct == nil {
		return nil, errs.New(name, errs.CodeInvalid, errs.WithMessage("construct func must be provided"))
	}
	if !policy.valid() {
		return nil, errs.New(name, errs.CodeInvalid, errs.WithMessage("policy must be static or dynamic"))
	}
	if size < 0 {
		return nil, errs.New(name, errs.CodeInvalid, errs.WithMessage("size must be non-negative"))
	}
	if size == 0 && policy == PolicyStatic {
		return nil, errs.New(name, errs.CodeInvalid,
			errs.WithMessage("static pool requires a positive size"),
			errs.WithRemediation("use the dynamic policy for pools that start empty"))
	}

	p := &Pool[T]{
		name:      name,
		policy:    policy,
		construct: construct,
		debug:     newDebugState(name),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	p.slots = make([]slot[T], 0, size)
	for i := 0; i < size; i++ {
		p.slots = append(p.slots, slot[T]{value: p.newInstance(), free: true})
	}
	p.metrics.recordFill(p.name, size)
	return p, nil
}

func (p *Pool[T]) newInstance() T {
	v := p.construct()
	if p.factory != nil {
		p.factory(v)
	}
	return v
}

// Acquire claims the first free slot by ascending index and returns its
// instance, atomically flipping the slot to acquired. When no slot is free, a
// static pool fails with the drained error while a dynamic pool appends
// exactly one freshly constructed instance and returns it already acquired.
// Acquire never blocks waiting for a slot.
func (p *Pool[T]) Acquire() (*Item[T], error) {
	p.mu.Lock()
	for i := range p.slots {
		if !p.slots[i].free {
			continue
		}
		p.slots[i].free = false
		p.acquired++
		it := &Item[T]{value: p.slots[i].value, index: i, generation: p.generation, owner: p}
		p.mu.Unlock()

		p.debug.recordAcquire(it.index)
		p.metrics.recordAcquire(p.name, resultOK)
		if p.onAcquire != nil {
			p.onAcquire(it.value)
		}
		return it, nil
	}

	if p.policy != PolicyDynamic {
		p.mu.Unlock()
		p.metrics.recordAcquire(p.name, resultDrained)
		return nil, errs.New(p.name, errs.CodeDrained,
			errs.WithMessage("no free slot"),
			errs.WithRemediation("retry later or construct the pool with the dynamic policy"))
	}

	// Growth and acquisition succeed together: the new slot is appended
	// already marked acquired, so no concurrent caller can steal it.
	value := p.newInstance()
	p.slots = append(p.slots, slot[T]{value: value, free: false})
	p.acquired++
	it := &Item[T]{value: value, index: len(p.slots) - 1, generation: p.generation, owner: p}
	p.mu.Unlock()

	p.debug.recordAcquire(it.index)
	p.metrics.recordGrowth(p.name)
	p.metrics.recordAcquire(p.name, resultOK)
	if p.onAcquire != nil {
		p.onAcquire(it.value)
	}
	return it, nil
}

// Release returns a previously acquired instance to the free state. Handles
// from another pool, or handles that outlived a Drain, fail with the
// not-initialized error; releasing a slot that is already free fails with the
// not-acquired error. Release never transfers ownership away from the pool.
func (p *Pool[T]) Release(it *Item[T]) error {
	if it == nil || it.owner != p {
		p.metrics.recordRelease(p.name, resultNotInitialized)
		return errs.New(p.name, errs.CodeNotInitialized,
			errs.WithMessage("instance was not produced by this pool"))
	}

	p.mu.Lock()
	if it.generation != p.generation || it.index >= len(p.slots) {
		p.mu.Unlock()
		p.metrics.recordRelease(p.name, resultNotInitialized)
		return errs.New(p.name, errs.CodeNotInitialized,
			errs.WithMessage("instance is no longer tracked by the pool"),
			errs.WithRemediation("drop references acquired before Drain"))
	}
	if p.slots[it.index].free {
		p.mu.Unlock()
		p.metrics.recordRelease(p.name, resultNotAcquired)
		return errs.New(p.name, errs.CodeNotAcquired,
			errs.WithMessage("instance is already free"))
	}
	p.slots[it.index].free = true
	p.acquired--
	p.mu.Unlock()

	p.debug.recordRelease(it.index)
	p.metrics.recordRelease(p.name, resultOK)
	if p.onRelease != nil {
		p.onRelease(it.value)
	}
	return nil
}

// Drain discards every slot and all bookkeeping atomically. Instances still
// held by callers become orphaned: their handles fail future Release calls
// with the not-initialized error. Drain is unconditional and idempotent.
func (p *Pool[T]) Drain() {
	p.mu.Lock()
	discarded := len(p.slots)
	inUse := p.acquired
	p.slots = nil
	p.acquired = 0
	p.generation++
	p.mu.Unlock()

	p.debug.reset()
	p.metrics.recordDrain(p.name, discarded, inUse)
}

// Name returns the pool name used for errors, metrics, and registration.
func (p *Pool[T]) Name() string { return p.name }

// Policy returns the fill policy fixed at construction.
func (p *Pool[T]) Policy() Policy { return p.policy }

// Size returns the current slot count.
func (p *Pool[T]) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots)
}

// Acquired returns the number of slots currently marked acquired.
func (p *Pool[T]) Acquired() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired
}

// Stats returns a snapshot-consistent view of the pool counters. All fields
// are read inside the same critical section that serializes mutations.
func (p *Pool[T]) Stats() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Name:     p.name,
		Policy:   p.policy,
		Size:     len(p.slots),
		Acquired: p.acquired,
		Free:     len(p.slots) - p.acquired,
	}
}

func (p *Pool[T]) activeStacks() []string {
	return p.debug.activeStacks()
}
