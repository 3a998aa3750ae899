//go:build debug

package pool

import (
	"runtime/debug"
	"sync"
)

// debugState records the acquisition stack per outstanding slot so leak
// candidates can be reported when a shutdown deadline expires.
type debugState struct {
	name   string
	mu     sync.Mutex
	stacks map[int]string
}

func newDebugState(name string) *debugState {
	return &debugState{
		name:   name,
		stacks: make(map[int]string),
	}
}

func (d *debugState) recordAcquire(index int) {
	if d == nil {
		return
	}
	stack := string(debug.Stack())
	d.mu.Lock()
	d.stacks[index] = stack
	d.mu.Unlock()
}

func (d *debugState) recordRelease(index int) {
	if d == nil {
		return
	}
	d.mu.Lock()
	delete(d.stacks, index)
	d.mu.Unlock()
}

func (d *debugState) reset() {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.stacks = make(map[int]string)
	d.mu.Unlock()
}

func (d *debugState) activeStacks() []string {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.stacks) == 0 {
		return nil
	}
	out := make([]string, 0, len(d.stacks))
	for _, stack := range d.stacks {
		out = append(out, stack)
	}
	return out
}
