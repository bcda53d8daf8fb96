package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// gateTimeout bounds how long the control gate suspends on pause before
// giving up and proceeding, to avoid indefinite blocking if the resume
// signal was lost (spec §5 "Cancellation", default 30s).
const gateTimeout = 30 * time.Second

// controlGate is the cooperative pause/stop checkpoint the orchestrator
// polls at every phase boundary and before each external call (spec §4.5
// "Cooperative pause/stop"). Stop is a sticky flag; pause suspends the
// caller until resumed, or until gateTimeout elapses.
type controlGate struct {
	mu      sync.Mutex
	paused  bool
	resume  chan struct{}
	stopped atomic.Bool
}

func newControlGate() *controlGate {
	return &controlGate{resume: make(chan struct{})}
}

// Pause raises the gate. Safe to call repeatedly.
func (g *controlGate) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		return
	}
	g.paused = true
	g.resume = make(chan struct{})
}

// Resume lowers the gate, releasing any waiter.
func (g *controlGate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		return
	}
	g.paused = false
	close(g.resume)
}

// Stop sets the sticky stop flag. Once set it cannot be unset.
func (g *controlGate) Stop() {
	g.stopped.Store(true)
	// Wake any paused waiter so it observes the stop instead of timing out.
	g.mu.Lock()
	if g.paused {
		g.paused = false
		close(g.resume)
	}
	g.mu.Unlock()
}

// Stopped reports whether Stop has been called.
func (g *controlGate) Stopped() bool {
	return g.stopped.Load()
}

// Check blocks while the gate is paused (up to gateTimeout), then returns
// true if the caller should stop. Call at every phase boundary and before
// every external call.
func (g *controlGate) Check(ctx context.Context) (stop bool) {
	g.mu.Lock()
	paused := g.paused
	waitCh := g.resume
	g.mu.Unlock()

	if paused {
		select {
		case <-waitCh:
		case <-time.After(gateTimeout):
		case <-ctx.Done():
			return true
		}
	}
	return g.stopped.Load()
}
