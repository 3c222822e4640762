package suggest

import (
	"context"
	"sync"
)

// Coordinator enforces the staleness guard: at most one request cycle is
// current, identified by a monotonically increasing sequence number.
// Beginning a new cycle cancels the previous cycle's context; a completion
// whose sequence is no longer current must be discarded by the caller.
// The "discard stale result" invariant is a single Current comparison.
type Coordinator struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// Begin supersedes any in-flight cycle and returns the new cycle's
// context and sequence number.
func (c *Coordinator) Begin(parent context.Context) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	ctx, cancel := context.WithCancel(parent)
	c.seq++
	c.cancel = cancel
	return ctx, c.seq
}

// Current reports whether seq identifies the newest cycle.
func (c *Coordinator) Current(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return seq == c.seq
}

// CancelActive aborts the in-flight cycle, if any, without starting a new
// one. Used on selection, input clear, and session teardown.
func (c *Coordinator) CancelActive() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
