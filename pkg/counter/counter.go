// Package counter implements the shared ping counter and its change
// notification primitive. The counter is a versioned value: every publish
// bumps the version and wakes all current waiters at once, so many rapid
// increments coalesce into a single observable change. Subscribers always
// read the latest value, never a queued history.
package counter

import (
	"context"
	"math"
	"sync"
)

// Counter holds the current count and fans out change notices to waiters.
// The zero value is not usable; call New.
type Counter struct {
	mu      sync.RWMutex
	value   uint64
	version uint64
	changed chan struct{} // closed on publish, then replaced
}

// New creates a counter starting at zero.
func New() *Counter {
	return &Counter{
		changed: make(chan struct{}),
	}
}

// Increment adds one to the counter, saturating at the maximum
// representable value instead of wrapping, and wakes every waiter.
// It returns the new value.
func (c *Counter) Increment() uint64 {
	c.mu.Lock()
	if c.value < math.MaxUint64 {
		c.value++
	}
	c.version++
	close(c.changed)
	c.changed = make(chan struct{})
	v := c.value
	c.mu.Unlock()
	return v
}

// Value returns the current count without blocking.
func (c *Counter) Value() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Snapshot returns the current count together with its version. The
// version is the cursor to pass to Wait.
func (c *Counter) Snapshot() (value, version uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.version
}

// Wait blocks until the counter's version differs from sinceVersion, then
// returns the latest value and version. If the counter already moved past
// sinceVersion, Wait returns immediately; there is no missed-wakeup window
// between Snapshot and Wait. All concurrent waiters are woken by a single
// publish. Wait unblocks with ctx.Err() when ctx is cancelled.
func (c *Counter) Wait(ctx context.Context, sinceVersion uint64) (value, version uint64, err error) {
	for {
		c.mu.RLock()
		if c.version != sinceVersion {
			value, version = c.value, c.version
			c.mu.RUnlock()
			return value, version, nil
		}
		ch := c.changed
		c.mu.RUnlock()

		select {
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		case <-ch:
		}
	}
}
