package counter

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"
)

func TestCounter_Increment(t *testing.T) {
	c := New()

	if got := c.Value(); got != 0 {
		t.Fatalf("initial value = %d, want 0", got)
	}
	if got := c.Increment(); got != 1 {
		t.Fatalf("Increment() = %d, want 1", got)
	}
	if got := c.Value(); got != 1 {
		t.Fatalf("value = %d, want 1", got)
	}
}

func TestCounter_ConcurrentIncrements(t *testing.T) {
	c := New()

	const callers = 50
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			c.Increment()
		}()
	}
	wg.Wait()

	if got := c.Value(); got != callers {
		t.Fatalf("value after %d concurrent increments = %d, want %d", callers, got, callers)
	}
}

func TestCounter_SaturatesAtMax(t *testing.T) {
	c := New()
	c.value = math.MaxUint64

	if got := c.Increment(); got != math.MaxUint64 {
		t.Fatalf("Increment() at cap = %d, want %d", got, uint64(math.MaxUint64))
	}
}

func TestCounter_WaitReturnsImmediatelyOnStaleVersion(t *testing.T) {
	c := New()
	_, version := c.Snapshot()
	c.Increment()
	c.Increment()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	value, newVersion, err := c.Wait(ctx, version)
	if err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if value != 2 {
		t.Fatalf("value = %d, want 2 (coalesced)", value)
	}
	if newVersion == version {
		t.Fatal("version did not advance")
	}
}

func TestCounter_WaitBlocksUntilChange(t *testing.T) {
	c := New()
	_, version := c.Snapshot()

	done := make(chan uint64, 1)
	go func() {
		value, _, err := c.Wait(context.Background(), version)
		if err != nil {
			return
		}
		done <- value
	}()

	// Give the waiter a moment to block before publishing.
	time.Sleep(20 * time.Millisecond)
	c.Increment()

	select {
	case value := <-done:
		if value != 1 {
			t.Fatalf("observed value = %d, want 1", value)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken by Increment")
	}
}

func TestCounter_NoSpuriousNotifications(t *testing.T) {
	c := New()
	c.Increment()
	_, version := c.Snapshot()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, _, err := c.Wait(ctx, version); err != context.DeadlineExceeded {
		t.Fatalf("Wait with no further increments returned %v, want deadline exceeded", err)
	}
}

func TestCounter_WaitFanOut(t *testing.T) {
	c := New()
	_, version := c.Snapshot()

	const waiters = 10
	results := make(chan uint64, waiters)
	var ready sync.WaitGroup
	ready.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			ready.Done()
			value, _, err := c.Wait(context.Background(), version)
			if err == nil {
				results <- value
			}
		}()
	}
	ready.Wait()
	time.Sleep(20 * time.Millisecond)

	c.Increment()

	for i := 0; i < waiters; i++ {
		select {
		case value := <-results:
			if value != 1 {
				t.Fatalf("waiter %d observed %d, want 1", i, value)
			}
		case <-time.After(time.Second):
			t.Fatalf("only %d of %d waiters woken by one publish", i, waiters)
		}
	}
}

func TestCounter_WaitUnblocksOnCancel(t *testing.T) {
	c := New()
	_, version := c.Snapshot()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, _, err := c.Wait(ctx, version)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Fatalf("Wait returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not unblock on cancellation")
	}
}

func TestCounter_EventualConvergence(t *testing.T) {
	c := New()
	_, version := c.Snapshot()

	const increments = 100
	for i := 0; i < increments; i++ {
		c.Increment()
	}

	// The subscriber may have missed every intermediate value, but the
	// final one must be observable.
	value, _, err := c.Wait(context.Background(), version)
	if err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if value != increments {
		t.Fatalf("converged value = %d, want %d", value, increments)
	}
}
