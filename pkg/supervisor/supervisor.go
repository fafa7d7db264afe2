// Package supervisor runs independently-failable units of work as sibling
// goroutines sharing one cancellation context. The first failure cancels
// the group; remaining units are left to drain naturally rather than being
// stopped abruptly.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// Task is one supervised unit of work. It must return promptly once the
// passed context is cancelled. Returning the context's own error after
// cancellation counts as clean completion, not failure.
type Task func(ctx context.Context) error

// PanicError reports a task that panicked instead of returning. It is kept
// distinct from ordinary task errors so callers can tell a crashed unit
// from one that failed cleanly.
type PanicError struct {
	Task  string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %s panicked: %v", e.Task, e.Value)
}

// Group supervises a set of tasks.
type Group struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu  sync.Mutex
	err error
}

// New creates a group whose shared context derives from parent.
func New(parent context.Context) *Group {
	ctx, cancel := context.WithCancel(parent)
	return &Group{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context returns the group's shared context. It is cancelled on the first
// task failure, on Cancel, or when the parent context is cancelled.
func (g *Group) Context() context.Context {
	return g.ctx
}

// Cancel triggers group cancellation. Safe to call more than once; the
// transition is one-way.
func (g *Group) Cancel() {
	g.cancel()
}

// Go spawns a task under the group's context. The name identifies the task
// in errors. A panicking task is recovered into a *PanicError and treated
// as a failure.
func (g *Group) Go(name string, task Task) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				g.fail(&PanicError{
					Task:  name,
					Value: r,
					Stack: debug.Stack(),
				})
			}
		}()

		err := task(g.ctx)
		if err == nil {
			return
		}
		if errors.Is(err, context.Canceled) && g.ctx.Err() != nil {
			// Clean exit after group cancellation.
			return
		}
		g.fail(fmt.Errorf("task %s: %w", name, err))
	}()
}

// fail records the first error and cancels the group so siblings begin
// draining. Later errors are dropped.
func (g *Group) fail(err error) {
	g.mu.Lock()
	if g.err == nil {
		g.err = err
	}
	g.mu.Unlock()
	g.cancel()
}

// Wait blocks until every spawned task has reached a terminal state, then
// returns the first recorded failure, or nil if all tasks finished
// without error. The group's context is cancelled before Wait returns.
func (g *Group) Wait() error {
	g.wg.Wait()
	g.cancel()
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}
