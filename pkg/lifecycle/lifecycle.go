// Package lifecycle coordinates startup, background work, and graceful shutdown
// across the service's subsystems.
//
// Startup hooks run concurrently as soon as they are registered. Shutdown
// cancels the coordinator context, then runs shutdown hooks one at a time in
// reverse registration order, so systems registered first (the database) are
// released last.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// ErrShutdownTimeout is returned when hooks or workers outlive the shutdown timeout.
var ErrShutdownTimeout = errors.New("shutdown timed out")

type shutdownHook struct {
	name string
	fn   func(ctx context.Context)
}

// Coordinator tracks startup hooks, background workers, and shutdown hooks.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startup   sync.WaitGroup
	workers   sync.WaitGroup
	ready     atomic.Bool
	startOnce sync.Once
	startErr  error

	mu       sync.Mutex
	failures []error
	hooks    []shutdownHook

	stopOnce sync.Once
	stopErr  error
}

// New creates a Coordinator with a cancellable context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{ctx: ctx, cancel: cancel}
}

// Context returns the coordinator's context, cancelled when shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn in its own goroutine. A returned error is reported by
// WaitForStartup under the hook's name and keeps the coordinator unready.
func (c *Coordinator) OnStartup(name string, fn func(ctx context.Context) error) {
	c.startup.Go(func() {
		if err := fn(c.ctx); err != nil {
			c.mu.Lock()
			c.failures = append(c.failures, fmt.Errorf("%s: %w", name, err))
			c.mu.Unlock()
		}
	})
}

// OnShutdown registers cleanup that runs after the context is cancelled.
// The hook's ctx expires with the shutdown timeout.
func (c *Coordinator) OnShutdown(name string, fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, shutdownHook{name: name, fn: fn})
}

// Go starts a background worker that runs until its ctx is cancelled.
// Shutdown waits for the worker to return.
func (c *Coordinator) Go(fn func(ctx context.Context)) {
	c.workers.Go(func() {
		fn(c.ctx)
	})
}

// Ready reports whether every startup hook has completed without error.
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// WaitForStartup blocks until the startup hooks registered so far finish.
// It may be called from several goroutines; all observe the same result.
func (c *Coordinator) WaitForStartup() error {
	c.startup.Wait()
	c.startOnce.Do(func() {
		c.mu.Lock()
		c.startErr = errors.Join(c.failures...)
		c.mu.Unlock()
		c.ready.Store(c.startErr == nil)
	})
	return c.startErr
}

// Shutdown cancels the context, runs shutdown hooks in reverse order, and
// waits for workers. Repeated calls return the first call's result.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.stopOnce.Do(func() {
		c.stopErr = c.shutdown(timeout)
	})
	return c.stopErr
}

func (c *Coordinator) shutdown(timeout time.Duration) error {
	c.ready.Store(false)
	c.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c.mu.Lock()
	hooks := slices.Clone(c.hooks)
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, h := range slices.Backward(hooks) {
			h.fn(ctx)
		}
		c.workers.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w after %v", ErrShutdownTimeout, timeout)
	}
}
