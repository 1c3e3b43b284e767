package lifecycle_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/docai/pkg/lifecycle"
)

func TestStartup(t *testing.T) {
	lc := lifecycle.New()
	if lc.Ready() {
		t.Fatal("ready before startup")
	}

	var ran atomic.Int32
	for range 3 {
		lc.OnStartup("counter", func(context.Context) error {
			ran.Add(1)
			return nil
		})
	}

	if err := lc.WaitForStartup(); err != nil {
		t.Fatalf("WaitForStartup: %v", err)
	}
	if !lc.Ready() {
		t.Error("not ready after startup")
	}
	if got := ran.Load(); got != 3 {
		t.Errorf("startup hooks ran %d times, want 3", got)
	}
}

func TestStartupFailure(t *testing.T) {
	lc := lifecycle.New()
	boom := errors.New("unreachable")

	lc.OnStartup("database", func(context.Context) error { return boom })
	lc.OnStartup("storage", func(context.Context) error { return nil })

	err := lc.WaitForStartup()
	if !errors.Is(err, boom) {
		t.Fatalf("WaitForStartup error = %v, want %v", err, boom)
	}
	if !strings.Contains(err.Error(), "database") {
		t.Errorf("error %q does not name the hook", err)
	}
	if lc.Ready() {
		t.Error("ready despite failed startup hook")
	}

	if again := lc.WaitForStartup(); !errors.Is(again, boom) {
		t.Errorf("second WaitForStartup = %v", again)
	}
}

func TestShutdownOrder(t *testing.T) {
	lc := lifecycle.New()

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) func(context.Context) {
		return func(context.Context) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	lc.OnShutdown("database", record("database"))
	lc.OnShutdown("runner", record("runner"))
	lc.OnShutdown("http", record("http"))

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	want := []string{"http", "runner", "database"}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestShutdownStopsWorkers(t *testing.T) {
	lc := lifecycle.New()
	var stopped atomic.Bool

	lc.Go(func(ctx context.Context) {
		<-ctx.Done()
		stopped.Store(true)
	})

	lc.OnShutdown("check", func(context.Context) {
		if lc.Context().Err() == nil {
			t.Error("shutdown hook ran before cancellation")
		}
	})

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !stopped.Load() {
		t.Error("worker did not observe cancellation")
	}
	if lc.Ready() {
		t.Error("ready after shutdown")
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()
	release := make(chan struct{})
	defer close(release)

	lc.Go(func(context.Context) {
		<-release
	})

	err := lc.Shutdown(10 * time.Millisecond)
	if !errors.Is(err, lifecycle.ErrShutdownTimeout) {
		t.Errorf("Shutdown error = %v, want ErrShutdownTimeout", err)
	}
}

func TestShutdownOnce(t *testing.T) {
	lc := lifecycle.New()
	var calls atomic.Int32
	lc.OnShutdown("once", func(context.Context) { calls.Add(1) })

	lc.Shutdown(time.Second)
	lc.Shutdown(time.Second)

	if got := calls.Load(); got != 1 {
		t.Errorf("hook ran %d times, want 1", got)
	}
}
