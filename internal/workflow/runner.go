package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/docai/internal/documents"
	"github.com/JaimeStill/docai/pkg/lifecycle"
)

// Recovery actions for documents left in processing.
const (
	RecoverRequeue = "requeue"
	RecoverFail    = "fail"
)

// RunnerConfig sizes the worker pool and governs stale-run recovery.
type RunnerConfig struct {
	Workers        int
	QueueSize      int
	StaleAfter     time.Duration
	RecoveryAction string
}

// BatchResult reports the outcome of one document in a batch run.
type BatchResult struct {
	DocumentID uuid.UUID `json:"document_id"`
	Result     *Result   `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Recovery reports what a stale-run sweep did.
type Recovery struct {
	Action   string      `json:"action"`
	Before   time.Time   `json:"before"`
	Failed   []uuid.UUID `json:"failed"`
	Requeued []uuid.UUID `json:"requeued"`
	Skipped  []uuid.UUID `json:"skipped"`
}

// Runner processes documents on a bounded pool of workers fed by a bounded queue.
type Runner struct {
	rt     *Runtime
	cfg    RunnerConfig
	queue  chan uuid.UUID
	logger *slog.Logger

	mu      sync.RWMutex
	started bool
	stopped bool
	active  sync.WaitGroup
}

// NewRunner creates a Runner. Non-positive sizes default to one worker and
// a queue of one.
func NewRunner(rt *Runtime, cfg RunnerConfig) *Runner {
	cfg.Workers = max(cfg.Workers, 1)
	cfg.QueueSize = max(cfg.QueueSize, 1)
	if cfg.RecoveryAction == "" {
		cfg.RecoveryAction = RecoverRequeue
	}

	return &Runner{
		rt:     rt,
		cfg:    cfg,
		queue:  make(chan uuid.UUID, cfg.QueueSize),
		logger: rt.Logger.With("workflow", "runner"),
	}
}

// Start launches the workers under the coordinator. Workers stop when the
// coordinator shuts down; queued documents that were not started stay pending.
func (r *Runner) Start(lc *lifecycle.Coordinator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("runner already started")
	}
	r.started = true

	for i := range r.cfg.Workers {
		r.active.Add(1)
		lc.Go(func(ctx context.Context) {
			defer r.active.Done()
			r.work(ctx, i)
		})
	}

	// Registered after the storage and database hooks, so in-flight
	// documents finish before those systems are released.
	lc.OnShutdown("runner", func(ctx context.Context) {
		r.mu.Lock()
		r.stopped = true
		r.mu.Unlock()

		done := make(chan struct{})
		go func() {
			r.active.Wait()
			close(done)
		}()

		select {
		case <-done:
			r.logger.Info("runner stopped", "queued", len(r.queue))
		case <-ctx.Done():
			r.logger.Warn("runner stop timed out", "queued", len(r.queue))
		}
	})

	r.logger.Info("runner started", "workers", r.cfg.Workers, "queue_size", r.cfg.QueueSize)
	return nil
}

// Enqueue schedules a document without blocking.
func (r *Runner) Enqueue(id uuid.UUID) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.stopped {
		return ErrRunnerStopped
	}

	select {
	case r.queue <- id:
		r.logger.Debug("document queued", "document_id", id)
		return nil
	default:
		return ErrQueueFull
	}
}

// Process runs the pipeline for a document on the caller's goroutine.
func (r *Runner) Process(ctx context.Context, id uuid.UUID) (*Result, error) {
	return Execute(ctx, r.rt, id)
}

// Preview analyzes text without persisting anything.
func (r *Runner) Preview(ctx context.Context, text string) (*Analysis, error) {
	return Preview(ctx, r.rt, text)
}

// ProcessBatch runs the pipeline for every id with at most Workers runs in
// flight and returns one result per id in input order.
func (r *Runner) ProcessBatch(ctx context.Context, ids []uuid.UUID) []BatchResult {
	results := make([]BatchResult, len(ids))

	var g errgroup.Group
	g.SetLimit(r.cfg.Workers)

	for i, id := range ids {
		results[i].DocumentID = id

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Error = err.Error()
				return nil
			}

			res, err := Execute(ctx, r.rt, id)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}

			results[i].Result = res
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Recover sweeps documents stuck in processing longer than StaleAfter and
// either fails them or returns them to pending and re-enqueues them.
func (r *Runner) Recover(ctx context.Context) (*Recovery, error) {
	before := r.rt.now().Add(-r.cfg.StaleAfter)

	ids, err := r.rt.Store.ListStale(ctx, before)
	if err != nil {
		return nil, fmt.Errorf("list stale documents: %w", err)
	}

	rec := &Recovery{
		Action:   r.cfg.RecoveryAction,
		Before:   before,
		Failed:   []uuid.UUID{},
		Requeued: []uuid.UUID{},
		Skipped:  []uuid.UUID{},
	}

	status := documents.StatusPending
	if r.cfg.RecoveryAction == RecoverFail {
		status = documents.StatusFailed
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(r.cfg.Workers)

	for _, id := range ids {
		g.Go(func() error {
			if err := r.rt.Store.SaveState(ctx, id, status, r.rt.now()); err != nil {
				return fmt.Errorf("reset document %s: %w", id, err)
			}

			if status == documents.StatusFailed {
				mu.Lock()
				rec.Failed = append(rec.Failed, id)
				mu.Unlock()
				return nil
			}

			err := r.Enqueue(id)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				rec.Requeued = append(rec.Requeued, id)
			case errors.Is(err, ErrQueueFull), errors.Is(err, ErrRunnerStopped):
				rec.Skipped = append(rec.Skipped, id)
			default:
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return rec, err
	}

	if len(ids) > 0 {
		r.logger.Info(
			"stale documents recovered",
			"action", rec.Action,
			"failed", len(rec.Failed),
			"requeued", len(rec.Requeued),
			"skipped", len(rec.Skipped),
		)
	}

	return rec, nil
}

func (r *Runner) work(ctx context.Context, worker int) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-r.queue:
			if _, err := Execute(ctx, r.rt, id); err != nil {
				r.logger.Warn("queued document not processed", "worker", worker, "document_id", id, "error", err)
			}
		}
	}
}
