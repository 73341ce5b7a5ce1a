package service

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/aussiebroadwan/signup/pkg/slogx"
)

var (
	// ErrJobQueueFull is returned by Dispatch when every queue slot is taken.
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrJobRunnerStopped is returned by Dispatch once Stop has been called.
	ErrJobRunnerStopped = errors.New("job runner is stopped")
)

// DefaultJobQueueSize is used when NewJobRunner is given a non-positive size.
const DefaultJobQueueSize = 16

type queuedJob struct {
	id  string
	ctx context.Context
	fn  func(context.Context)
}

// JobRunner executes background jobs one at a time, in submission order,
// outside of any request. Jobs are not persisted: whatever is still queued
// when the runner stops is dropped and logged.
type JobRunner struct {
	Logger *slog.Logger

	queue   chan queuedJob
	mu      sync.RWMutex
	stopped bool
	started atomic.Bool

	// cancel aborts the in-flight job; nil while idle. Guarded by mu.
	cancel context.CancelFunc

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewJobRunner creates a runner with room for queueSize pending jobs.
func NewJobRunner(logger *slog.Logger, queueSize int) *JobRunner {
	if queueSize <= 0 {
		queueSize = DefaultJobQueueSize
	}

	return &JobRunner{
		Logger: logger,
		queue:  make(chan queuedJob, queueSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background worker. It is non-blocking; call Stop to shut
// the worker down.
func (r *JobRunner) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	go r.run()
	r.Logger.Info("job runner started", "queue_size", cap(r.queue))
}

// Dispatch queues fn without blocking. fn receives a context that carries
// the logger of ctx but none of its deadline or cancellation, so it keeps
// running after the request that submitted it has returned.
func (r *JobRunner) Dispatch(ctx context.Context, id string, fn func(context.Context)) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.stopped {
		return ErrJobRunnerStopped
	}

	select {
	case r.queue <- queuedJob{id: id, ctx: slogx.Detach(ctx), fn: fn}:
		return nil
	default:
		return ErrJobQueueFull
	}
}

// Stop refuses new jobs and waits for the in-flight one to finish. If ctx
// expires first, the in-flight job's context is cancelled and ctx.Err() is
// returned.
func (r *JobRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
	if !r.started.Load() {
		return nil
	}

	select {
	case <-r.doneCh:
		r.Logger.Info("job runner stopped")
		return nil
	case <-ctx.Done():
		r.mu.Lock()
		if r.cancel != nil {
			r.cancel()
		}
		r.mu.Unlock()
		r.Logger.Warn("job runner did not stop in time, cancelled in-flight job", "err", ctx.Err())
		return ctx.Err()
	}
}

func (r *JobRunner) run() {
	defer close(r.doneCh)

	for {
		select {
		case <-r.stopCh:
			r.drop()
			return
		default:
		}

		select {
		case j := <-r.queue:
			r.execute(j)
		case <-r.stopCh:
			r.drop()
			return
		}
	}
}

// execute runs one job, containing any panic so the worker survives.
func (r *JobRunner) execute(j queuedJob) {
	ctx, cancel := context.WithCancel(j.ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.cancel = nil
		r.mu.Unlock()
		cancel()
	}()

	defer func() {
		if rec := recover(); rec != nil {
			slogx.FromContext(j.ctx).Error("background job panicked",
				"job_id", j.id,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
		}
	}()

	j.fn(ctx)
}

func (r *JobRunner) drop() {
	for {
		select {
		case j := <-r.queue:
			r.Logger.Warn("dropping queued job on shutdown", "job_id", j.id)
		default:
			return
		}
	}
}
