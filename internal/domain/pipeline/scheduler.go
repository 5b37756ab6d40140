package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mediaflow/backend/internal/domain/job"
	"github.com/mediaflow/backend/internal/infrastructure/tracing"
)

// Scheduler dispatches jobs to a bounded worker pool. Submit never blocks
// the caller: if the queue is full the job runs on a dedicated goroutine
// instead of waiting for a worker. Submitted jobs always run to a terminal
// state; there is no cancellation.
type Scheduler struct {
	runner *Runner
	logger *zap.Logger

	queue    chan task
	workers  sync.WaitGroup
	overflow sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

type task struct {
	ctx context.Context
	job job.Job
}

// NewScheduler creates a scheduler with the given pool size and starts its
// workers.
func NewScheduler(runner *Runner, workers, queueSize int, logger *zap.Logger) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	s := &Scheduler{
		runner: runner,
		logger: logger,
		queue:  make(chan task, queueSize),
	}

	for i := 0; i < workers; i++ {
		s.workers.Add(1)
		go s.work()
	}

	return s
}

func (s *Scheduler) work() {
	defer s.workers.Done()
	for t := range s.queue {
		s.runner.Process(t.ctx, t.job)
	}
}

// Submit schedules j for background processing and returns immediately.
// The request context's trace identifiers carry over but its cancellation
// does not: an accepted job outlives the request that created it.
func (s *Scheduler) Submit(ctx context.Context, j job.Job) {
	t := task{ctx: tracing.Detach(ctx), job: j}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Warn("scheduler closed, dropping job", zap.String("job_id", j.ID))
		return
	}

	select {
	case s.queue <- t:
		s.mu.Unlock()
	default:
		// Queue full. Run on a dedicated goroutine rather than block the
		// submitting handler.
		s.overflow.Add(1)
		s.mu.Unlock()
		s.logger.Warn("pipeline queue full, running job unpooled", zap.String("job_id", j.ID))
		go func() {
			defer s.overflow.Done()
			s.runner.Process(t.ctx, t.job)
		}()
	}
}

// Shutdown stops accepting jobs and waits for queued and in-flight runs to
// finalize, or for ctx to expire.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		s.overflow.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
