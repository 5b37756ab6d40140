package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/mediaflow/backend/internal/domain/job"
	"github.com/mediaflow/backend/internal/infrastructure/monitoring"
	"github.com/mediaflow/backend/internal/infrastructure/tracing"
)

// Notifier receives job records after every stored transition. Implemented
// by the websocket event hub; nil disables notifications.
type Notifier interface {
	JobUpdated(j job.Job)
}

// Runner executes the simulated pipeline for a single job. After the
// scheduler hands a job over, the runner is its sole writer until a terminal
// state is stored.
type Runner struct {
	store    *job.Store
	sim      Simulation
	tracer   *tracing.Tracer
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	notifier Notifier

	sleep func(time.Duration)
	now   func() time.Time
}

// RunnerOption customizes a Runner
type RunnerOption func(*Runner)

// WithNotifier attaches a transition notifier
func WithNotifier(n Notifier) RunnerOption {
	return func(r *Runner) { r.notifier = n }
}

// WithSleep replaces the sleep function, letting tests run without waiting
func WithSleep(sleep func(time.Duration)) RunnerOption {
	return func(r *Runner) { r.sleep = sleep }
}

// WithClock replaces the timestamp source
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a pipeline runner
func NewRunner(store *job.Store, sim Simulation, tracer *tracing.Tracer, metrics *monitoring.Metrics, logger *zap.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:   store,
		sim:     sim,
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
		sleep:   time.Sleep,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Process runs the pipeline for j to a terminal state. It stores the
// processing transition before any simulated work, then stores exactly one
// terminal record with Result and CompletedAt set together. Faults,
// including panics in the simulated stages, finalize the job as failed.
func (r *Runner) Process(ctx context.Context, j job.Job) {
	start := r.now()

	span, ctx := r.tracer.StartSpan(ctx, "pipeline.process")
	span.SetTag("job.id", j.ID)
	span.SetTag("file.name", j.FileName)
	span.SetTag("file.type", j.FileType)

	j.Status = job.StatusProcessing
	r.persist(j, job.StatusPending)

	var result job.Result
	var runErr error

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				runErr = fmt.Errorf("pipeline panic: %v", rec)
			}
		}()
		result, runErr = r.run(ctx, j, span)
	}()

	completedAt := r.now()
	j.CompletedAt = &completedAt

	if runErr != nil {
		j.Status = job.StatusFailed
		j.Result = &job.Result{Error: runErr.Error()}
		span.SetError(runErr)
		r.logger.Error("pipeline run failed",
			zap.String("job_id", j.ID),
			zap.Error(runErr),
		)
	} else {
		j.Status = job.StatusCompleted
		j.Result = &result
		span.SetTag("job.size_saved", fmt.Sprintf("%d", result.SizeSaved))
		r.logger.Info("pipeline run completed",
			zap.String("job_id", j.ID),
			zap.Int64("size_saved", result.SizeSaved),
			zap.Bool("thumbnail_created", result.ThumbnailCreated),
		)
	}

	span.SetTag("job.status", string(j.Status))
	r.persist(j, job.StatusProcessing)
	r.metrics.RecordPipelineRun(string(j.Status), time.Since(start))

	span.Finish()
	r.tracer.Submit(span)
}

// run performs the simulated stages and computes the outcome
func (r *Runner) run(ctx context.Context, j job.Job, span *tracing.Span) (job.Result, error) {
	if !j.IsImage() {
		// Nothing to simulate for non-image uploads; finalize empty-handed.
		return job.Result{}, nil
	}

	for _, step := range []Step{StepOptimize, StepThumbnail} {
		if err := r.runStep(ctx, j, step); err != nil {
			return job.Result{}, err
		}
	}

	level := r.sim.OptimizationLevel()
	span.SetTag("optimization.level", string(level))

	ratio := r.sim.SizeSavedRatio()
	if math.IsNaN(ratio) || ratio < 0 || ratio > 1 {
		return job.Result{}, fmt.Errorf("invalid size-saved ratio %v", ratio)
	}

	return job.Result{
		Optimized:        true,
		ThumbnailCreated: r.sim.ThumbnailCreated(),
		SizeSaved:        int64(math.Floor(float64(j.FileSize) * ratio)),
	}, nil
}

// runStep suspends for the step's simulated duration inside a child span
func (r *Runner) runStep(ctx context.Context, j job.Job, step Step) error {
	return r.tracer.WithSpan(ctx, "pipeline."+string(step), func(ctx context.Context, span *tracing.Span) error {
		span.SetTag("job.id", j.ID)

		delay := r.sim.StepDelay(step)
		span.SetTag("simulated.delay", delay.String())

		timer := monitoring.NewStepTimer(r.metrics, string(step))
		defer timer.Stop()

		r.sleep(delay)
		return nil
	})
}

// persist stores the record and fans the transition out to metrics and the
// event notifier. An empty from marks the initial insert.
func (r *Runner) persist(j job.Job, from job.Status) {
	r.store.Put(j)
	r.metrics.RecordJobTransition(string(from), string(j.Status))
	if r.notifier != nil {
		r.notifier.JobUpdated(j)
	}
}
