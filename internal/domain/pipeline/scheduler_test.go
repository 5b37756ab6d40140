package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mediaflow/backend/internal/domain/job"
	"github.com/mediaflow/backend/internal/infrastructure/config"
)

func defaultPipelineConfig() config.PipelineConfig {
	return config.Default().Pipeline
}

func TestSubmitReturnsBeforeProcessingFinishes(t *testing.T) {
	release := make(chan struct{})
	sim := &stubSimulation{ratio: 0.3, thumb: true}
	runner, store := newTestRunner(t, sim, WithSleep(func(time.Duration) {
		<-release
	}))
	sched := NewScheduler(runner, 2, 16, zap.NewNop())

	j := pendingJob("job_1", "image/jpeg", 1000)
	store.Put(j)

	done := make(chan struct{})
	go func() {
		sched.Submit(context.Background(), j)
		close(done)
	}()

	select {
	case <-done:
		// Submit returned while the pipeline is still suspended. The
		// handler's latency is independent of processing time.
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on pipeline execution")
	}

	got, _ := store.Get("job_1")
	assert.NotEqual(t, job.StatusCompleted, got.Status, "job should still be in flight")

	close(release)
	require.NoError(t, sched.Shutdown(context.Background()))

	got, _ = store.Get("job_1")
	assert.Equal(t, job.StatusCompleted, got.Status)
}

func TestSchedulerProcessesAllSubmittedJobs(t *testing.T) {
	sim := &stubSimulation{ratio: 0.25, thumb: true}
	runner, store := newTestRunner(t, sim)
	sched := NewScheduler(runner, 4, 8, zap.NewNop())

	const count = 50
	for i := 0; i < count; i++ {
		j := pendingJob(fmt.Sprintf("job_%d", i), "image/png", 100)
		store.Put(j)
		sched.Submit(context.Background(), j)
	}

	require.NoError(t, sched.Shutdown(context.Background()))

	for i := 0; i < count; i++ {
		got, ok := store.Get(fmt.Sprintf("job_%d", i))
		require.True(t, ok)
		assert.True(t, got.Status.Terminal(), "job %d should be terminal, got %s", i, got.Status)
	}
}

func TestSchedulerOverflowRunsUnpooled(t *testing.T) {
	release := make(chan struct{})
	sim := &stubSimulation{ratio: 0.3, thumb: true}
	runner, store := newTestRunner(t, sim, WithSleep(func(time.Duration) {
		<-release
	}))
	// One worker, no queue: the second submission cannot be pooled.
	sched := NewScheduler(runner, 1, 0, zap.NewNop())

	j1 := pendingJob("job_a", "image/jpeg", 100)
	j2 := pendingJob("job_b", "image/jpeg", 100)
	store.Put(j1)
	store.Put(j2)

	sched.Submit(context.Background(), j1)
	sched.Submit(context.Background(), j2)

	close(release)
	require.NoError(t, sched.Shutdown(context.Background()))

	for _, id := range []string{"job_a", "job_b"} {
		got, _ := store.Get(id)
		assert.Equal(t, job.StatusCompleted, got.Status)
	}
}

func TestSubmitAfterShutdownIsDropped(t *testing.T) {
	sim := &stubSimulation{ratio: 0.3}
	runner, store := newTestRunner(t, sim)
	sched := NewScheduler(runner, 1, 1, zap.NewNop())

	require.NoError(t, sched.Shutdown(context.Background()))

	j := pendingJob("job_late", "image/jpeg", 100)
	store.Put(j)

	assert.NotPanics(t, func() {
		sched.Submit(context.Background(), j)
	})

	got, _ := store.Get("job_late")
	assert.Equal(t, job.StatusPending, got.Status, "dropped job stays pending")
}

func TestShutdownHonorsContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	sim := &stubSimulation{ratio: 0.3}
	runner, store := newTestRunner(t, sim, WithSleep(func(time.Duration) {
		<-release
	}))
	sched := NewScheduler(runner, 1, 0, zap.NewNop())

	j := pendingJob("job_slow", "image/jpeg", 100)
	store.Put(j)
	sched.Submit(context.Background(), j)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := sched.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
