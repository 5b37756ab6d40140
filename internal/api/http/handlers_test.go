package http

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mediaflow/backend/internal/domain/job"
	"github.com/mediaflow/backend/internal/domain/pipeline"
	"github.com/mediaflow/backend/internal/infrastructure/monitoring"
	"github.com/mediaflow/backend/internal/infrastructure/tracing"
)

// fixedSimulation returns constant outcomes with no real delay
type fixedSimulation struct {
	ratio float64
	thumb bool
}

func (s fixedSimulation) StepDelay(pipeline.Step) time.Duration { return 0 }
func (s fixedSimulation) OptimizationLevel() pipeline.Level     { return pipeline.LevelMedium }
func (s fixedSimulation) SizeSavedRatio() float64               { return s.ratio }
func (s fixedSimulation) ThumbnailCreated() bool                { return s.thumb }

type fixture struct {
	router *gin.Engine
	store  *job.Store
	sched  *pipeline.Scheduler
}

// newFixture stands up the full handler stack with a deterministic
// simulation. sleep defaults to a no-op; pass one to gate pipeline progress.
func newFixture(t *testing.T, cfg Config, sleep func(time.Duration)) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if sleep == nil {
		sleep = func(time.Duration) {}
	}

	store := job.NewStore()
	factory := job.NewFactory(store)
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("test", zap.NewNop())

	runner := pipeline.NewRunner(store, fixedSimulation{ratio: 0.3, thumb: true}, tracer, metrics, zap.NewNop(),
		pipeline.WithSleep(sleep))
	sched := pipeline.NewScheduler(runner, 2, 16, zap.NewNop())
	t.Cleanup(func() { _ = sched.Shutdown(context.Background()) })

	handlers := NewHandlers(cfg, store, factory, sched, metrics, nil, zap.NewNop())

	router := gin.New()
	router.POST("/api/upload", handlers.Upload)
	router.GET("/api/status/:jobId", handlers.Status)
	router.GET("/api/health", handlers.Health)

	return &fixture{router: router, store: store, sched: sched}
}

func defaultConfig() Config {
	return Config{MaxFileSize: 50 * 1024 * 1024, ImagesOnly: true}
}

func (f *fixture) post(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestUploadAcceptedAndEventuallyCompleted(t *testing.T) {
	f := newFixture(t, defaultConfig(), nil)

	w := f.post(`{"fileName":"a.jpg","fileType":"image/jpeg","fileSize":1048576}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "accepted", body["status"])
	jobID, _ := body["jobId"].(string)
	require.True(t, strings.HasPrefix(jobID, "job_"), "jobId should be prefixed, got %q", jobID)
	assert.Equal(t, MsgUploadAccepted, body["message"])

	require.Eventually(t, func() bool {
		j, ok := f.store.Get(jobID)
		return ok && j.Status == job.StatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	j, _ := f.store.Get(jobID)
	require.NotNil(t, j.Result)
	assert.True(t, j.Result.Optimized)
	assert.Equal(t, int64(math.Floor(float64(1048576)*0.3)), j.Result.SizeSaved)
	assert.LessOrEqual(t, j.Result.SizeSaved, j.FileSize)
}

func TestUploadRespondsBeforePipelineFinishes(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	f := newFixture(t, defaultConfig(), func(time.Duration) { <-release })

	start := time.Now()
	w := f.post(`{"fileName":"a.jpg","fileType":"image/jpeg","fileSize":1024}`)
	elapsed := time.Since(start)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Less(t, elapsed, 500*time.Millisecond, "response must not wait for the pipeline")

	// The job is still in flight while the handler has already responded.
	jobID := decode(t, w)["jobId"].(string)
	j, ok := f.store.Get(jobID)
	require.True(t, ok)
	assert.False(t, j.Status.Terminal())
}

func TestUploadFileTooLarge(t *testing.T) {
	f := newFixture(t, defaultConfig(), nil)

	w := f.post(`{"fileName":"big.jpg","fileType":"image/jpeg","fileSize":60000000}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrFileTooLarge, decode(t, w)["error"])
	assert.Equal(t, 0, f.store.Len(), "no job may be created on validation failure")

	// A fabricated id must report not-found, not pending.
	w = f.get("/api/status/job_01HZZZZZZZZZZZZZZZZZZZZZZZ")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrJobNotFound, decode(t, w)["error"])
}

func TestUploadRejectsNonImage(t *testing.T) {
	f := newFixture(t, defaultConfig(), nil)

	w := f.post(`{"fileName":"doc.pdf","fileType":"application/pdf","fileSize":1000}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrNotAnImage, decode(t, w)["error"])
	assert.Equal(t, 0, f.store.Len())
}

func TestUploadGenericVariantAcceptsAnyType(t *testing.T) {
	cfg := defaultConfig()
	cfg.ImagesOnly = false
	f := newFixture(t, cfg, nil)

	w := f.post(`{"fileName":"doc.pdf","fileType":"application/pdf","fileSize":1000}`)
	require.Equal(t, http.StatusOK, w.Code)

	jobID := decode(t, w)["jobId"].(string)
	require.Eventually(t, func() bool {
		j, ok := f.store.Get(jobID)
		return ok && j.Status == job.StatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	// Non-image jobs finalize without simulated optimization.
	j, _ := f.store.Get(jobID)
	require.NotNil(t, j.Result)
	assert.False(t, j.Result.Optimized)
}

func TestUploadMissingFields(t *testing.T) {
	f := newFixture(t, defaultConfig(), nil)

	tests := []struct {
		name string
		body string
	}{
		{"no fileName", `{"fileType":"image/jpeg","fileSize":1000}`},
		{"no fileType", `{"fileName":"a.jpg","fileSize":1000}`},
		{"no fileSize", `{"fileName":"a.jpg","fileType":"image/jpeg"}`},
		{"empty body", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.post(tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, ErrMissingFields, decode(t, w)["error"])
		})
	}

	assert.Equal(t, 0, f.store.Len())
}

func TestUploadMalformedBody(t *testing.T) {
	f := newFixture(t, defaultConfig(), nil)

	w := f.post(`{not json`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, ErrUploadFault, decode(t, w)["error"])
	assert.Equal(t, 0, f.store.Len())
}

func TestValidationOrder(t *testing.T) {
	f := newFixture(t, defaultConfig(), nil)

	// Oversized AND non-image: the size check fires first.
	w := f.post(`{"fileName":"big.bin","fileType":"application/octet-stream","fileSize":60000000}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrFileTooLarge, decode(t, w)["error"])
}

func TestStatusBeforePipelineCompletes(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	f := newFixture(t, defaultConfig(), func(time.Duration) { <-release })

	w := f.post(`{"fileName":"a.jpg","fileType":"image/jpeg","fileSize":2048}`)
	require.Equal(t, http.StatusOK, w.Code)
	jobID := decode(t, w)["jobId"].(string)

	w = f.get("/api/status/" + jobID)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	status := body["status"].(string)
	assert.Contains(t, []string{"pending", "processing"}, status)
	assert.Nil(t, body["result"], "no result before a terminal state")
	assert.Nil(t, body["completedAt"], "no completedAt before a terminal state")
}

func TestStatusSnapshotFields(t *testing.T) {
	f := newFixture(t, defaultConfig(), nil)

	w := f.post(`{"fileName":"a.jpg","fileType":"image/jpeg","fileSize":4096}`)
	jobID := decode(t, w)["jobId"].(string)

	require.Eventually(t, func() bool {
		j, _ := f.store.Get(jobID)
		return j.Status.Terminal()
	}, 2*time.Second, 5*time.Millisecond)

	body := decode(t, f.get("/api/status/"+jobID))
	assert.Equal(t, jobID, body["jobId"])
	assert.Equal(t, "a.jpg", body["fileName"])
	assert.Equal(t, float64(4096), body["fileSize"])
	assert.Equal(t, "completed", body["status"])
	assert.NotEmpty(t, body["createdAt"])
	assert.NotEmpty(t, body["completedAt"])
	assert.NotNil(t, body["result"])
}

func TestStatusNeverRegresses(t *testing.T) {
	f := newFixture(t, defaultConfig(), nil)

	w := f.post(`{"fileName":"a.jpg","fileType":"image/jpeg","fileSize":1000}`)
	jobID := decode(t, w)["jobId"].(string)

	rank := map[job.Status]int{
		job.StatusPending:    0,
		job.StatusProcessing: 1,
		job.StatusCompleted:  2,
		job.StatusFailed:     2,
	}

	last := -1
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		j, ok := f.store.Get(jobID)
		require.True(t, ok)
		cur := rank[j.Status]
		require.GreaterOrEqual(t, cur, last, "status regressed from rank %d to %d", last, cur)
		last = cur
		if j.Status.Terminal() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
}

func TestHealth(t *testing.T) {
	f := newFixture(t, defaultConfig(), nil)

	w := f.get("/api/health")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, AppName, body["app"])
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}
