package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Upload metrics
	UploadsAccepted prometheus.Counter
	UploadsRejected *prometheus.CounterVec

	// Job metrics
	JobsByStatus *prometheus.GaugeVec
	JobsTotal    prometheus.Counter

	// Pipeline metrics
	StepDuration     *prometheus.HistogramVec
	PipelineDuration *prometheus.HistogramVec
	PipelineFailures prometheus.Counter

	// WebSocket metrics
	EventSubscribers prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time
}

// NewMetrics creates a metrics collector registered on its own registry.
// A dedicated registry keeps repeated construction (tests) collision-free.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.NewRegistry())
}

// NewMetricsWithRegistry creates a metrics collector on the given registry
func NewMetricsWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := registerer{reg: reg}

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.counterVec(
			prometheus.CounterOpts{
				Name: "backend_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.histogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.histogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.histogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		UploadsAccepted: factory.counter(prometheus.CounterOpts{
			Name: "backend_uploads_accepted_total",
			Help: "Total number of accepted upload requests",
		}),
		UploadsRejected: factory.counterVec(
			prometheus.CounterOpts{
				Name: "backend_uploads_rejected_total",
				Help: "Total number of rejected upload requests by reason",
			},
			[]string{"reason"},
		),

		JobsByStatus: factory.gaugeVec(
			prometheus.GaugeOpts{
				Name: "backend_jobs",
				Help: "Current number of jobs by status",
			},
			[]string{"status"},
		),
		JobsTotal: factory.counter(prometheus.CounterOpts{
			Name: "backend_jobs_total",
			Help: "Total number of jobs created",
		}),

		StepDuration: factory.histogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_pipeline_step_duration_seconds",
				Help:    "Simulated pipeline step duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 1.5, 2, 3, 5},
			},
			[]string{"step"},
		),
		PipelineDuration: factory.histogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_pipeline_duration_seconds",
				Help:    "End-to-end pipeline duration in seconds",
				Buckets: []float64{.1, .25, .5, 1, 1.5, 2, 3, 5, 10},
			},
			[]string{"outcome"},
		),
		PipelineFailures: factory.counter(prometheus.CounterOpts{
			Name: "backend_pipeline_failures_total",
			Help: "Total number of pipeline runs that ended in failure",
		}),

		EventSubscribers: factory.gauge(prometheus.GaugeOpts{
			Name: "backend_event_subscribers",
			Help: "Current number of connected job-event subscribers",
		}),
	}

	return m
}

// Registry returns the registry all collectors are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Uptime returns time elapsed since the collector was created
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// RecordHTTPRequest records metrics for a completed HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// RecordUploadAccepted increments the accepted-upload counter
func (m *Metrics) RecordUploadAccepted() {
	m.UploadsAccepted.Inc()
	m.JobsTotal.Inc()
}

// RecordUploadRejected increments the rejected-upload counter for a reason
func (m *Metrics) RecordUploadRejected(reason string) {
	m.UploadsRejected.WithLabelValues(reason).Inc()
}

// RecordJobTransition moves a job between status gauges. An empty from
// matches the initial transition into pending.
func (m *Metrics) RecordJobTransition(from, to string) {
	if from != "" {
		m.JobsByStatus.WithLabelValues(from).Dec()
	}
	m.JobsByStatus.WithLabelValues(to).Inc()
}

// RecordPipelineRun records a finished pipeline run
func (m *Metrics) RecordPipelineRun(outcome string, duration time.Duration) {
	m.PipelineDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if outcome == "failed" {
		m.PipelineFailures.Inc()
	}
}

// StepTimer measures the duration of one pipeline step
type StepTimer struct {
	start   time.Time
	metrics *Metrics
	step    string
}

// NewStepTimer creates a timer for a named pipeline step
func NewStepTimer(metrics *Metrics, step string) *StepTimer {
	return &StepTimer{
		start:   time.Now(),
		metrics: metrics,
		step:    step,
	}
}

// Stop records the elapsed step duration
func (t *StepTimer) Stop() {
	t.metrics.StepDuration.WithLabelValues(t.step).Observe(time.Since(t.start).Seconds())
}

// registerer is a tiny registry-bound factory so metrics never land on the
// global default registry.
type registerer struct {
	reg *prometheus.Registry
}

func (f registerer) counter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	f.reg.MustRegister(c)
	return c
}

func (f registerer) counterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	f.reg.MustRegister(c)
	return c
}

func (f registerer) gauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	g := prometheus.NewGauge(opts)
	f.reg.MustRegister(g)
	return g
}

func (f registerer) gaugeVec(opts prometheus.GaugeOpts, labels []string) *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(opts, labels)
	f.reg.MustRegister(g)
	return g
}

func (f registerer) histogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(opts, labels)
	f.reg.MustRegister(h)
	return h
}
