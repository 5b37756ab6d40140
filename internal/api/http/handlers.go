package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mediaflow/backend/internal/domain/job"
	"github.com/mediaflow/backend/internal/domain/pipeline"
	"github.com/mediaflow/backend/internal/infrastructure/monitoring"
	"github.com/mediaflow/backend/internal/infrastructure/tracing"
)

// AppName identifies the service in health responses
const AppName = "mediaflow-backend"

// Validation messages returned to clients. Exact strings are part of the
// API contract.
const (
	ErrMissingFields  = "Missing required fields"
	ErrFileTooLarge   = "File too large (max 50MB)"
	ErrNotAnImage     = "Only images are supported"
	ErrUploadFault    = "Failed to process upload"
	ErrJobNotFound    = "Job not found"
	MsgUploadAccepted = "Upload received, processing started"
)

// Rejection reasons used as metric labels
const (
	reasonMissingFields = "missing_fields"
	reasonFileTooLarge  = "file_too_large"
	reasonNotAnImage    = "not_an_image"
	reasonMalformedBody = "malformed_body"
)

// UploadRequest is the upload submission body
type UploadRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

// Config holds handler-level validation settings
type Config struct {
	// MaxFileSize is the upload ceiling in bytes.
	MaxFileSize int64
	// ImagesOnly enables the image-restricted validation variant.
	ImagesOnly bool
}

// Handlers contains all HTTP handlers
type Handlers struct {
	cfg       Config
	store     *job.Store
	factory   *job.Factory
	scheduler *pipeline.Scheduler
	metrics   *monitoring.Metrics
	notifier  pipeline.Notifier
	logger    *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(
	cfg Config,
	store *job.Store,
	factory *job.Factory,
	scheduler *pipeline.Scheduler,
	metrics *monitoring.Metrics,
	notifier pipeline.Notifier,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		cfg:       cfg,
		store:     store,
		factory:   factory,
		scheduler: scheduler,
		metrics:   metrics,
		notifier:  notifier,
		logger:    logger,
	}
}

// Upload validates an upload request, creates a job, schedules background
// processing, and responds immediately. Response latency never includes
// pipeline duration.
func (h *Handlers) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Malformed body is a handler fault, not a validation failure:
		// generic message to the client, detail to the side channel.
		h.metrics.RecordUploadRejected(reasonMalformedBody)
		h.logger.Warn("upload body rejected",
			zap.String("trace_id", string(tracing.GetTraceID(ctx))),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrUploadFault})
		return
	}

	if msg, reason := h.validate(req); msg != "" {
		h.metrics.RecordUploadRejected(reason)
		h.logger.Info("upload rejected",
			zap.String("file_name", req.FileName),
			zap.String("reason", reason),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	j := h.factory.Create(req.FileName, req.FileType, req.FileSize)
	h.metrics.RecordUploadAccepted()
	h.metrics.RecordJobTransition("", string(job.StatusPending))
	if h.notifier != nil {
		h.notifier.JobUpdated(j)
	}

	// Fire and forget: the pipeline's outcome is observable only through
	// status polling and the event stream.
	h.scheduler.Submit(ctx, j)

	h.logger.Info("upload accepted",
		zap.String("job_id", j.ID),
		zap.String("file_name", j.FileName),
		zap.Int64("file_size", j.FileSize),
	)

	c.JSON(http.StatusOK, gin.H{
		"jobId":   j.ID,
		"status":  "accepted",
		"message": MsgUploadAccepted,
	})
}

// validate applies the checks in contract order, short-circuiting on the
// first failure. Returns the client message and metric reason, or empty
// strings when valid.
func (h *Handlers) validate(req UploadRequest) (msg, reason string) {
	if req.FileName == "" || req.FileType == "" || req.FileSize == 0 {
		return ErrMissingFields, reasonMissingFields
	}
	if req.FileSize > h.cfg.MaxFileSize {
		return ErrFileTooLarge, reasonFileTooLarge
	}
	if h.cfg.ImagesOnly && !strings.HasPrefix(req.FileType, "image/") {
		return ErrNotAnImage, reasonNotAnImage
	}
	return "", ""
}

// Status returns the current snapshot of a job. Not-found is distinct from
// "exists but still pending": polling clients rely on the difference.
func (h *Handlers) Status(c *gin.Context) {
	jobID := c.Param("jobId")

	j, ok := h.store.Get(jobID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrJobNotFound})
		return
	}

	c.JSON(http.StatusOK, j)
}

// Health handles the liveness probe
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":       AppName,
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"jobs":      h.store.CountByStatus(),
	})
}
