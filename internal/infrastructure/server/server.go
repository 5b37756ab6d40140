// Package server wires configuration, logging, tracing, metrics, the job
// domain, and the HTTP surface into a runnable service.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/mediaflow/backend/internal/api/http"
	"github.com/mediaflow/backend/internal/api/middleware"
	"github.com/mediaflow/backend/internal/api/ws"
	"github.com/mediaflow/backend/internal/domain/job"
	"github.com/mediaflow/backend/internal/domain/pipeline"
	"github.com/mediaflow/backend/internal/infrastructure/config"
	"github.com/mediaflow/backend/internal/infrastructure/logging"
	"github.com/mediaflow/backend/internal/infrastructure/monitoring"
	"github.com/mediaflow/backend/internal/infrastructure/tracing"
)

// Server wraps the HTTP server and its dependencies
type Server struct {
	cfg        *config.Config
	logger     *logging.Logger
	router     *gin.Engine
	httpServer *http.Server
	scheduler  *pipeline.Scheduler
	store      *job.Store
}

// New creates a fully wired server from configuration
func New(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing mediaflow backend",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.Bool("images_only", cfg.Upload.ImagesOnly),
		zap.Int("pipeline_workers", cfg.Pipeline.Workers),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("backend", logger.Logger)

	store := job.NewStore()
	factory := job.NewFactory(store)
	hub := ws.NewHub(logger.Logger, metrics)

	sim := pipeline.NewSimulation(cfg.Pipeline)
	runner := pipeline.NewRunner(store, sim, tracer, metrics, logger.Logger,
		pipeline.WithNotifier(hub))
	scheduler := pipeline.NewScheduler(runner, cfg.Pipeline.Workers, cfg.Pipeline.QueueSize, logger.Logger)

	handlers := apihttp.NewHandlers(
		apihttp.Config{
			MaxFileSize: cfg.Upload.MaxFileSize,
			ImagesOnly:  cfg.Upload.ImagesOnly,
		},
		store, factory, scheduler, metrics, hub, logger.Logger,
	)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("handler panic", zap.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.CORS.AllowOrigins
	corsCfg.AllowCredentials = cfg.CORS.AllowCredentials
	router.Use(middleware.CORS(corsCfg))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))

	api := router.Group("/api")
	api.POST("/upload", handlers.Upload)
	api.GET("/status/:jobId", handlers.Status)
	api.GET("/health", handlers.Health)
	api.GET("/events", hub.HandleConnection)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	return &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
		httpServer: &http.Server{
			Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
			Handler: router,
		},
		scheduler: scheduler,
		store:     store,
	}, nil
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, then drains in-flight pipeline runs so
// every scheduled job reaches a terminal state before the process exits.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	if err := s.scheduler.Shutdown(ctx); err != nil {
		return fmt.Errorf("pipeline drain: %w", err)
	}

	_ = s.logger.Sync()
	return nil
}
