/*
Package tracing provides lightweight in-process distributed tracing.

# Overview

Every upload request and every background pipeline run is bracketed by a
named span carrying key-value tags. Spans follow OpenTelemetry concepts with
a minimal implementation: completed spans are pushed to a buffered collector
and drained asynchronously into the structured log.

# Usage

	// Create tracer
	tracer := tracing.New("backend", logger)

	// HTTP middleware
	router.Use(tracing.HTTPMiddleware(tracer))

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "pipeline.process")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

	// Scoped wrapper (span closed on every exit path, including panic)
	err := tracer.WithSpan(ctx, "pipeline.optimize", func(ctx context.Context, span *tracing.Span) error {
		span.SetTag("job.id", jobID)
		return doWork(ctx)
	})

# Trace Format

Traces use standard HTTP headers for propagation:
  - X-Trace-ID: Unique identifier for the entire request flow
  - X-Span-ID: Identifier for the current operation
*/
package tracing
