// Package main is the entry point for the mediaflow backend server.
//
// This application demonstrates distributed-tracing instrumentation around a
// media-upload workflow: uploads are validated synchronously, accepted as
// jobs, and processed by a simulated asynchronous pipeline whose progress is
// observable via status polling, a WebSocket event stream, spans, and
// Prometheus metrics.
//
// The server provides:
//   - REST API for upload submission and job status polling
//   - WebSocket stream of job status transitions
//   - Span tracing around handlers and pipeline stages
//   - Prometheus metrics endpoint
//   - Rate limiting and CORS
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	./server -port 8000
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown, draining in-flight pipeline runs
package main
