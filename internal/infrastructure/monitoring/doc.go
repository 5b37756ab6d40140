/*
Package monitoring provides Prometheus metrics collection.

# Overview

Tracks HTTP traffic, upload acceptance/rejection, job lifecycle counts, and
simulated pipeline step durations.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))

	metrics.RecordUploadAccepted()
	metrics.RecordJobTransition("pending", "processing")

	timer := monitoring.NewStepTimer(metrics, "optimize")
	// ... perform step ...
	timer.Stop()

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
