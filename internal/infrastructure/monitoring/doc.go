/*
Package monitoring provides Prometheus metrics for the lead capture service.

# Overview

Metrics live in a private registry owned by Metrics rather than the global
default registry, so tests can build as many collectors as they like.

# Families

- HTTP: requests, latency, request/response size (labelled by route template)
- Detection: extraction runs, duration, forms and fields found
- Fetch: outbound page fetches by result kind, latency, body size
- Domain: scans, leads by channel, registered websites, forms saved

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
