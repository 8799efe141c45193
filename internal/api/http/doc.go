// Package http provides HTTP handlers and routing for the leadform REST API.
//
// Endpoints (under /api/v1 unless noted):
//   - Health: /health (root)
//   - Metrics: /metrics (root, Prometheus exposition)
//   - Websites: /websites, /websites/:id, /websites/:id/scan,
//     /websites/:id/forms, /websites/:id/secret, /websites/detect-forms
//   - Leads: /leads, /leads/:id, /leads/collect
//
// Success bodies are {"data": ...}; listings return the page object
// itself. Errors are {"error": "..."} with a status chosen by
// respondError from the domain error.
//
// Example Usage:
//
//	handlers := http.NewHandlers(websites, leads).WithLogger(log)
//	handlers.Register(router, metrics)
package http
