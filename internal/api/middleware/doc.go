// Package middleware provides the HTTP middleware stack for the leadform API.
//
// Middleware stack includes:
//   - RequestID: attaches an X-Request-ID to every request and response
//   - Logger: one structured zap line per request
//   - CORS: cross-origin access for the dashboard and embedded snippets
//   - RateLimit: per-IP token bucket limiting with idle client eviction
//   - BodyLimit: request body cap, reported as 413
//
// Example Usage:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.Logger(log))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.AllowOrigins)))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
