// Package main is the entry point for the leadform API server.
//
// The server registers websites, detects the forms on their pages and
// collects leads submitted through those forms.
//
// Configuration:
//   - Environment variables (12-factor), see internal/infrastructure/config
//   - CONFIG_FILE: optional YAML or TOML file, overridden by the environment
//   - CLI flags override both
//
// Usage:
//
//	# Production mode
//	PORT=3001 STORE_SNAPSHOT_PATH=/var/lib/leadform/data.json ./server
//
//	# Development mode (colored logs, debug level)
//	./server -dev -port 8080
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
