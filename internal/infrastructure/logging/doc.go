// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for log shippers
//   - Development: colored console output
//
// Components take a *zap.Logger tagged via Logger.Component so every line
// from the fetcher, the website manager or the lead manager can be filtered
// by the "component" field.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("addr", cfg.Server.Address()))
//	fetchLog := logger.Component("fetch")
package logging
