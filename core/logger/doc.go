// Package logger provides the structured logger used across the service.
//
// It wraps Zap with two encodings (json for production, console for the CLI)
// and a helper that binds the request's RayID to a logger so every line
// written while serving a request can be correlated.
//
// # Usage
//
//	log, err := logger.New(&logger.Config{Level: "info", Format: "json"})
//	log.Info("Server started")
//
//	// Inside a Fiber handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Restore failed", zap.Error(err))
package logger
