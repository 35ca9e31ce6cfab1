// Package logger builds configured log/slog loggers for the backend
// services.
//
// New applies functional options over production-safe defaults (JSON output
// at INFO level) and returns a ready *slog.Logger. The attribute helpers
// standardise the keys used across services so log aggregation queries stay
// stable.
//
//	log := logger.New(
//	    logger.WithService("worker"),
//	    logger.WithLevel(slog.LevelDebug),
//	)
//	logger.SetAsDefault(log)
package logger
