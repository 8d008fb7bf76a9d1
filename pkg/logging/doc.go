// Package logging provides structured logging configuration for stubctl.
//
// This package wraps log/slog so the CLI, the lifecycle entry points and the
// stub server backends all log the same way.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("starting stubby", "port", 8882)
//
// # Session log files
//
// Detached servers write their output to a per-session log file. Tee returns
// a logger that also records lifecycle messages into that file, so a single
// file tells the whole story of a build's stub server.
//
// # Integration
//
// Components accept a *slog.Logger in their config struct. A nil logger
// means logging.Nop().
package logging
