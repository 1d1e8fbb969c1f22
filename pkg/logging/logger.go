// Package logging provides structured logging for eventmerge using zerolog.
// Console output is used when the destination is a terminal, JSON otherwise.
//
// Example usage:
//
//	ctx := logging.WithLogger(context.Background(), logging.Default())
//	ctx = logging.WithStage(ctx, "join")
//	logging.Ctx(ctx).Debug().Int("rows", 42).Msg("Joined tables")
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger = NewLoggerFromConfig(configFromEnv())

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger, including zerolog's own.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Debug starts a debug event on the default logger.
func Debug() *zerolog.Event { return defaultLogger.Debug() }

// Info starts an info event on the default logger.
func Info() *zerolog.Event { return defaultLogger.Info() }

// Warn starts a warning event on the default logger.
func Warn() *zerolog.Event { return defaultLogger.Warn() }

// Err starts an event at error level, or info if err is nil.
func Err(err error) *zerolog.Event { return defaultLogger.Err(err) }
