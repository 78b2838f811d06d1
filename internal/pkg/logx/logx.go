/*
Package logx provides the structured logging layer, built on zerolog.

It initializes the process-wide logger (human-readable console output in
development, JSON elsewhere) and exposes small level helpers so callers can
log with key-value fields without repeating zerolog boilerplate.
*/
package logx

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitGlobalLogger configures the global zerolog instance. Development mode
// enables debug level and the colored console writer; otherwise logs are
// info-level JSON. Every entry carries a timestamp and caller location.
func InitGlobalLogger(isDevelopment bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if isDevelopment {
		logger = logger.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	log.Logger = logger.With().Caller().Logger()
}

// Logger returns the global zerolog.Logger. Components derive child loggers
// from it with their own context fields.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// evenFields drops the field list when it is not key-value shaped, which
// would otherwise make zerolog panic.
func evenFields(level string, fields []any) []any {
	if len(fields)%2 != 0 {
		Logger().Warn().
			Str("log_level", level).
			Int("fields_count", len(fields)).
			Msg("Logging call received an odd number of fields; fields dropped")
		return nil
	}
	return fields
}

// Info logs at Info level with optional key-value fields.
func Info(msg string, fields ...any) {
	Logger().Info().Fields(evenFields("info", fields)).CallerSkipFrame(1).Msg(msg)
}

// Warn logs at Warn level with optional key-value fields.
func Warn(msg string, fields ...any) {
	Logger().Warn().Fields(evenFields("warn", fields)).CallerSkipFrame(1).Msg(msg)
}

// Error logs the error at Error level with optional key-value fields.
func Error(err error, msg string, fields ...any) {
	Logger().Error().Err(err).Fields(evenFields("error", fields)).CallerSkipFrame(1).Msg(msg)
}

// Fatal logs the error at Fatal level and terminates the process.
func Fatal(err error, msg string, fields ...any) {
	Logger().Fatal().Err(err).Fields(evenFields("fatal", fields)).CallerSkipFrame(1).Msg(msg)
}
