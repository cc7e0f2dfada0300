package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global structured logger. The package carries two
// surfaces on purpose: the Red/Blue/... color printers in logger.go for
// terse operator-facing status lines, and this zerolog sink for the
// field-tagged records (collector runs, config loads) a log aggregator
// can query.
var Logger zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
		NoColor:    false,
	}

	Logger = zerolog.New(consoleWriter).
		With().
		Timestamp().
		Str("service", "ttop").
		Logger()
}

// LogCollectorRun logs a single collector cycle with its outcome.
func LogCollectorRun(collectorID string, success bool, duration time.Duration, errMsg string) {
	event := Logger.Info().
		Str("component", "scheduler").
		Str("collector", collectorID).
		Bool("success", success).
		Dur("duration", duration)

	if !success && errMsg != "" {
		event = event.Str("error", errMsg)
	}

	event.Msg("collector cycle completed")
}

// LogConfigLoad logs configuration loading events.
func LogConfigLoad(path string, success bool, errorMsg string) {
	event := Logger.Info().
		Str("component", "config").
		Str("path", path).
		Bool("success", success)

	if !success && errorMsg != "" {
		event = event.Str("error", errorMsg)
	}

	event.Msg("configuration loaded")
}

// LogCollectorUnavailable logs a collector that reported itself unavailable
// on its current platform.
func LogCollectorUnavailable(collectorID, reason string) {
	Logger.Warn().
		Str("component", "scheduler").
		Str("collector", collectorID).
		Str("reason", reason).
		Msg("collector unavailable")
}

// LogCorrelation logs correlation-engine runs with their input size.
func LogCorrelation(seriesCount int, duration time.Duration) {
	Logger.Debug().
		Str("component", "correlate").
		Int("series_count", seriesCount).
		Dur("duration", duration).
		Msg("correlation matrix computed")
}

// Printf-style level helpers for callers that have a message but no
// structured fields worth tagging.

// Info logs an info-level message.
func Info(format string, args ...interface{}) {
	Logger.Info().Msgf(format, args...)
}

// Warn logs a warning-level message.
func Warn(format string, args ...interface{}) {
	Logger.Warn().Msgf(format, args...)
}

// Error logs an error-level message.
func Error(format string, args ...interface{}) {
	Logger.Error().Msgf(format, args...)
}

// Debug logs a debug-level message.
func Debug(format string, args ...interface{}) {
	Logger.Debug().Msgf(format, args...)
}
