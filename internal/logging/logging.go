package logging

import (
	"context"
	"log/slog"
	"os"
)

var structuredLogger *slog.Logger
var humanReadableLogger *slog.Logger

const LevelFatal = slog.Level(12)

// Add the fatal level name.
var levelNames = map[slog.Leveler]string{
	LevelFatal: "FATAL",
}

// Init initializes the logging system with structured and human-readable loggers.
// It configures JSON output for structured logs and Text output for human-readable logs.
// The pipeline is a per-cadence invocation, so both loggers go to the process
// streams; the external scheduler owns capture and retention.
func Init(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	structuredHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	})
	structuredLogger = slog.New(structuredHandler)

	humanReadableHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	})
	humanReadableLogger = slog.New(humanReadableHandler)

	slog.SetDefault(structuredLogger)
}

// replaceLevelNames maps the custom fatal level to its label.
func replaceLevelNames(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level := a.Value.Any().(slog.Level)
		levelLabel, exists := levelNames[level]
		if !exists {
			levelLabel = level.String()
		}
		a.Value = slog.StringValue(levelLabel)
	}
	return a
}

// Structured returns the JSON logger writing to stdout.
func Structured() *slog.Logger {
	if structuredLogger == nil {
		Init(false)
	}
	return structuredLogger
}

// Fatal logs at the fatal level to both streams and exits the process. The
// text copy on stderr is for the operator at the terminal; the JSON copy is
// for whatever captures stdout.
func Fatal(msg string, args ...any) {
	Structured().Log(context.Background(), LevelFatal, msg, args...)
	if humanReadableLogger != nil {
		humanReadableLogger.Log(context.Background(), LevelFatal, msg, args...)
	}
	os.Exit(1)
}

// ForComponent returns a structured logger annotated with the component name.
func ForComponent(component string) *slog.Logger {
	return Structured().With("component", component)
}
