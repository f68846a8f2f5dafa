package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	monitorIDKey contextKey = "monitor_id"
	cycleIDKey   contextKey = "cycle_id"
	loggerKey    contextKey = "logger"
)

// WithMonitorID adds the monitor ID to the context
func WithMonitorID(ctx context.Context, monitorID string) context.Context {
	return context.WithValue(ctx, monitorIDKey, monitorID)
}

// WithCycleID adds the poll-cycle ID to the context
func WithCycleID(ctx context.Context, cycleID string) context.Context {
	return context.WithValue(ctx, cycleIDKey, cycleID)
}

// FromContext extracts a logger from context with all accumulated fields
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}

	l := Logger
	if l == nil {
		// Fallback to a basic logger if not initialized
		l, _ = zap.NewProduction()
	}

	var fields []zap.Field

	if monitorID, ok := ctx.Value(monitorIDKey).(string); ok && monitorID != "" {
		fields = append(fields, zap.String("monitor_id", monitorID))
	}

	if cycleID, ok := ctx.Value(cycleIDKey).(string); ok && cycleID != "" {
		fields = append(fields, zap.String("cycle_id", cycleID))
	}

	if len(fields) > 0 {
		l = l.With(fields...)
	}

	return l
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithMonitor creates a logger with the monitor ID field
func WithMonitor(logger *zap.Logger, monitorID string) *zap.Logger {
	if logger == nil {
		logger = Logger
	}
	return logger.With(zap.String("monitor_id", monitorID))
}

// Dynamic log level management

var currentLevel = zap.NewAtomicLevelAt(zap.InfoLevel)

// SetLogLevel dynamically changes the log level
func SetLogLevel(level string) error {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return err
	}

	currentLevel.SetLevel(zapLevel)
	SetLevel(zapLevel) // Also update the main logger level
	return nil
}

// GetLogLevel returns the current log level
func GetLogLevel() string {
	return currentLevel.Level().String()
}
