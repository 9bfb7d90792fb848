package events

import (
	"context"
	"os"
)

type contextKey int

const (
	loggerKey contextKey = iota
	vaultIDKey
)

// FromContext extracts logger from context.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	// Return default logger
	return defaultLogger
}

// WithLogger adds logger to context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithVaultID adds vault ID to context.
func WithVaultID(ctx context.Context, id string) context.Context {
	logger := FromContext(ctx).WithField("vault_id", id)
	ctx = context.WithValue(ctx, vaultIDKey, id)
	return WithLogger(ctx, logger)
}

// GetVaultID retrieves vault ID from context.
func GetVaultID(ctx context.Context) string {
	if id, ok := ctx.Value(vaultIDKey).(string); ok {
		return id
	}
	return ""
}

var defaultLogger = &Logger{
	level:  InfoLevel,
	format: "text",
	output: os.Stdout,
	fields: make(map[string]interface{}),
}

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
