package logger

import (
	"github.com/yiwen-ai/walletbase/internal/domain/port/core"
)

// NoopLogger implements the Logger port and discards everything. Useful in
// tests and when logging is disabled.
type NoopLogger struct{}

// NewNoopLogger creates a no-op logger.
func NewNoopLogger() core.Logger {
	return &NoopLogger{}
}

// SetLevel sets the minimum log level to output.
func (l *NoopLogger) SetLevel(core.LogLevel) {}

// Debug logs debug messages.
func (l *NoopLogger) Debug(string, map[string]any) {}

// Info logs informational messages.
func (l *NoopLogger) Info(string, map[string]any) {}

// Warn logs warning messages.
func (l *NoopLogger) Warn(string, map[string]any) {}

// Error logs error messages.
func (l *NoopLogger) Error(string, map[string]any) {}

// Flush ensures all buffered logs are written.
func (l *NoopLogger) Flush() error { return nil }
