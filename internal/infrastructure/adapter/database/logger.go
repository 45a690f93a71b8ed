package database

import (
	"context"
	"time"

	"gorm.io/gorm/logger"

	coreport "github.com/yiwen-ai/walletbase/internal/domain/port/core"
)

// DatabaseLogger bridges GORM's logger interface onto the core logger.
type DatabaseLogger struct {
	coreLogger    coreport.Logger
	logLevel      logger.LogLevel
	slowThreshold time.Duration
}

// NewDatabaseLogger creates a GORM logger that reports slow queries above
// the given threshold.
func NewDatabaseLogger(coreLogger coreport.Logger, slowThreshold time.Duration) logger.Interface {
	return &DatabaseLogger{
		coreLogger:    coreLogger,
		logLevel:      logger.Warn,
		slowThreshold: slowThreshold,
	}
}

// LogMode sets the log level
func (l *DatabaseLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.logLevel = level
	return &cp
}

// Info logs informational messages
func (l *DatabaseLogger) Info(_ context.Context, msg string, args ...any) {
	if l.logLevel >= logger.Info {
		l.coreLogger.Info(msg, map[string]any{"args": args})
	}
}

// Warn logs warning messages
func (l *DatabaseLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.logLevel >= logger.Warn {
		l.coreLogger.Warn(msg, map[string]any{"args": args})
	}
}

// Error logs error messages
func (l *DatabaseLogger) Error(_ context.Context, msg string, args ...any) {
	if l.logLevel >= logger.Error {
		l.coreLogger.Error(msg, map[string]any{"args": args})
	}
}

// Trace logs SQL execution, surfacing failures and slow queries only.
func (l *DatabaseLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.logLevel >= logger.Error:
		sql, rows := fc()
		l.coreLogger.Error("sql failed", map[string]any{
			"sql":     sql,
			"rows":    rows,
			"elapsed": elapsed.String(),
			"error":   err.Error(),
		})
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.logLevel >= logger.Warn:
		sql, rows := fc()
		l.coreLogger.Warn("slow query", map[string]any{
			"sql":     sql,
			"rows":    rows,
			"elapsed": elapsed.String(),
		})
	}
}
