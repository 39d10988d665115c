package storage_logger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// GormSlogLogger is a custom GORM logger that uses slog.Logger for logging.
type GormSlogLogger struct {
	logger *slog.Logger
	level  logger.LogLevel
}

// NewGormSlogLogger creates a new GormSlogLogger instance.
func NewGormSlogLogger(slog *slog.Logger) *GormSlogLogger {
	return &GormSlogLogger{
		logger: slog,
		level:  logger.Warn,
	}
}

// LogMode returns a copy of the logger with the given level.
func (l *GormSlogLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info logs info-level messages.
func (l *GormSlogLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Info {
		l.logger.DebugContext(ctx, msg, slog.Any("data", data))
	}
}

// Warn logs warning-level messages.
func (l *GormSlogLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Warn {
		l.logger.WarnContext(ctx, msg, slog.Any("data", data))
	}
}

// Error logs error-level messages.
func (l *GormSlogLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Error {
		l.logger.ErrorContext(ctx, msg, slog.Any("data", data))
	}
}

// Trace logs SQL queries with their execution time, affected rows, and errors.
// Missing rows are part of normal lookups and are not reported as errors.
func (l *GormSlogLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		l.logger.ErrorContext(ctx, "SQL execution error", slog.String("sql", sql), slog.Int64("rows", rows), slog.Duration("elapsed", elapsed), slog.Any("err", err))
	case elapsed > slowQueryThreshold && l.level >= logger.Warn:
		l.logger.WarnContext(ctx, "SQL slow query", slog.String("sql", sql), slog.Int64("rows", rows), slog.Duration("elapsed", elapsed))
	default:
		l.logger.DebugContext(ctx, "SQL executed", slog.String("sql", sql), slog.Int64("rows", rows), slog.Duration("elapsed", elapsed))
	}
}
