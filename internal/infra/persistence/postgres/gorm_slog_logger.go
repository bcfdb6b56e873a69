package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shopauth/config"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormSlogLogger routes GORM's logging through the application slog logger.
// Queries that fail or exceed slowQueryThreshold are always surfaced; every
// query is logged only in debug mode. gorm.ErrRecordNotFound is an expected
// lookup miss and is not treated as a failure.
type gormSlogLogger struct {
	logger *slog.Logger
	level  logger.LogLevel
}

func newGormSlogLogger(baseLogger *slog.Logger, cfg *config.Config) logger.Interface {
	level := logger.Warn
	if cfg != nil && cfg.Env.Debug {
		level = logger.Info
	}

	return &gormSlogLogger{logger: baseLogger, level: level}
}

func (l *gormSlogLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormSlogLogger{logger: l.logger, level: level}
}

func (l *gormSlogLogger) Info(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Info, slog.LevelInfo, msg, args...)
}

func (l *gormSlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Warn, slog.LevelWarn, msg, args...)
}

func (l *gormSlogLogger) Error(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Error, slog.LevelError, msg, args...)
}

func (l *gormSlogLogger) printf(ctx context.Context, minLevel logger.LogLevel, slogLevel slog.Level, msg string, args ...any) {
	if l.logger == nil || l.level < minLevel {
		return
	}

	l.logger.LogAttrs(ctx, slogLevel, "gorm", slog.String("message", fmt.Sprintf(msg, args...)))
}

func (l *gormSlogLogger) Trace(ctx context.Context, begin time.Time, sqlAndRows func() (string, int64), err error) {
	if l.logger == nil || l.level == logger.Silent {
		return
	}

	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		l.logQuery(ctx, slog.LevelError, "gorm query failed", sqlAndRows, elapsed,
			slog.String("error", err.Error()))
	case elapsed > slowQueryThreshold && l.level >= logger.Warn:
		l.logQuery(ctx, slog.LevelWarn, "gorm slow query", sqlAndRows, elapsed,
			slog.Duration("threshold", slowQueryThreshold))
	case l.level >= logger.Info:
		l.logQuery(ctx, slog.LevelInfo, "gorm query", sqlAndRows, elapsed)
	}
}

func (l *gormSlogLogger) logQuery(ctx context.Context, level slog.Level, msg string, sqlAndRows func() (string, int64), elapsed time.Duration, extra ...slog.Attr) {
	sql, rows := sqlAndRows()
	attrs := append([]slog.Attr{
		slog.Duration("elapsed", elapsed),
		slog.Int64("rows", rows),
		slog.String("sql", sql),
	}, extra...)

	l.logger.LogAttrs(ctx, level, msg, attrs...)
}
