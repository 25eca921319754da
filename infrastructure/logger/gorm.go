package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormZapLogger routes gorm's statement log through zap.
type GormZapLogger struct {
	zap           *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

var _ gormlogger.Interface = (*GormZapLogger)(nil)

func NewGormLogger(l *zap.Logger) *GormZapLogger {
	return &GormZapLogger{
		zap:           l.WithOptions(zap.AddCallerSkip(2)),
		level:         gormlogger.Warn,
		slowThreshold: 200 * time.Millisecond,
	}
}

func (g *GormZapLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *GormZapLogger) Info(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Info {
		g.zap.Info(fmt.Sprintf(msg, args...))
	}
}

func (g *GormZapLogger) Warn(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Warn {
		g.zap.Warn(fmt.Sprintf(msg, args...))
	}
}

func (g *GormZapLogger) Error(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Error {
		g.zap.Error(fmt.Sprintf(msg, args...))
	}
}

func (g *GormZapLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}

	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && g.level >= gormlogger.Error:
		g.zap.Error("gorm query failed", append(fields, zap.Error(err))...)
	case elapsed > g.slowThreshold && g.level >= gormlogger.Warn:
		g.zap.Warn("gorm slow query", fields...)
	case g.level >= gormlogger.Info:
		g.zap.Debug("gorm query", fields...)
	}
}
