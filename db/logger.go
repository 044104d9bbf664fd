package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flanksource/commons/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger routes gorm's logging through commons/logger
type gormLogger struct {
	level gormlogger.LogLevel
}

// NewLogger returns a gorm logger for level: silent, error, warn or info
func NewLogger(level string) gormlogger.Interface {
	return &gormLogger{level: parseLevel(level)}
}

func parseLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug", "trace":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &gormLogger{level: level}
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		logger.Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		logger.Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		logger.Errorf(msg, data...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound) && !IsRollback(err):
		sql, rows := fc()
		logger.Errorf("%s [%s] rows=%s: %v", sql, elapsed, formatRows(rows), err)
	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		logger.Warnf("slow query %s [%s] rows=%s", sql, elapsed, formatRows(rows))
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		logger.V(4).Infof("%s [%s] rows=%s", sql, elapsed, formatRows(rows))
	}
}

func formatRows(rows int64) string {
	if rows < 0 {
		return "-"
	}
	return fmt.Sprint(rows)
}
