package gormlog

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"github.com/fatflowers/fuelpos/pkg/logctx"
)

const DefaultSlowThreshold = 200 * time.Millisecond

// Logger routes gorm output through the request-scoped zap logger found in
// ctx, so SQL lines carry the same trace_id and employee_id as the request.
type Logger struct {
	base  *zap.SugaredLogger
	level gormlogger.LogLevel
	slow  time.Duration
}

type Option func(*Logger)

func WithLevel(level gormlogger.LogLevel) Option {
	return func(l *Logger) { l.level = level }
}

// WithSlowThreshold sets the duration above which a query is logged as
// db_slow_query; zero disables slow query reporting.
func WithSlowThreshold(d time.Duration) Option {
	return func(l *Logger) { l.slow = d }
}

func New(base *zap.SugaredLogger, opts ...Option) *Logger {
	l := &Logger{base: base, level: gormlogger.Warn, slow: DefaultSlowThreshold}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Logger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *Logger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		logctx.FromCtx(ctx, l.base).Infow(msg, "args", data)
	}
}

func (l *Logger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		logctx.FromCtx(ctx, l.base).Warnw(msg, "args", data)
	}
}

func (l *Logger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		logctx.FromCtx(ctx, l.base).Errorw(msg, "args", data)
	}
}

func (l *Logger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level == gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	log := logctx.FromCtx(ctx, l.base)

	// Not-found is an expected outcome for lookups (unknown session, PIN miss).
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		log.Errorw("db_error", "err", err, "sql", sql, "rows", rows,
			"elapsed_ms", elapsed.Milliseconds(), "caller", caller())
	case l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn:
		sql, rows := fc()
		log.Warnw("db_slow_query", "sql", sql, "rows", rows,
			"elapsed_ms", elapsed.Milliseconds(), "caller", caller())
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		log.Debugw("db_query", "sql", sql, "rows", rows,
			"elapsed_ms", elapsed.Milliseconds(), "caller", caller())
	}
}

func caller() string {
	return trimCaller(utils.FileWithLineNum())
}

// trimCaller cuts an absolute source path down to its module-relative part,
// e.g. /src/fuelpos/internal/app/service/auth/service.go:88 becomes
// internal/app/service/auth/service.go:88.
func trimCaller(s string) string {
	s = strings.ReplaceAll(s, "\\", "/")
	for _, root := range []string{"/internal/", "/pkg/", "/cmd/"} {
		if i := strings.Index(s, root); i >= 0 {
			return s[i+1:]
		}
	}
	if parts := strings.Split(s, "/"); len(parts) > 2 {
		return strings.Join(parts[len(parts)-2:], "/")
	}
	return strings.TrimPrefix(s, "/")
}
