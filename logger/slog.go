package logger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/basilgregory/onam/utils"
)

type slogLogger struct {
	leveled
	Logger *slog.Logger
}

// NewSlogLogger wraps a log/slog logger. Statements are written as a
// "trace" group.
func NewSlogLogger(logger *slog.Logger, config Config) Interface {
	return &slogLogger{leveled: newLeveled(config), Logger: logger}
}

func (l *slogLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *slogLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.enabled(Info) {
		l.log(ctx, Info, fmt.Sprintf(msg, data...))
	}
}

func (l *slogLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.enabled(Warn) {
		l.log(ctx, Warn, fmt.Sprintf(msg, data...))
	}
}

func (l *slogLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.enabled(Error) {
		l.log(ctx, Error, fmt.Sprintf(msg, data...))
	}
}

func (l *slogLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	st, ok := l.statement(begin, fc, err)
	if !ok {
		return
	}

	attrs := []slog.Attr{
		slog.Float64("elapsed_ms", st.milliseconds()),
		slog.String("sql", st.sql),
	}
	if st.rows != -1 {
		attrs = append(attrs, slog.Int64("rows", st.rows))
	}
	switch st.outcome {
	case failed:
		attrs = append(attrs, slog.String("error", st.err.Error()))
	case slow:
		attrs = append(attrs, slog.Duration("slow_threshold", l.SlowThreshold))
	}
	l.log(ctx, st.outcome.level(), st.outcome.message(), slog.Attr{Key: "trace", Value: slog.GroupValue(attrs...)})
}

// log builds the record itself so that the source is the caller outside
// of this module.
func (l *slogLogger) log(ctx context.Context, level LogLevel, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.Logger.Enabled(ctx, SlogLevel(level)) {
		return
	}

	r := slog.NewRecord(time.Now(), SlogLevel(level), msg, utils.CallerFrame().PC)
	r.Add(args...)
	_ = l.Logger.Handler().Handle(ctx, r)
}

// SlogLevel converts LogLevel to slog.Level
func SlogLevel(level LogLevel) slog.Level {
	switch level {
	case Error:
		return slog.LevelError
	case Warn:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
