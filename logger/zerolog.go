package logger

import (
	"context"
	"time"

	"github.com/basilgregory/onam/utils"
	"github.com/rs/zerolog"
)

// ZerologLogger writes zerolog events.
type ZerologLogger struct {
	leveled
	Logger zerolog.Logger
}

// NewZerologLogger wraps logger.
func NewZerologLogger(logger zerolog.Logger, config Config) Interface {
	return &ZerologLogger{leveled: newLeveled(config), Logger: logger}
}

func (l *ZerologLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *ZerologLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.log(ctx, Info, msg, data)
}

func (l *ZerologLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.log(ctx, Warn, msg, data)
}

func (l *ZerologLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.log(ctx, Error, msg, data)
}

func (l *ZerologLogger) log(ctx context.Context, level LogLevel, msg string, data []interface{}) {
	if l.enabled(level) {
		l.event(ctx, level).Str("file", utils.FileWithLineNum()).Msgf(msg, data...)
	}
}

// event is nil, and so a no-op, when zerolog filters level out.
func (l *ZerologLogger) event(ctx context.Context, level LogLevel) *zerolog.Event {
	event := l.Logger.WithLevel(ZerologLevel(level))
	if ctx != nil {
		event = event.Ctx(ctx)
	}
	return event
}

func (l *ZerologLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	st, ok := l.statement(begin, fc, err)
	if !ok {
		return
	}

	event := l.event(ctx, st.outcome.level()).
		Str("file", st.file).
		Float64("elapsed_ms", st.milliseconds()).
		Str("sql", st.sql)
	if st.rows != -1 {
		event = event.Int64("rows", st.rows)
	}
	switch st.outcome {
	case failed:
		event = event.Err(st.err)
	case slow:
		event = event.Str("slow_threshold", l.SlowThreshold.String())
	}
	event.Msg(st.outcome.message())
}

// ZerologLevel converts LogLevel to zerolog.Level
func ZerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case Silent:
		return zerolog.Disabled
	case Error:
		return zerolog.ErrorLevel
	case Warn:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
