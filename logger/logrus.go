package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/basilgregory/onam/utils"
	"github.com/sirupsen/logrus"
)

// LogrusLogger writes logrus entries with fields.
type LogrusLogger struct {
	leveled
	Logger *logrus.Logger
}

// NewLogrusLogger wraps logger.
func NewLogrusLogger(logger *logrus.Logger, config Config) Interface {
	return &LogrusLogger{leveled: newLeveled(config), Logger: logger}
}

func (l *LogrusLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *LogrusLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.log(ctx, Info, msg, data)
}

func (l *LogrusLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.log(ctx, Warn, msg, data)
}

func (l *LogrusLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.log(ctx, Error, msg, data)
}

func (l *LogrusLogger) log(ctx context.Context, level LogLevel, msg string, data []interface{}) {
	if l.enabled(level) {
		l.entry(ctx, logrus.Fields{"file": utils.FileWithLineNum()}).Log(LogrusLevel(level), fmt.Sprintf(msg, data...))
	}
}

func (l *LogrusLogger) entry(ctx context.Context, fields logrus.Fields) *logrus.Entry {
	entry := l.Logger.WithFields(fields)
	if ctx != nil {
		entry = entry.WithContext(ctx)
	}
	return entry
}

func (l *LogrusLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	st, ok := l.statement(begin, fc, err)
	if !ok {
		return
	}

	fields := logrus.Fields{
		"file":       st.file,
		"elapsed_ms": st.milliseconds(),
		"sql":        st.sql,
	}
	if st.rows != -1 {
		fields["rows"] = st.rows
	}
	switch st.outcome {
	case failed:
		fields[logrus.ErrorKey] = st.err.Error()
	case slow:
		fields["slow_threshold"] = l.SlowThreshold.String()
	}
	l.entry(ctx, fields).Log(LogrusLevel(st.outcome.level()), st.outcome.message())
}

// LogrusLevel converts LogLevel to logrus.Level
func LogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case Silent:
		return logrus.PanicLevel
	case Error:
		return logrus.ErrorLevel
	case Warn:
		return logrus.WarnLevel
	default:
		return logrus.InfoLevel
	}
}
