package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/basilgregory/onam/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger writes one structured zap entry per message or statement.
type ZapLogger struct {
	leveled
	Logger *zap.Logger
}

// NewZapLogger wraps logger.
func NewZapLogger(logger *zap.Logger, config Config) Interface {
	return &ZapLogger{leveled: newLeveled(config), Logger: logger}
}

// LogMode returns a copy logging at level.
func (l *ZapLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *ZapLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.log(Info, msg, data)
}

func (l *ZapLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.log(Warn, msg, data)
}

func (l *ZapLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.log(Error, msg, data)
}

func (l *ZapLogger) log(level LogLevel, msg string, data []interface{}) {
	if !l.enabled(level) {
		return
	}
	if ce := l.Logger.Check(ZapLevel(level), fmt.Sprintf(msg, data...)); ce != nil {
		ce.Write(zap.String("file", utils.FileWithLineNum()))
	}
}

// Trace writes a finished statement with its duration and row count.
func (l *ZapLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	st, ok := l.statement(begin, fc, err)
	if !ok {
		return
	}

	fields := []zap.Field{
		zap.String("file", st.file),
		zap.Float64("elapsed_ms", st.milliseconds()),
		zap.String("sql", st.sql),
	}
	if st.rows != -1 {
		fields = append(fields, zap.Int64("rows", st.rows))
	}
	switch st.outcome {
	case failed:
		fields = append(fields, zap.Error(st.err))
	case slow:
		fields = append(fields, zap.Stringer("slow_threshold", l.SlowThreshold))
	}

	if ce := l.Logger.Check(ZapLevel(st.outcome.level()), st.outcome.message()); ce != nil {
		ce.Write(fields...)
	}
}

// ZapLevel converts LogLevel to zapcore.Level
func ZapLevel(level LogLevel) zapcore.Level {
	switch level {
	case Silent:
		return zapcore.DPanicLevel // nothing below DPanic is emitted
	case Error:
		return zapcore.ErrorLevel
	case Warn:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
