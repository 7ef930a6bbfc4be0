package logger

import (
	"context"
	"errors"
	"time"

	"github.com/basilgregory/onam/utils"
)

type outcome int

const (
	executed outcome = iota
	slow
	failed
)

func (o outcome) message() string {
	switch o {
	case failed:
		return "statement failed"
	case slow:
		return "slow statement"
	}
	return "statement executed"
}

// level the log level an outcome is written at.
func (o outcome) level() LogLevel {
	switch o {
	case failed:
		return Error
	case slow:
		return Warn
	}
	return Info
}

// statement is a finished statement as the structured adapters write it.
type statement struct {
	outcome outcome
	sql     string
	rows    int64 // -1 when unknown
	elapsed time.Duration
	file    string
	err     error
}

func (st statement) milliseconds() float64 {
	return float64(st.elapsed.Nanoseconds()) / 1e6
}

// leveled holds the settings shared by the logrus, zap, zerolog and slog
// adapters.
type leveled struct {
	LogLevel                  LogLevel
	SlowThreshold             time.Duration
	Parameterized             bool
	IgnoreRecordNotFoundError bool
}

func newLeveled(config Config) leveled {
	return leveled{
		LogLevel:                  config.LogLevel,
		SlowThreshold:             config.SlowThreshold,
		Parameterized:             config.ParameterizedQueries,
		IgnoreRecordNotFoundError: config.IgnoreRecordNotFoundError,
	}
}

func (l leveled) enabled(level LogLevel) bool {
	return l.LogLevel > Silent && l.LogLevel >= level
}

// statement classifies a finished statement. fc is only called when the
// statement is written.
func (l leveled) statement(begin time.Time, fc func() (string, int64), err error) (statement, bool) {
	if l.LogLevel <= Silent {
		return statement{}, false
	}

	st := statement{elapsed: time.Since(begin), err: err}
	switch {
	case err != nil && l.LogLevel >= Error && (!l.IgnoreRecordNotFoundError || !errors.Is(err, ErrRecordNotFound)):
		st.outcome = failed
	case l.SlowThreshold != 0 && st.elapsed > l.SlowThreshold && l.LogLevel >= Warn:
		st.outcome = slow
	case l.LogLevel >= Info:
		st.outcome = executed
	default:
		return statement{}, false
	}

	st.sql, st.rows = fc()
	st.file = utils.FileWithLineNum()
	return st, true
}

// ParamsFilter drops statement parameters from logs when queries are
// parameterized.
func (l leveled) ParamsFilter(ctx context.Context, sql string, params ...interface{}) (string, []interface{}) {
	if l.Parameterized {
		return sql, nil
	}
	return sql, params
}
