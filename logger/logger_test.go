package logger

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bufWriter struct{ bytes.Buffer }

func (w *bufWriter) Printf(format string, args ...interface{}) {
	fmt.Fprintf(&w.Buffer, format, args...)
}

func TestDefaultLogger(t *testing.T) {
	ctx := context.Background()
	w := &bufWriter{}
	l := New(w, Config{LogLevel: Warn})

	l.Info(ctx, "hidden")
	assert.Empty(t, w.String())

	l.Warn(ctx, "field %s left at default", "bio")
	assert.Contains(t, w.String(), "[warn] field bio left at default")
	assert.Contains(t, w.String(), "logger_test.go")

	w.Reset()
	l.LogMode(Info).Trace(ctx, time.Now(), func() (string, int64) {
		return "SELECT * FROM users", 2
	}, nil)
	assert.Contains(t, w.String(), "[rows:2] SELECT * FROM users")

	w.Reset()
	l.Trace(ctx, time.Now(), func() (string, int64) {
		return "SELECT * FROM users WHERE id = 9", -1
	}, ErrRecordNotFound)
	assert.Contains(t, w.String(), "record not found")
	assert.Contains(t, w.String(), "[rows:-]")
}

func TestDefaultLogger_IgnoreRecordNotFound(t *testing.T) {
	w := &bufWriter{}
	l := New(w, Config{LogLevel: Info, IgnoreRecordNotFoundError: true})
	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM users WHERE id = 9", 0
	}, ErrRecordNotFound)
	// falls through to the plain info trace
	assert.NotContains(t, w.String(), "record not found")
	assert.Contains(t, w.String(), "SELECT * FROM users WHERE id = 9")
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]LogLevel{
		"silent": Silent, "error": Error, "warn": Warn, "info": Info, "verbose": Info,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
		if name != "verbose" {
			assert.Equal(t, name, got.String())
		}
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestExplainSQL(t *testing.T) {
	tt := time.Date(2020, 2, 23, 11, 10, 10, 0, time.UTC)

	results := []struct {
		SQL           string
		NumericRegexp *regexp.Regexp
		Vars          []interface{}
		Result        string
	}{
		{
			SQL:    "INSERT INTO users (name,bio,age,active,avatar,joined) VALUES (?,?,?,?,?,?)",
			Vars:   []interface{}{"John Doe", `say "hi"`, 31, true, []byte("png"), tt},
			Result: `INSERT INTO users (name,bio,age,active,avatar,joined) VALUES ("John Doe","say \"hi\"",31,true,"png","2020-02-23 11:10:10")`,
		},
		{
			SQL:           "SELECT * FROM post_users WHERE post_id = $1 AND user_id = $2",
			NumericRegexp: regexp.MustCompile(`\$(\d+)`),
			Vars:          []interface{}{1, nil},
			Result:        `SELECT * FROM post_users WHERE post_id = 1 AND user_id = NULL`,
		},
		{
			SQL:           "UPDATE posts SET rating=@p1 WHERE id = @p2",
			NumericRegexp: regexp.MustCompile(`@p(\d+)`),
			Vars:          []interface{}{4.5, int64(10)},
			Result:        `UPDATE posts SET rating=4.5 WHERE id = 10`,
		},
	}

	for idx, r := range results {
		if result := ExplainSQL(r.SQL, r.NumericRegexp, `"`, r.Vars...); result != r.Result {
			t.Errorf("Explain SQL #%v expects %v, but got %v", idx, r.Result, result)
		}
	}
}
