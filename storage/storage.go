// Package storage is the boundary between onam and the relational engine.
//
// The core only needs to execute a statement, run a query and walk the
// buffered result with column-indexed typed accessors. Everything engine
// specific (placeholders, quoting, column types, DDL and key retrieval) is
// kept behind Dialect.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrColumnIndex column index out of range
	ErrColumnIndex = errors.New("column index out of range")
	// ErrNoRow accessor used before Next or after the last row
	ErrNoRow = errors.New("cursor is not positioned on a row")
	// ErrNullValue value is NULL
	ErrNullValue = errors.New("value is NULL")
	// ErrTypeMismatch stored value cannot be read as the requested type
	ErrTypeMismatch = errors.New("stored value type mismatch")
)

// Affinity is the abstract storage class of a column.
type Affinity string

const (
	Integer Affinity = "INTEGER"
	Real    Affinity = "REAL"
	Text    Affinity = "TEXT"
	Blob    Affinity = "BLOB"
)

// ColumnDef describes a column for DDL generation.
type ColumnDef struct {
	Name       string
	Affinity   Affinity
	PrimaryKey bool
	NotNull    bool
}

// Result summarizes a statement executed with Conn.Exec.
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

// Conn is a single logical connection to the storage engine.
type Conn interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	Query(ctx context.Context, query string, args ...any) (Cursor, error)
	Dialect() Dialect
	Close() error
}

// Cursor iterates over a fully fetched result set.
// Next must be called before the first row is readable.
type Cursor interface {
	Columns() []string
	// ColumnIndex returns -1 when the column is absent.
	ColumnIndex(name string) int
	Count() int
	Next() bool
	IsNull(i int) bool
	Value(i int) (any, error)
	Int64(i int) (int64, error)
	Float64(i int) (float64, error)
	String(i int) (string, error)
	Bytes(i int) ([]byte, error)
	Close() error
}
