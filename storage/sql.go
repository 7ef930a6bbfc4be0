package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/basilgregory/onam/internal/stmt_store"
)

// SQLConn adapts a database/sql handle to Conn. It is pinned to a single
// underlying connection so that statements run strictly one after another.
type SQLConn struct {
	db      *sql.DB
	dialect Dialect
	stmts   *stmt_store.Store
}

// Option configures a SQLConn.
type Option func(*SQLConn)

// WithPreparedStatements prepares every statement once and keeps up to
// size of them, 0 for no limit.
func WithPreparedStatements(size int) Option {
	return func(c *SQLConn) {
		c.stmts = stmt_store.New(size)
	}
}

// Open opens dsn with the dialect's driver and checks the connection.
func Open(dialect Dialect, dsn string, opts ...Option) (*SQLConn, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name(), err)
	}
	conn := New(db, dialect, opts...)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.Name(), err)
	}
	return conn, nil
}

// New wraps an already opened *sql.DB.
func New(db *sql.DB, dialect Dialect, opts ...Option) *SQLConn {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	conn := &SQLConn{db: db, dialect: dialect}
	for _, opt := range opts {
		opt(conn)
	}
	return conn
}

// DB returns the underlying handle.
func (c *SQLConn) DB() *sql.DB { return c.db }

// Dialect returns the SQL flavour of the connection.
func (c *SQLConn) Dialect() Dialect { return c.dialect }

// Exec runs a statement that returns no rows.
func (c *SQLConn) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	var (
		res sql.Result
		err error
	)
	if c.stmts != nil {
		var stmt *sql.Stmt
		if stmt, err = c.stmts.Get(ctx, c.db, query); err == nil {
			res, err = stmt.ExecContext(ctx, args...)
		}
	} else {
		res, err = c.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return Result{}, err
	}
	result := Result{RowsAffected: -1}
	if n, err := res.RowsAffected(); err == nil {
		result.RowsAffected = n
	}
	if id, err := res.LastInsertId(); err == nil {
		result.LastInsertID = id
	}
	return result, nil
}

// Query runs a statement and fetches every row before returning, so the
// cursor knows its row count and holds no connection.
func (c *SQLConn) Query(ctx context.Context, query string, args ...any) (Cursor, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if c.stmts != nil {
		var stmt *sql.Stmt
		if stmt, err = c.stmts.Get(ctx, c.db, query); err == nil {
			rows, err = stmt.QueryContext(ctx, args...)
		}
	} else {
		rows, err = c.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var data [][]any
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		data = append(data, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return NewCursor(columns, data), nil
}

// Close closes cached statements and the underlying handle.
func (c *SQLConn) Close() error {
	var errs []error
	if c.stmts != nil {
		errs = append(errs, c.stmts.Close())
	}
	errs = append(errs, c.db.Close())
	return errors.Join(errs...)
}
