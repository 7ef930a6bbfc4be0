package storage

import (
	"fmt"
	"regexp"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite dialect, backed by github.com/mattn/go-sqlite3.
type SQLite struct{}

var sqliteCommon = commonDialect{
	quote:    quoteWith(`"`, `"`),
	bindVar:  func(int) string { return "?" },
	dataType: SQLite{}.DataTypeOf,
}

func (SQLite) Name() string                       { return "sqlite3" }
func (SQLite) DriverName() string                 { return "sqlite3" }
func (SQLite) BindVar(int) string                 { return "?" }
func (SQLite) NumericPlaceholder() *regexp.Regexp { return nil }
func (SQLite) Quote(s string) string              { return sqliteCommon.quote(s) }
func (SQLite) ReturnsKey() bool                   { return false }

// DataTypeOf maps an affinity onto the sqlite storage class of the same name.
func (SQLite) DataTypeOf(col ColumnDef) string {
	if col.PrimaryKey {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return string(col.Affinity)
}

func (SQLite) CreateTableSQL(table string, columns []ColumnDef) string {
	return sqliteCommon.createTable(table, columns)
}

func (s SQLite) InsertSQL(table, primaryKey string, columns []string) string {
	if len(columns) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", s.Quote(table))
	}
	cols, vars := sqliteCommon.insertColumns(columns)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.Quote(table), cols, vars)
}

func (SQLite) HasTableSQL(table string) (string, []any) {
	return "SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", []any{table}
}
