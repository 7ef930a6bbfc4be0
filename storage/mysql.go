package storage

import (
	"fmt"
	"regexp"

	_ "github.com/go-sql-driver/mysql"
)

// MySQL dialect, backed by github.com/go-sql-driver/mysql.
type MySQL struct{}

var mysqlCommon = commonDialect{
	quote:    quoteWith("`", "`"),
	bindVar:  func(int) string { return "?" },
	dataType: MySQL{}.DataTypeOf,
}

func (MySQL) Name() string                       { return "mysql" }
func (MySQL) DriverName() string                 { return "mysql" }
func (MySQL) BindVar(int) string                 { return "?" }
func (MySQL) NumericPlaceholder() *regexp.Regexp { return nil }
func (MySQL) Quote(s string) string              { return mysqlCommon.quote(s) }
func (MySQL) ReturnsKey() bool                   { return false }

func (MySQL) DataTypeOf(col ColumnDef) string {
	if col.PrimaryKey {
		return "BIGINT AUTO_INCREMENT PRIMARY KEY"
	}
	switch col.Affinity {
	case Integer:
		return "BIGINT"
	case Real:
		return "DOUBLE"
	case Blob:
		return "LONGBLOB"
	default:
		return "LONGTEXT"
	}
}

func (MySQL) CreateTableSQL(table string, columns []ColumnDef) string {
	return mysqlCommon.createTable(table, columns)
}

func (m MySQL) InsertSQL(table, primaryKey string, columns []string) string {
	if len(columns) == 0 {
		return fmt.Sprintf("INSERT INTO %s () VALUES ()", m.Quote(table))
	}
	cols, vars := mysqlCommon.insertColumns(columns)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", m.Quote(table), cols, vars)
}

func (MySQL) HasTableSQL(table string) (string, []any) {
	return "SELECT count(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ? AND table_type = 'BASE TABLE'", []any{table}
}
