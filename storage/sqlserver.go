package storage

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	_ "github.com/microsoft/go-mssqldb"
)

// SQLServer dialect, backed by github.com/microsoft/go-mssqldb.
type SQLServer struct{}

var (
	sqlserverPlaceholder = regexp.MustCompile(`@p(\d+)`)
	sqlserverCommon      = commonDialect{
		quote:    quoteWith("[", "]"),
		bindVar:  SQLServer{}.BindVar,
		dataType: SQLServer{}.DataTypeOf,
	}
)

func (SQLServer) Name() string                       { return "sqlserver" }
func (SQLServer) DriverName() string                 { return "sqlserver" }
func (SQLServer) BindVar(n int) string               { return "@p" + strconv.Itoa(n) }
func (SQLServer) NumericPlaceholder() *regexp.Regexp { return sqlserverPlaceholder }
func (SQLServer) Quote(s string) string              { return sqlserverCommon.quote(s) }
func (SQLServer) ReturnsKey() bool                   { return true }

func (SQLServer) DataTypeOf(col ColumnDef) string {
	if col.PrimaryKey {
		return "BIGINT IDENTITY(1,1) PRIMARY KEY"
	}
	switch col.Affinity {
	case Integer:
		return "BIGINT"
	case Real:
		return "FLOAT"
	case Blob:
		return "VARBINARY(MAX)"
	default:
		return "NVARCHAR(MAX)"
	}
}

// CreateTableSQL guards the create with OBJECT_ID since T-SQL has no
// CREATE TABLE IF NOT EXISTS.
func (s SQLServer) CreateTableSQL(table string, columns []ColumnDef) string {
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s (%s)",
		strings.ReplaceAll(table, "'", "''"), s.Quote(table), sqlserverCommon.columns(columns))
}

func (s SQLServer) InsertSQL(table, primaryKey string, columns []string) string {
	output := "OUTPUT INSERTED." + s.Quote(primaryKey)
	if len(columns) == 0 {
		return fmt.Sprintf("INSERT INTO %s %s DEFAULT VALUES", s.Quote(table), output)
	}
	cols, vars := sqlserverCommon.insertColumns(columns)
	return fmt.Sprintf("INSERT INTO %s (%s) %s VALUES (%s)", s.Quote(table), cols, output, vars)
}

func (SQLServer) HasTableSQL(table string) (string, []any) {
	return "SELECT count(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = @p1 AND TABLE_TYPE = 'BASE TABLE'", []any{table}
}
