package storage

import (
	"fmt"
	"regexp"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres dialect, backed by the pgx database/sql driver.
type Postgres struct{}

var (
	postgresPlaceholder = regexp.MustCompile(`\$(\d+)`)
	postgresCommon      = commonDialect{
		quote:    quoteWith(`"`, `"`),
		bindVar:  Postgres{}.BindVar,
		dataType: Postgres{}.DataTypeOf,
	}
)

func (Postgres) Name() string                       { return "postgres" }
func (Postgres) DriverName() string                 { return "pgx" }
func (Postgres) BindVar(n int) string               { return "$" + strconv.Itoa(n) }
func (Postgres) NumericPlaceholder() *regexp.Regexp { return postgresPlaceholder }
func (Postgres) Quote(s string) string              { return postgresCommon.quote(s) }
func (Postgres) ReturnsKey() bool                   { return true }

func (Postgres) DataTypeOf(col ColumnDef) string {
	if col.PrimaryKey {
		return "BIGSERIAL PRIMARY KEY"
	}
	switch col.Affinity {
	case Integer:
		return "BIGINT"
	case Real:
		return "DOUBLE PRECISION"
	case Blob:
		return "BYTEA"
	default:
		return "TEXT"
	}
}

func (Postgres) CreateTableSQL(table string, columns []ColumnDef) string {
	return postgresCommon.createTable(table, columns)
}

func (p Postgres) InsertSQL(table, primaryKey string, columns []string) string {
	if len(columns) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", p.Quote(table), p.Quote(primaryKey))
	}
	cols, vars := postgresCommon.insertColumns(columns)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s", p.Quote(table), cols, vars, p.Quote(primaryKey))
}

func (Postgres) HasTableSQL(table string) (string, []any) {
	return "SELECT count(*) FROM information_schema.tables WHERE table_schema = CURRENT_SCHEMA() AND table_name = $1 AND table_type = 'BASE TABLE'", []any{table}
}
