package storage

import (
	"fmt"
	"regexp"
	"strings"
)

// Dialect captures the SQL differences between engines.
type Dialect interface {
	Name() string
	DriverName() string
	// BindVar returns the placeholder of the n-th (1-based) argument.
	BindVar(n int) string
	// NumericPlaceholder matches numbered placeholders, nil for `?`.
	NumericPlaceholder() *regexp.Regexp
	Quote(identifier string) string
	DataTypeOf(column ColumnDef) string
	// CreateTableSQL must be idempotent: a no-op when the table exists.
	CreateTableSQL(table string, columns []ColumnDef) string
	// InsertSQL builds an insert; when ReturnsKey is true the statement
	// yields the generated key as a single-row result.
	InsertSQL(table, primaryKey string, columns []string) string
	ReturnsKey() bool
	HasTableSQL(table string) (string, []any)
}

// Dialects registered by name, for configuration lookups.
var dialects = map[string]Dialect{}

// Register makes a dialect available to DialectByName.
func Register(d Dialect) {
	dialects[d.Name()] = d
}

// DialectByName returns a registered dialect.
func DialectByName(name string) (Dialect, error) {
	if d, ok := dialects[strings.ToLower(name)]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("unsupported dialect %q", name)
}

func init() {
	Register(SQLite{})
	Register(Postgres{})
	Register(MySQL{})
	Register(SQLServer{})
}

// commonDialect holds the statement builders shared by dialects that only
// differ in quoting, placeholders and column types.
type commonDialect struct {
	quote    func(string) string
	bindVar  func(int) string
	dataType func(ColumnDef) string
}

func (c commonDialect) columns(columns []ColumnDef) string {
	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		def := c.quote(col.Name) + " " + c.dataType(col)
		if col.NotNull && !col.PrimaryKey {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	return strings.Join(defs, ",")
}

func (c commonDialect) createTable(table string, columns []ColumnDef) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", c.quote(table), c.columns(columns))
}

func (c commonDialect) insertColumns(columns []string) (string, string) {
	quoted := make([]string, len(columns))
	vars := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = c.quote(col)
		vars[i] = c.bindVar(i + 1)
	}
	return strings.Join(quoted, ","), strings.Join(vars, ",")
}

func quoteWith(open, end string) func(string) string {
	return func(s string) string {
		return open + strings.ReplaceAll(s, end, end+end) + end
	}
}
