// Package migrator creates the tables of a schema registry.
package migrator

import (
	"context"
	"fmt"
	"time"

	"github.com/basilgregory/onam/logger"
	"github.com/basilgregory/onam/schema"
	"github.com/basilgregory/onam/storage"
)

// Migrator migrator struct
type Migrator struct {
	*Config
}

// Config schema config
type Config struct {
	Conn   storage.Conn
	Logger logger.Interface
}

// New returns a migrator issuing DDL on conn.
func New(conn storage.Conn, l logger.Interface) Migrator {
	if l == nil {
		l = logger.Discard
	}
	return Migrator{Config: &Config{Conn: conn, Logger: l}}
}

// CreateTables creates every entity table, then every junction table.
// Tables that already exist are left untouched.
func (m Migrator) CreateTables(ctx context.Context, registry *schema.Registry) error {
	for _, s := range registry.Schemas() {
		if err := m.CreateTable(ctx, s); err != nil {
			return err
		}
	}
	for _, jt := range registry.JoinTables() {
		if err := m.CreateJoinTable(ctx, jt); err != nil {
			return err
		}
	}
	return nil
}

// CreateTable creates the table of s if it is absent.
func (m Migrator) CreateTable(ctx context.Context, s *schema.Schema) error {
	sql := m.Conn.Dialect().CreateTableSQL(s.Table, s.Columns())
	if err := m.exec(ctx, sql); err != nil {
		return fmt.Errorf("create table %s for %s: %w", s.Table, s.Name, err)
	}
	return nil
}

// CreateJoinTable creates a junction table if it is absent.
func (m Migrator) CreateJoinTable(ctx context.Context, jt *schema.JoinTable) error {
	sql := m.Conn.Dialect().CreateTableSQL(jt.Table, jt.Columns())
	if err := m.exec(ctx, sql); err != nil {
		return fmt.Errorf("create join table %s: %w", jt.Table, err)
	}
	return nil
}

// DropTables drops every table of registry, junctions first.
func (m Migrator) DropTables(ctx context.Context, registry *schema.Registry) error {
	var tables []string
	for _, jt := range registry.JoinTables() {
		tables = append(tables, jt.Table)
	}
	for _, s := range registry.Schemas() {
		tables = append(tables, s.Table)
	}
	for _, table := range tables {
		if err := m.DropTable(ctx, table); err != nil {
			return err
		}
	}
	return nil
}

// DropTable drops table if it exists.
func (m Migrator) DropTable(ctx context.Context, table string) error {
	sql := "DROP TABLE IF EXISTS " + m.Conn.Dialect().Quote(table)
	if err := m.exec(ctx, sql); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	return nil
}

// HasTable reports whether table exists.
func (m Migrator) HasTable(ctx context.Context, table string) (bool, error) {
	sql, args := m.Conn.Dialect().HasTableSQL(table)
	begin := time.Now()
	cursor, err := m.Conn.Query(ctx, sql, args...)
	m.Logger.Trace(ctx, begin, func() (string, int64) {
		return logger.ExplainSQL(sql, m.Conn.Dialect().NumericPlaceholder(), `'`, args...), -1
	}, err)
	if err != nil {
		return false, err
	}
	defer cursor.Close()

	if !cursor.Next() {
		return false, nil
	}
	count, err := cursor.Int64(0)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ColumnNames columns of table as reported by the engine.
func (m Migrator) ColumnNames(ctx context.Context, table string) ([]string, error) {
	sql := "SELECT * FROM " + m.Conn.Dialect().Quote(table) + " WHERE 1 = 0"
	begin := time.Now()
	cursor, err := m.Conn.Query(ctx, sql)
	m.Logger.Trace(ctx, begin, func() (string, int64) { return sql, 0 }, err)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()
	return append([]string(nil), cursor.Columns()...), nil
}

func (m Migrator) exec(ctx context.Context, sql string) error {
	begin := time.Now()
	_, err := m.Conn.Exec(ctx, sql)
	m.Logger.Trace(ctx, begin, func() (string, int64) { return sql, -1 }, err)
	return err
}
