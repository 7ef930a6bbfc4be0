// Package onam maps declared entity types onto relational tables.
//
// Entities are declared once with schema.Declare, handed to Open, and then
// saved, found, deleted and serialized through the returned *DB. Collections
// are loaded on demand with Resolve and cached per owner row.
package onam

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/basilgregory/onam/logger"
	"github.com/basilgregory/onam/migrator"
	"github.com/basilgregory/onam/schema"
	"github.com/basilgregory/onam/storage"
)

// Entity is implemented by every persisted model.
type Entity = schema.Entity

// Config onam config
type Config struct {
	// Name of the database, only used in logs
	Name string
	// Version of the declared model, only used in logs
	Version int
	// Entities declared entity types
	Entities []schema.Declaration
	// NamingStrategy tables, columns naming strategy
	NamingStrategy schema.Namer
	// Logger
	Logger logger.Interface
	// SkipCreateTables leaves table creation to the caller
	SkipCreateTables bool
	// RelationCacheSize bounds the number of cached collections, 0 for no limit
	RelationCacheSize int
}

// DB onam DB definition
type DB struct {
	*Config
	conn     storage.Conn
	registry *schema.Registry
	cache    *RelationCache
	ctx      context.Context
}

// Open builds the registry of config.Entities and creates the missing
// tables on conn.
func Open(conn storage.Conn, config *Config) (*DB, error) {
	if conn == nil {
		return nil, errors.New("onam: nil connection")
	}
	if config == nil {
		config = &Config{}
	}
	if config.NamingStrategy == nil {
		config.NamingStrategy = schema.NamingStrategy{}
	}
	if config.Logger == nil {
		config.Logger = logger.Default
	}

	registry, err := schema.NewRegistry(config.NamingStrategy, config.Entities...)
	if err != nil {
		return nil, err
	}

	db := &DB{
		Config:   config,
		conn:     conn,
		registry: registry,
		cache:    NewRelationCache(config.RelationCacheSize),
		ctx:      context.Background(),
	}

	for _, s := range registry.Schemas() {
		for _, name := range s.Skipped {
			db.Logger.Warn(db.ctx, "%s.%s has no getter or setter, it will not be persisted", s.Name, name)
		}
	}

	if !config.SkipCreateTables {
		if err := migrator.New(conn, db.Logger).CreateTables(db.ctx, registry); err != nil {
			return nil, &StorageError{Op: "create tables", Err: err}
		}
	}

	db.Logger.Info(db.ctx, "opened %s v%d on %s with %d entities", config.Name, config.Version, conn.Dialect().Name(), len(registry.Schemas()))
	return db, nil
}

// WithContext returns a DB whose statements carry the values of ctx.
// Cancellation and deadlines of ctx are not honored.
func (db *DB) WithContext(ctx context.Context) *DB {
	tx := *db
	tx.ctx = context.WithoutCancel(ctx)
	return &tx
}

// Registry the schemas of the declared entities.
func (db *DB) Registry() *schema.Registry {
	return db.registry
}

// Cache the relation cache shared by every DB derived from this one.
func (db *DB) Cache() *RelationCache {
	return db.cache
}

// Conn the underlying storage connection.
func (db *DB) Conn() storage.Conn {
	return db.conn
}

// Migrator returns a migrator on the same connection.
func (db *DB) Migrator() migrator.Migrator {
	return migrator.New(db.conn, db.Logger)
}

// Close closes the storage connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) schemaOf(e Entity) (*schema.Schema, error) {
	if s, ok := db.registry.SchemaOf(e); ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownEntity, e)
}

func (db *DB) lookup(entity string) (*schema.Schema, error) {
	if s, ok := db.registry.Lookup(entity); ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
}

func (db *DB) quote(identifier string) string {
	return db.conn.Dialect().Quote(identifier)
}

func (db *DB) bindVar(n int) string {
	return db.conn.Dialect().BindVar(n)
}

func (db *DB) exec(op, sql string, args ...any) (storage.Result, error) {
	begin := time.Now()
	result, err := db.conn.Exec(db.ctx, sql, args...)
	db.trace(begin, sql, args, result.RowsAffected, err)
	if err != nil {
		return result, &StorageError{Op: op, SQL: sql, Err: err}
	}
	return result, nil
}

func (db *DB) query(op, sql string, args ...any) (storage.Cursor, error) {
	begin := time.Now()
	cursor, err := db.conn.Query(db.ctx, sql, args...)
	rows := int64(-1)
	if err == nil {
		rows = int64(cursor.Count())
	}
	db.trace(begin, sql, args, rows, err)
	if err != nil {
		return nil, &StorageError{Op: op, SQL: sql, Err: err}
	}
	return cursor, nil
}

func (db *DB) trace(begin time.Time, sql string, args []any, rows int64, err error) {
	db.Logger.Trace(db.ctx, begin, func() (string, int64) {
		if filter, ok := db.Logger.(logger.ParamsFilter); ok {
			sql, args = filter.ParamsFilter(db.ctx, sql, args...)
		}
		return logger.ExplainSQL(sql, db.conn.Dialect().NumericPlaceholder(), `'`, args...), rows
	}, err)
}

func (db *DB) reportCoercion(err *schema.CoercionError) {
	db.Logger.Warn(db.ctx, "%v", err)
}
