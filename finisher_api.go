package onam

import (
	"fmt"
	"strings"

	"github.com/basilgregory/onam/schema"
	"github.com/basilgregory/onam/storage"
)

// Find the entity of the named type with primary key id.
// Returns ErrRecordNotFound when there is no such row.
func (db *DB) Find(entity string, id int64) (Entity, error) {
	s, err := db.lookup(entity)
	if err != nil {
		return nil, err
	}
	return db.find(s, id)
}

// First loads the row with primary key id into dest.
func (db *DB) First(dest Entity, id int64) error {
	s, err := db.schemaOf(dest)
	if err != nil {
		return err
	}
	cursor, err := db.query("find", db.selectByKey(s), id)
	if err != nil {
		return err
	}
	defer cursor.Close()

	if !cursor.Next() {
		return ErrRecordNotFound
	}
	s.DecodeInto(dest, cursor, db.reportCoercion)
	return nil
}

// Reload reads e again from storage, discarding unsaved changes.
func (db *DB) Reload(e Entity) error {
	if e.GetID() == 0 {
		return ErrMissingPrimaryKey
	}
	return db.First(e, e.GetID())
}

// FindAll every entity of the named type, in storage order.
func (db *DB) FindAll(entity string) ([]Entity, error) {
	s, err := db.lookup(entity)
	if err != nil {
		return nil, err
	}
	return db.findAll(s)
}

// Save inserts e when it has no primary key yet, writing the generated key
// back, and updates the row by key otherwise. An update writes every column,
// NULL for zero times, zero references and nil bytes. Collections are not
// saved.
func (db *DB) Save(e Entity) error {
	s, err := db.schemaOf(e)
	if err != nil {
		return err
	}
	if e.GetID() == 0 {
		row, err := s.Encode(e)
		if err != nil {
			return err
		}
		return db.insert(s, e, row)
	}
	row, err := s.EncodeAll(e)
	if err != nil {
		return err
	}
	return db.update(s, e, row)
}

// Delete removes the row of e. Related rows and junction rows are kept.
func (db *DB) Delete(e Entity) error {
	s, err := db.schemaOf(e)
	if err != nil {
		return err
	}
	if e.GetID() == 0 {
		return ErrMissingPrimaryKey
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", db.quote(s.Table), db.quote(schema.PrimaryKey), db.bindVar(1))
	if _, err := db.exec("delete", sql, e.GetID()); err != nil {
		return err
	}
	db.cache.Forget(s.Name, e.GetID())
	return nil
}

// Truncate deletes every row of the named entity, keeping the table.
func (db *DB) Truncate(entity string) error {
	s, err := db.lookup(entity)
	if err != nil {
		return err
	}
	if _, err := db.exec("truncate", "DELETE FROM "+db.quote(s.Table)); err != nil {
		return err
	}
	db.cache.ForgetEntity(s.Name)
	return nil
}

func (db *DB) selectByKey(s *schema.Schema) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s = %s", db.quote(s.Table), db.quote(schema.PrimaryKey), db.bindVar(1))
}

func (db *DB) find(s *schema.Schema, id int64) (Entity, error) {
	cursor, err := db.query("find", db.selectByKey(s), id)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	if !cursor.Next() {
		return nil, ErrRecordNotFound
	}
	return s.Decode(cursor, db.reportCoercion), nil
}

func (db *DB) findAll(s *schema.Schema) ([]Entity, error) {
	cursor, err := db.query("find all", "SELECT * FROM "+db.quote(s.Table))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()
	return db.decodeAll(s, cursor), nil
}

func (db *DB) decodeAll(s *schema.Schema, cursor storage.Cursor) []Entity {
	entities := make([]Entity, 0, cursor.Count())
	for cursor.Next() {
		entities = append(entities, s.Decode(cursor, db.reportCoercion))
	}
	return entities
}

func (db *DB) insert(s *schema.Schema, e Entity, row schema.Row) error {
	dialect := db.conn.Dialect()
	sql := dialect.InsertSQL(s.Table, schema.PrimaryKey, row.Columns)

	var id int64
	if dialect.ReturnsKey() {
		cursor, err := db.query("insert", sql, row.Values...)
		if err != nil {
			return err
		}
		defer cursor.Close()
		if !cursor.Next() {
			return &StorageError{Op: "insert", SQL: sql, Err: fmt.Errorf("no key returned for %s", s.Name)}
		}
		if id, err = cursor.Int64(0); err != nil {
			return &StorageError{Op: "insert", SQL: sql, Err: err}
		}
	} else {
		result, err := db.exec("insert", sql, row.Values...)
		if err != nil {
			return err
		}
		id = result.LastInsertID
	}

	if id == 0 {
		return &StorageError{Op: "insert", SQL: sql, Err: fmt.Errorf("no key returned for %s", s.Name)}
	}
	e.SetID(id)
	return nil
}

func (db *DB) update(s *schema.Schema, e Entity, row schema.Row) error {
	var (
		sets = make([]string, 0, row.Len())
		args = make([]any, 0, row.Len())
	)
	for i, column := range row.Columns {
		if column == schema.PrimaryKey {
			continue
		}
		args = append(args, row.Values[i])
		sets = append(sets, fmt.Sprintf("%s = %s", db.quote(column), db.bindVar(len(args))))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, e.GetID())

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		db.quote(s.Table), strings.Join(sets, ", "), db.quote(schema.PrimaryKey), db.bindVar(len(args)))
	_, err := db.exec("update", sql, args...)
	return err
}
