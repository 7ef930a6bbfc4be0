package onam

import (
	"errors"
	"fmt"

	"github.com/basilgregory/onam/schema"
)

// Resolve loads the collection field of owner, sets it on owner and returns
// it. A cached collection is returned as is unless forceRefresh is set or
// the owner is flagged with Refresh. Missing related rows are left out.
func (db *DB) Resolve(owner Entity, field string, forceRefresh bool) ([]Entity, error) {
	s, rel, err := db.relationship(owner, field)
	if err != nil {
		return nil, err
	}
	id := owner.GetID()
	if id == 0 {
		return nil, ErrMissingPrimaryKey
	}

	if !forceRefresh && !db.cache.IsStale(s.Name, id) {
		if items, ok := db.cache.Load(s.Name, id, rel.Name); ok {
			return items, rel.Field.Set(owner, items)
		}
	}

	var items []Entity
	switch rel.Type {
	case schema.HasMany:
		items, err = db.resolveHasMany(rel, id)
	case schema.Many2Many:
		items, err = db.resolveMany2Many(rel, id)
	default:
		err = fmt.Errorf("%w: %s.%s", ErrUnknownRelation, s.Name, rel.Name)
	}
	if err != nil {
		return nil, err
	}

	db.cache.Store(s.Name, id, rel.Name, items)
	return items, rel.Field.Set(owner, items)
}

// Refresh flags owner so that every Resolve goes to storage until the flag
// is cleared with Refresh(owner, false).
func (db *DB) Refresh(owner Entity, refresh bool) error {
	s, err := db.schemaOf(owner)
	if err != nil {
		return err
	}
	db.cache.SetStale(s.Name, owner.GetID(), refresh)
	return nil
}

// Associate links related to owner through the collection field. Unsaved
// related entities are saved first. Linking twice is a no-op.
func (db *DB) Associate(owner Entity, field string, related ...Entity) error {
	s, rel, err := db.relationship(owner, field)
	if err != nil {
		return err
	}
	if owner.GetID() == 0 {
		return ErrMissingPrimaryKey
	}

	for _, r := range related {
		if err := db.checkRelated(rel, r); err != nil {
			return err
		}
		switch rel.Type {
		case schema.HasMany:
			if err := rel.ForeignKey.Set(r, owner.GetID()); err != nil {
				return err
			}
			if err := db.Save(r); err != nil {
				return err
			}
		case schema.Many2Many:
			if r.GetID() == 0 {
				if err := db.Save(r); err != nil {
					return err
				}
			}
			if err := db.link(rel.JoinTable, owner.GetID(), r.GetID()); err != nil {
				return err
			}
		}
	}

	db.cache.Delete(s.Name, owner.GetID(), rel.Name)
	return nil
}

// Dissociate unlinks related from owner. For one to many collections the
// foreign key of related is cleared, nothing is deleted.
func (db *DB) Dissociate(owner Entity, field string, related ...Entity) error {
	s, rel, err := db.relationship(owner, field)
	if err != nil {
		return err
	}
	if owner.GetID() == 0 {
		return ErrMissingPrimaryKey
	}

	for _, r := range related {
		if err := db.checkRelated(rel, r); err != nil {
			return err
		}
		if r.GetID() == 0 {
			continue
		}
		switch rel.Type {
		case schema.HasMany:
			fk := rel.ForeignKey
			sql := fmt.Sprintf("UPDATE %s SET %s = NULL WHERE %s = %s AND %s = %s",
				db.quote(rel.FieldSchema.Table), db.quote(fk.Column),
				db.quote(schema.PrimaryKey), db.bindVar(1), db.quote(fk.Column), db.bindVar(2))
			if _, err := db.exec("dissociate", sql, r.GetID(), owner.GetID()); err != nil {
				return err
			}
			if v, _ := fk.Get(r).(int64); v == owner.GetID() {
				if err := fk.Set(r, int64(0)); err != nil {
					return err
				}
			}
		case schema.Many2Many:
			jt := rel.JoinTable
			sql := fmt.Sprintf("DELETE FROM %s WHERE %s = %s AND %s = %s",
				db.quote(jt.Table), db.quote(jt.OwnerColumn), db.bindVar(1), db.quote(jt.RelatedColumn), db.bindVar(2))
			if _, err := db.exec("dissociate", sql, owner.GetID(), r.GetID()); err != nil {
				return err
			}
		}
	}

	db.cache.Delete(s.Name, owner.GetID(), rel.Name)
	return nil
}

func (db *DB) relationship(owner Entity, field string) (*schema.Schema, *schema.Relationship, error) {
	s, err := db.schemaOf(owner)
	if err != nil {
		return nil, nil, err
	}
	rel, ok := s.Relationships.Relations[field]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s.%s", ErrUnknownRelation, s.Name, field)
	}
	return s, rel, nil
}

func (db *DB) checkRelated(rel *schema.Relationship, r Entity) error {
	s, err := db.schemaOf(r)
	if err != nil {
		return err
	}
	if s != rel.FieldSchema {
		return fmt.Errorf("%w: %s.%s holds %s, not %s", ErrUnknownRelation, rel.Schema.Name, rel.Name, rel.FieldSchema.Name, s.Name)
	}
	return nil
}

func (db *DB) resolveHasMany(rel *schema.Relationship, id int64) ([]Entity, error) {
	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s",
		db.quote(rel.FieldSchema.Table), db.quote(rel.ForeignKey.Column), db.bindVar(1))
	cursor, err := db.query("resolve", sql, id)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()
	return db.decodeAll(rel.FieldSchema, cursor), nil
}

func (db *DB) resolveMany2Many(rel *schema.Relationship, id int64) ([]Entity, error) {
	jt := rel.JoinTable
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		db.quote(jt.RelatedColumn), db.quote(jt.Table), db.quote(jt.OwnerColumn), db.bindVar(1))
	cursor, err := db.query("resolve", sql, id)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, cursor.Count())
	for cursor.Next() {
		relatedID, err := cursor.Int64(0)
		if err != nil {
			db.Logger.Warn(db.ctx, "skipping junction row of %s: %v", jt.Table, err)
			continue
		}
		ids = append(ids, relatedID)
	}
	cursor.Close()

	items := make([]Entity, 0, len(ids))
	for _, relatedID := range ids {
		e, err := db.find(rel.FieldSchema, relatedID)
		if errors.Is(err, ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, nil
}

// link inserts a junction row unless it is already there.
func (db *DB) link(jt *schema.JoinTable, ownerID, relatedID int64) error {
	sql := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s = %s AND %s = %s",
		db.quote(jt.Table), db.quote(jt.OwnerColumn), db.bindVar(1), db.quote(jt.RelatedColumn), db.bindVar(2))
	cursor, err := db.query("associate", sql, ownerID, relatedID)
	if err != nil {
		return err
	}
	var count int64
	if cursor.Next() {
		count, err = cursor.Int64(0)
	}
	cursor.Close()
	if err != nil {
		return &StorageError{Op: "associate", SQL: sql, Err: err}
	}
	if count > 0 {
		return nil
	}

	sql = fmt.Sprintf("INSERT INTO %s (%s,%s) VALUES (%s,%s)",
		db.quote(jt.Table), db.quote(jt.OwnerColumn), db.quote(jt.RelatedColumn), db.bindVar(1), db.bindVar(2))
	_, err = db.exec("associate", sql, ownerID, relatedID)
	return err
}
