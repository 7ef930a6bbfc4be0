package schema

import (
	"fmt"
	"strings"

	"github.com/basilgregory/onam/storage"
)

// RelationshipType relationship type
type RelationshipType string

const (
	HasMany   RelationshipType = "has_many"
	Many2Many RelationshipType = "many_to_many"
)

type Relationships struct {
	Relations map[string]*Relationship

	order []string
}

// List relationships in declaration order.
func (r Relationships) List() []*Relationship {
	list := make([]*Relationship, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, r.Relations[name])
	}
	return list
}

// Relationship a collection field and how it is stored.
type Relationship struct {
	Name        string
	Type        RelationshipType
	Field       *Field
	Schema      *Schema
	FieldSchema *Schema
	// ForeignKey the reference on FieldSchema pointing at Schema, HasMany only
	ForeignKey *Field
	JoinTable  *JoinTable
}

// JoinTable junction of a many to many relationship, seen from the owner.
type JoinTable struct {
	Table string
	// OwnerColumn holds the key of the owning entity
	OwnerColumn string
	// RelatedColumn holds the key of the related entity
	RelatedColumn string
}

// Columns of the junction table, sorted so both sides agree.
func (jt *JoinTable) Columns() []storage.ColumnDef {
	a, b := jt.OwnerColumn, jt.RelatedColumn
	if b < a {
		a, b = b, a
	}
	return []storage.ColumnDef{
		{Name: a, Affinity: storage.Integer, NotNull: true},
		{Name: b, Affinity: storage.Integer, NotNull: true},
	}
}

func (schema *Schema) parseRelation(rel *Relationship, related *Schema, namer Namer) error {
	rel.FieldSchema = related
	rel.Field.Related = related
	decl := rel.Field.decl

	var candidates []*Field
	for _, f := range related.Fields {
		if f.Type == TypeReference && f.Related == schema {
			candidates = append(candidates, f)
		}
	}

	if decl.foreignKey != "" {
		fk := related.FieldsByName[decl.foreignKey]
		if fk == nil || fk.Type != TypeReference || fk.Related != schema {
			return fmt.Errorf("%w: %s.%s foreign key %s is not a reference to %s",
				ErrInvalidDeclaration, schema.Name, rel.Name, decl.foreignKey, schema.Name)
		}
		candidates = []*Field{fk}
	}

	if len(candidates) > 1 && !decl.many2many {
		names := make([]string, 0, len(candidates))
		for _, c := range candidates {
			names = append(names, c.Name)
		}
		return fmt.Errorf("%w: %s.%s matches references %s of %s, pick one with ForeignKey",
			ErrInvalidDeclaration, schema.Name, rel.Name, strings.Join(names, ", "), related.Name)
	}

	if len(candidates) > 0 && !decl.many2many {
		rel.Type = HasMany
		rel.ForeignKey = candidates[0]
		return nil
	}

	rel.Type = Many2Many
	jt := &JoinTable{
		Table:         decl.joinTable,
		OwnerColumn:   namer.JoinColumnName(schema.Name),
		RelatedColumn: namer.JoinColumnName(related.Name),
	}
	if jt.Table == "" {
		jt.Table = namer.JoinTableName(schema.Name, related.Name)
	}
	if related == schema {
		jt.RelatedColumn = namer.JoinColumnName("Related" + related.Name)
	}
	rel.JoinTable = jt
	return nil
}
