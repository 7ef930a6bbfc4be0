package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/basilgregory/onam/storage"
	"github.com/basilgregory/onam/utils"
)

// Field is a resolved field of a schema.
type Field struct {
	Name     string
	Column   string
	Type     FieldType
	Affinity storage.Affinity
	NotNull  bool
	Schema   *Schema
	// Related is the schema a reference or a collection points to.
	Related *Schema

	get  func(Entity) any
	set  func(Entity, any) error
	decl FieldDecl
}

// Get reads the field from e.
func (f *Field) Get(e Entity) any {
	return f.get(e)
}

// Set writes v into the field of e.
func (f *Field) Set(e Entity, v any) error {
	return f.set(e, v)
}

// Schema is the resolved descriptor of one entity type.
type Schema struct {
	Name      string
	Table     string
	ModelType reflect.Type
	// Fields are the column backed fields in declaration order.
	Fields         []*Field
	FieldsByName   map[string]*Field
	FieldsByColumn map[string]*Field
	Relationships  Relationships
	// Skipped lists declared fields missing an accessor.
	Skipped []string

	newFn func() Entity
}

func (schema Schema) String() string {
	return fmt.Sprintf("%s(%s)", schema.Name, schema.Table)
}

// New allocates a fresh, unsaved instance.
func (schema *Schema) New() Entity {
	return schema.newFn()
}

// LookUpField finds a column field by name or column.
func (schema *Schema) LookUpField(name string) *Field {
	if field, ok := schema.FieldsByName[name]; ok {
		return field
	}
	if field, ok := schema.FieldsByColumn[name]; ok {
		return field
	}
	return nil
}

// Columns the column definitions of the entity table, key first.
func (schema *Schema) Columns() []storage.ColumnDef {
	cols := make([]storage.ColumnDef, 0, len(schema.Fields)+1)
	cols = append(cols, storage.ColumnDef{Name: PrimaryKey, Affinity: storage.Integer, PrimaryKey: true, NotNull: true})
	for _, field := range schema.Fields {
		cols = append(cols, storage.ColumnDef{Name: field.Column, Affinity: field.Affinity, NotNull: field.NotNull})
	}
	return cols
}

func parse(decl Declaration, namer Namer) (*Schema, error) {
	if decl.Name == "" || decl.New == nil {
		return nil, fmt.Errorf("%w: entity %q needs a name and a constructor", ErrInvalidDeclaration, decl.Name)
	}
	modelType := decl.typ()
	if modelType == nil {
		return nil, fmt.Errorf("%w: constructor of %s returned nil", ErrInvalidDeclaration, decl.Name)
	}

	schema := &Schema{
		Name:           decl.Name,
		Table:          decl.Table,
		ModelType:      modelType,
		FieldsByName:   map[string]*Field{},
		FieldsByColumn: map[string]*Field{},
		Relationships:  Relationships{Relations: map[string]*Relationship{}},
		newFn:          decl.New,
	}
	if schema.Table == "" {
		schema.Table = namer.TableName(decl.Name)
	}
	if !validName(schema.Table) {
		return nil, fmt.Errorf("%w: %s has an invalid table name %q", ErrInvalidDeclaration, decl.Name, schema.Table)
	}

	for _, fd := range decl.Fields {
		if fd.get == nil || fd.set == nil {
			schema.Skipped = append(schema.Skipped, fd.Name)
			continue
		}
		if fd.Name == "" {
			return nil, fmt.Errorf("%w: %s has a field without a name", ErrInvalidDeclaration, decl.Name)
		}
		if _, ok := schema.FieldsByName[fd.Name]; ok {
			return nil, fmt.Errorf("%w: field %s.%s declared twice", ErrInvalidDeclaration, decl.Name, fd.Name)
		}
		if _, ok := schema.Relationships.Relations[fd.Name]; ok {
			return nil, fmt.Errorf("%w: field %s.%s declared twice", ErrInvalidDeclaration, decl.Name, fd.Name)
		}

		field := &Field{
			Name:    fd.Name,
			Type:    fd.Type,
			NotNull: fd.NotNull,
			Schema:  schema,
			get:     fd.get,
			set:     fd.set,
			decl:    fd,
		}

		if fd.Type.IsRelational() {
			if fd.related == nil {
				return nil, fmt.Errorf("%w: collection %s.%s has no related entity", ErrUnsupportedFieldType, decl.Name, fd.Name)
			}
			schema.Relationships.Relations[fd.Name] = &Relationship{Name: fd.Name, Field: field, Schema: schema}
			schema.Relationships.order = append(schema.Relationships.order, fd.Name)
			continue
		}

		affinity, err := fd.Type.Affinity()
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", decl.Name, fd.Name, err)
		}
		field.Affinity = affinity
		field.Column = fd.Column
		if field.Column == "" {
			field.Column = namer.ColumnName(schema.Table, fd.Name)
		}
		if !validName(field.Column) {
			return nil, fmt.Errorf("%w: %s.%s has an invalid column name %q", ErrInvalidDeclaration, decl.Name, fd.Name, field.Column)
		}
		if field.Column == PrimaryKey {
			return nil, fmt.Errorf("%w: %s.%s maps to the primary key column", ErrInvalidDeclaration, decl.Name, fd.Name)
		}
		if other, ok := schema.FieldsByColumn[field.Column]; ok {
			return nil, fmt.Errorf("%w: %s.%s and %s.%s share column %q", ErrInvalidDeclaration, decl.Name, fd.Name, decl.Name, other.Name, field.Column)
		}

		schema.Fields = append(schema.Fields, field)
		schema.FieldsByName[field.Name] = field
		schema.FieldsByColumn[field.Column] = field
	}

	return schema, nil
}

func validName(name string) bool {
	fields := strings.FieldsFunc(name, utils.IsValidDBNameChar)
	return len(fields) == 1 && fields[0] == name
}
