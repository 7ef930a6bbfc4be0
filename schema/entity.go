package schema

import "reflect"

// PrimaryKey column every entity table carries
const PrimaryKey = "id"

// Entity is implemented by every persisted model. A zero ID means the
// entity has not been saved yet.
type Entity interface {
	GetID() int64
	SetID(id int64)
}

// Declaration describes one entity type: its name, how to allocate a
// fresh instance and the fields that are persisted.
type Declaration struct {
	Name   string
	Table  string
	New    func() Entity
	Fields []FieldDecl

	modelType reflect.Type
}

// Declare builds the declaration of entity type E.
//
//	schema.Declare("Post", func() *Post { return &Post{} },
//		schema.String("Title", (*Post).GetTitle, (*Post).SetTitle),
//		schema.Many("Comments", (*Post).GetComments, (*Post).SetComments),
//	)
func Declare[E Entity](name string, newFn func() E, fields ...FieldDecl) Declaration {
	return Declaration{
		Name:      name,
		New:       func() Entity { return newFn() },
		Fields:    fields,
		modelType: reflect.TypeOf((*E)(nil)).Elem(),
	}
}

// TableName overrides the table derived from the entity name.
func (d Declaration) TableName(table string) Declaration {
	d.Table = table
	return d
}

func (d Declaration) typ() reflect.Type {
	if d.modelType != nil {
		return d.modelType
	}
	if d.New != nil {
		if e := d.New(); e != nil {
			return reflect.TypeOf(e)
		}
	}
	return nil
}
