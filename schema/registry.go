package schema

import (
	"errors"
	"fmt"
	"reflect"
)

// Registry holds the schema of every declared entity. It is built once by
// NewRegistry and never changes afterwards, so concurrent reads are safe.
type Registry struct {
	namer      Namer
	schemas    []*Schema
	byName     map[string]*Schema
	byType     map[reflect.Type]*Schema
	joinTables []*JoinTable
}

// NewRegistry parses decls and links their references and collections.
// Every offending declaration is reported in the returned error.
func NewRegistry(namer Namer, decls ...Declaration) (*Registry, error) {
	if namer == nil {
		namer = NamingStrategy{}
	}
	r := &Registry{
		namer:  namer,
		byName: make(map[string]*Schema, len(decls)),
		byType: make(map[reflect.Type]*Schema, len(decls)),
	}

	var errs []error
	tables := map[string]string{}
	for _, decl := range decls {
		schema, err := parse(decl, namer)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, ok := r.byName[schema.Name]; ok {
			errs = append(errs, fmt.Errorf("%w: entity %s", ErrDuplicateEntity, schema.Name))
			continue
		}
		if other, ok := tables[schema.Table]; ok {
			errs = append(errs, fmt.Errorf("%w: %s and %s both map to table %s", ErrDuplicateEntity, other, schema.Name, schema.Table))
			continue
		}
		if other, ok := r.byType[schema.ModelType]; ok {
			errs = append(errs, fmt.Errorf("%w: %s and %s share type %v", ErrDuplicateEntity, other.Name, schema.Name, schema.ModelType))
			continue
		}
		tables[schema.Table] = schema.Name
		r.schemas = append(r.schemas, schema)
		r.byName[schema.Name] = schema
		r.byType[schema.ModelType] = schema
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	// references first, collections rely on them to pick HasMany
	for _, schema := range r.schemas {
		for _, field := range schema.Fields {
			if field.Type != TypeReference {
				continue
			}
			related, ok := r.byType[field.decl.related]
			if !ok {
				errs = append(errs, fmt.Errorf("%w: %s.%s references undeclared %v", ErrUnsupportedFieldType, schema.Name, field.Name, field.decl.related))
				continue
			}
			field.Related = related
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	seen := map[string]*JoinTable{}
	for _, schema := range r.schemas {
		for _, rel := range schema.Relationships.List() {
			related, ok := r.byType[rel.Field.decl.related]
			if !ok {
				errs = append(errs, fmt.Errorf("%w: %s.%s collects undeclared %v", ErrUnsupportedFieldType, schema.Name, rel.Name, rel.Field.decl.related))
				continue
			}
			if err := schema.parseRelation(rel, related, namer); err != nil {
				errs = append(errs, err)
				continue
			}
			if jt := rel.JoinTable; jt != nil {
				if _, clash := tables[jt.Table]; clash {
					errs = append(errs, fmt.Errorf("%w: junction of %s.%s collides with table %s", ErrDuplicateEntity, schema.Name, rel.Name, jt.Table))
					continue
				}
				if _, ok := seen[jt.Table]; !ok {
					seen[jt.Table] = jt
					r.joinTables = append(r.joinTables, jt)
				}
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

// Namer the naming strategy the registry was built with.
func (r *Registry) Namer() Namer {
	return r.namer
}

// Lookup schema by entity name.
func (r *Registry) Lookup(name string) (*Schema, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// SchemaOf schema of the dynamic type of e.
func (r *Registry) SchemaOf(e Entity) (*Schema, bool) {
	if e == nil {
		return nil, false
	}
	s, ok := r.byType[reflect.TypeOf(e)]
	return s, ok
}

// Schemas every schema in declaration order.
func (r *Registry) Schemas() []*Schema {
	return append([]*Schema(nil), r.schemas...)
}

// JoinTables every distinct junction table.
func (r *Registry) JoinTables() []*JoinTable {
	return append([]*JoinTable(nil), r.joinTables...)
}
