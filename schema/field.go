package schema

import (
	"fmt"
	"reflect"
	"time"
)

// FieldDecl declares a single persisted field through typed accessors.
// Fields without a getter or a setter are skipped by the registry.
type FieldDecl struct {
	Name    string
	Type    FieldType
	Column  string
	NotNull bool

	get func(Entity) any
	set func(Entity, any) error

	// related is the entity type a reference points to, or the element
	// type of a collection
	related    reflect.Type
	foreignKey string
	joinTable  string
	many2many  bool
}

// WithColumn overrides the column name.
func (f FieldDecl) WithColumn(column string) FieldDecl {
	f.Column = column
	return f
}

// Required marks the column NOT NULL.
func (f FieldDecl) Required() FieldDecl {
	f.NotNull = true
	return f
}

// ForeignKey names the reference field on the related entity that points
// back at the owner, for owners referenced more than once.
func (f FieldDecl) ForeignKey(field string) FieldDecl {
	f.foreignKey = field
	return f
}

// Through names the junction table of a many to many collection. Both sides
// of the relation must use the same name.
func (f FieldDecl) Through(table string) FieldDecl {
	f.joinTable = table
	f.many2many = true
	return f
}

// ManyToMany stores the collection in a junction table even when the
// related entity holds a reference to the owner.
func (f FieldDecl) ManyToMany() FieldDecl {
	f.many2many = true
	return f
}

func Int64[E Entity](name string, get func(E) int64, set func(E, int64)) FieldDecl {
	return scalar(name, TypeInt64, get, set)
}

func Int32[E Entity](name string, get func(E) int32, set func(E, int32)) FieldDecl {
	return scalar(name, TypeInt32, get, set)
}

func Float64[E Entity](name string, get func(E) float64, set func(E, float64)) FieldDecl {
	return scalar(name, TypeFloat64, get, set)
}

func Bool[E Entity](name string, get func(E) bool, set func(E, bool)) FieldDecl {
	return scalar(name, TypeBool, get, set)
}

func String[E Entity](name string, get func(E) string, set func(E, string)) FieldDecl {
	return scalar(name, TypeString, get, set)
}

func Bytes[E Entity](name string, get func(E) []byte, set func(E, []byte)) FieldDecl {
	return scalar(name, TypeBytes, get, set)
}

func Time[E Entity](name string, get func(E) time.Time, set func(E, time.Time)) FieldDecl {
	return scalar(name, TypeTime, get, set)
}

// Ref declares a field holding the primary key of an entity of type T.
func Ref[E Entity, T Entity](name string, get func(E) int64, set func(E, int64)) FieldDecl {
	f := scalar(name, TypeReference, get, set)
	f.related = reflect.TypeOf((*T)(nil)).Elem()
	return f
}

// Many declares a collection of related entities. It is stored as a one to
// many relation when R holds a Ref back to E, otherwise through a junction
// table.
func Many[E Entity, R Entity](name string, get func(E) []R, set func(E, []R)) FieldDecl {
	f := FieldDecl{Name: name, Type: TypeCollection, related: reflect.TypeOf((*R)(nil)).Elem()}
	if get != nil {
		f.get = func(e Entity) any {
			owner, ok := e.(E)
			if !ok {
				return nil
			}
			items := get(owner)
			if items == nil {
				return []Entity(nil)
			}
			out := make([]Entity, len(items))
			for i, item := range items {
				out[i] = item
			}
			return out
		}
	}
	if set != nil {
		f.set = func(e Entity, v any) error {
			owner, ok := e.(E)
			if !ok {
				return fmt.Errorf("%w: %T is not %v", ErrCoercion, e, reflect.TypeOf((*E)(nil)).Elem())
			}
			items, ok := v.([]Entity)
			if !ok && v != nil {
				return fmt.Errorf("%w: %s expects []Entity, got %T", ErrCoercion, name, v)
			}
			out := make([]R, 0, len(items))
			for _, item := range items {
				r, ok := item.(R)
				if !ok {
					return fmt.Errorf("%w: %s expects %v, got %T", ErrCoercion, name, reflect.TypeOf((*R)(nil)).Elem(), item)
				}
				out = append(out, r)
			}
			set(owner, out)
			return nil
		}
	}
	return f
}

func scalar[E Entity, V any](name string, t FieldType, get func(E) V, set func(E, V)) FieldDecl {
	f := FieldDecl{Name: name, Type: t}
	if get != nil {
		f.get = func(e Entity) any {
			owner, ok := e.(E)
			if !ok {
				return nil
			}
			return get(owner)
		}
	}
	if set != nil {
		f.set = func(e Entity, v any) error {
			owner, ok := e.(E)
			if !ok {
				return fmt.Errorf("%w: %T is not %v", ErrCoercion, e, reflect.TypeOf((*E)(nil)).Elem())
			}
			if v == nil {
				var zero V
				set(owner, zero)
				return nil
			}
			value, ok := v.(V)
			if !ok {
				return fmt.Errorf("%w: %s expects %v, got %T", ErrCoercion, name, reflect.TypeOf((*V)(nil)).Elem(), v)
			}
			set(owner, value)
			return nil
		}
	}
	return f
}
