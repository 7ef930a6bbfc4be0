package schema

import (
	"errors"

	"github.com/basilgregory/onam/storage"
)

// Row ordered column/value pairs of an entity.
type Row struct {
	Columns []string
	Values  []any
}

// Len number of columns.
func (r Row) Len() int {
	return len(r.Columns)
}

// Map the row keyed by column.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, col := range r.Columns {
		m[col] = r.Values[i]
	}
	return m
}

func (r *Row) add(column string, value any) {
	r.Columns = append(r.Columns, column)
	r.Values = append(r.Values, value)
}

// Encode the column fields of e, skipping values that cannot be stored
// (nil bytes, zero time, zero reference). The key column is included only
// once e has been saved.
func (schema *Schema) Encode(e Entity) (Row, error) {
	return schema.encode(e, false)
}

// EncodeAll is Encode keeping every column, unstorable values as nil so
// that an update writes NULL over them.
func (schema *Schema) EncodeAll(e Entity) (Row, error) {
	return schema.encode(e, true)
}

func (schema *Schema) encode(e Entity, nulls bool) (Row, error) {
	var row Row
	for _, field := range schema.Fields {
		v, err := ToStorageValue(field.Type, field.Get(e))
		if err != nil {
			return Row{}, schema.coercionError(field, err)
		}
		if v == nil && !nulls {
			continue
		}
		row.add(field.Column, v)
	}
	if id := e.GetID(); id != 0 {
		row.add(PrimaryKey, id)
	}
	return row, nil
}

// Decode a fresh entity from the current row of c. Columns the row lacks
// are skipped, NULLs set the field to its zero value and conversion
// failures go to report, leaving the field untouched. The key is read last.
func (schema *Schema) Decode(c storage.Cursor, report func(*CoercionError)) Entity {
	e := schema.New()
	schema.DecodeInto(e, c, report)
	return e
}

// DecodeInto is Decode into an existing instance.
func (schema *Schema) DecodeInto(e Entity, c storage.Cursor, report func(*CoercionError)) {
	if report == nil {
		report = func(*CoercionError) {}
	}

	for _, field := range schema.Fields {
		v, err := FromStorageValue(field.Type, field.Column, c)
		if errors.Is(err, ErrColumnMissing) {
			continue
		}
		if err != nil {
			report(schema.coercionError(field, err))
			continue
		}
		// v is nil for NULL, which resets the field
		if err := field.Set(e, v); err != nil {
			report(schema.coercionError(field, err))
		}
	}

	idx := c.ColumnIndex(PrimaryKey)
	if idx < 0 {
		report(&CoercionError{Entity: schema.Name, Field: PrimaryKey, Column: PrimaryKey, Type: TypeInt64, Err: ErrColumnMissing})
		return
	}
	id, err := c.Int64(idx)
	if err != nil {
		report(&CoercionError{Entity: schema.Name, Field: PrimaryKey, Column: PrimaryKey, Type: TypeInt64, Err: err})
		return
	}
	e.SetID(id)
}

func (schema *Schema) coercionError(field *Field, err error) *CoercionError {
	var ce *CoercionError
	if errors.As(err, &ce) {
		out := *ce
		out.Entity, out.Field, out.Column, out.Type = schema.Name, field.Name, field.Column, field.Type
		return &out
	}
	return &CoercionError{Entity: schema.Name, Field: field.Name, Column: field.Column, Type: field.Type, Err: err}
}
