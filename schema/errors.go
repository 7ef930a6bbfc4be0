package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFieldType a field cannot be mapped to a column or a relation
	ErrUnsupportedFieldType = errors.New("unsupported field type")
	// ErrCoercion a value could not be converted between its field and storage forms
	ErrCoercion = errors.New("coercion failure")
	// ErrColumnMissing the row has no column for the field
	ErrColumnMissing = errors.New("column missing from row")
	// ErrDuplicateEntity two declarations share a name, a table or a Go type
	ErrDuplicateEntity = errors.New("duplicate entity")
	// ErrInvalidDeclaration declaration is incomplete
	ErrInvalidDeclaration = errors.New("invalid declaration")
)

// CoercionError reports a single field that could not be converted.
type CoercionError struct {
	Entity string
	Field  string
	Column string
	Type   FieldType
	Err    error
}

func (e *CoercionError) Error() string {
	name := e.Field
	if e.Entity != "" {
		name = e.Entity + "." + e.Field
	}
	if name == "" {
		name = e.Column
	}
	return fmt.Sprintf("coercion failure on %s (%s, column %q): %v", name, e.Type, e.Column, e.Err)
}

// Unwrap exposes both ErrCoercion and the underlying cause.
func (e *CoercionError) Unwrap() []error {
	return []error{ErrCoercion, e.Err}
}
