package schema

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/basilgregory/onam/storage"
	"github.com/jinzhu/now"
)

// FieldType is the semantic type of a declared field.
type FieldType int

const (
	TypeInvalid FieldType = iota
	TypeInt64
	TypeInt32
	TypeFloat64
	TypeBool
	TypeString
	TypeBytes
	TypeTime
	// TypeReference holds the primary key of another entity.
	TypeReference
	// TypeCollection is a slice of related entities, stored in another table.
	TypeCollection
)

var fieldTypeNames = [...]string{
	TypeInvalid:    "invalid",
	TypeInt64:      "int64",
	TypeInt32:      "int32",
	TypeFloat64:    "float64",
	TypeBool:       "bool",
	TypeString:     "string",
	TypeBytes:      "bytes",
	TypeTime:       "time",
	TypeReference:  "reference",
	TypeCollection: "collection",
}

func (t FieldType) String() string {
	if t >= 0 && int(t) < len(fieldTypeNames) {
		return fieldTypeNames[t]
	}
	return "FieldType(" + strconv.Itoa(int(t)) + ")"
}

// IsRelational reports whether the field lives outside its entity's table.
func (t FieldType) IsRelational() bool {
	return t == TypeCollection
}

// Affinity returns the storage class of the column backing a field.
func (t FieldType) Affinity() (storage.Affinity, error) {
	switch t {
	case TypeInt64, TypeInt32, TypeBool, TypeReference:
		return storage.Integer, nil
	case TypeFloat64:
		return storage.Real, nil
	case TypeString, TypeTime:
		return storage.Text, nil
	case TypeBytes:
		return storage.Blob, nil
	}
	return "", fmt.Errorf("%w: %s has no column", ErrUnsupportedFieldType, t)
}

// TimeLayout is how times are written to storage.
const TimeLayout = time.RFC3339Nano

// ToStorageValue converts a field value into the value bound to a statement.
// A nil result means SQL NULL.
func ToStorageValue(t FieldType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case TypeInt64:
		switch v := v.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case int32:
			return int64(v), nil
		}
	case TypeInt32:
		switch v := v.(type) {
		case int32:
			return int64(v), nil
		case int:
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, coercionf(t, "%d overflows int32", v)
			}
			return int64(v), nil
		}
	case TypeFloat64:
		switch v := v.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		}
	case TypeBool:
		if b, ok := v.(bool); ok {
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		}
	case TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case TypeBytes:
		if b, ok := v.([]byte); ok {
			if b == nil {
				return nil, nil
			}
			return b, nil
		}
	case TypeTime:
		switch v := v.(type) {
		case time.Time:
			if v.IsZero() {
				return nil, nil
			}
			return v.UTC().Format(TimeLayout), nil
		case *time.Time:
			if v == nil || v.IsZero() {
				return nil, nil
			}
			return v.UTC().Format(TimeLayout), nil
		}
	case TypeReference:
		switch v := v.(type) {
		case int64:
			if v == 0 {
				return nil, nil
			}
			return v, nil
		case Entity:
			if v == nil || v.GetID() == 0 {
				return nil, nil
			}
			return v.GetID(), nil
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFieldType, t)
	}
	return nil, coercionf(t, "cannot store %T", v)
}

// FromStorageValue reads column from the current row of c as a value of
// type t. A NULL column yields (nil, nil); an absent column yields
// ErrColumnMissing.
func FromStorageValue(t FieldType, column string, c storage.Cursor) (any, error) {
	idx := c.ColumnIndex(column)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrColumnMissing, column)
	}
	if c.IsNull(idx) {
		return nil, nil
	}

	var (
		v   any
		err error
	)
	switch t {
	case TypeInt64, TypeReference:
		v, err = c.Int64(idx)
	case TypeInt32:
		var n int64
		if n, err = c.Int64(idx); err == nil {
			if n < math.MinInt32 || n > math.MaxInt32 {
				err = fmt.Errorf("%d overflows int32", n)
			} else {
				v = int32(n)
			}
		}
	case TypeFloat64:
		v, err = c.Float64(idx)
	case TypeBool:
		var n int64
		if n, err = c.Int64(idx); err == nil {
			v = n != 0
		} else if s, serr := c.String(idx); serr == nil {
			// engines with a native boolean may hand back "true"/"false"
			var b bool
			if b, serr = strconv.ParseBool(s); serr == nil {
				v, err = b, nil
			}
		}
	case TypeString:
		v, err = c.String(idx)
	case TypeBytes:
		var b []byte
		if b, err = c.Bytes(idx); err == nil {
			v = append([]byte(nil), b...)
		}
	case TypeTime:
		v, err = readTime(c, idx)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFieldType, t)
	}

	if err != nil {
		return nil, &CoercionError{Column: column, Type: t, Err: err}
	}
	return v, nil
}

func readTime(c storage.Cursor, idx int) (time.Time, error) {
	raw, err := c.Value(idx)
	if err != nil {
		return time.Time{}, err
	}
	switch raw := raw.(type) {
	case time.Time:
		return raw.UTC(), nil
	case int64:
		return time.Unix(raw, 0).UTC(), nil
	}

	s, err := c.String(idx)
	if err != nil {
		return time.Time{}, err
	}
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t.UTC(), nil
	}
	// rows written by other tools, e.g. "2017-08-30 10:00:00"
	t, err := now.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func coercionf(t FieldType, format string, args ...any) error {
	return &CoercionError{Type: t, Err: errors.New(fmt.Sprintf(format, args...))}
}
