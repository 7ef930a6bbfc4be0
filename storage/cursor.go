package storage

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type bufferedCursor struct {
	columns []string
	rows    [][]any
	pos     int
}

// NewCursor returns a cursor over rows already held in memory. Each row must
// have one value per column.
func NewCursor(columns []string, rows [][]any) Cursor {
	return &bufferedCursor{columns: columns, rows: rows, pos: -1}
}

func (c *bufferedCursor) Columns() []string { return c.columns }

func (c *bufferedCursor) ColumnIndex(name string) int {
	for i, col := range c.columns {
		if col == name {
			return i
		}
	}
	for i, col := range c.columns {
		if strings.EqualFold(col, name) {
			return i
		}
	}
	return -1
}

func (c *bufferedCursor) Count() int { return len(c.rows) }

func (c *bufferedCursor) Next() bool {
	if c.pos+1 >= len(c.rows) {
		c.pos = len(c.rows)
		return false
	}
	c.pos++
	return true
}

func (c *bufferedCursor) Close() error {
	c.rows = nil
	c.pos = -1
	return nil
}

func (c *bufferedCursor) Value(i int) (any, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, ErrNoRow
	}
	row := c.rows[c.pos]
	if i < 0 || i >= len(row) {
		return nil, fmt.Errorf("%w: %d", ErrColumnIndex, i)
	}
	return row[i], nil
}

func (c *bufferedCursor) IsNull(i int) bool {
	v, err := c.Value(i)
	return err == nil && v == nil
}

func (c *bufferedCursor) value(i int, want string) (any, error) {
	v, err := c.Value(i)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("%w: column %q as %s", ErrNullValue, c.columns[i], want)
	}
	return v, nil
}

func mismatch(v any, want string) error {
	return fmt.Errorf("%w: cannot read %T as %s", ErrTypeMismatch, v, want)
}

func (c *bufferedCursor) Int64(i int) (int64, error) {
	v, err := c.value(i, "int64")
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, mismatch(v, "int64")
		}
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, mismatch(v, "int64")
		}
		return int64(v), nil
	case []byte:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return n, nil
	}
	return 0, mismatch(v, "int64")
}

func (c *bufferedCursor) Float64(i int) (float64, error) {
	v, err := c.value(i, "float64")
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return f, nil
	}
	return 0, mismatch(v, "float64")
}

func (c *bufferedCursor) String(i int) (string, error) {
	v, err := c.value(i, "string")
	if err != nil {
		return "", err
	}
	switch v := v.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	}
	return "", mismatch(v, "string")
}

func (c *bufferedCursor) Bytes(i int) ([]byte, error) {
	v, err := c.value(i, "[]byte")
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, mismatch(v, "[]byte")
}
