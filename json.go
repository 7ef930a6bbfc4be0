package onam

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/basilgregory/onam/schema"
	"github.com/jinzhu/now"
)

// ToDocument converts e into a document keyed by column name. Loaded
// collections are nested as arrays; an entity already being converted
// higher up is reduced to its key.
func (db *DB) ToDocument(e Entity) (map[string]any, error) {
	return db.toDocument(e, map[any]bool{})
}

// ToJSON encodes e with ToDocument.
func (db *DB) ToJSON(e Entity) ([]byte, error) {
	doc, err := db.ToDocument(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// ToJSONArray encodes entities as a JSON array.
func (db *DB) ToJSONArray(entities []Entity) ([]byte, error) {
	docs := make([]map[string]any, 0, len(entities))
	for _, e := range entities {
		doc, err := db.ToDocument(e)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return json.Marshal(docs)
}

// FromDocument builds an entity of the named type from doc, keyed when doc
// has an id. Unknown keys are ignored, missing keys leave fields at zero.
func (db *DB) FromDocument(doc map[string]any, entity string) (Entity, error) {
	s, err := db.lookup(entity)
	if err != nil {
		return nil, err
	}
	return db.fromDocument(doc, s)
}

// FromJSON decodes a JSON object into an entity of the named type.
func (db *DB) FromJSON(data []byte, entity string) (Entity, error) {
	var doc map[string]any
	if err := decodeJSON(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: expected an object", ErrInvalidDocument)
	}
	return db.FromDocument(doc, entity)
}

// FromJSONArray decodes a JSON array of objects into entities of the named type.
func (db *DB) FromJSONArray(data []byte, entity string) ([]Entity, error) {
	s, err := db.lookup(entity)
	if err != nil {
		return nil, err
	}
	var docs []map[string]any
	if err := decodeJSON(data, &docs); err != nil {
		return nil, err
	}
	entities := make([]Entity, 0, len(docs))
	for i, doc := range docs {
		if doc == nil {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrInvalidDocument, i)
		}
		e, err := db.fromDocument(doc, s)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

func (db *DB) toDocument(e Entity, path map[any]bool) (map[string]any, error) {
	s, err := db.schemaOf(e)
	if err != nil {
		return nil, err
	}

	// unsaved entities are told apart by identity
	var key any = e
	if id := e.GetID(); id != 0 {
		key = ownerKey{s.Name, id}
	}
	if path[key] {
		return map[string]any{schema.PrimaryKey: e.GetID()}, nil
	}
	path[key] = true
	defer delete(path, key)

	doc := map[string]any{schema.PrimaryKey: e.GetID()}
	for _, field := range s.Fields {
		if v, ok := documentValue(field.Type, field.Get(e)); ok {
			doc[field.Column] = v
		}
	}

	for _, rel := range s.Relationships.List() {
		items, _ := rel.Field.Get(e).([]Entity)
		if items == nil {
			continue
		}
		column := db.NamingStrategy.ColumnName(s.Table, rel.Name)
		nested := make([]map[string]any, 0, len(items))
		for _, item := range items {
			if item == nil {
				continue
			}
			child, err := db.toDocument(item, path)
			if err != nil {
				return nil, err
			}
			nested = append(nested, child)
		}
		doc[column] = nested
	}
	return doc, nil
}

func documentValue(t schema.FieldType, v any) (any, bool) {
	switch v := v.(type) {
	case nil:
		return nil, false
	case []byte:
		return v, v != nil
	case time.Time:
		if v.IsZero() {
			return nil, false
		}
		return v.UTC().Format(schema.TimeLayout), true
	case int64:
		if t == schema.TypeReference && v == 0 {
			return nil, false
		}
	}
	return v, true
}

func (db *DB) fromDocument(doc map[string]any, s *schema.Schema) (Entity, error) {
	e := s.New()
	for _, field := range s.Fields {
		raw, ok := doc[field.Column]
		if !ok || raw == nil {
			continue
		}
		v, err := fromDocumentValue(field.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", ErrInvalidDocument, s.Name, field.Name, err)
		}
		if err := field.Set(e, v); err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", ErrInvalidDocument, s.Name, field.Name, err)
		}
	}

	for _, rel := range s.Relationships.List() {
		raw, ok := doc[db.NamingStrategy.ColumnName(s.Table, rel.Name)]
		if !ok || raw == nil {
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s should be an array, got %T", ErrInvalidDocument, s.Name, rel.Name, raw)
		}
		items := make([]Entity, 0, len(list))
		for _, elem := range list {
			child, ok := elem.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s holds %T", ErrInvalidDocument, s.Name, rel.Name, elem)
			}
			item, err := db.fromDocument(child, rel.FieldSchema)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if err := rel.Field.Set(e, items); err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", ErrInvalidDocument, s.Name, rel.Name, err)
		}
	}

	if raw, ok := doc[schema.PrimaryKey]; ok && raw != nil {
		id, err := documentInt(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", ErrInvalidDocument, s.Name, schema.PrimaryKey, err)
		}
		e.SetID(id)
	}
	return e, nil
}

func fromDocumentValue(t schema.FieldType, raw any) (any, error) {
	switch t {
	case schema.TypeInt64, schema.TypeReference:
		return documentInt(raw)
	case schema.TypeInt32:
		n, err := documentInt(raw)
		if err != nil {
			return nil, err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("%d overflows int32", n)
		}
		return int32(n), nil
	case schema.TypeFloat64:
		switch raw := raw.(type) {
		case json.Number:
			return raw.Float64()
		case float64:
			return raw, nil
		case int64:
			return float64(raw), nil
		case int:
			return float64(raw), nil
		}
	case schema.TypeBool:
		switch raw := raw.(type) {
		case bool:
			return raw, nil
		case string:
			return strconv.ParseBool(raw)
		default:
			n, err := documentInt(raw)
			if err != nil {
				return nil, err
			}
			return n != 0, nil
		}
	case schema.TypeString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	case schema.TypeBytes:
		switch raw := raw.(type) {
		case []byte:
			return raw, nil
		case string:
			return base64.StdEncoding.DecodeString(raw)
		}
	case schema.TypeTime:
		switch raw := raw.(type) {
		case time.Time:
			return raw.UTC(), nil
		case string:
			if t, err := time.Parse(schema.TimeLayout, raw); err == nil {
				return t.UTC(), nil
			}
			t, err := now.Parse(raw)
			if err != nil {
				return nil, err
			}
			return t.UTC(), nil
		}
	default:
		return nil, fmt.Errorf("%w: %s", schema.ErrUnsupportedFieldType, t)
	}
	return nil, fmt.Errorf("cannot read %T as %s", raw, t)
}

func documentInt(raw any) (int64, error) {
	switch raw := raw.(type) {
	case json.Number:
		return raw.Int64()
	case int64:
		return raw, nil
	case int:
		return int64(raw), nil
	case int32:
		return int64(raw), nil
	case float64:
		if raw != math.Trunc(raw) {
			return 0, fmt.Errorf("%v is not an integer", raw)
		}
		return int64(raw), nil
	}
	return 0, fmt.Errorf("cannot read %T as an integer", raw)
}
