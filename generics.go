package onam

import "fmt"

// Get finds the entity of type T with primary key id.
//
//	post, err := onam.Get[*Post](db, 1)
func Get[T Entity](db *DB, id int64) (T, error) {
	var zero T
	s, ok := db.registry.SchemaOf(zero)
	if !ok {
		return zero, fmt.Errorf("%w: %T", ErrUnknownEntity, zero)
	}
	e, err := db.find(s, id)
	if err != nil {
		return zero, err
	}
	return e.(T), nil
}

// All every entity of type T, in storage order.
func All[T Entity](db *DB) ([]T, error) {
	var zero T
	s, ok := db.registry.SchemaOf(zero)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnknownEntity, zero)
	}
	entities, err := db.findAll(s)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(entities))
	for i, e := range entities {
		out[i] = e.(T)
	}
	return out, nil
}
