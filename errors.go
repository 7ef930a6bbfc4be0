package onam

import (
	"errors"
	"fmt"

	"github.com/basilgregory/onam/logger"
)

var (
	// ErrRecordNotFound record not found error
	ErrRecordNotFound = logger.ErrRecordNotFound
	// ErrStorage the storage engine rejected a statement
	ErrStorage = errors.New("storage failure")
	// ErrUnknownEntity entity is not declared
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrUnknownRelation entity has no such collection
	ErrUnknownRelation = errors.New("unknown relation")
	// ErrMissingPrimaryKey entity has not been saved yet
	ErrMissingPrimaryKey = errors.New("primary key required")
	// ErrInvalidDocument document does not match the entity
	ErrInvalidDocument = errors.New("invalid document")
)

// StorageError wraps a driver error with the statement that caused it.
type StorageError struct {
	Op  string
	SQL string
	Err error
}

func (e *StorageError) Error() string {
	if e.SQL == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v [%s]", e.Op, e.Err, e.SQL)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}
