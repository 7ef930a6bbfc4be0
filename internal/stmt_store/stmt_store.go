// Package stmt_store caches prepared statements by query text.
package stmt_store

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/basilgregory/onam/internal/lru"
)

// Preparer prepares statements, *sql.DB and *sql.Conn both qualify.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Store keeps at most size prepared statements; evicted ones are closed.
type Store struct {
	mu  sync.Mutex
	lru *lru.LRU[string, *sql.Stmt]
	// errs collects close failures of evicted statements until Close
	errs []error
}

// New returns a store for size statements, 0 for no limit.
func New(size int) *Store {
	s := &Store{}
	s.lru = lru.New[string, *sql.Stmt](size, func(_ string, stmt *sql.Stmt) {
		if err := stmt.Close(); err != nil {
			s.errs = append(s.errs, err)
		}
	})
	return s
}

// Get returns the statement prepared for query, preparing it on first use.
func (s *Store) Get(ctx context.Context, conn Preparer, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.lru.Get(query); ok {
		return stmt, nil
	}
	stmt, err := conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	s.lru.Add(query, stmt)
	return stmt, nil
}

// Delete closes and forgets the statement of query.
func (s *Store) Delete(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Remove(query)
}

// Keys cached queries, least recently used first.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Keys()
}

// Close closes every cached statement.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Purge()
	err := errors.Join(s.errs...)
	s.errs = nil
	return err
}
