package onam

import (
	"sync"

	"github.com/basilgregory/onam/internal/lru"
	"github.com/basilgregory/onam/schema"
)

type relationKey struct {
	entity   string
	id       int64
	relation string
}

type ownerKey struct {
	entity string
	id     int64
}

// RelationCache keeps resolved collections per owner row, plus a sticky
// flag forcing owners back to storage until it is cleared. When size is
// positive the least recently used collections are dropped beyond it.
type RelationCache struct {
	mu    sync.Mutex
	items *lru.LRU[relationKey, []schema.Entity]
	stale map[ownerKey]bool
}

// NewRelationCache returns an empty cache holding at most size
// collections, 0 for no limit.
func NewRelationCache(size int) *RelationCache {
	return &RelationCache{
		items: lru.New[relationKey, []schema.Entity](size, nil),
		stale: map[ownerKey]bool{},
	}
}

// Load the cached collection of an owner.
func (c *RelationCache) Load(entity string, id int64, relation string) ([]schema.Entity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Get(relationKey{entity, id, relation})
}

// Store the collection of an owner.
func (c *RelationCache) Store(entity string, id int64, relation string, items []schema.Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Add(relationKey{entity, id, relation}, items)
}

// Delete one collection of an owner.
func (c *RelationCache) Delete(entity string, id int64, relation string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Remove(relationKey{entity, id, relation})
}

// Forget every collection and the flag of an owner.
func (c *RelationCache) Forget(entity string, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.RemoveFunc(func(key relationKey) bool {
		return key.entity == entity && key.id == id
	})
	delete(c.stale, ownerKey{entity, id})
}

// ForgetEntity every collection and flag of every owner of entity.
func (c *RelationCache) ForgetEntity(entity string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.RemoveFunc(func(key relationKey) bool {
		return key.entity == entity
	})
	for key := range c.stale {
		if key.entity == entity {
			delete(c.stale, key)
		}
	}
}

// SetStale sets or clears the refresh flag of an owner.
func (c *RelationCache) SetStale(entity string, id int64, stale bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stale {
		c.stale[ownerKey{entity, id}] = true
	} else {
		delete(c.stale, ownerKey{entity, id})
	}
}

// IsStale reports the refresh flag of an owner.
func (c *RelationCache) IsStale(entity string, id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale[ownerKey{entity, id}]
}

// Len number of cached collections.
func (c *RelationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}
