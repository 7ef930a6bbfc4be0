// Package lru is a size bounded least recently used map. It does no
// locking of its own; callers serialize access.
package lru

// EvictCallback is used to get a callback when a cache entry is evicted
type EvictCallback[K comparable, V any] func(key K, value V)

// LRU keeps at most size entries, dropping the least recently used one
// when full. A size of 0 means unbounded.
type LRU[K comparable, V any] struct {
	size      int
	evictList *list[K, V]
	items     map[K]*entry[K, V]
	onEvict   EvictCallback[K, V]
}

// New returns an empty cache.
func New[K comparable, V any](size int, onEvict EvictCallback[K, V]) *LRU[K, V] {
	if size < 0 {
		size = 0
	}
	return &LRU[K, V]{
		size:      size,
		evictList: newList[K, V](),
		items:     make(map[K]*entry[K, V]),
		onEvict:   onEvict,
	}
}

// Add adds a value to the cache. Returns true if an eviction occurred.
func (c *LRU[K, V]) Add(key K, value V) (evicted bool) {
	if ent, ok := c.items[key]; ok {
		c.evictList.moveToFront(ent)
		ent.value = value
		return false
	}

	c.items[key] = c.evictList.pushFront(key, value)

	evict := c.size > 0 && c.evictList.len > c.size
	if evict {
		c.removeElement(c.evictList.back())
	}
	return evict
}

// Get looks up a key's value and marks it as recently used.
func (c *LRU[K, V]) Get(key K) (value V, ok bool) {
	ent, ok := c.items[key]
	if !ok {
		return value, false
	}
	c.evictList.moveToFront(ent)
	return ent.value, true
}

// Peek looks up a key's value without updating its recent-ness.
func (c *LRU[K, V]) Peek(key K) (value V, ok bool) {
	ent, ok := c.items[key]
	if !ok {
		return value, false
	}
	return ent.value, true
}

// Remove removes key, reporting whether it was present.
func (c *LRU[K, V]) Remove(key K) bool {
	ent, ok := c.items[key]
	if ok {
		c.removeElement(ent)
	}
	return ok
}

// RemoveFunc removes every entry whose key matches and returns how many
// were removed.
func (c *LRU[K, V]) RemoveFunc(match func(K) bool) int {
	removed := 0
	for ent := c.evictList.back(); ent != nil; {
		prev := ent.prevEntry()
		if match(ent.key) {
			c.removeElement(ent)
			removed++
		}
		ent = prev
	}
	return removed
}

// Keys returns the keys, oldest first.
func (c *LRU[K, V]) Keys() []K {
	keys := make([]K, 0, len(c.items))
	for ent := c.evictList.back(); ent != nil; ent = ent.prevEntry() {
		keys = append(keys, ent.key)
	}
	return keys
}

// Purge clears the cache completely.
func (c *LRU[K, V]) Purge() {
	for k, ent := range c.items {
		if c.onEvict != nil {
			c.onEvict(k, ent.value)
		}
		delete(c.items, k)
	}
	c.evictList.init()
}

// Len returns the number of items in the cache.
func (c *LRU[K, V]) Len() int {
	return c.evictList.len
}

// Cap returns the capacity of the cache, 0 when unbounded.
func (c *LRU[K, V]) Cap() int {
	return c.size
}

func (c *LRU[K, V]) removeElement(e *entry[K, V]) {
	c.evictList.remove(e)
	delete(c.items, e.key)
	if c.onEvict != nil {
		c.onEvict(e.key, e.value)
	}
}

// entry is an LRU entry
type entry[K comparable, V any] struct {
	// Next and previous pointers in the doubly-linked list of elements.
	// The root is both the previous element of the first and the next
	// element of the last.
	next, prev *entry[K, V]

	list *list[K, V]

	key   K
	value V
}

// prevEntry returns the previous list element or nil.
func (e *entry[K, V]) prevEntry() *entry[K, V] {
	if p := e.prev; e.list != nil && p != &e.list.root {
		return p
	}
	return nil
}

// list is a doubly linked list with a sentinel root, newest at the front.
type list[K comparable, V any] struct {
	root entry[K, V]
	len  int
}

func newList[K comparable, V any]() *list[K, V] { return new(list[K, V]).init() }

func (l *list[K, V]) init() *list[K, V] {
	l.root.next = &l.root
	l.root.prev = &l.root
	l.len = 0
	return l
}

// back returns the last (oldest) element or nil.
func (l *list[K, V]) back() *entry[K, V] {
	if l.len == 0 {
		return nil
	}
	return l.root.prev
}

func (l *list[K, V]) insert(e, at *entry[K, V]) *entry[K, V] {
	e.prev = at
	e.next = at.next
	e.prev.next = e
	e.next.prev = e
	e.list = l
	l.len++
	return e
}

func (l *list[K, V]) remove(e *entry[K, V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.next = nil
	e.prev = nil
	e.list = nil
	l.len--
}

func (l *list[K, V]) pushFront(k K, v V) *entry[K, V] {
	return l.insert(&entry[K, V]{key: k, value: v}, &l.root)
}

func (l *list[K, V]) moveToFront(e *entry[K, V]) {
	if e.list != l || l.root.next == e {
		return
	}
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = &l.root
	e.next = l.root.next
	e.prev.next = e
	e.next.prev = e
}
