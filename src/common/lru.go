package common

import "container/list"

// EvictCallback is used to get a callback when a cache entry is evicted
type EvictCallback func(key interface{}, value interface{})

// LRU implements a non-thread-safe fixed size LRU cache. Callers that share a
// cache between goroutines are responsible for locking around it.
type LRU struct {
	size      int
	evictList *list.List
	items     map[interface{}]*list.Element
	onEvict   EvictCallback
}

// lruEntry is used to hold a value in the evictList
type lruEntry struct {
	key   interface{}
	value interface{}
}

// NewLRU constructs an LRU of the given size. A size lower than 1 is treated
// as 1.
func NewLRU(size int, onEvict EvictCallback) *LRU {
	if size < 1 {
		size = 1
	}
	return &LRU{
		size:      size,
		evictList: list.New(),
		items:     make(map[interface{}]*list.Element),
		onEvict:   onEvict,
	}
}

// Purge is used to completely clear the cache
func (c *LRU) Purge() {
	for k, v := range c.items {
		if c.onEvict != nil {
			c.onEvict(k, v.Value.(*lruEntry).value)
		}
		delete(c.items, k)
	}
	c.evictList.Init()
}

// Add adds a value to the cache. Returns true if an eviction occurred.
func (c *LRU) Add(key, value interface{}) bool {
	// Check for existing item
	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		ent.Value.(*lruEntry).value = value
		return false
	}

	// Add new item
	ent := &lruEntry{key, value}
	entry := c.evictList.PushFront(ent)
	c.items[key] = entry

	evict := c.evictList.Len() > c.size
	if evict {
		c.removeOldest()
	}
	return evict
}

// Get looks up a key's value from the cache
func (c *LRU) Get(key interface{}) (interface{}, bool) {
	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		return ent.Value.(*lruEntry).value, true
	}
	return nil, false
}

// Contains checks if a key is in the cache, without updating the recent-ness
func (c *LRU) Contains(key interface{}) bool {
	_, ok := c.items[key]
	return ok
}

// Peek returns the key's value without updating the recent-ness
func (c *LRU) Peek(key interface{}) (interface{}, bool) {
	if ent, ok := c.items[key]; ok {
		return ent.Value.(*lruEntry).value, true
	}
	return nil, false
}

// Remove removes the provided key from the cache, returning if the key was
// contained
func (c *LRU) Remove(key interface{}) bool {
	if ent, ok := c.items[key]; ok {
		c.removeElement(ent)
		return true
	}
	return false
}

// Keys returns a slice of the keys in the cache, from oldest to newest
func (c *LRU) Keys() []interface{} {
	keys := make([]interface{}, len(c.items))
	i := 0
	for ent := c.evictList.Back(); ent != nil; ent = ent.Prev() {
		keys[i] = ent.Value.(*lruEntry).key
		i++
	}
	return keys
}

// Len returns the number of items in the cache
func (c *LRU) Len() int {
	return c.evictList.Len()
}

// removeOldest removes the oldest item from the cache
func (c *LRU) removeOldest() {
	ent := c.evictList.Back()
	if ent != nil {
		c.removeElement(ent)
	}
}

// removeElement is used to remove a given list element from the cache
func (c *LRU) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	kv := e.Value.(*lruEntry)
	delete(c.items, kv.key)
	if c.onEvict != nil {
		c.onEvict(kv.key, kv.value)
	}
}
