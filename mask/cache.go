package mask

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/falcon/filter"
	"github.com/hupe1980/falcon/internal/resource"
)

// Key returns the cache key of the mask for (dimension, filter).
func Key(dimension string, f filter.Filter) string {
	return dimension + " " + f.Key()
}

// Cache is an LRU of masks bounded by their size in bytes.
// A capacity of 0 disables eviction.
type Cache struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[string]*list.Element
	evictList *list.List
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	key  string
	mask *Mask
	size int64
}

// NewCache creates a cache holding up to capacity bytes of masks.
// If rc is provided, it is charged for every cached mask.
func NewCache(capacity int64, rc *resource.Controller) *Cache {
	return &Cache{
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		rc:        rc,
	}
}

// Get returns a cached mask. Callers must not mutate it.
func (c *Cache) Get(key string) (*Mask, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry).mask, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set caches m under key. Masks larger than the capacity, or refused by the
// resource controller, are not cached.
func (c *Cache) Set(key string, m *Mask) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		// Masks are pure functions of their key; the cached one is as good.
		c.evictList.MoveToFront(ent)
		return
	}

	size := m.SizeInBytes()
	if c.capacity > 0 {
		if size > c.capacity {
			return
		}
		for c.size+size > c.capacity {
			ent := c.evictList.Back()
			if ent == nil {
				break
			}
			c.removeElement(ent)
		}
	}

	if err := c.rc.AcquireMemory(size); err != nil {
		return
	}

	ent := &entry{key: key, mask: m, size: size}
	c.items[key] = c.evictList.PushFront(ent)
	c.size += size
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.evictList.Len() > 0 {
		c.removeElement(c.evictList.Back())
	}
}

func (c *Cache) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	kv := e.Value.(*entry)
	delete(c.items, kv.key)
	c.size -= kv.size
	c.rc.ReleaseMemory(kv.size)
}

// Len returns the number of cached masks.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Size returns the cached bytes.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
