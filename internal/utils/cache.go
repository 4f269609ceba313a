package utils

import (
	"os"
	"sync"
	"time"
)

// cacheItem remembers the file state a value was computed from
type cacheItem[V any] struct {
	value   V
	modTime time.Time
	size    int64
}

// Cache holds values derived from files and drops them once the file changes
// on disk. It is safe for concurrent use.
type Cache[K comparable, V any] struct {
	items map[K]*cacheItem[V]
	mutex sync.RWMutex
}

// NewCache creates a new generic cache
func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{items: make(map[K]*cacheItem[V])}
}

// Get returns the value cached for key if filePath still has the size and
// modification time it had when the value was stored
func (c *Cache[K, V]) Get(key K, filePath string) (V, bool) {
	var zero V

	c.mutex.RLock()
	item, exists := c.items[key]
	c.mutex.RUnlock()
	if !exists {
		return zero, false
	}

	stat, err := os.Stat(filePath)
	if err == nil && stat.ModTime().Equal(item.modTime) && stat.Size() == item.size {
		return item.value, true
	}

	c.Delete(key)
	return zero, false
}

// Set stores value together with the current state of filePath
func (c *Cache[K, V]) Set(key K, value V, filePath string) error {
	stat, err := os.Stat(filePath)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items[key] = &cacheItem[V]{value: value, modTime: stat.ModTime(), size: stat.Size()}
	return nil
}

func (c *Cache[K, V]) Delete(key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
}

func (c *Cache[K, V]) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}
