package cache

import (
	"sync"
	"time"
)

// Item represents a cached item with expiration
type Item struct {
	Value      interface{}
	Expiration int64
}

// Cache is a thread-safe in-memory cache
type Cache struct {
	items map[string]Item
	mu    sync.RWMutex
	ttl   time.Duration
}

// New creates a new cache with the specified default TTL
func New(ttl time.Duration) *Cache {
	c := &Cache{
		items: make(map[string]Item),
		ttl:   ttl,
	}

	go c.cleanup()

	return c
}

// Set stores a value in the cache with the default TTL
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = Item{
		Value:      value,
		Expiration: time.Now().Add(c.ttl).UnixNano(),
	}
}

// Get retrieves a value from the cache
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found {
		return nil, false
	}

	if time.Now().UnixNano() > item.Expiration {
		return nil, false
	}

	return item.Value, true
}

// GetOrSet retrieves a value from cache or sets it using the provided function
func (c *Cache) GetOrSet(key string, fn func() (interface{}, error)) (interface{}, error) {
	if value, found := c.Get(key); found {
		return value, nil
	}

	value, err := fn()
	if err != nil {
		return nil, err
	}

	c.Set(key, value)
	return value, nil
}

// cleanup removes expired items periodically
func (c *Cache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now().UnixNano()
		for key, item := range c.items {
			if now > item.Expiration {
				delete(c.items, key)
			}
		}
		c.mu.Unlock()
	}
}

// Hardware identity cache keys
const (
	KeyBrand         = "hw:brand"
	KeyPhysicalCores = "hw:physical_cores"
	KeyFrequency     = "hw:frequency_ghz"
	KeyArchitecture  = "hw:architecture"
)

// HardwareCache caches static hardware identity facts. The underlying
// queries are process-lifetime invariants, so a long TTL is safe; re-query
// after expiry keeps the values honest across driver reloads.
type HardwareCache struct {
	*Cache
}

// NewHardwareCache creates a cache for hardware identity lookups
func NewHardwareCache() *HardwareCache {
	return &HardwareCache{
		Cache: New(time.Hour),
	}
}
