package curation

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache keeps every curation in memory and reloads them from the store once
// they are older than the TTL. A non-positive TTL reloads on every call.
type Cache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time

	mu        sync.RWMutex
	curations []Curation
	loadedAt  time.Time
	loaded    bool

	// generation counts invalidations; a load that started before one is
	// not stored.
	generation uint64

	group singleflight.Group
}

// NewCache creates a cache over store.
func NewCache(store Store, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl, now: time.Now}
}

// Get returns all curations. The returned slice must not be modified.
func (c *Cache) Get(ctx context.Context) ([]Curation, error) {
	if curations, ok := c.fresh(); ok {
		return curations, nil
	}
	v, err, _ := c.group.Do("curations", func() (interface{}, error) {
		if curations, ok := c.fresh(); ok {
			return curations, nil
		}
		c.mu.RLock()
		generation := c.generation
		c.mu.RUnlock()

		curations, err := c.store.List(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.generation == generation {
			c.curations = curations
			c.loadedAt = c.now()
			c.loaded = true
		}
		c.mu.Unlock()
		return curations, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Curation), nil
}

// Invalidate forces the next Get to reload.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.curations = nil
	c.generation++
	c.mu.Unlock()
	c.group.Forget("curations")
}

func (c *Cache) fresh() ([]Curation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded || c.now().Sub(c.loadedAt) >= c.ttl {
		return nil, false
	}
	return c.curations, true
}
