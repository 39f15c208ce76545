package catalog

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheState int

const (
	cacheMiss cacheState = iota
	cacheFresh
	cacheExpired
)

type timed[T any] struct {
	value    T
	storedAt time.Time
}

// ttlCache is a bounded response cache. Expiry is evaluated at read
// time: expired entries stay resident so they can serve as a degraded
// fallback when the API is unreachable, and are only displaced by a
// fresh fetch or LRU pressure.
type ttlCache[T any] struct {
	entries *lru.Cache[string, timed[T]]
	ttl     time.Duration
}

func newTTLCache[T any](size int, ttl time.Duration) (*ttlCache[T], error) {
	entries, err := lru.New[string, timed[T]](size)
	if err != nil {
		return nil, err
	}
	return &ttlCache[T]{entries: entries, ttl: ttl}, nil
}

func (c *ttlCache[T]) get(key string) (T, cacheState) {
	e, ok := c.entries.Get(key)
	if !ok {
		var zero T
		return zero, cacheMiss
	}
	if time.Since(e.storedAt) > c.ttl {
		return e.value, cacheExpired
	}
	return e.value, cacheFresh
}

func (c *ttlCache[T]) put(key string, v T) {
	c.entries.Add(key, timed[T]{value: v, storedAt: time.Now()})
}

func (c *ttlCache[T]) purge() {
	c.entries.Purge()
}

func (c *ttlCache[T]) len() int {
	return c.entries.Len()
}
