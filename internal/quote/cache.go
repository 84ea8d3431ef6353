package quote

import (
	"sync"
	"time"

	"papertrader/types"
)

// Cache is a short-lived quote cache keyed by symbol. It is an explicit
// component handed to the Client, with an injectable clock so the
// fresh/stale boundary is testable.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	quote    types.Quote
	storedAt time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached quote for symbol if it is still fresh.
func (c *Cache) Get(symbol string) (types.Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[symbol]
	if !ok {
		return types.Quote{}, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, symbol)
		return types.Quote{}, false
	}
	return entry.quote, true
}

func (c *Cache) Put(quote types.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[quote.Symbol] = cacheEntry{quote: quote, storedAt: c.now()}
}
