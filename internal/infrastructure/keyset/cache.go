package keyset

import (
	"crypto/rsa"
	"sync"
	"time"
)

type cacheEntry struct {
	key       *rsa.PublicKey
	fetchedAt time.Time
}

// keyCache maps key identifiers to public keys. It holds at most maxEntries
// entries, evicting the oldest insertion on overflow, and treats entries
// older than maxAge as absent.
type keyCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	order      []string // insertion order, oldest first
	maxEntries int
	maxAge     time.Duration
}

func newKeyCache(maxEntries int, maxAge time.Duration) *keyCache {
	return &keyCache{
		entries:    make(map[string]cacheEntry, maxEntries),
		order:      make([]string, 0, maxEntries),
		maxEntries: maxEntries,
		maxAge:     maxAge,
	}
}

// get returns the cached key for kid, or false when the entry is missing or stale
func (c *keyCache) get(kid string, now time.Time) (*rsa.PublicKey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[kid]
	if !ok {
		return nil, false
	}
	if now.Sub(entry.fetchedAt) > c.maxAge {
		return nil, false
	}
	return entry.key, true
}

// put stores the key for kid, evicting the oldest entry when the cache is full
func (c *keyCache) put(kid string, key *rsa.PublicKey, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[kid]; ok {
		c.entries[kid] = cacheEntry{key: key, fetchedAt: now}
		return
	}

	if len(c.entries) >= c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[kid] = cacheEntry{key: key, fetchedAt: now}
	c.order = append(c.order, kid)
}

// size returns the number of cached entries, stale included
func (c *keyCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
